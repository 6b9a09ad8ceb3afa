package testutil

import (
	"testing"

	"github.com/mnguyen/estatedesk/internal/watermark"
)

// NewTestStore creates an in-memory watermark store with all migrations
// applied. It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *watermark.SQLiteStore {
	t.Helper()

	s, err := watermark.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
