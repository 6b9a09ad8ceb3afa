package watermark

import (
	"context"
	"fmt"

	"github.com/mnguyen/estatedesk/internal/model"
)

// Category names a badge source whose "last seen" watermark is tracked
// separately.
type Category string

const (
	// CategoryPanel is advanced when the bell panel is opened.
	CategoryPanel Category = "panel"

	// CategoryUsers is advanced when the admin views the users tab.
	CategoryUsers Category = "users"
)

// Key builds the storage key for a (role, principal, category) tuple.
func Key(role model.Role, principalID string, category Category) string {
	return fmt.Sprintf("%s:%s:%s", role, principalID, category)
}

// WelcomeKey builds the storage key for the one-time welcome flag.
func WelcomeKey(role model.Role, principalID string) string {
	return fmt.Sprintf("welcome:%s:%s", role, principalID)
}

// Store persists per-category "last seen" counters and one-time flags
// across sessions. Implementations are durable per machine but not
// coordinated across concurrent processes: the last writer wins, which
// can make a badge under- or over-report when two sessions run at once.
type Store interface {
	// Get returns the persisted counter for key, or 0 if it was never set.
	Get(ctx context.Context, key string) (int, error)

	// Set persists the counter for key.
	Set(ctx context.Context, key string, value int) error

	// GetFlag returns whether the boolean flag for key was ever set.
	GetFlag(ctx context.Context, key string) (bool, error)

	// SetFlag marks the boolean flag for key.
	SetFlag(ctx context.Context, key string) error
}
