package unread_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/unread"
	"github.com/mnguyen/estatedesk/internal/watermark"
)

// countSource returns a source whose count is read from the pointer, so
// tests can change it between recomputations.
func countSource(category unread.Category, count *int) unread.Source {
	return unread.Source{
		Category: category,
		Label:    string(category),
		Target:   string(category),
		Count:    func() int { return *count },
	}
}

func newTestEngine(t *testing.T) (*unread.Engine, *int) {
	t.Helper()

	engine := unread.NewEngine(model.RoleAdmin, "u1", watermark.NewMemoryStore(), nil)
	require.NoError(t, engine.Load(context.Background()))

	count := 0
	engine.SetSources([]unread.Source{
		countSource(unread.CategoryInquiries, &count),
	})
	return engine, &count
}

func TestEngine_FirstPopulationDoesNotRing(t *testing.T) {
	engine, count := newTestEngine(t)

	// Pre-existing backlog present at mount.
	*count = 4
	snap := engine.Recompute()
	assert.False(t, snap.StartRinging, "page-load backlog must not ring")
	assert.Equal(t, 4, snap.Total)
}

func TestEngine_IncreaseAfterPopulationRings(t *testing.T) {
	engine, count := newTestEngine(t)

	*count = 2
	engine.Recompute()

	*count = 5
	snap := engine.Recompute()
	assert.True(t, snap.StartRinging)
}

func TestEngine_PolledSequenceRingsOnce(t *testing.T) {
	engine, count := newTestEngine(t)

	sequence := []int{0, 0, 2, 2, 5, 5}
	var rings int
	for _, c := range sequence {
		*count = c
		if engine.Recompute().StartRinging {
			rings++
		}
	}

	// The 0->2 step is the first nonzero population and is suppressed;
	// only 2->5 rings.
	assert.Equal(t, 1, rings)
}

func TestEngine_DecreaseDoesNotRing(t *testing.T) {
	engine, count := newTestEngine(t)

	*count = 2
	engine.Recompute()
	*count = 5
	engine.Recompute()

	*count = 3
	snap := engine.Recompute()
	assert.False(t, snap.StartRinging)

	// A later increase rings relative to the decreased value.
	*count = 4
	snap = engine.Recompute()
	assert.True(t, snap.StartRinging)
}

func TestEngine_RingTokenAdvancesPerQualifyingIncrease(t *testing.T) {
	engine, count := newTestEngine(t)

	*count = 1
	engine.Recompute()

	*count = 3
	first := engine.Recompute()
	require.True(t, first.StartRinging)

	// A further increase during the ringing window restarts it: the
	// token moves on, so the first window's expiry becomes stale.
	*count = 5
	second := engine.Recompute()
	require.True(t, second.StartRinging)
	assert.Greater(t, second.RingToken, first.RingToken)
}

func TestEngine_DeltaClampedAtZero(t *testing.T) {
	engine, count := newTestEngine(t)

	*count = 10
	engine.Recompute()
	engine.OpenPanel(context.Background())

	// Items resolved by another actor while the watermark stays put.
	*count = 4
	snap := engine.Recompute()
	assert.Equal(t, 0, snap.Delta, "delta must never go negative")
	assert.False(t, snap.ShowBadge)
}

func TestEngine_OpenPanelFreezesBadge(t *testing.T) {
	engine, count := newTestEngine(t)

	*count = 3
	snap := engine.Recompute()
	assert.Equal(t, 3, snap.Delta)
	assert.True(t, snap.ShowBadge)

	engine.OpenPanel(context.Background())
	snap = engine.Recompute()
	assert.Equal(t, 0, snap.Delta)
	assert.False(t, snap.ShowBadge)

	// New arrivals grow the delta from the watermark, not from zero.
	*count = 5
	snap = engine.Recompute()
	assert.Equal(t, 2, snap.Delta)
	assert.True(t, snap.ShowBadge)
}

func TestEngine_WatermarksPersistAcrossInstances(t *testing.T) {
	store := watermark.NewMemoryStore()
	ctx := context.Background()

	engine := unread.NewEngine(model.RoleAdmin, "u1", store, nil)
	require.NoError(t, engine.Load(ctx))

	count := 7
	engine.SetSources([]unread.Source{countSource(unread.CategoryListings, &count)})
	engine.Recompute()
	engine.OpenPanel(ctx)
	engine.AdvanceCategory(ctx, watermark.CategoryUsers, 42)

	// A fresh mount for the same (principal, role) sees the marks.
	reloaded := unread.NewEngine(model.RoleAdmin, "u1", store, nil)
	require.NoError(t, reloaded.Load(ctx))
	reloaded.SetSources([]unread.Source{countSource(unread.CategoryListings, &count)})

	snap := reloaded.Recompute()
	assert.Equal(t, 0, snap.Delta)
	assert.Equal(t, 42, reloaded.CategoryMark(watermark.CategoryUsers))
}

func TestEngine_CompositeSumsHeterogeneousSources(t *testing.T) {
	engine := unread.NewEngine(model.RoleAdmin, "u1", watermark.NewMemoryStore(), nil)
	require.NoError(t, engine.Load(context.Background()))

	listings, inquiries, users := 2, 3, 1
	engine.SetSources([]unread.Source{
		countSource(unread.CategoryListings, &listings),
		countSource(unread.CategoryInquiries, &inquiries),
		countSource(unread.CategoryUsers, &users),
	})

	snap := engine.Recompute()
	assert.Equal(t, 6, snap.Total)
}
