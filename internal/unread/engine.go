package unread

import (
	"context"

	"go.uber.org/zap"

	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/watermark"
)

// Snapshot is the result of one badge recomputation.
type Snapshot struct {
	// Total is the composite count summed across all sources.
	Total int

	// Delta is Total minus the panel watermark, clamped at 0.
	Delta int

	// ShowBadge reports whether the bell badge should be visible.
	ShowBadge bool

	// StartRinging is true when this recomputation observed a
	// qualifying increase and the bell should (re)start ringing.
	StartRinging bool

	// RingToken increments on every qualifying increase. The ringing
	// timer carries the token it was started with so a restarted
	// window invalidates the previous timer's expiry.
	RingToken int
}

// Engine converts raw per-category counts into a stable badge value and
// a one-shot ringing trigger for one dashboard instance. Watermarks are
// loaded from the store at mount and re-persisted on every advance.
//
// The ringing rule follows the bell: a strictly increasing composite
// count rings, except that the first nonzero population after mount is
// suppressed so a pre-existing backlog does not ring on page load. The
// previously observed count is updated on every recomputation, whether
// or not a transition fires.
type Engine struct {
	role        model.Role
	principalID string
	marks       watermark.Store
	log         *zap.Logger

	sources   []Source
	prev      int
	panelMark int
	catMarks  map[watermark.Category]int
	ringToken int
	lastTotal int
}

// NewEngine creates an engine for one (principal, role) dashboard.
func NewEngine(
	role model.Role,
	principalID string,
	marks watermark.Store,
	log *zap.Logger,
) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		role:        role,
		principalID: principalID,
		marks:       marks,
		log:         log,
		catMarks:    make(map[watermark.Category]int),
	}
}

// Load initializes the watermarks from persisted storage. Missing keys
// default to 0.
func (e *Engine) Load(ctx context.Context) error {
	panelMark, err := e.marks.Get(ctx, e.key(watermark.CategoryPanel))
	if err != nil {
		return err
	}
	e.panelMark = panelMark

	usersMark, err := e.marks.Get(ctx, e.key(watermark.CategoryUsers))
	if err != nil {
		return err
	}
	e.catMarks[watermark.CategoryUsers] = usersMark

	return nil
}

// SetSources registers the badge sources for this dashboard's role.
func (e *Engine) SetSources(sources []Source) {
	e.sources = sources
}

// Sources returns the registered badge sources for panel rendering.
func (e *Engine) Sources() []Source {
	return e.sources
}

// Recompute sums the sources and evaluates the badge and ringing state.
// Called on every poll tick.
func (e *Engine) Recompute() Snapshot {
	total := Total(e.sources)
	e.lastTotal = total

	ring := e.observe(total)
	if ring {
		e.ringToken++
	}

	delta := total - e.panelMark
	if delta < 0 {
		// The backlog shrank under the watermark (another actor
		// resolved items); never report a negative badge.
		delta = 0
	}

	return Snapshot{
		Total:        total,
		Delta:        delta,
		ShowBadge:    delta > 0,
		StartRinging: ring,
		RingToken:    e.ringToken,
	}
}

// observe updates the previously observed count and reports whether the
// change qualifies for ringing.
func (e *Engine) observe(total int) bool {
	if e.prev == 0 && total > 0 {
		// First nonzero population after mount; swallow the backlog.
		e.prev = total
		return false
	}

	ring := total > e.prev
	e.prev = total
	return ring
}

// OpenPanel advances the panel watermark to the last computed total,
// freezing further delta growth until new items arrive. Called when the
// bell panel is opened.
func (e *Engine) OpenPanel(ctx context.Context) {
	e.panelMark = e.lastTotal
	if err := e.marks.Set(ctx, e.key(watermark.CategoryPanel), e.panelMark); err != nil {
		e.log.Warn("persisting panel watermark", zap.Error(err))
	}
}

// CategoryMark returns the persisted watermark for a separately tracked
// category (currently only the admin user count).
func (e *Engine) CategoryMark(cat watermark.Category) int {
	return e.catMarks[cat]
}

// AdvanceCategory moves a single category's watermark to value, e.g.
// when the admin views the users tab.
func (e *Engine) AdvanceCategory(ctx context.Context, cat watermark.Category, value int) {
	e.catMarks[cat] = value
	if err := e.marks.Set(ctx, e.key(cat), value); err != nil {
		e.log.Warn("persisting category watermark",
			zap.String("category", string(cat)), zap.Error(err))
	}
}

func (e *Engine) key(cat watermark.Category) string {
	return watermark.Key(e.role, e.principalID, cat)
}
