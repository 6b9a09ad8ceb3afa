package bell

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mnguyen/estatedesk/internal/cache"
	"github.com/mnguyen/estatedesk/internal/keys"
	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/theme"
	"github.com/mnguyen/estatedesk/internal/unread"
)

// NavigateMsg is sent when the user selects an unread notification that
// carries a deep link. The notification id rides along so the target
// view can highlight the referenced row.
type NavigateMsg struct {
	Link           string
	NotificationID string
}

// SelectCategoryMsg is sent when the user selects a category line in
// the panel (e.g. "pending listings"). The dashboard switches to the
// category's tab and advances its watermark.
type SelectCategoryMsg struct {
	Category unread.Category
	Target   string
}

// ringStopMsg ends a ringing window. It carries the token of the window
// that started it; a window restarted by a newer qualifying increase
// makes older expirations stale.
type ringStopMsg struct {
	token int
}

// itemKind distinguishes category summary lines from individual
// notifications in the panel.
type itemKind int

const (
	kindCategory itemKind = iota
	kindNotification
)

// panelItem is one selectable row of the dropdown panel.
type panelItem struct {
	kind         itemKind
	source       unread.Source
	count        int
	notification model.Notification
}

// Model is the bell plus dropdown panel component. It renders only the
// unread projection; read notifications never appear here.
type Model struct {
	cache        *cache.Cache
	engine       *unread.Engine
	keys         *keys.KeyMap
	ringDuration time.Duration

	open      bool
	ringing   bool
	ringToken int
	badge     unread.Snapshot
	items     []panelItem
	cursor    int
	width     int
}

// New creates a bell component backed by the given cache and engine.
func New(c *cache.Cache, e *unread.Engine, k *keys.KeyMap, ringDuration time.Duration) Model {
	if ringDuration <= 0 {
		ringDuration = 3 * time.Second
	}
	return Model{
		cache:        c,
		engine:       e,
		keys:         k,
		ringDuration: ringDuration,
		width:        40,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Recompute re-evaluates the badge after any data refresh and starts
// (or restarts) the ringing window on a qualifying increase.
func (m *Model) Recompute() tea.Cmd {
	snap := m.engine.Recompute()
	m.badge = snap

	if m.open {
		m.rebuildItems()
	}

	if !snap.StartRinging {
		return nil
	}

	m.ringing = true
	m.ringToken = snap.RingToken
	token := snap.RingToken
	return tea.Tick(m.ringDuration, func(time.Time) tea.Msg {
		return ringStopMsg{token: token}
	})
}

// Update handles messages for the bell component.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ringStopMsg:
		// A restarted window carries a newer token; only the
		// current window's expiry stops the ringing.
		if msg.token == m.ringToken {
			m.ringing = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

// handleKeys processes key input. Only the toggle key is handled while
// the panel is closed.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Bell) {
		if m.open {
			m.open = false
			return m, nil
		}
		return m.openPanel()
	}

	if !m.open {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.open = false
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkAllRead):
		m.open = false
		return m, m.cache.MarkAllRead()

	case key.Matches(msg, m.keys.Select):
		return m.selectItem()
	}

	return m, nil
}

// openPanel opens the dropdown and freezes the badge by advancing the
// panel watermark to the current total.
func (m Model) openPanel() (Model, tea.Cmd) {
	m.open = true
	m.cursor = 0
	m.engine.OpenPanel(context.Background())
	m.rebuildItems()
	m.badge = m.engine.Recompute()
	return m, nil
}

// selectItem acts on the row under the cursor: category lines navigate
// to their tab, notifications are marked read and navigated to.
func (m Model) selectItem() (Model, tea.Cmd) {
	if m.cursor >= len(m.items) {
		return m, nil
	}
	item := m.items[m.cursor]
	m.open = false

	if item.kind == kindCategory {
		return m, func() tea.Msg {
			return SelectCategoryMsg{
				Category: item.source.Category,
				Target:   item.source.Target,
			}
		}
	}

	n := item.notification
	cmds := []tea.Cmd{m.cache.MarkRead(n.ID)}
	if n.Link != "" {
		link := n.Link
		id := n.ID
		cmds = append(cmds, func() tea.Msg {
			return NavigateMsg{Link: link, NotificationID: id}
		})
	}
	return m, tea.Batch(cmds...)
}

// rebuildItems recomputes the panel rows: one line per non-empty
// category source, then each unread notification most recent first.
func (m *Model) rebuildItems() {
	m.items = m.items[:0]

	for _, src := range m.engine.Sources() {
		if src.Category == unread.CategoryNotifications || src.Count == nil {
			continue
		}
		if count := src.Count(); count > 0 {
			m.items = append(m.items, panelItem{
				kind:   kindCategory,
				source: src,
				count:  count,
			})
		}
	}

	for _, n := range m.cache.Unread() {
		m.items = append(m.items, panelItem{
			kind:         kindNotification,
			notification: n,
		})
	}

	if m.cursor >= len(m.items) {
		m.cursor = 0
	}
}

// Open reports whether the dropdown panel is showing.
func (m Model) Open() bool {
	return m.open
}

// Close closes the panel, e.g. on a view change.
func (m *Model) Close() {
	m.open = false
}

// SetWidth updates the panel width.
func (m *Model) SetWidth(width int) {
	if width > 0 {
		m.width = width
	}
}

// ViewBell renders the header bell with its badge.
func (m Model) ViewBell() string {
	icon := "🔔"
	if m.ringing {
		icon = "🔔!"
	}

	if !m.badge.ShowBadge {
		return icon
	}

	badge := fmt.Sprintf("%d", m.badge.Delta)
	if m.badge.Delta > 9 {
		badge = "9+"
	}
	return icon + " " + theme.BadgeStyle.Render(badge)
}

// ViewPanel renders the dropdown panel, or an empty string when closed.
func (m Model) ViewPanel() string {
	if !m.open {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Render("Notifications")

	var rows []string
	if len(m.items) == 0 {
		rows = append(rows, theme.HelpStyle.Render("No new notifications"))
	}

	for i, item := range m.items {
		var line string
		switch item.kind {
		case kindCategory:
			line = fmt.Sprintf("%s (%d)", item.source.Label, item.count)
		case kindNotification:
			n := item.notification
			line = theme.NotificationStyle(n.Type).Render(n.Message) +
				"  " + theme.HelpStyle.Render(humanize.Time(n.CreatedAt))
		}

		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		rows = append(rows, line)
	}

	footer := theme.HelpStyle.Render("enter open · A mark all read · esc close")

	content := lipgloss.JoinVertical(lipgloss.Left,
		append(append([]string{title}, rows...), footer)...)

	return theme.PanelStyle.Width(m.width).Render(content)
}
