package toast

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/theme"
)

// ShowMsg displays a transient toast. Title is optional.
type ShowMsg struct {
	Type    model.NotificationType
	Title   string
	Message string
}

// expireMsg dismisses a toast. Stale expirations (from a toast that was
// already replaced) are ignored via the sequence number.
type expireMsg struct {
	seq int
}

// displayDuration is how long a toast stays on screen.
const displayDuration = 4 * time.Second

// Model renders one transient toast line at a time. A new toast
// replaces the current one and restarts the dismiss timer.
type Model struct {
	visible bool
	current ShowMsg
	seq     int
	width   int
}

// New creates an empty toast component.
func New(width int) Model {
	return Model{width: width}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles toast messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ShowMsg:
		m.visible = true
		m.current = msg
		m.seq++
		seq := m.seq
		return m, tea.Tick(displayDuration, func(time.Time) tea.Msg {
			return expireMsg{seq: seq}
		})

	case expireMsg:
		if msg.seq == m.seq {
			m.visible = false
		}
		return m, nil
	}

	return m, nil
}

// SetWidth updates the render width.
func (m *Model) SetWidth(width int) {
	if width > 0 {
		m.width = width
	}
}

// View renders the toast, or an empty string when nothing is showing.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	text := m.current.Message
	if m.current.Title != "" {
		text = m.current.Title + ": " + text
	}

	return theme.NotificationStyle(m.current.Type).
		MaxWidth(m.width).
		Render(text)
}
