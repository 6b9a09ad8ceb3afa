package login

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/mnguyen/estatedesk/internal/api"
	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/theme"
)

// DoneMsg is sent when a login attempt completed.
type DoneMsg struct {
	User  model.User
	Token string
	Err   error
}

// loginTimeout bounds the login request.
const loginTimeout = 15 * time.Second

// Model is the email/password login form shown when no valid bearer
// token is stored.
type Model struct {
	api      *api.Client
	form     *huh.Form
	email    string
	password string
	errText  string
	width    int
	height   int
}

// New creates a login form bound to the API client.
func New(client *api.Client, width, height int) Model {
	m := Model{
		api:    client,
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&m.email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password),
		),
	).WithWidth(m.width - 4)
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update drives the form; on completion the credentials are exchanged
// for a token.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		email := m.email
		password := m.password
		client := m.api
		return m, tea.Batch(cmd, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
			defer cancel()

			resp, err := client.Login(ctx, email, password)
			if err != nil {
				return DoneMsg{Err: err}
			}
			return DoneMsg{User: resp.User, Token: resp.Token}
		})
	}

	return m, cmd
}

// Fail resets the form after a rejected login.
func (m *Model) Fail(errText string) tea.Cmd {
	m.errText = errText
	m.password = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// View renders the form with any error line.
func (m Model) View() string {
	view := m.form.View()
	if m.errText != "" {
		view += "\n" + theme.NotificationStyle(model.NotificationError).Render(m.errText)
	}
	return theme.PanelStyle.Width(m.width - 2).Render(view)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(width - 4)
}
