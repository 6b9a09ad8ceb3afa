package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/mnguyen/estatedesk/internal/api"
	"github.com/mnguyen/estatedesk/internal/cache"
	"github.com/mnguyen/estatedesk/internal/credential"
	"github.com/mnguyen/estatedesk/internal/keys"
	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/realtime"
	"github.com/mnguyen/estatedesk/internal/session"
	"github.com/mnguyen/estatedesk/internal/theme"
	"github.com/mnguyen/estatedesk/internal/ui"
	"github.com/mnguyen/estatedesk/internal/ui/bell"
	"github.com/mnguyen/estatedesk/internal/ui/dashboard"
	helpview "github.com/mnguyen/estatedesk/internal/ui/help"
	"github.com/mnguyen/estatedesk/internal/ui/login"
	"github.com/mnguyen/estatedesk/internal/ui/toast"
	"github.com/mnguyen/estatedesk/internal/unread"
	"github.com/mnguyen/estatedesk/internal/watermark"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewDashboard
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and the per-principal session.
type Model struct {
	cfg   *model.AppConfig
	log   *zap.Logger
	marks watermark.Store
	api   *api.Client
	keys  *keys.KeyMap

	currentView ViewState
	layout      ui.Layout
	ready       bool

	sess      *session.Session
	loginView login.Model
	dashView  dashboard.Model
	bellView  bell.Model
	toastView toast.Model
	helpView  helpview.Model

	channelLive bool
}

// New creates the root application model. When user is non-nil a stored
// token was already validated and the session opens immediately;
// otherwise the login form is shown first.
func New(
	cfg *model.AppConfig,
	client *api.Client,
	marks watermark.Store,
	user *model.User,
	log *zap.Logger,
) Model {
	m := Model{
		cfg:         cfg,
		log:         log,
		marks:       marks,
		api:         client,
		keys:        keys.DefaultKeyMap(),
		currentView: ViewLogin,
		loginView:   login.New(client, 80, 24),
		toastView:   toast.New(80),
	}
	m.helpView = helpview.New(m.keys, 80, 24)

	if user != nil {
		m.openSession(*user)
	}

	return m
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	if m.sess != nil {
		return tea.Batch(
			m.sess.Start(context.Background()),
			m.dashView.Init(),
			m.welcomeCmd(),
		)
	}
	return m.loginView.Init()
}

// openSession builds the per-principal pipeline: cache, channel, unread
// engine, dashboard, and bell, all owned by one session object.
func (m *Model) openSession(user model.User) {
	pollInterval := time.Duration(m.cfg.Display.PollIntervalSec) * time.Second
	ringFor := time.Duration(m.cfg.Display.RingingMs) * time.Millisecond
	highlightFor := time.Duration(m.cfg.Display.HighlightMs) * time.Millisecond

	c := cache.New(m.api, pollInterval, m.log)

	var channel *realtime.Channel
	if m.cfg.Socket.URL != "" {
		channel = realtime.New(
			m.cfg.Socket.URL,
			m.cfg.Socket.ReconnectAttempts,
			time.Duration(m.cfg.Socket.ReconnectDelaySec)*time.Second,
			m.log,
		)
	}

	engine := unread.NewEngine(user.Role, user.ID, m.marks, m.log)
	if err := engine.Load(context.Background()); err != nil {
		m.log.Warn("loading watermarks", zap.Error(err))
	}

	m.sess = session.New(user, m.api, c, channel, m.marks, m.log)
	m.dashView = dashboard.New(
		m.api, user.Role, engine, m.marks, c,
		m.keys, m.log, pollInterval, highlightFor,
		m.layout.ContentWidth(), m.layout.ContentHeight(),
	)
	m.bellView = bell.New(c, engine, m.keys, ringFor)
	m.currentView = ViewDashboard
}

// welcomeCmd emits the one-time agent welcome notice, gated by the
// persisted flag.
func (m Model) welcomeCmd() tea.Cmd {
	if m.sess == nil || m.sess.User.Role != model.RoleAgent {
		return nil
	}

	sess := m.sess
	marks := m.marks
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		flagKey := watermark.WelcomeKey(sess.User.Role, sess.User.ID)
		shown, err := marks.GetFlag(ctx, flagKey)
		if err != nil || shown {
			return nil
		}
		if err := marks.SetFlag(ctx, flagKey); err != nil {
			return nil
		}
		return toast.ShowMsg{
			Type:    model.NotificationSuccess,
			Message: fmt.Sprintf("Welcome, %s! Your agent dashboard is ready.", sess.User.Name),
		}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.dashView.SetSize(contentWidth, contentHeight)
		m.toastView.SetWidth(contentWidth)
		m.bellView.SetWidth(min(contentWidth, 60))
		if m.currentView == ViewLogin {
			var cmd tea.Cmd
			m.loginView, cmd = m.loginView.Update(msg)
			return m, cmd
		}
		return m, nil

	case login.DoneMsg:
		return m.handleLogin(msg)

	case cache.RefreshedMsg:
		if m.sess == nil {
			return m, nil
		}
		ringCmd := m.bellView.Recompute()
		return m, tea.Batch(ringCmd, m.sess.Cache.WaitForNextResult())

	case cache.MutationFailedMsg:
		var cmd tea.Cmd
		m.toastView, cmd = m.toastView.Update(toast.ShowMsg{
			Type:    model.NotificationError,
			Message: msg.Message,
		})
		next := tea.Cmd(nil)
		if m.sess != nil {
			next = m.sess.Cache.WaitForNextResult()
		}
		return m, tea.Batch(cmd, next)

	case session.PushNotificationMsg:
		return m.handlePush(msg)

	case session.ChannelStateMsg:
		m.channelLive = msg.Connected
		if m.sess == nil {
			return m, nil
		}
		return m, m.sess.WaitForNextEvent()

	case dashboard.DataMsg:
		var cmd tea.Cmd
		m.dashView, cmd = m.dashView.Update(msg)
		return m, tea.Batch(cmd, m.bellView.Recompute())

	case bell.NavigateMsg:
		var cmd tea.Cmd
		m.dashView, cmd = m.dashView.Navigate(msg.Link, msg.NotificationID)
		return m, cmd

	case bell.SelectCategoryMsg:
		m.dashView = m.dashView.SelectCategory(msg.Target)
		return m, nil

	case toast.ShowMsg:
		var cmd tea.Cmd
		m.toastView, cmd = m.toastView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	// Component-private messages (ring and highlight timers, poll
	// ticks, toast expiry) are routed to every component; each ignores
	// what it does not own.
	return m.routeToComponents(msg)
}

// handleLogin finishes a login attempt: the token is persisted and a
// session opened, or the form is reset with the error.
func (m Model) handleLogin(msg login.DoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Warn("login failed", zap.Error(msg.Err))
		text := "Login failed"
		if api.IsAuthError(msg.Err) {
			text = "Invalid email or password"
		}
		return m, m.loginView.Fail(text)
	}

	if err := credential.Set(credential.TokenKey, msg.Token); err != nil {
		m.log.Warn("storing token", zap.Error(err))
	}

	m.openSession(msg.User)
	m.dashView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
	return m, tea.Batch(
		m.sess.Start(context.Background()),
		m.dashView.Init(),
		m.welcomeCmd(),
	)
}

// handlePush toasts a pushed notification (unless the principal opted
// out) and recomputes the badge.
func (m Model) handlePush(msg session.PushNotificationMsg) (tea.Model, tea.Cmd) {
	if m.sess == nil {
		return m, nil
	}

	var cmds []tea.Cmd
	if m.sess.User.ReceivePushNotifications {
		var cmd tea.Cmd
		m.toastView, cmd = m.toastView.Update(toast.ShowMsg{
			Type:    model.ParseNotificationType(msg.Payload.Type),
			Title:   msg.Payload.Title,
			Message: msg.Payload.Message,
		})
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.bellView.Recompute(), m.sess.WaitForNextEvent())
	return m, tea.Batch(cmds...)
}

// handleKeys processes global keys, then routes to the active view. An
// open notification panel captures navigation keys first.
func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.currentView == ViewLogin {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewHelp {
			m.currentView = ViewDashboard
			return m, nil
		}
		m.teardown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = ViewDashboard
		} else {
			m.currentView = ViewHelp
			m.bellView.Close()
		}
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		return m.logout()

	case key.Matches(msg, m.keys.Refresh):
		if m.sess != nil {
			m.sess.Cache.Invalidate()
		}
		var cmd tea.Cmd
		m.dashView, cmd = m.dashView.Update(msg)
		return m, cmd
	}

	if m.currentView == ViewHelp {
		if key.Matches(msg, m.keys.Back) {
			m.currentView = ViewDashboard
		}
		return m, nil
	}

	// The panel owns keys while open; the toggle key opens it.
	if m.bellView.Open() || key.Matches(msg, m.keys.Bell) {
		var cmd tea.Cmd
		m.bellView, cmd = m.bellView.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.dashView, cmd = m.dashView.Update(msg)
	return m, cmd
}

// logout tears the session down, clears the stored token, and returns
// to the login form.
func (m Model) logout() (tea.Model, tea.Cmd) {
	m.teardown()
	if err := credential.Delete(credential.TokenKey); err != nil {
		m.log.Debug("clearing token", zap.Error(err))
	}

	m.sess = nil
	m.api.SetToken("")
	m.currentView = ViewLogin
	m.loginView = login.New(m.api, m.layout.ContentWidth(), m.layout.ContentHeight())
	return m, m.loginView.Init()
}

// teardown closes the session exactly once.
func (m *Model) teardown() {
	if m.sess != nil {
		m.sess.Close()
	}
}

// routeToComponents forwards a message to each stateful component.
func (m Model) routeToComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.toastView, cmd = m.toastView.Update(msg)
	cmds = append(cmds, cmd)

	if m.sess != nil {
		m.bellView, cmd = m.bellView.Update(msg)
		cmds = append(cmds, cmd)

		m.dashView, cmd = m.dashView.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the current view inside the standard layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.currentView == ViewLogin {
		return m.loginView.View()
	}

	title := "EstateDesk"
	if m.sess != nil {
		title = fmt.Sprintf("EstateDesk · %s (%s)", m.sess.User.Name, m.sess.User.Role)
	}
	header := m.layout.RenderHeader(title, m.bellView.ViewBell())

	var body string
	if m.currentView == ViewHelp {
		body = m.helpView.View()
	} else {
		body = m.dashView.View()
	}

	if panel := m.bellView.ViewPanel(); panel != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, panel, body)
	}
	if t := m.toastView.View(); t != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, t, body)
	}

	connState := "polling"
	if m.channelLive {
		connState = "live"
	}
	unreadLabel := ""
	if m.sess != nil {
		unreadLabel = fmt.Sprintf("%d unread · ", m.sess.Cache.UnreadCount())
	}
	status := m.layout.RenderStatusBar(
		theme.HelpStyle.Render("? help · n notifications · q quit"),
		unreadLabel+connState,
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}
