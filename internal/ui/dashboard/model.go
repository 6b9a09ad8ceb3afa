package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mnguyen/estatedesk/internal/api"
	"github.com/mnguyen/estatedesk/internal/keys"
	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/unread"
	"github.com/mnguyen/estatedesk/internal/watermark"
)

// Tab identifies one dashboard tab.
type Tab string

const (
	TabOverview  Tab = "overview"
	TabListings  Tab = "listings"
	TabInquiries Tab = "inquiries"
	TabUsers     Tab = "users"
)

// DataMsg carries one completed poll of the role's list endpoints.
// Fields not applicable to the role stay nil.
type DataMsg struct {
	Users      []model.User
	Properties []model.Property
	Inquiries  []model.Inquiry
	Err        error
}

// pollTickMsg schedules the next data poll.
type pollTickMsg struct{}

// highlightExpireMsg removes a transient deep-link highlight.
type highlightExpireMsg struct {
	seq int
}

// fetchTimeout bounds one poll of the list endpoints.
const fetchTimeout = 10 * time.Second

// counts holds the latest badge inputs. It is shared by pointer with
// the unread source closures so they always read current values.
type counts struct {
	pendingListings int
	newInquiries    int
	totalUsers      int
}

// UnreadCounter exposes the generic-notification unread count; the
// notification cache satisfies it.
type UnreadCounter interface {
	UnreadCount() int
}

// Model is a per-role dashboard: tabbed category views over the list
// endpoints, polled on a fixed interval, feeding the unread engine's
// composite count, with deep-link row highlighting.
type Model struct {
	api          *api.Client
	role         model.Role
	engine       *unread.Engine
	marks        watermark.Store
	keys         *keys.KeyMap
	log          *zap.Logger
	pollInterval time.Duration
	highlightFor time.Duration

	activeTab  Tab
	cursor     int
	users      []model.User
	properties []model.Property
	inquiries  []model.Inquiry
	counts     *counts
	dataErr    error

	highlightKey string
	highlightSeq int

	width  int
	height int
}

// New creates a dashboard for the given role. The unread engine's
// sources are registered here: each role contributes its category
// variants plus the generic notification count.
func New(
	client *api.Client,
	role model.Role,
	engine *unread.Engine,
	marks watermark.Store,
	notifications UnreadCounter,
	k *keys.KeyMap,
	log *zap.Logger,
	pollInterval time.Duration,
	highlightFor time.Duration,
	width, height int,
) Model {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if highlightFor <= 0 {
		highlightFor = 3 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	m := Model{
		api:          client,
		role:         role,
		engine:       engine,
		marks:        marks,
		keys:         k,
		log:          log,
		pollInterval: pollInterval,
		highlightFor: highlightFor,
		activeTab:    TabOverview,
		counts:       &counts{},
		width:        width,
		height:       height,
	}

	engine.SetSources(m.buildSources(notifications))
	return m
}

// buildSources registers the role's badge contributors. The engine sums
// them generically; the closures read the shared counts so every
// recomputation sees the latest poll.
func (m Model) buildSources(notifications UnreadCounter) []unread.Source {
	c := m.counts
	engine := m.engine

	var sources []unread.Source
	switch m.role {
	case model.RoleAdmin:
		sources = append(sources,
			unread.Source{
				Category: unread.CategoryListings,
				Label:    "pending listings",
				Target:   string(TabListings),
				Count:    func() int { return c.pendingListings },
			},
			unread.Source{
				Category: unread.CategoryInquiries,
				Label:    "new inquiries",
				Target:   string(TabInquiries),
				Count:    func() int { return c.newInquiries },
			},
			unread.Source{
				Category: unread.CategoryUsers,
				Label:    "new users",
				Target:   string(TabUsers),
				Count: func() int {
					delta := c.totalUsers - engine.CategoryMark(watermark.CategoryUsers)
					if delta < 0 {
						return 0
					}
					return delta
				},
			},
		)
	case model.RoleAgent:
		sources = append(sources,
			unread.Source{
				Category: unread.CategoryInquiries,
				Label:    "pending inquiries",
				Target:   string(TabInquiries),
				Count:    func() int { return c.newInquiries },
			},
		)
	}

	sources = append(sources, unread.Source{
		Category: unread.CategoryNotifications,
		Label:    "notifications",
		Target:   string(TabOverview),
		Count:    notifications.UnreadCount,
	})

	return sources
}

// Init starts the data poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchData(), m.tick())
}

// tick schedules the next poll.
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

// fetchData polls the list endpoints the role is entitled to.
func (m Model) fetchData() tea.Cmd {
	client := m.api
	role := m.role

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		var msg DataMsg
		var err error

		switch role {
		case model.RoleAdmin:
			if msg.Users, err = client.GetUsers(ctx); err != nil {
				return DataMsg{Err: err}
			}
			if msg.Properties, err = client.GetAdminProperties(ctx); err != nil {
				return DataMsg{Err: err}
			}
			if msg.Inquiries, err = client.GetContactInquiries(ctx); err != nil {
				return DataMsg{Err: err}
			}
		case model.RoleAgent:
			if msg.Properties, err = client.GetMyProperties(ctx); err != nil {
				return DataMsg{Err: err}
			}
			if msg.Inquiries, err = client.GetMyInquiries(ctx); err != nil {
				return DataMsg{Err: err}
			}
		default:
			if msg.Inquiries, err = client.GetMyInquiries(ctx); err != nil {
				return DataMsg{Err: err}
			}
			if msg.Properties, err = client.GetWishlist(ctx); err != nil {
				return DataMsg{Err: err}
			}
		}

		return msg
	}
}

// Update handles messages for the dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pollTickMsg:
		return m, tea.Batch(m.fetchData(), m.tick())

	case DataMsg:
		return m.applyData(msg), nil

	case highlightExpireMsg:
		if msg.seq == m.highlightSeq {
			m.highlightKey = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

// applyData stores a completed poll and refreshes the shared counts.
// Failed polls keep the previous data; stale-but-present beats empty.
func (m Model) applyData(msg DataMsg) Model {
	if msg.Err != nil {
		m.dataErr = msg.Err
		m.log.Warn("dashboard poll failed", zap.Error(msg.Err))
		return m
	}
	m.dataErr = nil

	switch m.role {
	case model.RoleAdmin:
		m.users = msg.Users
		m.properties = msg.Properties
		m.inquiries = msg.Inquiries
		m.counts.totalUsers = len(msg.Users)
		m.counts.pendingListings = model.CountPending(msg.Properties)
		m.counts.newInquiries = model.CountWithStatus(msg.Inquiries, model.InquiryNew)
	case model.RoleAgent:
		m.properties = msg.Properties
		m.inquiries = msg.Inquiries
		m.counts.newInquiries = model.CountWithStatus(msg.Inquiries, model.InquiryPending)
	default:
		m.inquiries = msg.Inquiries
		m.properties = msg.Properties
	}

	return m
}

// tabsForRole returns the role's tabs in display order. The tab bar and
// the numeric key slots both derive from it, so a rendered label always
// matches its key.
func (m Model) tabsForRole() []Tab {
	tabs := []Tab{TabOverview}
	if m.role != model.RoleUser {
		tabs = append(tabs, TabListings)
	}
	tabs = append(tabs, TabInquiries)
	if m.role == model.RoleAdmin {
		tabs = append(tabs, TabUsers)
	}
	return tabs
}

// tabSlot maps a numeric key to its position in the rendered tab bar.
func (m Model) tabSlot(msg tea.KeyMsg) (int, bool) {
	switch {
	case key.Matches(msg, m.keys.TabOverview):
		return 0, true
	case key.Matches(msg, m.keys.TabListings):
		return 1, true
	case key.Matches(msg, m.keys.TabInquiries):
		return 2, true
	case key.Matches(msg, m.keys.TabUsers):
		return 3, true
	}
	return 0, false
}

// handleKeys processes key input for tab switching and row selection.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if slot, ok := m.tabSlot(msg); ok {
		tabs := m.tabsForRole()
		if slot < len(tabs) {
			return m.switchTab(tabs[slot]), nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.rowCount()-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Select):
		return m.selectRow()
	}
	return m, nil
}

// switchTab activates a tab. Viewing the users tab advances the
// user-count watermark for that category only.
func (m Model) switchTab(tab Tab) Model {
	m.activeTab = tab
	m.cursor = 0

	if tab == TabUsers && m.role == model.RoleAdmin {
		m.engine.AdvanceCategory(
			context.Background(),
			watermark.CategoryUsers,
			m.counts.totalUsers,
		)
	}

	return m
}

// SelectCategory navigates to the tab behind a panel category line.
func (m Model) SelectCategory(target string) Model {
	switch Tab(target) {
	case TabListings, TabInquiries, TabUsers, TabOverview:
		return m.switchTab(Tab(target))
	}
	return m
}

// selectRow acts on the row under the cursor. Opening a new/pending
// inquiry marks it reviewed.
func (m Model) selectRow() (Model, tea.Cmd) {
	if m.activeTab != TabInquiries || m.cursor >= len(m.inquiries) {
		return m, nil
	}

	inq := m.inquiries[m.cursor]
	if inq.Status != model.InquiryNew && inq.Status != model.InquiryPending {
		return m, nil
	}

	m.inquiries[m.cursor].Status = model.InquiryReviewed
	client := m.api
	id := inq.ID
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		if err := client.MarkInquiryReviewed(ctx, id); err != nil {
			return DataMsg{Err: err}
		}
		return nil
	}
}

// Navigate handles a deep link from a selected notification: the tab is
// derived from the link path and the referenced row highlighted.
func (m Model) Navigate(link, notificationID string) (Model, tea.Cmd) {
	m = m.switchTab(tabForLink(link))
	return m.Highlight(notificationID)
}

// tabForLink maps a deep-link path to a dashboard tab.
func tabForLink(link string) Tab {
	switch {
	case strings.Contains(link, "inquir"):
		return TabInquiries
	case strings.Contains(link, "propert"), strings.Contains(link, "listing"):
		return TabListings
	case strings.Contains(link, "user"):
		return TabUsers
	default:
		return TabOverview
	}
}

// Highlight probes the candidate row-key conventions for the id in
// priority order, scrolls the first match into view, and applies a
// transient highlight. The category prefix is unknown at link-creation
// time, so several are tried; no match is a silent no-op.
func (m Model) Highlight(notificationID string) (Model, tea.Cmd) {
	candidates := []string{
		"notification-" + notificationID,
		"inquiry-" + notificationID,
		"property-" + notificationID,
		"user-" + notificationID,
		notificationID,
	}

	rows := m.rowKeys()
	for _, candidate := range candidates {
		for i, key := range rows {
			if key != candidate {
				continue
			}
			m.highlightKey = candidate
			m.highlightSeq++
			m.cursor = i

			seq := m.highlightSeq
			return m, tea.Tick(m.highlightFor, func(time.Time) tea.Msg {
				return highlightExpireMsg{seq: seq}
			})
		}
	}

	// Item already removed or never loaded; nothing to emphasize.
	return m, nil
}

// rowKeys returns the stable key of every row on the active tab, in
// display order.
func (m Model) rowKeys() []string {
	var rowKeys []string
	switch m.activeTab {
	case TabListings:
		for _, p := range m.properties {
			rowKeys = append(rowKeys, "property-"+p.ID)
		}
	case TabInquiries:
		for _, inq := range m.inquiries {
			rowKeys = append(rowKeys, "inquiry-"+inq.ID)
		}
	case TabUsers:
		for _, u := range m.users {
			rowKeys = append(rowKeys, "user-"+u.ID)
		}
	}
	return rowKeys
}

// rowCount returns how many rows the active tab shows.
func (m Model) rowCount() int {
	switch m.activeTab {
	case TabListings:
		return len(m.properties)
	case TabInquiries:
		return len(m.inquiries)
	case TabUsers:
		return len(m.users)
	default:
		return 0
	}
}

// ActiveTab returns the current tab.
func (m Model) ActiveTab() Tab {
	return m.activeTab
}

// SetSize updates the dashboard dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
