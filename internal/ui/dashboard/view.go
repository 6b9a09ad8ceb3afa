package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/theme"
)

// View renders the active tab.
func (m Model) View() string {
	var body string
	switch m.activeTab {
	case TabListings:
		body = m.viewListings()
	case TabInquiries:
		body = m.viewInquiries()
	case TabUsers:
		body = m.viewUsers()
	default:
		body = m.viewOverview()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.viewTabs(), body)
}

// viewTabs renders the tab bar for the role.
func (m Model) viewTabs() string {
	var parts []string
	for i, tab := range m.tabsForRole() {
		label := fmt.Sprintf("%d:%s", i+1, tab)
		if tab == m.activeTab {
			parts = append(parts, theme.HeaderStyle.Render(label))
		} else {
			parts = append(parts, theme.HelpStyle.Render(label))
		}
	}
	return strings.Join(parts, "  ")
}

// viewOverview renders the stat summary for the role.
func (m Model) viewOverview() string {
	var lines []string

	switch m.role {
	case model.RoleAdmin:
		lines = append(lines,
			fmt.Sprintf("Users: %d", len(m.users)),
			fmt.Sprintf("Listings: %d (%d pending approval)",
				len(m.properties), m.counts.pendingListings),
			fmt.Sprintf("Inquiries: %d (%d new)",
				len(m.inquiries), m.counts.newInquiries),
		)
	case model.RoleAgent:
		lines = append(lines,
			fmt.Sprintf("My listings: %d", len(m.properties)),
			fmt.Sprintf("Inquiries: %d (%d pending)",
				len(m.inquiries), m.counts.newInquiries),
		)
	default:
		lines = append(lines,
			fmt.Sprintf("My inquiries: %d", len(m.inquiries)),
			fmt.Sprintf("Wishlist: %d saved listings", len(m.properties)),
		)
	}

	if m.dataErr != nil {
		lines = append(lines, theme.HelpStyle.Render("showing last known data"))
	}

	return theme.PanelStyle.Width(m.width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

// viewListings renders the property rows.
func (m Model) viewListings() string {
	if len(m.properties) == 0 {
		return theme.HelpStyle.Render("No listings")
	}

	var rows []string
	for i, p := range m.properties {
		status := string(p.ApprovalStatus)
		if p.ApprovalStatus == model.ApprovalPending {
			status = theme.NotificationStyle(model.NotificationWarning).Render(status)
		}
		line := fmt.Sprintf("%s  %s  %s", p.Title, p.Location, status)
		rows = append(rows, m.renderRow("property-"+p.ID, line, i))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// viewInquiries renders the inquiry rows.
func (m Model) viewInquiries() string {
	if len(m.inquiries) == 0 {
		return theme.HelpStyle.Render("No inquiries")
	}

	var rows []string
	for i, inq := range m.inquiries {
		status := string(inq.Status)
		if inq.Status == model.InquiryNew || inq.Status == model.InquiryPending {
			status = theme.NotificationStyle(model.NotificationError).Render(status)
		}
		line := fmt.Sprintf("%s  %s  %s  %s",
			inq.SenderName,
			truncate(inq.Message, 48),
			status,
			theme.HelpStyle.Render(humanize.Time(inq.CreatedAt)),
		)
		rows = append(rows, m.renderRow("inquiry-"+inq.ID, line, i))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// viewUsers renders the account rows (admin only).
func (m Model) viewUsers() string {
	if len(m.users) == 0 {
		return theme.HelpStyle.Render("No users")
	}

	var rows []string
	for i, u := range m.users {
		line := fmt.Sprintf("%s  %s  %s", u.Name, u.Email, u.Role)
		rows = append(rows, m.renderRow("user-"+u.ID, line, i))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderRow applies cursor and deep-link highlight styling to one row.
func (m Model) renderRow(key, line string, index int) string {
	if key == m.highlightKey {
		return theme.HighlightStyle.Render(line)
	}
	if index == m.cursor {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// truncate shortens s to at most n runes with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
