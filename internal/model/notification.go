package model

import (
	"sort"
	"time"
)

// NotificationType categorizes a notification and selects how it is
// styled and toasted.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// ParseNotificationType maps a raw type tag to a known NotificationType,
// falling back to info for anything unrecognized.
func ParseNotificationType(s string) NotificationType {
	switch NotificationType(s) {
	case NotificationSuccess, NotificationWarning, NotificationError:
		return NotificationType(s)
	default:
		return NotificationInfo
	}
}

// Notification represents one addressable event delivered to the
// authenticated principal.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"_id"`

	// RecipientID identifies the principal the notification is scoped to.
	RecipientID string `json:"recipientId"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Title is an optional short label used for alert headers.
	Title string `json:"title,omitempty"`

	// Type selects presentation styling and toast behavior.
	Type NotificationType `json:"type"`

	// Link is an optional deep-link path into the application.
	Link string `json:"link,omitempty"`

	// IsRead indicates whether the user has seen this notification.
	// It only ever transitions from false to true.
	IsRead bool `json:"isRead"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"createdAt"`
}

// Unread returns the subset of notifications that have not been read,
// ordered by CreatedAt descending (most recent first).
func Unread(notifications []Notification) []Notification {
	var unread []Notification
	for _, n := range notifications {
		if !n.IsRead {
			unread = append(unread, n)
		}
	}
	sort.SliceStable(unread, func(i, j int) bool {
		return unread[i].CreatedAt.After(unread[j].CreatedAt)
	})
	return unread
}

// UnreadCount returns the number of unread notifications.
func UnreadCount(notifications []Notification) int {
	count := 0
	for _, n := range notifications {
		if !n.IsRead {
			count++
		}
	}
	return count
}
