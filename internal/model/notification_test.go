package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnguyen/estatedesk/internal/model"
)

func TestParseNotificationType(t *testing.T) {
	assert.Equal(t, model.NotificationSuccess, model.ParseNotificationType("success"))
	assert.Equal(t, model.NotificationWarning, model.ParseNotificationType("warning"))
	assert.Equal(t, model.NotificationError, model.ParseNotificationType("error"))
	assert.Equal(t, model.NotificationInfo, model.ParseNotificationType("info"))

	// Unknown tags degrade to info instead of failing.
	assert.Equal(t, model.NotificationInfo, model.ParseNotificationType("celebration"))
	assert.Equal(t, model.NotificationInfo, model.ParseNotificationType(""))
}

func TestUnread(t *testing.T) {
	at := func(min int) time.Time {
		return time.Date(2026, 8, 30, 10, min, 0, 0, time.UTC)
	}
	all := []model.Notification{
		{ID: "old", CreatedAt: at(0)},
		{ID: "read", CreatedAt: at(5), IsRead: true},
		{ID: "new", CreatedAt: at(10)},
		{ID: "mid", CreatedAt: at(3)},
	}

	unread := model.Unread(all)
	require.Len(t, unread, 3)
	assert.Equal(t, "new", unread[0].ID)
	assert.Equal(t, "mid", unread[1].ID)
	assert.Equal(t, "old", unread[2].ID)

	assert.Equal(t, 3, model.UnreadCount(all))
	assert.Equal(t, 0, model.UnreadCount(nil))
}

func TestNotificationJSONFieldNames(t *testing.T) {
	raw := `{
		"_id": "66b1",
		"recipientId": "u9",
		"message": "Your listing was approved",
		"type": "success",
		"link": "/properties/p1",
		"isRead": false,
		"createdAt": "2026-08-30T10:00:00Z"
	}`

	var n model.Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &n))
	assert.Equal(t, "66b1", n.ID)
	assert.Equal(t, "u9", n.RecipientID)
	assert.Equal(t, model.NotificationSuccess, n.Type)
	assert.Equal(t, "/properties/p1", n.Link)
	assert.False(t, n.IsRead)
}
