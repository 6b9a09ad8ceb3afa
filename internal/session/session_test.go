package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnguyen/estatedesk/internal/cache"
	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/realtime"
	"github.com/mnguyen/estatedesk/internal/watermark"
)

type stubAPI struct{}

func (stubAPI) GetNotifications(context.Context) ([]model.Notification, error) {
	return nil, nil
}

func (stubAPI) MarkNotificationRead(_ context.Context, id string) (*model.Notification, error) {
	return &model.Notification{ID: id, IsRead: true}, nil
}

func (stubAPI) MarkAllNotificationsRead(context.Context) error { return nil }

func newTestSession(channel *realtime.Channel) *Session {
	user := model.User{ID: "u1", Role: model.RoleAgent}
	c := cache.New(stubAPI{}, time.Hour, nil)
	return New(user, nil, c, channel, watermark.NewMemoryStore(), nil)
}

func TestSession_StartWithoutChannel(t *testing.T) {
	s := newTestSession(nil)
	defer s.Close()

	cmd := s.Start(context.Background())
	require.NotNil(t, cmd, "polling must work with the socket disabled")
}

func TestSession_HandlePushFeedsCacheAndUI(t *testing.T) {
	s := newTestSession(nil)
	defer s.Close()

	payload := realtime.NotificationPayload{
		Type:    "success",
		Title:   "Listing approved",
		Message: "Oak St is live",
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	s.handlePush(realtime.Event{Name: realtime.EventReceiveNotification, Data: data})

	unread := s.Cache.Unread()
	require.Len(t, unread, 1)
	assert.Equal(t, "Oak St is live", unread[0].Message)
	assert.Equal(t, model.NotificationSuccess, unread[0].Type)

	msg := s.WaitForNextEvent()()
	push, ok := msg.(PushNotificationMsg)
	require.True(t, ok)
	assert.Equal(t, payload, push.Payload)
}

func TestSession_HandlePushDropsMalformedPayload(t *testing.T) {
	s := newTestSession(nil)
	defer s.Close()

	s.handlePush(realtime.Event{
		Name: realtime.EventReceiveNotification,
		Data: json.RawMessage(`{not json`),
	})

	assert.Empty(t, s.Cache.Unread())
	select {
	case got := <-s.eventCh:
		t.Fatalf("unexpected event %#v", got)
	default:
	}
}

func TestSession_EventOverflowDoesNotBlock(t *testing.T) {
	s := newTestSession(nil)
	defer s.Close()

	// Flood past the buffer; send must never block the read goroutine.
	for i := 0; i < 100; i++ {
		s.send(ChannelStateMsg{Connected: true})
	}

	delivered := 0
	for {
		select {
		case <-s.eventCh:
			delivered++
		default:
			assert.Equal(t, cap(s.eventCh), delivered)
			return
		}
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s := newTestSession(realtime.New("ws://example.test", 1, time.Millisecond, nil))
	s.Start(context.Background())

	s.Close()
	s.Close()
}
