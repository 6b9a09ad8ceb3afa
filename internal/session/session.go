package session

import (
	"context"
	"encoding/json"
	gosync "sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mnguyen/estatedesk/internal/api"
	"github.com/mnguyen/estatedesk/internal/cache"
	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/realtime"
	"github.com/mnguyen/estatedesk/internal/watermark"
)

// PushNotificationMsg is a tea.Msg delivered when the realtime channel
// pushes a notification at this principal.
type PushNotificationMsg struct {
	Payload realtime.NotificationPayload
}

// ChannelStateMsg reports channel connectivity transitions so the
// status bar can show whether the app is live or polling-only.
type ChannelStateMsg struct {
	Connected bool
	Reason    string
}

// Session owns everything scoped to one authenticated principal: the
// API client, the notification cache, the watermark store, and exactly
// one realtime channel. It is created after login and torn down exactly
// once on logout or quit.
type Session struct {
	User    model.User
	API     *api.Client
	Cache   *cache.Cache
	Channel *realtime.Channel
	Marks   watermark.Store

	log       *zap.Logger
	eventCh   chan tea.Msg
	disposers []func()
	closeOnce gosync.Once
}

// New assembles a session. The channel may be nil when the socket
// endpoint is disabled; the cache's polling keeps the app functional.
func New(
	user model.User,
	client *api.Client,
	c *cache.Cache,
	channel *realtime.Channel,
	marks watermark.Store,
	log *zap.Logger,
) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		User:    user,
		API:     client,
		Cache:   c,
		Channel: channel,
		Marks:   marks,
		log:     log,
		eventCh: make(chan tea.Msg, 16),
	}
}

// Start connects the channel, joins the principal and role groups,
// wires push events into the cache, and starts the cache poll loop.
// It returns the commands that subscribe the UI to both.
func (s *Session) Start(ctx context.Context) tea.Cmd {
	if s.Channel != nil {
		s.Channel.JoinRoom(s.User.ID)
		if s.User.Role != "" {
			s.Channel.JoinRole(string(s.User.Role))
		}

		s.disposers = append(s.disposers,
			s.Channel.On(realtime.EventReceiveNotification, s.handlePush),
			s.Channel.On(realtime.EventConnect, func(realtime.Event) {
				s.send(ChannelStateMsg{Connected: true})
			}),
			s.Channel.On(realtime.EventConnectError, func(ev realtime.Event) {
				var reason string
				_ = json.Unmarshal(ev.Data, &reason)
				s.send(ChannelStateMsg{Connected: false, Reason: reason})
			}),
		)

		s.Channel.Connect(ctx)
	}

	return tea.Batch(s.Cache.Start(), s.WaitForNextEvent())
}

// handlePush feeds a pushed notification into the cache and forwards it
// to the UI for toasting.
func (s *Session) handlePush(ev realtime.Event) {
	var payload realtime.NotificationPayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		s.log.Warn("malformed push payload", zap.Error(err))
		return
	}

	s.Cache.ApplyPush(payload)
	s.send(PushNotificationMsg{Payload: payload})
}

// WaitForNextEvent returns a command that waits for the next channel
// event. Call it after processing each message to keep listening.
func (s *Session) WaitForNextEvent() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-s.eventCh
		if !ok {
			return nil
		}
		return msg
	}
}

// Close tears the session down: handlers are disposed, the channel is
// closed, and the cache poll loop stops. Safe to call multiple times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, dispose := range s.disposers {
			dispose()
		}
		if s.Channel != nil {
			s.Channel.Close()
		}
		s.Cache.Stop()
	})
}

// send forwards a message to the UI without blocking the channel's
// read goroutine.
func (s *Session) send(msg tea.Msg) {
	select {
	case s.eventCh <- msg:
	default:
	}
}
