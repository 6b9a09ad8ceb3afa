package cache

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/realtime"
)

// API is the slice of the REST client the cache depends on.
type API interface {
	GetNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) (*model.Notification, error)
	MarkAllNotificationsRead(ctx context.Context) error
}

// RefreshedMsg is a tea.Msg sent when a refresh cycle has completed.
// On failure the cache keeps its last-known-good list and Err is set.
type RefreshedMsg struct {
	Notifications []model.Notification
	Err           error
}

// MutationFailedMsg is a tea.Msg sent when a mark-read call failed and
// the optimistic local change was rolled back.
type MutationFailedMsg struct {
	Message string
}

// fetchTimeout bounds a single refresh against the API.
const fetchTimeout = 10 * time.Second

// Cache is the single source of truth for the current principal's
// notification list. It is kept fresh by a fixed-interval poll loop and
// invalidated early by push events and completed mutations. Overlapping
// refreshes are tagged with a monotonic sequence number; a completion
// older than the last applied one is discarded so a slow early request
// can never clobber a newer result.
type Cache struct {
	api          API
	log          *zap.Logger
	pollInterval time.Duration

	mu            gosync.Mutex
	notifications []model.Notification
	running       bool
	nextSeq       uint64
	lastApplied   uint64

	triggerCh chan struct{}
	stopCh    chan struct{}
	resultCh  chan tea.Msg
}

// New creates a cache polling at the given interval.
func New(api API, pollInterval time.Duration, log *zap.Logger) *Cache {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		api:          api,
		log:          log,
		pollInterval: pollInterval,
		triggerCh:    make(chan struct{}, 1),
		resultCh:     make(chan tea.Msg, 16),
	}
}

// Start launches the poll loop and returns a command that waits for the
// first result. Calling Start on a running cache returns only the wait
// command; a stopped cache can be started again.
func (c *Cache) Start() tea.Cmd {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return c.waitForResult()
	}
	c.running = true
	c.stopCh = make(chan struct{})
	stopCh := c.stopCh
	c.mu.Unlock()

	go c.pollLoop(stopCh)

	return c.waitForResult()
}

// Stop halts the poll loop. Pending refreshes may still complete but
// their results are discarded by the sequence check on the next Start.
func (c *Cache) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	close(c.stopCh)
	c.running = false
}

// Invalidate marks the cache stale and schedules an immediate refresh
// ahead of the next poll tick. Called on push events and after
// mutations complete.
func (c *Cache) Invalidate() {
	select {
	case c.triggerCh <- struct{}{}:
	default:
		// A refresh is already queued.
	}
}

// Notifications returns a copy of the current list.
func (c *Cache) Notifications() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

// Unread returns the unread projection, ordered most recent first.
func (c *Cache) Unread() []model.Notification {
	return model.Unread(c.Notifications())
}

// UnreadCount returns the number of unread notifications.
func (c *Cache) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.UnreadCount(c.notifications)
}

// ApplyPush inserts a pushed notification ahead of the next refresh so
// the badge reacts immediately even if the API is briefly slow. Pushed
// payloads carry no id, so a local one is synthesized; the next refresh
// replaces the whole list with the server's view.
func (c *Cache) ApplyPush(payload realtime.NotificationPayload) {
	n := model.Notification{
		ID:        uuid.New().String(),
		Message:   payload.Message,
		Title:     payload.Title,
		Type:      model.ParseNotificationType(payload.Type),
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.notifications = append([]model.Notification{n}, c.notifications...)
	c.mu.Unlock()

	c.Invalidate()
}

// MarkRead sets the notification read locally and issues the API call.
// The optimistic change is rolled back and a MutationFailedMsg emitted
// if the call fails. Marking an already-read notification is a no-op.
func (c *Cache) MarkRead(id string) tea.Cmd {
	c.mu.Lock()
	var found, wasRead bool
	for i := range c.notifications {
		if c.notifications[i].ID == id {
			found = true
			wasRead = c.notifications[i].IsRead
			c.notifications[i].IsRead = true
			break
		}
	}
	c.mu.Unlock()

	if !found || wasRead {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if _, err := c.api.MarkNotificationRead(ctx, id); err != nil {
			c.log.Warn("mark read failed, rolling back",
				zap.String("id", id), zap.Error(err))
			c.rollbackRead([]string{id})
			return MutationFailedMsg{Message: "Could not mark notification as read"}
		}

		c.Invalidate()
		return nil
	}
}

// MarkAllRead sets every notification read locally and issues the API
// call, rolling all of them back on failure.
func (c *Cache) MarkAllRead() tea.Cmd {
	c.mu.Lock()
	var changed []string
	for i := range c.notifications {
		if !c.notifications[i].IsRead {
			changed = append(changed, c.notifications[i].ID)
			c.notifications[i].IsRead = true
		}
	}
	c.mu.Unlock()

	if len(changed) == 0 {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if err := c.api.MarkAllNotificationsRead(ctx); err != nil {
			c.log.Warn("mark all read failed, rolling back", zap.Error(err))
			c.rollbackRead(changed)
			return MutationFailedMsg{Message: "Could not mark notifications as read"}
		}

		c.Invalidate()
		return nil
	}
}

// rollbackRead restores IsRead=false for the given ids after a failed
// mutation.
func (c *Cache) rollbackRead(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for i := range c.notifications {
		if idSet[c.notifications[i].ID] {
			c.notifications[i].IsRead = false
		}
	}
}

// WaitForNextResult returns a command that waits for the next refresh
// or mutation result. Call it after processing each message to keep
// listening, mirroring the poller subscription pattern.
func (c *Cache) WaitForNextResult() tea.Cmd {
	return c.waitForResult()
}

func (c *Cache) waitForResult() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-c.resultCh
		if !ok {
			return nil
		}
		return msg
	}
}

// pollLoop refreshes on a fixed interval and on explicit triggers. The
// initial fetch happens immediately so the UI is populated at mount.
// Each run gets its own stop channel so a restarted cache never
// observes a previous run's close.
func (c *Cache) pollLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	c.refresh()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			c.refresh()
		case <-c.triggerCh:
			c.refresh()
		}
	}
}

// refresh fetches the list and applies it unless a newer refresh
// already completed. Failures keep the last-known-good list.
func (c *Cache) refresh() {
	c.mu.Lock()
	c.nextSeq++
	seq := c.nextSeq
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	notifications, err := c.api.GetNotifications(ctx)
	if err != nil {
		c.log.Warn("refresh failed, keeping stale data", zap.Error(err))
		c.sendResult(RefreshedMsg{Notifications: c.Notifications(), Err: err})
		return
	}

	c.mu.Lock()
	if seq < c.lastApplied {
		c.mu.Unlock()
		c.log.Debug("discarding stale refresh", zap.Uint64("seq", seq))
		return
	}
	c.lastApplied = seq
	c.notifications = notifications
	c.mu.Unlock()

	c.sendResult(RefreshedMsg{Notifications: c.Notifications()})
}

// sendResult sends a message on the result channel without blocking.
func (c *Cache) sendResult(msg tea.Msg) {
	select {
	case c.resultCh <- msg:
	default:
		// Drop if the channel is full to avoid blocking the loop.
	}
}
