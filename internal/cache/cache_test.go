package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnguyen/estatedesk/internal/model"
	"github.com/mnguyen/estatedesk/internal/realtime"
)

// fakeAPI is a controllable API double. Each GetNotifications call pops
// the next queued response; the last one is sticky.
type fakeAPI struct {
	mu            sync.Mutex
	responses     [][]model.Notification
	err           error
	markReadErr   error
	markAllErr    error
	markReadCalls []string
	markAllCalls  int
}

func (f *fakeAPI) GetNotifications(context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, nil
	}
	next := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return next, nil
}

func (f *fakeAPI) MarkNotificationRead(_ context.Context, id string) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadCalls = append(f.markReadCalls, id)
	if f.markReadErr != nil {
		return nil, f.markReadErr
	}
	return &model.Notification{ID: id, IsRead: true}, nil
}

func (f *fakeAPI) MarkAllNotificationsRead(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markAllCalls++
	return f.markAllErr
}

func notifications(ids ...string) []model.Notification {
	out := make([]model.Notification, len(ids))
	for i, id := range ids {
		out[i] = model.Notification{
			ID:        id,
			Title:     "t-" + id,
			CreatedAt: time.Date(2026, 8, 1, 12, i, 0, 0, time.UTC),
		}
	}
	return out
}

func TestCache_RefreshAppliesResult(t *testing.T) {
	api := &fakeAPI{responses: [][]model.Notification{notifications("a", "b")}}
	c := New(api, time.Second, nil)

	c.refresh()

	got := c.Notifications()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)

	msg, ok := (<-c.resultCh).(RefreshedMsg)
	require.True(t, ok)
	assert.NoError(t, msg.Err)
	assert.Len(t, msg.Notifications, 2)
}

func TestCache_RefreshFailureKeepsStaleData(t *testing.T) {
	api := &fakeAPI{responses: [][]model.Notification{notifications("a")}}
	c := New(api, time.Second, nil)

	c.refresh()
	<-c.resultCh

	api.mu.Lock()
	api.err = errors.New("boom")
	api.mu.Unlock()
	c.refresh()

	assert.Len(t, c.Notifications(), 1, "failed refresh must not drop data")

	msg := (<-c.resultCh).(RefreshedMsg)
	assert.Error(t, msg.Err)
	assert.Len(t, msg.Notifications, 1)
}

// blockingAPI hands each in-flight GetNotifications call to the test as
// a reply channel, so completion order can be forced.
type blockingAPI struct {
	fakeAPI
	calls chan chan []model.Notification
}

func (b *blockingAPI) GetNotifications(context.Context) ([]model.Notification, error) {
	reply := make(chan []model.Notification)
	b.calls <- reply
	return <-reply, nil
}

func TestCache_SlowRefreshCannotClobberNewer(t *testing.T) {
	api := &blockingAPI{calls: make(chan chan []model.Notification, 2)}
	c := New(api, time.Second, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.refresh() // seq 1
	}()
	first := <-api.calls

	go func() {
		defer wg.Done()
		c.refresh() // seq 2
	}()
	second := <-api.calls

	// The newer request completes first.
	second <- notifications("new")
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.lastApplied == 2
	}, time.Second, time.Millisecond)

	// The stale one finishes late and must be discarded.
	first <- notifications("old")
	wg.Wait()

	got := c.Notifications()
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
	c.mu.Lock()
	assert.Equal(t, uint64(2), c.lastApplied)
	c.mu.Unlock()
}

func TestCache_ApplyPushPrependsAndTriggers(t *testing.T) {
	api := &fakeAPI{responses: [][]model.Notification{notifications("a")}}
	c := New(api, time.Second, nil)
	c.refresh()

	c.ApplyPush(realtime.NotificationPayload{
		Type:    "success",
		Title:   "New inquiry",
		Message: "Someone asked about Oak St",
	})

	got := c.Notifications()
	require.Len(t, got, 2)
	assert.Equal(t, "New inquiry", got[0].Title)
	assert.Equal(t, model.NotificationSuccess, got[0].Type)
	assert.NotEmpty(t, got[0].ID, "pushed payloads get a synthesized id")
	assert.False(t, got[0].IsRead)

	select {
	case <-c.triggerCh:
	default:
		t.Fatal("push must schedule an immediate refresh")
	}
}

func TestCache_MarkReadOptimistic(t *testing.T) {
	api := &fakeAPI{responses: [][]model.Notification{notifications("a", "b")}}
	c := New(api, time.Second, nil)
	c.refresh()

	cmd := c.MarkRead("a")
	require.NotNil(t, cmd)

	got := c.Notifications()
	assert.True(t, got[0].IsRead, "change applies before the API call")

	msg := cmd()
	assert.Nil(t, msg)
	assert.Equal(t, []string{"a"}, api.markReadCalls)
}

func TestCache_MarkReadAlreadyReadIsNoOp(t *testing.T) {
	list := notifications("a")
	list[0].IsRead = true
	api := &fakeAPI{responses: [][]model.Notification{list}}
	c := New(api, time.Second, nil)
	c.refresh()

	assert.Nil(t, c.MarkRead("a"))
	assert.Nil(t, c.MarkRead("missing"))
	assert.Empty(t, api.markReadCalls)
}

func TestCache_MarkReadRollsBackOnFailure(t *testing.T) {
	api := &fakeAPI{
		responses:   [][]model.Notification{notifications("a")},
		markReadErr: errors.New("boom"),
	}
	c := New(api, time.Second, nil)
	c.refresh()

	cmd := c.MarkRead("a")
	require.NotNil(t, cmd)

	msg := cmd()
	failed, ok := msg.(MutationFailedMsg)
	require.True(t, ok)
	assert.Contains(t, failed.Message, "mark notification")

	assert.False(t, c.Notifications()[0].IsRead, "optimistic change rolled back")
}

func TestCache_MarkAllReadRollsBackOnFailure(t *testing.T) {
	list := notifications("a", "b", "c")
	list[1].IsRead = true
	api := &fakeAPI{
		responses:  [][]model.Notification{list},
		markAllErr: errors.New("boom"),
	}
	c := New(api, time.Second, nil)
	c.refresh()

	cmd := c.MarkAllRead()
	require.NotNil(t, cmd)
	assert.Equal(t, 0, c.UnreadCount(), "all marked read optimistically")

	msg := cmd()
	_, ok := msg.(MutationFailedMsg)
	require.True(t, ok)

	// Only the two that actually changed are rolled back.
	got := c.Notifications()
	assert.False(t, got[0].IsRead)
	assert.True(t, got[1].IsRead)
	assert.False(t, got[2].IsRead)
}

func TestCache_MarkAllReadNothingUnreadIsNoOp(t *testing.T) {
	list := notifications("a")
	list[0].IsRead = true
	api := &fakeAPI{responses: [][]model.Notification{list}}
	c := New(api, time.Second, nil)
	c.refresh()

	assert.Nil(t, c.MarkAllRead())
	assert.Equal(t, 0, api.markAllCalls)
}

func TestCache_RestartAfterStop(t *testing.T) {
	api := &fakeAPI{responses: [][]model.Notification{notifications("a")}}
	c := New(api, time.Hour, nil)

	cmd := c.Start()
	_, ok := cmd().(RefreshedMsg)
	require.True(t, ok)
	c.Stop()

	// A stopped cache starts a fresh poll loop.
	cmd = c.Start()
	defer c.Stop()

	msg, ok := cmd().(RefreshedMsg)
	require.True(t, ok)
	assert.Len(t, msg.Notifications, 1)
}

func TestCache_StartDeliversFirstRefresh(t *testing.T) {
	api := &fakeAPI{responses: [][]model.Notification{notifications("a")}}
	c := New(api, 50*time.Millisecond, nil)
	defer c.Stop()

	cmd := c.Start()
	require.NotNil(t, cmd)

	msg, ok := cmd().(RefreshedMsg)
	require.True(t, ok)
	assert.Len(t, msg.Notifications, 1)
	assert.Equal(t, 1, c.UnreadCount())
}
