package api

import (
	"context"
	"fmt"

	"github.com/mnguyen/estatedesk/internal/model"
)

// GetNotifications fetches the full notification list for the
// authenticated principal.
func (c *Client) GetNotifications(ctx context.Context) ([]model.Notification, error) {
	var notifications []model.Notification
	if err := c.Get(ctx, "/notifications", &notifications); err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead marks a single notification as read and returns
// the updated record.
func (c *Client) MarkNotificationRead(
	ctx context.Context,
	id string,
) (*model.Notification, error) {
	var updated model.Notification
	path := fmt.Sprintf("/notifications/%s/read", id)
	if err := c.Put(ctx, path, nil, &updated); err != nil {
		return nil, fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return &updated, nil
}

// MarkAllNotificationsRead marks every notification for the principal
// as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if err := c.Put(ctx, "/notifications/read/all", nil, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}
