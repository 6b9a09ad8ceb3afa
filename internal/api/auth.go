package api

import (
	"context"
	"fmt"

	"github.com/mnguyen/estatedesk/internal/model"
)

// LoginResponse is the payload returned by a successful password login.
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login exchanges email/password credentials for a bearer token and the
// authenticated user record. The client's token is updated in place on
// success.
func (c *Client) Login(
	ctx context.Context,
	email, password string,
) (*LoginResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp LoginResponse
	if err := c.Post(ctx, "/auth/login", body, &resp); err != nil {
		return nil, fmt.Errorf("logging in as %s: %w", email, err)
	}

	c.SetToken(resp.Token)
	return &resp, nil
}

// Me fetches the account behind the current bearer token. Used at
// startup to validate a stored token before opening a session.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.Get(ctx, "/auth/me", &user); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &user, nil
}
