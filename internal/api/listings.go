package api

import (
	"context"
	"fmt"

	"github.com/mnguyen/estatedesk/internal/model"
)

// GetUsers fetches all registered accounts. Admin only; the new-user
// badge is computed client-side from the list length.
func (c *Client) GetUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.Get(ctx, "/users", &users); err != nil {
		return nil, fmt.Errorf("fetching users: %w", err)
	}
	return users, nil
}

// GetAdminProperties fetches every listing regardless of moderation
// state. Pending listings are counted client-side.
func (c *Client) GetAdminProperties(ctx context.Context) ([]model.Property, error) {
	var properties []model.Property
	if err := c.Get(ctx, "/properties/admin", &properties); err != nil {
		return nil, fmt.Errorf("fetching admin properties: %w", err)
	}
	return properties, nil
}

// GetMyProperties fetches the authenticated agent's own listings.
func (c *Client) GetMyProperties(ctx context.Context) ([]model.Property, error) {
	var properties []model.Property
	if err := c.Get(ctx, "/properties/mine", &properties); err != nil {
		return nil, fmt.Errorf("fetching own properties: %w", err)
	}
	return properties, nil
}

// GetWishlist fetches the authenticated user's saved listings.
func (c *Client) GetWishlist(ctx context.Context) ([]model.Property, error) {
	var properties []model.Property
	if err := c.Get(ctx, "/wishlist", &properties); err != nil {
		return nil, fmt.Errorf("fetching wishlist: %w", err)
	}
	return properties, nil
}

// GetContactInquiries fetches site-wide contact inquiries. Admin only.
func (c *Client) GetContactInquiries(ctx context.Context) ([]model.Inquiry, error) {
	var inquiries []model.Inquiry
	if err := c.Get(ctx, "/inquiries/contact", &inquiries); err != nil {
		return nil, fmt.Errorf("fetching contact inquiries: %w", err)
	}
	return inquiries, nil
}

// GetMyInquiries fetches inquiries addressed to the authenticated
// principal (an agent's listing inquiries, or a user's sent inquiries).
func (c *Client) GetMyInquiries(ctx context.Context) ([]model.Inquiry, error) {
	var inquiries []model.Inquiry
	if err := c.Get(ctx, "/inquiries/mine", &inquiries); err != nil {
		return nil, fmt.Errorf("fetching own inquiries: %w", err)
	}
	return inquiries, nil
}

// MarkInquiryReviewed transitions an inquiry out of its new/pending state.
func (c *Client) MarkInquiryReviewed(ctx context.Context, id string) error {
	path := fmt.Sprintf("/inquiries/%s/reviewed", id)
	if err := c.Put(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking inquiry %s reviewed: %w", id, err)
	}
	return nil
}
