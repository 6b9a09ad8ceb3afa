package model

import "time"

// ApprovalStatus is an admin moderation state on a property listing.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Property is a marketplace listing as returned by the listing endpoints.
// Only the fields the dashboards read are modeled.
type Property struct {
	// ID is the unique identifier for this listing.
	ID string `json:"_id"`

	// Title is the listing headline.
	Title string `json:"title"`

	// OwnerID identifies the agent who created the listing.
	OwnerID string `json:"ownerId"`

	// Price is the asking price in whole currency units.
	Price int64 `json:"price"`

	// Location is the human-readable address or area label.
	Location string `json:"location"`

	// ApprovalStatus is the admin moderation state. Listings with
	// status pending count toward the admin badge.
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`

	// CreatedAt is when the listing was submitted.
	CreatedAt time.Time `json:"createdAt"`
}

// CountPending returns the number of listings awaiting moderation.
func CountPending(properties []Property) int {
	count := 0
	for _, p := range properties {
		if p.ApprovalStatus == ApprovalPending {
			count++
		}
	}
	return count
}
