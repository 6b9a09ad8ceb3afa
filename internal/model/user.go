package model

import "time"

// Role identifies the dashboard a principal is entitled to.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// User is the authenticated principal (or another account listed in the
// admin dashboard).
type User struct {
	// ID is the unique identifier for this account.
	ID string `json:"_id"`

	// Name is the display name.
	Name string `json:"name"`

	// Email is the login email address.
	Email string `json:"email"`

	// Role selects which dashboard and broadcast groups apply.
	Role Role `json:"role"`

	// ReceivePushNotifications controls whether push toasts are shown.
	// The backend defaults this to true.
	ReceivePushNotifications bool `json:"receivePushNotifications"`

	// CreatedAt is when the account was registered.
	CreatedAt time.Time `json:"createdAt"`
}
