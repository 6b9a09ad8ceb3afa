package model

import "time"

// InquiryStatus tracks whether an inquiry has been looked at.
type InquiryStatus string

const (
	// InquiryNew is the state of a contact inquiry nobody has opened yet.
	InquiryNew InquiryStatus = "new"

	// InquiryPending is the state of a property inquiry awaiting an
	// agent response.
	InquiryPending InquiryStatus = "pending"

	InquiryReviewed InquiryStatus = "reviewed"
)

// Inquiry is a buyer message about a listing (agent dashboards) or a
// general contact inquiry (admin dashboard).
type Inquiry struct {
	// ID is the unique identifier for this inquiry.
	ID string `json:"_id"`

	// PropertyID links the inquiry to a listing, when applicable.
	PropertyID string `json:"propertyId,omitempty"`

	// SenderName is the display name of the person asking.
	SenderName string `json:"senderName"`

	// Message is the inquiry text.
	Message string `json:"message"`

	// Status is new/pending until someone opens the inquiry.
	Status InquiryStatus `json:"status"`

	// CreatedAt is when the inquiry was submitted.
	CreatedAt time.Time `json:"createdAt"`
}

// CountWithStatus returns how many inquiries are in the given status.
func CountWithStatus(inquiries []Inquiry, status InquiryStatus) int {
	count := 0
	for _, inq := range inquiries {
		if inq.Status == status {
			count++
		}
	}
	return count
}
