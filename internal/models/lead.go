package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a contact request left through the site form.
type Lead struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone,omitempty"`
	Email      string     `json:"email,omitempty"`
	Message    string     `json:"message,omitempty"`
	Source     string     `json:"source"`
	CreatedAt  time.Time  `json:"created_at"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
}

// CreateLeadRequest is the payload of the lead form.
type CreateLeadRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// CreateLeadResponse acknowledges a stored lead.
type CreateLeadResponse struct {
	ID uuid.UUID `json:"id"`
}

// LeadNotificationJob is the payload pushed to the notification queue.
type LeadNotificationJob struct {
	LeadID  uuid.UUID `json:"lead_id"`
	Attempt int       `json:"attempt,omitempty"`
}
