package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaStatus is the delivery status of a campaign's creative.
type MediaStatus string

const (
	MediaStatusPending  MediaStatus = "pending"
	MediaStatusReceived MediaStatus = "received"
	MediaStatusRejected MediaStatus = "rejected"
)

// Quote is the commercial record (campaign) that owns the media audit trail.
type Quote struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	ClientName  string      `json:"client_name"`
	MediaStatus MediaStatus `json:"media_status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// MediaHistoryEntry is one append-only record of a media status transition attempt.
// Status is the status in effect after the attempt; AttemptedStatus is what the caller asked for.
// Accepted is stored: a refused re-check of an already received campaign keeps Status equal to
// AttemptedStatus, so it cannot be derived from the two.
type MediaHistoryEntry struct {
	ID               uuid.UUID         `json:"id"`
	QuoteID          uuid.UUID         `json:"quote_id"`
	Date             time.Time         `json:"date"`
	Status           MediaStatus       `json:"status"`
	AttemptedStatus  MediaStatus       `json:"attempted_status"`
	Accepted         bool              `json:"accepted"`
	User             string            `json:"user"`
	Note             string            `json:"note,omitempty"`
	ValidationResult *ValidationResult `json:"validation_result,omitempty"`
}
