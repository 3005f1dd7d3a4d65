package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaType is the kind of creative file.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// MediaFileStatus is the reviewer decision on a creative file.
type MediaFileStatus string

const (
	MediaFilePending  MediaFileStatus = "pending"
	MediaFileApproved MediaFileStatus = "approved"
	MediaFileRejected MediaFileStatus = "rejected"
)

// Valid reports whether s is a known media file status.
func (s MediaFileStatus) Valid() bool {
	switch s {
	case MediaFilePending, MediaFileApproved, MediaFileRejected:
		return true
	}
	return false
}

// MediaAsset is one uploaded creative stored in S3.
type MediaAsset struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	URL        string          `json:"url"`
	S3Key      string          `json:"s3_key,omitempty"`
	Type       MediaType       `json:"type"`
	Duration   int             `json:"duration"` // seconds
	Resolution string          `json:"resolution"`
	Status     MediaFileStatus `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// IsVideo reports whether the creative is a video.
func (m *MediaAsset) IsVideo() bool {
	return m.Type == MediaTypeVideo
}

// IsApproved reports whether the creative may be referenced by a new booking.
func (m *MediaAsset) IsApproved() bool {
	return m.Status == MediaFileApproved
}
