package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset is a physical display panel. Read-only to the scheduling code.
type Asset struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Resolution    string    `json:"resolution"` // "WxH", e.g. 1920x1080
	CapacityQuota *int      `json:"capacity_quota,omitempty"`
	City          string    `json:"city"`
	District      string    `json:"district"`
	CreatedAt     time.Time `json:"created_at"`
}
