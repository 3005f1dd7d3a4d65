// Package schedule answers availability, occupancy and soft-conflict questions over an
// in-memory snapshot of playlist bookings. Nothing here performs I/O.
package schedule

import "time"

const (
	DefaultCapacityQuota         = 18
	DefaultSoftConflictThreshold = 5
	DefaultMinLegibleHeight      = 720
	DefaultAspectRatioTolerance  = 0.05
	DefaultTargetResolution      = "1920x1080"
	DefaultDecodeTimeout         = 10 * time.Second

	healthyOccupancyPercent    = 70
	atCapacityOccupancyPercent = 100
)

// Rules holds the business heuristics used by the occupancy, conflict and validation code.
type Rules struct {
	// DefaultCapacityQuota applies to assets without a configured quota.
	DefaultCapacityQuota int
	// SoftConflictThreshold is the number of overlapping bookings a panel may hold before warning.
	SoftConflictThreshold int
	// MinLegibleHeight is the minimum decoded height, in pixels, for the legibility check.
	MinLegibleHeight int
	// AspectRatioTolerance is the maximum absolute difference between decoded and target ratios.
	AspectRatioTolerance float64
	// DefaultTargetResolution is used when an asset has no usable resolution.
	DefaultTargetResolution string
	// DecodeTimeout bounds creative decoding during validation.
	DecodeTimeout time.Duration
}

// DefaultRules returns the production defaults.
func DefaultRules() Rules {
	return Rules{
		DefaultCapacityQuota:    DefaultCapacityQuota,
		SoftConflictThreshold:   DefaultSoftConflictThreshold,
		MinLegibleHeight:        DefaultMinLegibleHeight,
		AspectRatioTolerance:    DefaultAspectRatioTolerance,
		DefaultTargetResolution: DefaultTargetResolution,
		DecodeTimeout:           DefaultDecodeTimeout,
	}
}

// WithDefaults fills zero fields from DefaultRules.
func (r Rules) WithDefaults() Rules {
	d := DefaultRules()
	if r.DefaultCapacityQuota <= 0 {
		r.DefaultCapacityQuota = d.DefaultCapacityQuota
	}
	if r.SoftConflictThreshold <= 0 {
		r.SoftConflictThreshold = d.SoftConflictThreshold
	}
	if r.MinLegibleHeight <= 0 {
		r.MinLegibleHeight = d.MinLegibleHeight
	}
	if r.AspectRatioTolerance <= 0 {
		r.AspectRatioTolerance = d.AspectRatioTolerance
	}
	if r.DefaultTargetResolution == "" {
		r.DefaultTargetResolution = d.DefaultTargetResolution
	}
	if r.DecodeTimeout <= 0 {
		r.DecodeTimeout = d.DecodeTimeout
	}
	return r
}
