package mediaval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/internal/schedule"
)

// Check names.
const (
	CheckFormat        = "format"
	CheckDecodeTimeout = "decode_timeout"
	// CheckDecodeCanceled marks a result cut short by the caller rather than by DecodeTimeout.
	CheckDecodeCanceled = "decode_canceled"
	CheckResolution     = "resolution"
	CheckAspectRatio    = "aspect_ratio"
	CheckLegibility     = "legibility"
)

// ParseResolution parses "WxH". ok is false for anything else, including non-positive sizes.
func ParseResolution(s string) (w, h int, ok bool) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// LegibilityCheck judges whether content at the decoded size is readable on a panel.
type LegibilityCheck func(d Dimensions) models.ValidationCheck

// MinHeightLegibility passes when the decoded height is at least minHeight. A failure is a
// warning, not an error, but still fails the check.
func MinHeightLegibility(minHeight int) LegibilityCheck {
	return func(d Dimensions) models.ValidationCheck {
		if d.Height >= minHeight {
			return models.ValidationCheck{
				Name:   CheckLegibility,
				Status: models.CheckPass,
				Passed: true,
				Detail: fmt.Sprintf("height %dpx meets the %dpx minimum", d.Height, minHeight),
			}
		}
		return models.ValidationCheck{
			Name:   CheckLegibility,
			Status: models.CheckWarning,
			Passed: false,
			Detail: fmt.Sprintf("height %dpx is below the %dpx minimum; text may be illegible", d.Height, minHeight),
		}
	}
}

// Validator runs the automated conformance checks.
type Validator struct {
	decoder    Decoder
	rules      schedule.Rules
	legibility LegibilityCheck
}

// NewValidator creates a validator. Zero rule fields take their defaults.
func NewValidator(decoder Decoder, rules schedule.Rules) *Validator {
	rules = rules.WithDefaults()
	return &Validator{
		decoder:    decoder,
		rules:      rules,
		legibility: MinHeightLegibility(rules.MinLegibleHeight),
	}
}

// SetLegibilityCheck replaces the default minimum-height heuristic.
func (v *Validator) SetLegibilityCheck(fn LegibilityCheck) {
	if fn != nil {
		v.legibility = fn
	}
}

// Target returns the resolution validation compares against: target when well formed,
// otherwise the configured default.
func (v *Validator) Target(target string) (w, h int) {
	if w, h, ok := ParseResolution(target); ok {
		return w, h
	}
	w, h, _ = ParseResolution(v.rules.DefaultTargetResolution)
	return w, h
}

// Decode reads f's dimensions, bounded by the decode timeout.
func (v *Validator) Decode(ctx context.Context, f File) (Dimensions, error) {
	ctx, cancel := context.WithTimeout(ctx, v.rules.DecodeTimeout)
	defer cancel()

	type result struct {
		dims Dimensions
		err  error
	}
	done := make(chan result, 1)
	go func() {
		dims, err := v.decoder.Decode(ctx, f)
		done <- result{dims, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() != nil {
			return Dimensions{}, ctx.Err()
		}
		return r.dims, r.err
	case <-ctx.Done():
		return Dimensions{}, ctx.Err()
	}
}

func canceledCheck(detail string, cause error) models.ValidationCheck {
	return models.ValidationCheck{
		Name:   CheckDecodeCanceled,
		Status: models.CheckError,
		Detail: fmt.Sprintf("%s: %v", detail, cause),
	}
}

// Validate decodes f and compares it with target. It never returns an error: a file that
// cannot be decoded yields a single failing check.
func (v *Validator) Validate(ctx context.Context, f File, target string) models.ValidationResult {
	tw, th := v.Target(target)
	res := models.ValidationResult{Target: fmt.Sprintf("%dx%d", tw, th)}

	if err := ctx.Err(); err != nil {
		res.Checks = []models.ValidationCheck{canceledCheck("validation was cancelled before decoding started", err)}
		return res
	}

	dims, err := v.Decode(ctx, f)
	if err != nil {
		if perr := ctx.Err(); perr != nil {
			res.Checks = []models.ValidationCheck{canceledCheck("validation was cancelled before decoding finished", perr)}
			return res
		}
		if errors.Is(err, context.DeadlineExceeded) {
			res.Checks = []models.ValidationCheck{{
				Name:   CheckDecodeTimeout,
				Status: models.CheckError,
				Detail: fmt.Sprintf("decoding did not finish within %s", v.rules.DecodeTimeout),
			}}
			return res
		}
		res.Checks = []models.ValidationCheck{{
			Name:   CheckFormat,
			Status: models.CheckError,
			Detail: "file could not be read as an image or video",
		}}
		return res
	}

	res.Width, res.Height = dims.Width, dims.Height
	resolution := v.checkResolution(dims, tw, th)
	aspect := v.checkAspectRatio(dims, tw, th)
	legibility := v.legibility(dims)
	res.Checks = []models.ValidationCheck{resolution, aspect, legibility}
	res.Approved = resolution.Passed && aspect.Passed && legibility.Passed
	return res
}

func (v *Validator) checkResolution(d Dimensions, tw, th int) models.ValidationCheck {
	if d.Width == tw && d.Height == th {
		return models.ValidationCheck{
			Name:   CheckResolution,
			Status: models.CheckPass,
			Passed: true,
			Detail: fmt.Sprintf("%s matches the panel", d.Resolution()),
		}
	}
	return models.ValidationCheck{
		Name:   CheckResolution,
		Status: models.CheckError,
		Detail: fmt.Sprintf("%s does not match the panel's %dx%d", d.Resolution(), tw, th),
	}
}

func (v *Validator) checkAspectRatio(d Dimensions, tw, th int) models.ValidationCheck {
	got := float64(d.Width) / float64(d.Height)
	want := float64(tw) / float64(th)
	if math.Abs(got-want) < v.rules.AspectRatioTolerance {
		return models.ValidationCheck{
			Name:   CheckAspectRatio,
			Status: models.CheckPass,
			Passed: true,
			Detail: fmt.Sprintf("ratio %.3f is within %.2f of %.3f", got, v.rules.AspectRatioTolerance, want),
		}
	}
	return models.ValidationCheck{
		Name:   CheckAspectRatio,
		Status: models.CheckError,
		Detail: fmt.Sprintf("ratio %.3f differs from the panel's %.3f", got, want),
	}
}
