package mediaval

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/models"
)

// HistoryStore persists the append-only media history of a campaign.
type HistoryStore interface {
	// CurrentStatus returns the campaign's media status (pending when it has no history).
	CurrentStatus(ctx context.Context, quoteID uuid.UUID) (models.MediaStatus, error)
	// Append inserts entry. When entry.Accepted the campaign's status becomes entry.Status
	// in the same transaction.
	Append(ctx context.Context, entry *models.MediaHistoryEntry) error
}

// Recorder receives workflow events for instrumentation.
type Recorder interface {
	ValidationCompleted(approved bool)
	TransitionRecorded(status models.MediaStatus, accepted bool)
}

// TransitionRequest asks for a campaign's media status to change.
type TransitionRequest struct {
	QuoteID uuid.UUID
	Target  models.MediaStatus
	User    string
	Note    string
	// Override allows received without an approved validation. It is recorded in the note.
	Override bool
	// File, when set, is validated against TargetResolution before the guard is applied.
	File             *File
	TargetResolution string
}

// Outcome is the result of one Submit call.
type Outcome struct {
	Entry    models.MediaHistoryEntry `json:"entry"`
	Accepted bool                     `json:"accepted"`
	Previous models.MediaStatus       `json:"previous_status"`
}

// Workflow drives media status transitions: pending -> received | rejected, and
// received <-> rejected. received requires an approved validation or an explicit override.
type Workflow struct {
	store     HistoryStore
	validator *Validator
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewWorkflow creates a workflow.
func NewWorkflow(store HistoryStore, validator *Validator, recorder Recorder, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{store: store, validator: validator, recorder: recorder, logger: logger, now: time.Now}
}

// Validator returns the validator used for file checks.
func (w *Workflow) Validator() *Validator {
	return w.validator
}

// Submit validates the file (if any), applies the transition guard and appends exactly one
// history entry. A refused received attempt is recorded with the status left unchanged.
func (w *Workflow) Submit(ctx context.Context, req TransitionRequest) (*Outcome, error) {
	if req.QuoteID == uuid.Nil {
		return nil, apperr.Invalid("quote_id", "a campaign is required")
	}
	if req.Target != models.MediaStatusReceived && req.Target != models.MediaStatusRejected {
		return nil, apperr.Invalid("status", "cannot move media to %q", req.Target)
	}

	current, err := w.store.CurrentStatus(ctx, req.QuoteID)
	if err != nil {
		return nil, apperr.Persistence("read media status", err)
	}

	var validation *models.ValidationResult
	if req.File != nil && w.validator != nil {
		res := w.validator.Validate(ctx, *req.File, req.TargetResolution)
		validation = &res
		if w.recorder != nil {
			w.recorder.ValidationCompleted(res.Approved)
		}
	}

	accepted := true
	note := req.Note
	if req.Target == models.MediaStatusReceived {
		approved := validation != nil && validation.Approved
		switch {
		case approved && !req.Override:
		case req.Override:
			note = joinNote(overrideNote(validation), req.Note)
		default:
			accepted = false
			note = joinNote(refusalNote(validation), req.Note)
		}
	}

	status := req.Target
	if !accepted {
		status = current
	}
	entry := models.MediaHistoryEntry{
		ID:               uuid.New(),
		QuoteID:          req.QuoteID,
		Date:             w.now().UTC(),
		Status:           status,
		AttemptedStatus:  req.Target,
		Accepted:         accepted,
		User:             req.User,
		Note:             note,
		ValidationResult: validation,
	}
	if err := w.store.Append(ctx, &entry); err != nil {
		return nil, apperr.Persistence("append media history", err)
	}
	if w.recorder != nil {
		w.recorder.TransitionRecorded(req.Target, accepted)
	}

	w.logger.Info("media status transition",
		zap.String("quote_id", req.QuoteID.String()),
		zap.String("from", string(current)),
		zap.String("attempted", string(req.Target)),
		zap.String("status", string(status)),
		zap.Bool("accepted", accepted),
		zap.Bool("override", req.Override),
		zap.Bool("validated", validation != nil),
	)
	return &Outcome{Entry: entry, Accepted: accepted, Previous: current}, nil
}

func overrideNote(v *models.ValidationResult) string {
	switch {
	case v == nil:
		return "manual override: marked received without automated validation"
	case v.Approved:
		return "manual override requested; automated validation passed"
	default:
		return "manual override: marked received despite failed automated validation"
	}
}

func refusalNote(v *models.ValidationResult) string {
	if v == nil {
		return "received refused: no validation result and no override"
	}
	return "received refused: automated validation failed"
}

func joinNote(system, user string) string {
	if user == "" {
		return system
	}
	return system + " | " + user
}
