package quotes

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/mediaval"
	"github.com/dooh-ops/backend/internal/middleware"
	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/pkg/queue"
	"github.com/dooh-ops/backend/pkg/response"
	"github.com/dooh-ops/backend/pkg/storage"
	"github.com/dooh-ops/backend/pkg/utils"
)

// AssetLookup resolves the panel whose resolution a delivery is checked against.
type AssetLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
}

// Enqueuer queues background validations.
type Enqueuer interface {
	EnqueueMediaValidation(ctx context.Context, payload queue.MediaValidationPayload) (string, error)
}

// Presigner issues direct-upload URLs for deliveries.
type Presigner interface {
	GeneratePresignedUploadURL(ctx context.Context, key, contentType string) (string, error)
}

// StatusRequest is the body for POST /quotes/:id/media/status (manual change, no file).
type StatusRequest struct {
	Status   string `json:"status" binding:"required"`
	Note     string `json:"note"`
	Override bool   `json:"override"`
}

// AsyncValidateRequest is the body for POST /quotes/:id/media/validate-async.
type AsyncValidateRequest struct {
	S3Key            string `json:"s3_key" binding:"required"`
	ContentType      string `json:"content_type"`
	Filename         string `json:"filename"`
	TargetResolution string `json:"target_resolution"`
	AssetID          string `json:"asset_id"`
	Override         bool   `json:"override"`
	Note             string `json:"note"`
}

// UploadURLRequest is the body for POST /quotes/:id/media/upload-url.
type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size" binding:"required,gt=0"`
}

// Handler handles campaign media HTTP endpoints.
type Handler struct {
	svc       *Service
	assets    AssetLookup
	queue     Enqueuer
	presigner Presigner
	maxBytes  int64
	logger    *zap.Logger
}

// NewHandler creates a quote handler. queue and presigner may be nil when Redis or S3 are not configured.
func NewHandler(svc *Service, assets AssetLookup, q Enqueuer, presigner Presigner, maxBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = storage.MaxCreativeFileSize
	}
	return &Handler{svc: svc, assets: assets, queue: q, presigner: presigner, maxBytes: maxBytes, logger: logger}
}

// History handles GET /quotes/:id/media/history.
func (h *Handler) History(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}
	q, entries, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, gin.H{"quote": q, "history": entries})
}

// Validate handles POST /quotes/:id/media/validate (multipart: file, status, target_resolution
// or asset_id, override, note). The file is checked synchronously before the transition.
func (h *Handler) Validate(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > h.maxBytes {
		response.BadRequest(c, "file too large")
		return
	}
	target, err := h.targetResolution(c.Request.Context(), c.PostForm("target_resolution"), c.PostForm("asset_id"))
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	override, _ := strconv.ParseBool(c.DefaultPostForm("override", "false"))
	status := models.MediaStatus(c.DefaultPostForm("status", string(models.MediaStatusReceived)))

	path, err := utils.SaveMultipartTemp(file)
	if err != nil {
		h.logger.Error("save uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer os.Remove(path)

	out, err := h.svc.Submit(c.Request.Context(), mediaval.TransitionRequest{
		QuoteID:  id,
		Target:   status,
		User:     currentUser(c),
		Note:     strings.TrimSpace(c.PostForm("note")),
		Override: override,
		File: &mediaval.File{
			Path:        path,
			Name:        file.Filename,
			ContentType: storage.ContentTypeFor(file.Header.Get("Content-Type"), file.Filename),
		},
		TargetResolution: target,
	})
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, out)
}

// SetStatus handles POST /quotes/:id/media/status: a manual change without a file. Moving to
// received this way needs override.
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.svc.Submit(c.Request.Context(), mediaval.TransitionRequest{
		QuoteID:  id,
		Target:   models.MediaStatus(req.Status),
		User:     currentUser(c),
		Note:     strings.TrimSpace(req.Note),
		Override: req.Override,
	})
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, out)
}

// ValidateAsync handles POST /quotes/:id/media/validate-async for a delivery already in the
// media bucket. The worker validates it and records the transition to received.
func (h *Handler) ValidateAsync(c *gin.Context) {
	if h.queue == nil {
		response.ServiceUnavailable(c, "background validation not configured")
		return
	}
	id, ok := quoteID(c)
	if !ok {
		return
	}
	var req AsyncValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if _, err := h.svc.Get(c.Request.Context(), id); err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	target, err := h.targetResolution(c.Request.Context(), req.TargetResolution, req.AssetID)
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	filename := req.Filename
	if filename == "" {
		filename = req.S3Key[strings.LastIndex(req.S3Key, "/")+1:]
	}
	jobID, err := h.queue.EnqueueMediaValidation(c.Request.Context(), queue.MediaValidationPayload{
		QuoteID:          id,
		S3Key:            req.S3Key,
		ContentType:      storage.ContentTypeFor(req.ContentType, filename),
		Filename:         filename,
		TargetResolution: target,
		User:             currentUser(c),
		Override:         req.Override,
		Note:             strings.TrimSpace(req.Note),
	})
	if err != nil {
		h.logger.Error("enqueue media validation failed", zap.Error(err), zap.String("quote_id", id.String()))
		response.ServiceUnavailable(c, "failed to queue validation")
		return
	}
	response.Accepted(c, gin.H{"job_id": jobID, "quote_id": id})
}

// UploadURL handles POST /quotes/:id/media/upload-url: a presigned PUT for a large delivery
// that is then validated with validate-async.
func (h *Handler) UploadURL(c *gin.Context) {
	if h.presigner == nil {
		response.ServiceUnavailable(c, "S3 not configured")
		return
	}
	id, ok := quoteID(c)
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.FileSize > h.maxBytes {
		response.BadRequest(c, "file too large")
		return
	}
	if !storage.ValidateCreativeFileType(req.ContentType, req.Filename) {
		response.BadRequest(c, "invalid file type: only image (jpg, png, webp, gif) and video (mp4, mov, webm) allowed")
		return
	}
	contentType := storage.ContentTypeFor(req.ContentType, req.Filename)
	key := storage.DeliveryKey(id.String(), req.Filename)
	url, err := h.presigner.GeneratePresignedUploadURL(c.Request.Context(), key, contentType)
	if err != nil {
		h.logger.Error("generate presigned upload URL failed", zap.Error(err), zap.String("quote_id", id.String()))
		response.Internal(c, "S3 upload unavailable")
		return
	}
	response.OK(c, gin.H{"upload_url": url, "s3_key": key, "content_type": contentType})
}

// targetResolution picks the explicit target, else the panel's resolution. A malformed or
// empty result falls back to the validator's default.
func (h *Handler) targetResolution(ctx context.Context, explicit, assetID string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	if assetID == "" || h.assets == nil {
		return "", nil
	}
	id, err := uuid.Parse(assetID)
	if err != nil {
		return "", apperr.Invalid("asset_id", "invalid panel id")
	}
	a, err := h.assets.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return a.Resolution, nil
}

func quoteID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quote id")
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(c *gin.Context) string {
	if v, ok := c.Get(middleware.ContextUserEmail); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "system"
}
