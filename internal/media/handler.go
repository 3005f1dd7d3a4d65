package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/mediaval"
	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/pkg/response"
	"github.com/dooh-ops/backend/pkg/storage"
	"github.com/dooh-ops/backend/pkg/utils"
)

// Store is the creative library persistence.
type Store interface {
	List(ctx context.Context, status *models.MediaFileStatus) ([]models.MediaAsset, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error)
	Create(ctx context.Context, m *models.MediaAsset) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.MediaFileStatus) (*models.MediaAsset, error)
}

// ObjectStore uploads creative files.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
}

// Prober reads a creative's dimensions within the configured decode timeout.
type Prober interface {
	Decode(ctx context.Context, f mediaval.File) (mediaval.Dimensions, error)
}

// StatusRequest is the body for PATCH /media/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Handler handles creative library HTTP endpoints.
type Handler struct {
	store    Store
	objects  ObjectStore
	prober   Prober
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates a media handler. maxBytes <= 0 uses storage.MaxCreativeFileSize.
func NewHandler(store Store, objects ObjectStore, prober Prober, maxBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = storage.MaxCreativeFileSize
	}
	return &Handler{store: store, objects: objects, prober: prober, maxBytes: maxBytes, logger: logger}
}

// List handles GET /media. Query ?status= filters by review status.
func (h *Handler) List(c *gin.Context) {
	var filter *models.MediaFileStatus
	if raw := c.Query("status"); raw != "" {
		s := models.MediaFileStatus(raw)
		if !s.Valid() {
			response.BadRequest(c, "invalid status")
			return
		}
		filter = &s
	}
	list, err := h.store.List(c.Request.Context(), filter)
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /media/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid media id")
		return
	}
	m, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, m)
}

// Upload handles POST /media/upload (multipart: file, optional name). The creative is probed,
// stored in S3 and created pending review.
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > h.maxBytes {
		response.BadRequest(c, fmt.Sprintf("file size exceeds %dMB limit", h.maxBytes/(1024*1024)))
		return
	}
	declared := file.Header.Get("Content-Type")
	if !storage.ValidateCreativeFileType(declared, file.Filename) {
		response.BadRequest(c, "invalid file type: only image (jpg, png, webp, gif) and video (mp4, mov, webm) allowed")
		return
	}
	contentType := storage.ContentTypeFor(declared, file.Filename)

	path, err := utils.SaveMultipartTemp(file)
	if err != nil {
		h.logger.Error("save uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer os.Remove(path)

	dims, err := h.prober.Decode(c.Request.Context(), mediaval.File{Path: path, Name: file.Filename, ContentType: contentType})
	if err != nil {
		h.logger.Info("uploaded creative could not be decoded", zap.String("filename", file.Filename), zap.Error(err))
		response.BadRequest(c, "file could not be read as an image or video")
		return
	}

	m := &models.MediaAsset{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(c.PostForm("name")),
		Type:       models.MediaTypeImage,
		Duration:   dims.Duration,
		Resolution: dims.Resolution(),
		Status:     models.MediaFilePending,
	}
	if m.Name == "" {
		m.Name = file.Filename
	}
	if storage.IsVideoContentType(contentType) {
		m.Type = models.MediaTypeVideo
	}
	m.S3Key = storage.CreativeKey(m.ID.String(), file.Filename)

	fh, err := os.Open(path)
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer fh.Close()
	m.URL, err = h.objects.Upload(c.Request.Context(), m.S3Key, contentType, fh, file.Size)
	if err != nil {
		h.logger.Error("S3 upload failed", zap.Error(err), zap.String("key", m.S3Key))
		response.Internal(c, "failed to upload file to storage")
		return
	}

	if err := h.store.Create(c.Request.Context(), m); err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	h.logger.Info("creative uploaded",
		zap.String("media_id", m.ID.String()),
		zap.String("type", string(m.Type)),
		zap.String("resolution", m.Resolution),
	)
	response.Created(c, m)
}

// UpdateStatus handles PATCH /media/:id/status (reviewer decision).
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid media id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	status := models.MediaFileStatus(req.Status)
	if !status.Valid() {
		response.BadRequest(c, "status must be pending, approved or rejected")
		return
	}
	m, err := h.store.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	h.logger.Info("creative reviewed", zap.String("media_id", id.String()), zap.String("status", string(status)))
	response.OK(c, m)
}
