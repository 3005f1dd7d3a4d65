package playlist

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/schedule"
	"github.com/dooh-ops/backend/pkg/response"
)

// SubmitRequest is the body for POST /playlist and POST /playlist/check.
type SubmitRequest struct {
	AssetID    string   `json:"asset_id" binding:"required"`
	MediaID    string   `json:"media_id"`
	QuoteID    string   `json:"quote_id"`
	StartDate  string   `json:"start_date" binding:"required"`
	EndDate    string   `json:"end_date" binding:"required"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	DaysOfWeek []string `json:"days_of_week"`
	Priority   int      `json:"priority"`
}

func (r SubmitRequest) submission() (schedule.Submission, error) {
	sub := schedule.Submission{
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		DaysOfWeek: r.DaysOfWeek,
		Priority:   r.Priority,
	}
	var err error
	if sub.AssetID, err = uuid.Parse(r.AssetID); err != nil {
		return sub, apperr.Invalid("asset_id", "invalid panel id")
	}
	if r.MediaID != "" {
		if sub.MediaID, err = uuid.Parse(r.MediaID); err != nil {
			return sub, apperr.Invalid("media_id", "invalid media id")
		}
	}
	if r.QuoteID != "" {
		qid, err := uuid.Parse(r.QuoteID)
		if err != nil {
			return sub, apperr.Invalid("quote_id", "invalid campaign id")
		}
		sub.QuoteID = &qid
	}
	return sub, nil
}

// Handler handles playlist HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a playlist handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /playlist. Query ?asset_id= limits the list to one panel.
func (h *Handler) List(c *gin.Context) {
	if raw := c.Query("asset_id"); raw != "" {
		assetID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid asset_id")
			return
		}
		list, err := h.svc.ListByAsset(c.Request.Context(), assetID)
		if err != nil {
			response.Fail(c, apperr.HTTPStatus(err), err.Error())
			return
		}
		response.OK(c, list)
		return
	}
	list, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, list)
}

// Grid handles GET /playlist/grid?date=YYYY-MM-DD (defaults to today).
func (h *Handler) Grid(c *gin.Context) {
	day := c.DefaultQuery("date", schedule.DateKey(time.Now()))
	grid, err := h.svc.Grid(c.Request.Context(), day)
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, gin.H{"date": day, "assets": grid})
}

// Check handles POST /playlist/check: the soft-conflict warning a booking would get.
func (h *Handler) Check(c *gin.Context) {
	sub, ok := bindSubmission(c)
	if !ok {
		return
	}
	warning, err := h.svc.Check(c.Request.Context(), sub)
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, gin.H{"conflict": warning != "", "warning": warning})
}

// Create handles POST /playlist.
func (h *Handler) Create(c *gin.Context) {
	sub, ok := bindSubmission(c)
	if !ok {
		return
	}
	res, err := h.svc.Create(c.Request.Context(), sub)
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.Created(c, res)
}

// Delete handles DELETE /playlist/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid playlist item id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.NoContent(c)
}

func bindSubmission(c *gin.Context) (schedule.Submission, bool) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return schedule.Submission{}, false
	}
	sub, err := req.submission()
	if err != nil {
		response.BadRequest(c, err.Error())
		return schedule.Submission{}, false
	}
	return sub, true
}
