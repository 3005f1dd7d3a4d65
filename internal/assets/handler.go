package assets

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/schedule"
	"github.com/dooh-ops/backend/pkg/response"
)

// Handler handles panel inventory HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an asset handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /assets.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /assets/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, a)
}

// Occupancy handles GET /assets/:id/occupancy?start=&end= (both default to today).
func (h *Handler) Occupancy(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	today := schedule.DateKey(time.Now())
	start := c.DefaultQuery("start", today)
	end := c.DefaultQuery("end", start)
	report, err := h.svc.Occupancy(c.Request.Context(), id, start, end)
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, report)
}

// Bookings handles GET /assets/:id/bookings?date= (defaults to today).
func (h *Handler) Bookings(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}
	day := c.DefaultQuery("date", schedule.DateKey(time.Now()))
	list, err := h.svc.Bookings(c.Request.Context(), id, day)
	if err != nil {
		response.Fail(c, apperr.HTTPStatus(err), err.Error())
		return
	}
	response.OK(c, gin.H{"date": day, "bookings": list})
}

func assetID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid asset id")
		return uuid.Nil, false
	}
	return id, true
}
