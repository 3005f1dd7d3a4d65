package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key (and header) holding the request correlation id.
const RequestIDKey = "X-Request-ID"

// Body is the standard API response envelope. Failures carry the request id so a dashboard
// report can be matched to the server log line.
type Body struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// Accepted sends 202 for work queued for later processing.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail sends an error envelope with an arbitrary status.
func Fail(c *gin.Context, status int, err string) {
	c.JSON(status, Body{Success: false, Error: err, RequestID: c.GetString(RequestIDKey)})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) { Fail(c, http.StatusBadRequest, err) }

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) { Fail(c, http.StatusUnauthorized, err) }

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) { Fail(c, http.StatusForbidden, err) }

// NotFound sends 404.
func NotFound(c *gin.Context, err string) { Fail(c, http.StatusNotFound, err) }

// Conflict sends 409.
func Conflict(c *gin.Context, err string) { Fail(c, http.StatusConflict, err) }

// UnprocessableEntity sends 422.
func UnprocessableEntity(c *gin.Context, err string) { Fail(c, http.StatusUnprocessableEntity, err) }

// Internal sends 500.
func Internal(c *gin.Context, err string) { Fail(c, http.StatusInternalServerError, err) }

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) { Fail(c, http.StatusServiceUnavailable, err) }
