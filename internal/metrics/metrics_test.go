package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dooh-ops/backend/internal/models"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ValidationCompleted(true)
	m.ValidationCompleted(false)
	m.ValidationCompleted(false)
	m.TransitionRecorded(models.MediaStatusReceived, false)
	m.BookingCreated(true)
	m.BookingCreated(false)
	m.SoftConflictWarned()
	m.JobProcessed("retried")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.validations.WithLabelValues("approved")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.validations.WithLabelValues("refused")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("received", "false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookings))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.softConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("retried")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/assets/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/123", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `dooh_http_request_duration_seconds_count{method="GET",route="/assets/:id",status="204"} 1`)
}
