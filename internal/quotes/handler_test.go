package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/mediaval"
	"github.com/dooh-ops/backend/internal/middleware"
	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/internal/realtime"
	"github.com/dooh-ops/backend/internal/schedule"
	"github.com/dooh-ops/backend/pkg/queue"
)

type memoryQuotes struct {
	mu      sync.Mutex
	quotes  map[uuid.UUID]*models.Quote
	history map[uuid.UUID][]models.MediaHistoryEntry
}

func newMemoryQuotes(ids ...uuid.UUID) *memoryQuotes {
	m := &memoryQuotes{quotes: make(map[uuid.UUID]*models.Quote), history: make(map[uuid.UUID][]models.MediaHistoryEntry)}
	for _, id := range ids {
		m.quotes[id] = &models.Quote{ID: id, Name: "Summer", ClientName: "Acme", MediaStatus: models.MediaStatusPending}
	}
	return m
}

func (m *memoryQuotes) GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *memoryQuotes) History(ctx context.Context, id uuid.UUID) ([]models.MediaHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.MediaHistoryEntry{}, m.history[id]...), nil
}

func (m *memoryQuotes) CurrentStatus(ctx context.Context, id uuid.UUID) (models.MediaStatus, error) {
	q, err := m.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return q.MediaStatus, nil
}

func (m *memoryQuotes) Append(ctx context.Context, e *models.MediaHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[e.QuoteID] = append(m.history[e.QuoteID], *e)
	if e.Accepted {
		m.quotes[e.QuoteID].MediaStatus = e.Status
	}
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	rooms  []string
	events []string
}

func (n *recordingNotifier) Publish(room, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rooms = append(n.rooms, room)
	n.events = append(n.events, event)
}

type fakeQueue struct{ payloads []queue.MediaValidationPayload }

func (q *fakeQueue) EnqueueMediaValidation(ctx context.Context, p queue.MediaValidationPayload) (string, error) {
	q.payloads = append(q.payloads, p)
	return "job-1", nil
}

type fakePresigner struct{}

func (fakePresigner) GeneratePresignedUploadURL(ctx context.Context, key, contentType string) (string, error) {
	return "https://s3.example.com/" + key + "?sig=x", nil
}

type assetMap map[uuid.UUID]*models.Asset

func (a assetMap) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	if v, ok := a[id]; ok {
		return v, nil
	}
	return nil, apperr.ErrNotFound
}

type env struct {
	router   *gin.Engine
	store    *memoryQuotes
	notifier *recordingNotifier
	queue    *fakeQueue
	quote    uuid.UUID
	portrait uuid.UUID
}

func newEnv(t *testing.T, withQueue bool) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	e := &env{quote: uuid.New(), portrait: uuid.New(), notifier: &recordingNotifier{}}
	e.store = newMemoryQuotes(e.quote)
	validator := mediaval.NewValidator(mediaval.ImageDecoder{}, schedule.DefaultRules())
	svc := NewService(e.store, mediaval.NewWorkflow(e.store, validator, nil, nil), e.notifier, nil)
	var q Enqueuer
	if withQueue {
		e.queue = &fakeQueue{}
		q = e.queue
	}
	h := NewHandler(svc, assetMap{e.portrait: {ID: e.portrait, Resolution: "1080x1920"}}, q, fakePresigner{}, 0, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserEmail, "ops@example.com")
		c.Next()
	})
	r.GET("/quotes/:id/media/history", h.History)
	r.POST("/quotes/:id/media/validate", h.Validate)
	r.POST("/quotes/:id/media/status", h.SetStatus)
	r.POST("/quotes/:id/media/validate-async", h.ValidateAsync)
	r.POST("/quotes/:id/media/upload-url", h.UploadURL)
	e.router = r
	return e
}

func (e *env) postJSON(path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) postFile(t *testing.T, width, height int, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, width, height))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "creative.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/quotes/"+e.quote.String()+"/media/validate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	e.router.ServeHTTP(w, req)
	return w
}

type outcomeBody struct {
	Success bool             `json:"success"`
	Data    mediaval.Outcome `json:"data"`
	Error   string           `json:"error"`
}

func decodeOutcome(t *testing.T, w *httptest.ResponseRecorder) mediaval.Outcome {
	t.Helper()
	var b outcomeBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b), w.Body.String())
	require.True(t, b.Success, b.Error)
	return b.Data
}

func TestManualReceivedWithoutOverrideIsRecordedButRefused(t *testing.T) {
	e := newEnv(t, false)
	w := e.postJSON("/quotes/"+e.quote.String()+"/media/status", `{"status":"received","note":"client emailed it"}`)
	require.Equal(t, http.StatusOK, w.Code)

	out := decodeOutcome(t, w)
	assert.False(t, out.Accepted)
	assert.Equal(t, models.MediaStatusPending, out.Entry.Status)
	assert.Equal(t, models.MediaStatusReceived, out.Entry.AttemptedStatus)
	assert.Equal(t, "ops@example.com", out.Entry.User)
	assert.Contains(t, out.Entry.Note, "client emailed it")

	assert.Equal(t, models.MediaStatusPending, e.store.quotes[e.quote].MediaStatus)
	assert.Len(t, e.store.history[e.quote], 1)
	assert.Equal(t, []string{realtime.QuoteRoom(e.quote)}, e.notifier.rooms)
	assert.Equal(t, []string{realtime.EventMediaStatusChanged}, e.notifier.events)
}

func TestManualOverrideAndRejection(t *testing.T) {
	e := newEnv(t, false)
	path := "/quotes/" + e.quote.String() + "/media/status"

	out := decodeOutcome(t, e.postJSON(path, `{"status":"received","override":true}`))
	assert.True(t, out.Accepted)
	assert.Contains(t, out.Entry.Note, "manual override")
	assert.Equal(t, models.MediaStatusReceived, e.store.quotes[e.quote].MediaStatus)

	out = decodeOutcome(t, e.postJSON(path, `{"status":"rejected","note":"wrong language"}`))
	assert.True(t, out.Accepted)
	assert.Equal(t, models.MediaStatusReceived, out.Previous)
	assert.Equal(t, models.MediaStatusRejected, e.store.quotes[e.quote].MediaStatus)
	assert.Len(t, e.store.history[e.quote], 2)
}

func TestStatusInputErrors(t *testing.T) {
	e := newEnv(t, false)
	w := e.postJSON("/quotes/"+e.quote.String()+"/media/status", `{"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.postJSON("/quotes/"+uuid.NewString()+"/media/status", `{"status":"rejected"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.postJSON("/quotes/abc/media/status", `{"status":"rejected"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, e.store.history)
}

func TestValidateConformingFileIsReceived(t *testing.T) {
	e := newEnv(t, false)
	out := decodeOutcome(t, e.postFile(t, 1920, 1080, nil))
	assert.True(t, out.Accepted)
	require.NotNil(t, out.Entry.ValidationResult)
	assert.True(t, out.Entry.ValidationResult.Approved)
	assert.Len(t, out.Entry.ValidationResult.Checks, 3)
	assert.Equal(t, models.MediaStatusReceived, e.store.quotes[e.quote].MediaStatus)
}

func TestValidateNonConformingFileKeepsStatus(t *testing.T) {
	e := newEnv(t, false)
	out := decodeOutcome(t, e.postFile(t, 800, 600, map[string]string{"note": "first cut"}))
	assert.False(t, out.Accepted)
	assert.Equal(t, models.MediaStatusPending, out.Entry.Status)
	require.NotNil(t, out.Entry.ValidationResult)
	c, ok := out.Entry.ValidationResult.Check(mediaval.CheckResolution)
	require.True(t, ok)
	assert.False(t, c.Passed)
	assert.Equal(t, models.MediaStatusPending, e.store.quotes[e.quote].MediaStatus)
}

func TestValidateAgainstPanelResolution(t *testing.T) {
	e := newEnv(t, false)
	out := decodeOutcome(t, e.postFile(t, 1080, 1920, map[string]string{"asset_id": e.portrait.String()}))
	assert.True(t, out.Accepted)
	assert.Equal(t, "1080x1920", out.Entry.ValidationResult.Target)

	w := e.postFile(t, 1080, 1920, map[string]string{"asset_id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidateAsync(t *testing.T) {
	e := newEnv(t, true)
	w := e.postJSON("/quotes/"+e.quote.String()+"/media/validate-async",
		`{"s3_key":"deliveries/`+e.quote.String()+`/spot.mp4","asset_id":"`+e.portrait.String()+`"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.Len(t, e.queue.payloads, 1)
	p := e.queue.payloads[0]
	assert.Equal(t, e.quote, p.QuoteID)
	assert.Equal(t, "spot.mp4", p.Filename)
	assert.Equal(t, "video/mp4", p.ContentType)
	assert.Equal(t, "1080x1920", p.TargetResolution)
	assert.Equal(t, "ops@example.com", p.User)

	w = e.postJSON("/quotes/"+uuid.NewString()+"/media/validate-async", `{"s3_key":"x.png"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	noQueue := newEnv(t, false)
	w = noQueue.postJSON("/quotes/"+noQueue.quote.String()+"/media/validate-async", `{"s3_key":"x.png"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUploadURLAndHistory(t *testing.T) {
	e := newEnv(t, false)
	w := e.postJSON("/quotes/"+e.quote.String()+"/media/upload-url", `{"filename":"spot.mp4","file_size":1024}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deliveries/"+e.quote.String()+"/spot.mp4")

	w = e.postJSON("/quotes/"+e.quote.String()+"/media/upload-url", `{"filename":"deck.pptx","file_size":1024}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.postJSON("/quotes/"+e.quote.String()+"/media/status", `{"status":"rejected"}`)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quotes/"+e.quote.String()+"/media/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Quote   models.Quote               `json:"quote"`
			History []models.MediaHistoryEntry `json:"history"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.MediaStatusRejected, resp.Data.Quote.MediaStatus)
	require.Len(t, resp.Data.History, 1)
	assert.Equal(t, models.MediaStatusRejected, resp.Data.History[0].Status)
}
