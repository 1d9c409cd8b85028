package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henrychris/EventManagement/internal/domain"
	"github.com/henrychris/EventManagement/internal/dto"
	"github.com/henrychris/EventManagement/internal/middleware"
	"github.com/henrychris/EventManagement/pkg/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := logger.Init(&logger.Config{ServiceName: "test", Development: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// stubEventService returns canned results per call.
type stubEventService struct {
	event     *dto.EventResponse
	search    *dto.SearchEventsResponse
	purchase  *dto.TicketPurchaseResponse
	err       error
	deleteErr error
}

func (s *stubEventService) CreateEvent(context.Context, *dto.CreateEventRequest, string) (*dto.EventResponse, error) {
	return s.event, s.err
}

func (s *stubEventService) GetEvent(context.Context, string) (*dto.EventResponse, error) {
	return s.event, s.err
}

func (s *stubEventService) UpdateEvent(context.Context, string, *dto.UpdateEventRequest) (*dto.EventResponse, error) {
	return s.event, s.err
}

func (s *stubEventService) DeleteEvent(context.Context, string) error {
	return s.deleteErr
}

func (s *stubEventService) SearchEvents(context.Context, *dto.SearchEventsRequest) (*dto.SearchEventsResponse, error) {
	return s.search, s.err
}

func (s *stubEventService) GetEventsWithAvailableTickets(context.Context, int, int) (*dto.SearchEventsResponse, error) {
	return s.search, s.err
}

func (s *stubEventService) BuyTicket(context.Context, string, string) (*dto.TicketPurchaseResponse, error) {
	return s.purchase, s.err
}

// asUser injects verified claims the way JWTMiddleware would.
func asUser(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &domain.Claims{
			UserID: "user-1",
			Email:  "user@example.com",
			Role:   role,
		})
		c.Next()
	}
}

func newTestRouter(svc *stubEventService, authed bool) *gin.Engine {
	r := gin.New()
	h := NewEventHandler(svc)

	group := r.Group("")
	if authed {
		group.Use(asUser(domain.RoleOrganiser))
	}
	group.POST("/events", h.Create)
	group.GET("/events/search", h.Search)
	group.GET("/events/available-tickets", h.AvailableTickets)
	group.GET("/events/:id", h.Get)
	group.PUT("/events/:id", h.Update)
	group.DELETE("/events/:id", h.Delete)
	group.POST("/events/:id/buy-ticket", h.BuyTicket)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreate_Success(t *testing.T) {
	svc := &stubEventService{event: &dto.EventResponse{ID: "e1", Name: "Jazz Evening"}}
	r := newTestRouter(svc, true)

	body := `{"name":"Jazz Evening","description":"live jazz","date":"2026-06-01T00:00:00Z","start_time":"2026-06-01T18:00:00Z","end_time":"2026-06-01T22:00:00Z","tickets_available":100}`
	w := doRequest(r, http.MethodPost, "/events", body)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/v1/events/e1", w.Header().Get("Location"))
}

func TestCreate_Unauthenticated(t *testing.T) {
	svc := &stubEventService{}
	r := newTestRouter(svc, false)

	body := `{"name":"Jazz Evening","description":"live jazz","date":"2026-06-01T00:00:00Z","start_time":"2026-06-01T18:00:00Z","end_time":"2026-06-01T22:00:00Z"}`
	w := doRequest(r, http.MethodPost, "/events", body)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreate_ValidationErrorsKeyedByCode(t *testing.T) {
	svc := &stubEventService{err: domain.ValidationErrors{
		{Code: domain.CodeInvalidTicketPrice, Description: "Ticket price cannot be negative."},
		{Code: domain.CodeInvalidName, Description: "Event name must be between 3 and 30 characters."},
	}}
	r := newTestRouter(svc, true)

	body := `{"name":"ab","description":"live jazz","price":-1,"date":"2026-06-01T00:00:00Z","start_time":"2026-06-01T18:00:00Z","end_time":"2026-06-01T22:00:00Z"}`
	w := doRequest(r, http.MethodPost, "/events", body)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var payload struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string              `json:"code"`
			Details map[string][]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.False(t, payload.Success)
	assert.Equal(t, "VALIDATION_FAILED", payload.Error.Code)
	assert.Contains(t, payload.Error.Details, domain.CodeInvalidTicketPrice)
	assert.Contains(t, payload.Error.Details, domain.CodeInvalidName)
}

func TestCreate_MalformedBody(t *testing.T) {
	r := newTestRouter(&stubEventService{}, true)

	w := doRequest(r, http.MethodPost, "/events", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGet_NotFound(t *testing.T) {
	svc := &stubEventService{err: domain.ErrEventNotFound}
	r := newTestRouter(svc, false)

	w := doRequest(r, http.MethodGet, "/events/missing", "")

	require.Equal(t, http.StatusNotFound, w.Code)

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Event.NotFound", payload.Error.Code)
}

func TestGet_Success(t *testing.T) {
	svc := &stubEventService{event: &dto.EventResponse{ID: "e1", Name: "Jazz Evening"}}
	r := newTestRouter(svc, false)

	w := doRequest(r, http.MethodGet, "/events/e1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Jazz Evening")
}

func TestDelete_NoContent(t *testing.T) {
	r := newTestRouter(&stubEventService{}, true)

	w := doRequest(r, http.MethodDelete, "/events/e1", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDelete_NotFound(t *testing.T) {
	svc := &stubEventService{deleteErr: domain.ErrEventNotFound}
	r := newTestRouter(svc, true)

	w := doRequest(r, http.MethodDelete, "/events/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuyTicket_SoldOut(t *testing.T) {
	svc := &stubEventService{err: domain.ErrNoTicketsAvailable}
	r := newTestRouter(svc, true)

	w := doRequest(r, http.MethodPost, "/events/e1/buy-ticket", "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Event.SoldOut")
}

func TestBuyTicket_ConcurrencyConflict(t *testing.T) {
	svc := &stubEventService{err: domain.ErrConcurrencyConflict}
	r := newTestRouter(svc, true)

	w := doRequest(r, http.MethodPost, "/events/e1/buy-ticket", "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Event.ConcurrencyConflict")
}

func TestBuyTicket_Success(t *testing.T) {
	svc := &stubEventService{purchase: &dto.TicketPurchaseResponse{EventName: "Jazz Evening"}}
	r := newTestRouter(svc, true)

	w := doRequest(r, http.MethodPost, "/events/e1/buy-ticket", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Jazz Evening")
}

func TestBuyTicket_Unauthenticated(t *testing.T) {
	r := newTestRouter(&stubEventService{}, false)

	w := doRequest(r, http.MethodPost, "/events/e1/buy-ticket", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// Unmapped errors surface as an opaque 500 with no internal detail.
func TestWriteError_OpaqueInternal(t *testing.T) {
	svc := &stubEventService{err: assert.AnError}
	r := newTestRouter(svc, false)

	w := doRequest(r, http.MethodGet, "/events/e1", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestSearch_Success(t *testing.T) {
	svc := &stubEventService{search: &dto.SearchEventsResponse{
		Events: []*dto.EventResponse{{ID: "e1"}},
		Count:  1,
	}}
	r := newTestRouter(svc, false)

	w := doRequest(r, http.MethodGet, "/events/search?name=jazz&page_number=1&page_size=10", "")

	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Data dto.SearchEventsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Data.Count)
	assert.Len(t, payload.Data.Events, 1)
}
