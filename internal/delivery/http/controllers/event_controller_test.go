package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var (
	testActor = domain.Actor{ID: "user-123", Role: domain.RoleUser}
	testDate  = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
)

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err         error
	events      []*domain.EventDetails
	feed        []byte
	lastActor   domain.Actor
	lastID      string
	lastInput   domain.EventInput
	lastPatch   domain.EventPatch
	deleteCalls int
}

func sampleDetails(id string) *domain.EventDetails {
	return &domain.EventDetails{
		Event: &domain.Event{
			ID: id, Title: "Go meetup", Description: "Talks", Date: testDate, Location: "Lisbon",
			CreatedBy: "user-123", CreatedAt: testDate, UpdatedAt: testDate,
		},
		Creator: &domain.CreatorSummary{ID: "user-123", Name: "Alice", Email: "alice@example.com"},
	}
}

func (f *fakeEventService) ListEvents(ctx context.Context) ([]*domain.EventDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, id string) (*domain.EventDetails, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return sampleDetails(id), nil
}

func (f *fakeEventService) CreateEvent(ctx context.Context, actor domain.Actor, input domain.EventInput) (*domain.EventDetails, error) {
	f.lastActor = actor
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	d := sampleDetails("ev-created")
	d.Title = input.Title
	d.CreatedBy = actor.ID
	return d, nil
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, actor domain.Actor, id string, patch domain.EventPatch) (*domain.EventDetails, error) {
	f.lastActor = actor
	f.lastID = id
	f.lastPatch = patch
	if f.err != nil {
		return nil, f.err
	}
	d := sampleDetails(id)
	patch.Apply(d.Event)
	return d, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, actor domain.Actor, id string) error {
	f.lastActor = actor
	f.lastID = id
	f.deleteCalls++
	return f.err
}

func (f *fakeEventService) CalendarFeed(ctx context.Context) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.feed, nil
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	return envelope
}

func decodeData[T any](t *testing.T, envelope helpers.APIResponse) T {
	t.Helper()
	dataBytes, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(dataBytes, &out))
	return out
}

func withActor(req *http.Request) *http.Request {
	return req.WithContext(middleware.SetActor(req.Context(), testActor))
}

func TestEventController_ListEvents(t *testing.T) {
	tests := []struct {
		name       string
		fake       *fakeEventService
		wantStatus int
		wantLen    int
		wantMsg    string
	}{
		{name: "success", fake: &fakeEventService{events: []*domain.EventDetails{sampleDetails("a"), sampleDetails("b")}}, wantStatus: http.StatusOK, wantLen: 2},
		{name: "empty list", fake: &fakeEventService{events: []*domain.EventDetails{}}, wantStatus: http.StatusOK},
		{name: "storage failure hides internals", fake: &fakeEventService{err: fmt.Errorf("list events: %w: %w", domain.ErrStorageUnavailable, errors.New("dial tcp 10.0.0.1"))}, wantStatus: http.StatusInternalServerError, wantMsg: helpers.ServerErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewEventController(testLogger, tt.fake)
			rr := httptest.NewRecorder()
			ctrl.ListEvents(rr, httptest.NewRequest(http.MethodGet, "/events", nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantMsg != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantMsg, envelope.Error.Message)
				return
			}
			require.Nil(t, envelope.Error)
			list := decodeData[[]map[string]any](t, envelope)
			assert.Len(t, list, tt.wantLen)
			assert.NotNil(t, list)
		})
	}
}

func TestEventController_GetEvent(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "not found", err: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "storage failure", err: domain.ErrStorageUnavailable, wantStatus: http.StatusInternalServerError, wantCode: helpers.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{err: tt.err}
			ctrl := NewEventController(testLogger, fake)
			req := httptest.NewRequest(http.MethodGet, "/events/ev-1", nil)
			req.SetPathValue("id", "ev-1")
			rr := httptest.NewRecorder()

			ctrl.GetEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "ev-1", fake.lastID)
			envelope := decodeEnvelope(t, rr)
			if tt.wantCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				return
			}
			got := decodeData[map[string]any](t, envelope)
			assert.Equal(t, "ev-1", got["id"])
			assert.Equal(t, "Go meetup", got["title"])
			creator, ok := got["creator"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "alice@example.com", creator["email"])
		})
	}
}

func TestEventController_CreateEvent(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		fakeErr       error
		noUserContext bool
		wantStatus    int
		wantMsg       string
		checkInput    func(t *testing.T, in domain.EventInput)
	}{
		{
			name:       "success",
			body:       `{"title":"Go meetup","description":"Talks","date":"2026-03-14T18:00:00Z","location":"Lisbon"}`,
			wantStatus: http.StatusCreated,
			checkInput: func(t *testing.T, in domain.EventInput) {
				assert.Equal(t, "Go meetup", in.Title)
				assert.True(t, testDate.Equal(in.Date))
			},
		},
		{
			name:       "datetime-local date",
			body:       `{"title":"Go meetup","description":"Talks","date":"2026-03-14T18:00","location":"Lisbon"}`,
			wantStatus: http.StatusCreated,
			checkInput: func(t *testing.T, in domain.EventInput) {
				assert.True(t, testDate.Equal(in.Date))
			},
		},
		{
			name:          "no user in context",
			body:          `{"title":"Go meetup"}`,
			noUserContext: true,
			wantStatus:    http.StatusUnauthorized,
			wantMsg:       "not authorized",
		},
		{
			name:       "invalid json",
			body:       `{invalid`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "invalid",
		},
		{
			name:       "invalid date",
			body:       `{"title":"t","date":"next tuesday"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "invalid date",
		},
		{
			name:       "unknown field rejected",
			body:       `{"title":"t","created_by":"someone-else"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "unknown field",
		},
		{
			name:       "validation error is a bad request",
			body:       `{"title":""}`,
			fakeErr:    domain.NewValidationError("title", "please provide an event title"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "please provide an event title",
		},
		{
			name:       "service error",
			body:       `{"title":"t"}`,
			fakeErr:    errors.New("db error"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    helpers.ServerErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{err: tt.fakeErr}
			ctrl := NewEventController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if !tt.noUserContext {
				req = withActor(req)
			}
			rr := httptest.NewRecorder()

			ctrl.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus != http.StatusCreated {
				require.NotNil(t, envelope.Error, "error response must have error set")
				assert.Contains(t, envelope.Error.Message, tt.wantMsg, "error message")
				return
			}
			require.Nil(t, envelope.Error)
			assert.Equal(t, testActor, fake.lastActor)
			tt.checkInput(t, fake.lastInput)
			got := decodeData[map[string]any](t, envelope)
			assert.Equal(t, "ev-created", got["id"])
			assert.Equal(t, "user-123", got["created_by"])
		})
	}
}

func TestEventController_UpdateEvent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fakeErr    error
		wantStatus int
		wantCode   string
		checkPatch func(t *testing.T, p domain.EventPatch)
	}{
		{
			name:       "partial update",
			body:       `{"location":"Porto"}`,
			wantStatus: http.StatusOK,
			checkPatch: func(t *testing.T, p domain.EventPatch) {
				require.NotNil(t, p.Location)
				assert.Equal(t, "Porto", *p.Location)
				assert.Nil(t, p.Title)
				assert.Nil(t, p.Description)
				assert.Nil(t, p.Date)
			},
		},
		{
			name:       "date only",
			body:       `{"date":"2026-03-14"}`,
			wantStatus: http.StatusOK,
			checkPatch: func(t *testing.T, p domain.EventPatch) {
				require.NotNil(t, p.Date)
				assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), *p.Date)
			},
		},
		{name: "not owner", body: `{"title":"x"}`, fakeErr: domain.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "not found", body: `{"title":"x"}`, fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "validation", body: `{"title":""}`, fakeErr: domain.NewValidationError("title", "please provide an event title"), wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{
			name:       "null leaves field unchanged",
			body:       `{"title":null,"location":"Porto"}`,
			wantStatus: http.StatusOK,
			checkPatch: func(t *testing.T, p domain.EventPatch) {
				assert.Nil(t, p.Title)
				assert.Empty(t, p.Invalid)
			},
		},
		{
			name:       "unreadable fields are carried on the patch",
			body:       `{"title":5,"date":"not-a-date","venue":"x"}`,
			wantStatus: http.StatusOK,
			checkPatch: func(t *testing.T, p domain.EventPatch) {
				assert.Nil(t, p.Title)
				assert.Nil(t, p.Date)
				assert.Equal(t, "title must be a string", p.Invalid["title"])
				assert.Equal(t, `invalid date "not-a-date"`, p.Invalid["date"])
				assert.Equal(t, `unknown field "venue"`, p.Invalid["venue"])
			},
		},
		{
			name:       "empty body is carried on the patch",
			body:       ``,
			wantStatus: http.StatusOK,
			checkPatch: func(t *testing.T, p domain.EventPatch) {
				assert.Equal(t, "request body is required", p.Invalid["body"])
			},
		},
		{name: "not owner with unreadable date", body: `{"date":"not-a-date"}`, fakeErr: domain.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "not found with malformed json", body: `{invalid`, fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{err: tt.fakeErr}
			ctrl := NewEventController(testLogger, fake)
			req := withActor(httptest.NewRequest(http.MethodPut, "/events/ev-1", bytes.NewBufferString(tt.body)))
			req.SetPathValue("id", "ev-1")
			rr := httptest.NewRecorder()

			ctrl.UpdateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				return
			}
			assert.Equal(t, "ev-1", fake.lastID)
			assert.Equal(t, testActor, fake.lastActor)
			tt.checkPatch(t, fake.lastPatch)
		})
	}
}

func TestEventController_DeleteEvent(t *testing.T) {
	tests := []struct {
		name          string
		fakeErr       error
		noUserContext bool
		wantStatus    int
		wantCode      string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "not found", fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "not owner", fakeErr: domain.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "no user in context", noUserContext: true, wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{err: tt.fakeErr}
			ctrl := NewEventController(testLogger, fake)
			req := httptest.NewRequest(http.MethodDelete, "/events/ev-1", nil)
			if !tt.noUserContext {
				req = withActor(req)
			}
			req.SetPathValue("id", "ev-1")
			rr := httptest.NewRecorder()

			ctrl.DeleteEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				return
			}
			assert.Equal(t, helpers.MessageResponse{Message: "Event removed"}, decodeData[helpers.MessageResponse](t, envelope))
			assert.Equal(t, 1, fake.deleteCalls)
		})
	}
}

func TestEventController_CalendarFeed(t *testing.T) {
	fake := &fakeEventService{feed: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")}
	ctrl := NewEventController(testLogger, fake)
	rr := httptest.NewRecorder()

	ctrl.CalendarFeed(rr, httptest.NewRequest(http.MethodGet, "/events.ics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", rr.Body.String())

	fake.err = domain.ErrStorageUnavailable
	rr = httptest.NewRecorder()
	ctrl.CalendarFeed(rr, httptest.NewRequest(http.MethodGet, "/events.ics", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
