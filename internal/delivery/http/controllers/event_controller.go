package controllers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        *EventDate `json:"date" swaggertype:"string" format:"date-time"`
	Location    string     `json:"location"`
}

func (c CreateEventRequest) toInput() domain.EventInput {
	in := domain.EventInput{Title: c.Title, Description: c.Description, Location: c.Location}
	if c.Date != nil {
		in.Date = c.Date.Time()
	}
	return in
}

// UpdateEventRequest documents the request body for PUT /events/{id}.
// Omitted and null fields are unchanged.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *EventDate `json:"date" swaggertype:"string" format:"date-time"`
	Location    *string    `json:"location"`
}

// readEventPatch reads the PUT body without failing the request. Unreadable
// fields are rejected on the patch and reported by the service after the
// event lookup and ownership check.
func readEventPatch(w http.ResponseWriter, r *http.Request) domain.EventPatch {
	var patch domain.EventPatch
	fields, err := helpers.DecodeObject(w, r)
	if err != nil {
		patch.Reject("body", err.Error())
		return patch
	}
	for name, raw := range fields {
		if string(raw) == "null" {
			continue
		}
		switch name {
		case "title":
			patch.Title = readPatchString(&patch, name, raw)
		case "description":
			patch.Description = readPatchString(&patch, name, raw)
		case "location":
			patch.Location = readPatchString(&patch, name, raw)
		case "date":
			t, err := parseEventDate(raw)
			if err != nil {
				patch.Reject(name, err.Error())
				continue
			}
			patch.Date = &t
		default:
			patch.Reject(name, fmt.Sprintf("unknown field %q", name))
		}
	}
	return patch
}

func readPatchString(patch *domain.EventPatch, name string, raw json.RawMessage) *string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		patch.Reject(name, name+" must be a string")
		return nil
	}
	return &s
}

// EventSuccessResponse is the success envelope for single-event responses.
type EventSuccessResponse struct {
	Data  *domain.EventDetails `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ListEventsSuccessResponse is the success envelope for GET /events.
type ListEventsSuccessResponse struct {
	Data  []*domain.EventDetails `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// DeleteEventSuccessResponse is the success envelope for DELETE /events/{id}.
type DeleteEventSuccessResponse struct {
	Data  helpers.MessageResponse `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

const eventNotFound = "event not found"

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// ListEvents godoc
// @Summary List events
// @Description Returns every event ordered by date ascending, each with its creator summary.
// @Tags events
// @Produce json
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEvents(r.Context())
	if err != nil {
		writeServiceError(c.Logger, w, r, err, eventNotFound)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(c.Logger, w, r, err, eventNotFound)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create a new event
// @Description The authenticated user becomes the event creator. id and timestamps are server-generated.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "not authorized")
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), actor, req.toInput())
	if err != nil {
		writeServiceError(c.Logger, w, r, err, eventNotFound)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Only the creator or an admin may update. Omitted fields are unchanged.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "not authorized")
		return
	}
	patch := readEventPatch(w, r)
	event, err := c.Service.UpdateEvent(r.Context(), actor, r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(c.Logger, w, r, err, eventNotFound)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Only the creator or an admin may delete.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} controllers.DeleteEventSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "not authorized")
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), actor, r.PathValue("id")); err != nil {
		writeServiceError(c.Logger, w, r, err, eventNotFound)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.MessageResponse{Message: "Event removed"})
}

// CalendarFeed godoc
// @Summary iCalendar feed of all events
// @Tags events
// @Produce text/calendar
// @Success 200 {string} string "RFC 5545 calendar"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events.ics [get]
func (c *EventController) CalendarFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := c.Service.CalendarFeed(r.Context())
	if err != nil {
		writeServiceError(c.Logger, w, r, err, eventNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(feed)
}
