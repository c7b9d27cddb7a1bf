package calendar

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/planner/internal/rest"
	"github.com/klokku/planner/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	calendar *Service
}

type EventDTO struct {
	UID         string    `json:"uid"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start"`
	EndTime     time.Time `json:"end"`
	Priority    string    `json:"priority,omitempty"`
	Kind        string    `json:"kind,omitempty"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{s}
}

// GetEvents godoc
// @Summary List local calendar events
// @Param from query string true "RFC3339 start"
// @Param to query string true "RFC3339 end"
// @Success 200 {array} EventDTO
// @Router /api/calendar/event [get]
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from (date) format", "'from' must be in RFC3339 format")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to (date) format", "'to' must be in RFC3339 format")
		return
	}

	events, err := h.calendar.GetEvents(r.Context(), from, to)
	if err != nil {
		writeCalendarError(w, err)
		return
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, EventToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.calendar.GetEvent(r.Context(), mux.Vars(r)["eventUid"])
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, EventToDTO(*event))
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var eventDTO EventDTO
	if err := json.NewDecoder(r.Body).Decode(&eventDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	added, err := h.calendar.AddEvent(r.Context(), dtoToEvent(eventDTO))
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, EventToDTO(*added))
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var eventDTO EventDTO
	if err := json.NewDecoder(r.Body).Decode(&eventDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	eventDTO.UID = mux.Vars(r)["eventUid"]

	modified, err := h.calendar.ModifyEvent(r.Context(), dtoToEvent(eventDTO))
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, EventToDTO(*modified))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	err := h.calendar.DeleteEvent(r.Context(), mux.Vars(r)["eventUid"])
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeCalendarError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEventNotFound):
		rest.WriteError(w, http.StatusNotFound, "Event not found", err.Error())
	case errors.Is(err, ErrInvalidEvent):
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusForbidden, "User required", err.Error())
	default:
		log.Errorf("calendar request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Calendar request failed", err.Error())
	}
}

func EventToDTO(e Event) EventDTO {
	return EventDTO{
		UID:         e.UID,
		Summary:     e.Summary,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Priority:    e.Metadata.Priority,
		Kind:        string(e.Metadata.Kind),
	}
}

func dtoToEvent(e EventDTO) Event {
	return Event{
		UID:         e.UID,
		Summary:     e.Summary,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Metadata:    EventMetadata{Priority: e.Priority, Kind: EventKind(e.Kind)},
	}
}
