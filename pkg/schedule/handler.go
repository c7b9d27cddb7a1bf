package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/planner/internal/rest"
	"github.com/klokku/planner/pkg/calendar"
	"github.com/klokku/planner/pkg/google"
	"github.com/klokku/planner/pkg/intent"
	"github.com/klokku/planner/pkg/scheduling"
	"github.com/klokku/planner/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type TaskRequestDTO struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	// PreferredDate is YYYY-MM-DD.
	PreferredDate string `json:"preferredDate,omitempty"`
	Priority      string `json:"priority,omitempty"`
	Description   string `json:"description,omitempty"`
}

type TextRequestDTO struct {
	Text string `json:"text"`
}

type TextResultDTO struct {
	Event  calendar.EventDTO `json:"event"`
	Intent intent.Intent     `json:"intent"`
}

type RescheduleRequestDTO struct {
	Start time.Time `json:"start"`
}

type BlockRequestDTO struct {
	Title       string    `json:"title,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Priority    string    `json:"priority,omitempty"`
	Description string    `json:"description,omitempty"`
}

type SlotDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type PlacementDTO struct {
	UID            string    `json:"uid"`
	Title          string    `json:"title"`
	Priority       string    `json:"priority"`
	OriginalStart  time.Time `json:"originalStart"`
	OriginalEnd    time.Time `json:"originalEnd"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	WasRescheduled bool      `json:"wasRescheduled"`
	Conflict       bool      `json:"conflict"`
}

type OptimizationDTO struct {
	Date       string         `json:"date"`
	Applied    bool           `json:"applied"`
	Placements []PlacementDTO `json:"placements"`
}

type RoutineRequestDTO struct {
	DurationMinutes int `json:"durationMinutes"`
	// PreferredTime is HH:MM.
	PreferredTime string `json:"preferredTime,omitempty"`
	// Weekdays use 0 for Sunday through 6 for Saturday.
	Weekdays []int  `json:"weekdays,omitempty"`
	Cron     string `json:"cron,omitempty"`
}

type RoutineSuggestionDTO struct {
	Date  string    `json:"date"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ScheduleTask godoc
// @Summary Place a task in the first suitable free slot
// @Tags Schedule
// @Accept json
// @Produce json
// @Param task body TaskRequestDTO true "Task"
// @Success 201 {object} calendar.EventDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "No free slot"
// @Router /api/schedule/task [post]
// @Security XUserId
func (h *Handler) ScheduleTask(w http.ResponseWriter, r *http.Request) {
	var dto TaskRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req := TaskRequest{
		Title:       dto.Title,
		Duration:    time.Duration(dto.DurationMinutes) * time.Minute,
		Priority:    dto.Priority,
		Description: dto.Description,
	}
	if dto.PreferredDate != "" {
		date, err := time.Parse(time.DateOnly, dto.PreferredDate)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid preferredDate format", "'preferredDate' must be YYYY-MM-DD")
			return
		}
		req.PreferredDate = date
	}

	event, err := h.service.ScheduleTask(r.Context(), req)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, calendar.EventToDTO(event))
}

// ScheduleFromText godoc
// @Summary Create an event from a natural language sentence
// @Tags Schedule
// @Accept json
// @Produce json
// @Param text body TextRequestDTO true "Text"
// @Success 201 {object} TextResultDTO
// @Router /api/schedule/natural [post]
// @Security XUserId
func (h *Handler) ScheduleFromText(w http.ResponseWriter, r *http.Request) {
	var dto TextRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	result, err := h.service.ScheduleFromText(r.Context(), dto.Text)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, TextResultDTO{
		Event:  calendar.EventToDTO(result.Event),
		Intent: result.Intent,
	})
}

// Reschedule godoc
// @Summary Move an event, or the nearest free slot of that day
// @Tags Schedule
// @Accept json
// @Produce json
// @Param eventUid path string true "Event UID"
// @Param request body RescheduleRequestDTO true "New start"
// @Success 200 {object} calendar.EventDTO
// @Failure 404 {object} rest.ErrorResponse "Event not found"
// @Failure 409 {object} rest.ErrorResponse "No alternative slot"
// @Router /api/schedule/event/{eventUid}/reschedule [put]
// @Security XUserId
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var dto RescheduleRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if dto.Start.IsZero() {
		rest.WriteError(w, http.StatusBadRequest, "Start is required", "'start' must be an RFC3339 timestamp")
		return
	}
	event, err := h.service.Reschedule(r.Context(), mux.Vars(r)["eventUid"], dto.Start)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, calendar.EventToDTO(event))
}

// CreateBlock godoc
// @Summary Reserve a fixed interval
// @Tags Schedule
// @Accept json
// @Produce json
// @Param block body BlockRequestDTO true "Block"
// @Success 201 {object} calendar.EventDTO
// @Failure 409 {object} rest.ErrorResponse "Conflicts with existing events"
// @Router /api/schedule/block [post]
// @Security XUserId
func (h *Handler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var dto BlockRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	event, err := h.service.CreateBlock(r.Context(), BlockRequest{
		Title:       dto.Title,
		Start:       dto.Start,
		End:         dto.End,
		Priority:    dto.Priority,
		Description: dto.Description,
	})
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, calendar.EventToDTO(event))
}

// FreeSlots godoc
// @Summary List free slots of a day
// @Tags Schedule
// @Produce json
// @Param date query string true "YYYY-MM-DD"
// @Param duration query int false "Minutes"
// @Success 200 {array} SlotDTO
// @Router /api/schedule/free-slots [get]
// @Security XUserId
func (h *Handler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	var duration time.Duration
	if raw := r.URL.Query().Get("duration"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid duration", "'duration' must be a number of minutes")
			return
		}
		duration = time.Duration(minutes) * time.Minute
	}

	slots, err := h.service.FreeSlots(r.Context(), date, duration)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	dtos := make([]SlotDTO, 0, len(slots))
	for _, s := range slots {
		dtos = append(dtos, SlotDTO{Start: s.Start, End: s.End})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Agenda godoc
// @Summary Events of a day
// @Tags Schedule
// @Produce json
// @Param date query string true "YYYY-MM-DD"
// @Success 200 {array} calendar.EventDTO
// @Router /api/schedule/agenda [get]
// @Security XUserId
func (h *Handler) Agenda(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	events, err := h.service.Agenda(r.Context(), date)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	dtos := make([]calendar.EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, calendar.EventToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// OptimizeDay godoc
// @Summary Re-place a day's events by priority
// @Description GET previews the result. POST, or apply=true, also stores the moved events.
// @Tags Schedule
// @Produce json
// @Param date query string true "YYYY-MM-DD"
// @Param apply query bool false "Store the moved events"
// @Success 200 {object} OptimizationDTO
// @Router /api/schedule/optimize [get]
// @Router /api/schedule/optimize [post]
// @Security XUserId
func (h *Handler) OptimizeDay(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	apply := r.Method == http.MethodPost
	if raw := r.URL.Query().Get("apply"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid apply flag", "")
			return
		}
		apply = parsed
	}

	result, err := h.service.OptimizeDay(r.Context(), date, apply)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	dto := OptimizationDTO{
		Date:       date.Format(time.DateOnly),
		Applied:    apply,
		Placements: make([]PlacementDTO, 0, len(result.Placements)),
	}
	for _, p := range result.Placements {
		dto.Placements = append(dto.Placements, PlacementDTO{
			UID:            p.Event.ID,
			Title:          p.Event.Title,
			Priority:       string(p.Event.Priority),
			OriginalStart:  p.Event.Interval.Start,
			OriginalEnd:    p.Event.Interval.End,
			Start:          p.Interval.Start,
			End:            p.Interval.End,
			WasRescheduled: p.WasRescheduled,
			Conflict:       p.Conflict,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dto)
}

// SuggestRoutine godoc
// @Summary Suggest times for a recurring activity over the next seven days
// @Tags Schedule
// @Accept json
// @Produce json
// @Param routine body RoutineRequestDTO true "Routine"
// @Success 200 {array} RoutineSuggestionDTO
// @Router /api/schedule/routine/suggestions [post]
// @Security XUserId
func (h *Handler) SuggestRoutine(w http.ResponseWriter, r *http.Request) {
	var dto RoutineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	req := RoutineRequest{
		Duration: time.Duration(dto.DurationMinutes) * time.Minute,
		Cron:     dto.Cron,
	}
	if dto.PreferredTime != "" {
		clock, err := time.Parse("15:04", dto.PreferredTime)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid preferredTime format", "'preferredTime' must be HH:MM")
			return
		}
		offset := time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute
		req.PreferredTimeOfDay = &offset
	}
	for _, d := range dto.Weekdays {
		if d < 0 || d > 6 {
			rest.WriteError(w, http.StatusBadRequest, "Invalid weekday", fmt.Sprintf("%d is not between 0 (Sunday) and 6 (Saturday)", d))
			return
		}
		req.Weekdays = append(req.Weekdays, time.Weekday(d))
	}

	suggestions, err := h.service.SuggestRoutine(r.Context(), req)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	dtos := make([]RoutineSuggestionDTO, 0, len(suggestions))
	for _, s := range suggestions {
		dtos = append(dtos, RoutineSuggestionDTO{
			Date:  s.Date.Format(time.DateOnly),
			Start: s.Interval.Start,
			End:   s.Interval.End,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date, err := time.Parse(time.DateOnly, r.URL.Query().Get("date"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "'date' must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func writeScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrInvalidRequest), errors.Is(err, calendar.ErrInvalidEvent):
		rest.WriteError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, scheduling.ErrNoSlotAvailable):
		rest.WriteError(w, http.StatusConflict, "No free slot available", err.Error())
	case errors.Is(err, scheduling.ErrNoAlternativeAvailable):
		rest.WriteError(w, http.StatusConflict, "No alternative slot available", err.Error())
	case errors.Is(err, ErrTimeBlockConflict):
		rest.WriteError(w, http.StatusConflict, "Time block conflicts with existing events", err.Error())
	case errors.Is(err, calendar.ErrEventNotFound):
		rest.WriteError(w, http.StatusNotFound, "Event not found", "")
	case errors.Is(err, user.ErrNoUser), errors.Is(err, google.ErrUnauthenticated):
		rest.WriteError(w, http.StatusForbidden, "Access denied", err.Error())
	default:
		log.Errorf("schedule request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}
