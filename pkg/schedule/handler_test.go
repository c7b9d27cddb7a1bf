package schedule

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/klokku/planner/internal/rest"
	"github.com/klokku/planner/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, events ...calendar.Event) (*mux.Router, fixture) {
	f := setup(t, events...)
	h := NewHandler(f.service)
	router := mux.NewRouter()
	router.HandleFunc("/api/schedule/task", h.ScheduleTask).Methods("POST")
	router.HandleFunc("/api/schedule/natural", h.ScheduleFromText).Methods("POST")
	router.HandleFunc("/api/schedule/event/{eventUid}/reschedule", h.Reschedule).Methods("PUT")
	router.HandleFunc("/api/schedule/block", h.CreateBlock).Methods("POST")
	router.HandleFunc("/api/schedule/free-slots", h.FreeSlots).Methods("GET")
	router.HandleFunc("/api/schedule/agenda", h.Agenda).Methods("GET")
	router.HandleFunc("/api/schedule/optimize", h.OptimizeDay).Methods("GET", "POST")
	router.HandleFunc("/api/schedule/routine/suggestions", h.SuggestRoutine).Methods("POST")
	return router, f
}

func serve(router *mux.Router, method, target string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload)).WithContext(userCtx)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandler_ScheduleTask(t *testing.T) {
	t.Run("should return created event", func(t *testing.T) {
		router, _ := setupRouter(t, event("Morning", 0, 10, "low"))

		rr := serve(router, "POST", "/api/schedule/task", TaskRequestDTO{Title: "Report", PreferredDate: "2025-03-10", DurationMinutes: 90})

		require.Equal(t, http.StatusCreated, rr.Code)
		var dto calendar.EventDTO
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&dto))
		assert.Equal(t, "Report", dto.Summary)
		assert.True(t, at(0, 10, 0).Equal(dto.StartTime))
		assert.True(t, at(0, 11, 30).Equal(dto.EndTime))
	})

	t.Run("should return 400 for bad date", func(t *testing.T) {
		router, _ := setupRouter(t)

		rr := serve(router, "POST", "/api/schedule/task", TaskRequestDTO{Title: "Report", PreferredDate: "10/03/2025"})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("should return 409 when no slot exists", func(t *testing.T) {
		router, _ := setupRouter(t, event("Two days", 0, 48, "high"))

		rr := serve(router, "POST", "/api/schedule/task", TaskRequestDTO{Title: "Report", PreferredDate: "2025-03-10"})

		assert.Equal(t, http.StatusConflict, rr.Code)
		var errResp rest.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
		assert.Equal(t, "No free slot available", errResp.Error)
	})

	t.Run("should return 403 without user", func(t *testing.T) {
		router, _ := setupRouter(t)
		req := httptest.NewRequest("POST", "/api/schedule/task", bytes.NewBufferString(`{"title":"Report"}`))
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestHandler_RescheduleAndBlock(t *testing.T) {
	router, f := setupRouter(t, event("A", 9, 10, "medium"))
	uid := f.cal.All()[0].UID

	rr := serve(router, "PUT", "/api/schedule/event/missing/reschedule", RescheduleRequestDTO{Start: at(0, 12, 0)})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(router, "PUT", "/api/schedule/event/"+uid+"/reschedule", RescheduleRequestDTO{Start: at(0, 12, 0)})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(router, "POST", "/api/schedule/block", BlockRequestDTO{Start: at(0, 12, 30), End: at(0, 14, 0)})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = serve(router, "POST", "/api/schedule/block", BlockRequestDTO{Start: at(0, 14, 0), End: at(0, 13, 0)})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(router, "POST", "/api/schedule/block", BlockRequestDTO{Title: "Focus", Start: at(0, 14, 0), End: at(0, 16, 0)})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Len(t, f.cal.All(), 2)
}

func TestHandler_FreeSlots(t *testing.T) {
	router, _ := setupRouter(t, event("Day", 0, 23, "low"))

	rr := serve(router, "GET", "/api/schedule/free-slots?date=2025-03-10&duration=30", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var slots []SlotDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&slots))
	require.Len(t, slots, 2)
	assert.True(t, at(0, 23, 0).Equal(slots[0].Start))
	assert.True(t, at(0, 23, 30).Equal(slots[1].Start))

	rr = serve(router, "GET", "/api/schedule/free-slots?date=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(router, "GET", "/api/schedule/agenda?date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"summary":"Day"`)
}

func TestHandler_OptimizeDay(t *testing.T) {
	t.Run("should preview on GET", func(t *testing.T) {
		router, f := setupRouter(t, event("High", 9, 10, "high"), event("Low", 9, 10, "low"))

		rr := serve(router, "GET", "/api/schedule/optimize?date=2025-03-10", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		var dto OptimizationDTO
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&dto))
		assert.False(t, dto.Applied)
		require.Len(t, dto.Placements, 2)
		assert.True(t, dto.Placements[1].WasRescheduled)
		assert.True(t, at(0, 9, 0).Equal(dto.Placements[1].OriginalStart))
		assert.True(t, at(0, 8, 0).Equal(dto.Placements[1].Start))
		assert.True(t, at(0, 9, 0).Equal(f.cal.All()[0].StartTime))
	})

	t.Run("should apply on POST", func(t *testing.T) {
		router, f := setupRouter(t, event("High", 9, 10, "high"), event("Low", 9, 10, "low"))

		rr := serve(router, "POST", "/api/schedule/optimize?date=2025-03-10", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, at(0, 8, 0).Equal(f.cal.All()[0].StartTime))
	})
}

func TestHandler_SuggestRoutine(t *testing.T) {
	router, _ := setupRouter(t)

	rr := serve(router, "POST", "/api/schedule/routine/suggestions", RoutineRequestDTO{
		DurationMinutes: 30, PreferredTime: "06:30", Weekdays: []int{1, 3},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var suggestions []RoutineSuggestionDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&suggestions))
	require.Len(t, suggestions, 2)
	assert.Equal(t, "2025-03-10", suggestions[0].Date)
	assert.True(t, at(0, 6, 30).Equal(suggestions[0].Start))
	assert.Equal(t, "2025-03-12", suggestions[1].Date)

	rr = serve(router, "POST", "/api/schedule/routine/suggestions", RoutineRequestDTO{DurationMinutes: 30, Weekdays: []int{7}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(router, "POST", "/api/schedule/routine/suggestions", RoutineRequestDTO{DurationMinutes: 30, PreferredTime: "7am"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_ScheduleFromText(t *testing.T) {
	router, _ := setupRouter(t)

	rr := serve(router, "POST", "/api/schedule/natural", TextRequestDTO{Text: "Standup tomorrow at 9:15am"})

	require.Equal(t, http.StatusCreated, rr.Code)
	var dto TextResultDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&dto))
	assert.Equal(t, "Standup", dto.Event.Summary)
	assert.True(t, at(1, 9, 15).Equal(dto.Event.StartTime))
	assert.Equal(t, "create", string(dto.Intent.Action))
}
