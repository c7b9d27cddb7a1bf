package calendar_provider

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/planner/internal/rest"
	"github.com/klokku/planner/pkg/google"
	"github.com/klokku/planner/pkg/user"
	log "github.com/sirupsen/logrus"
)

type MigrationStatusDTO struct {
	Status         string `json:"status"`
	Direction      string `json:"direction"`
	MigratedEvents int    `json:"migratedEvents"`
}

type MigratorHandler struct {
	eventsMigrator *EventsMigrator
}

func NewMigratorHandler(eventsMigrator *EventsMigrator) *MigratorHandler {
	return &MigratorHandler{eventsMigrator: eventsMigrator}
}

// Migrate godoc
// @Summary Copy events between the local and Google calendars
// @Tags Calendar
// @Produce json
// @Param direction path string true "local-to-google or google-to-local"
// @Param from query string true "RFC3339 start"
// @Param to query string true "RFC3339 end"
// @Success 201 {object} MigrationStatusDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/calendar/migrate/{direction} [post]
// @Security XUserId
func (h *MigratorHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	direction := Direction(mux.Vars(r)["direction"])
	if direction != LocalToGoogle && direction != GoogleToLocal {
		rest.WriteError(w, http.StatusBadRequest, "Invalid migration direction", "use local-to-google or google-to-local")
		return
	}
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

	migrated, err := h.eventsMigrator.Migrate(r.Context(), direction, from, to)
	if err != nil {
		switch {
		case errors.Is(err, ErrGoogleCalendarNotConfigured):
			rest.WriteError(w, http.StatusBadRequest, "Google calendar is not configured", "")
		case errors.Is(err, google.ErrUnauthenticated):
			rest.WriteError(w, http.StatusForbidden, "Google authentication required", "")
		case errors.Is(err, user.ErrNoUser):
			rest.WriteError(w, http.StatusForbidden, "User not found", "")
		default:
			log.Errorf("event migration failed: %v", err)
			rest.WriteError(w, http.StatusInternalServerError, "Event migration failed", "")
		}
		return
	}
	rest.WriteJSON(w, http.StatusCreated, MigrationStatusDTO{
		Status:         "COMPLETED",
		Direction:      string(direction),
		MigratedEvents: migrated,
	})
}
