package google

import (
	"errors"
	"net/http"

	"github.com/klokku/planner/internal/rest"
	"github.com/klokku/planner/pkg/user"
	log "github.com/sirupsen/logrus"
)

type CalendarItemDto struct {
	Id      string `json:"id"`
	Summary string `json:"summary"`
	Primary bool   `json:"primary"`
}

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{s}
}

// ListCalendars godoc
// @Summary List the user's Google calendars
// @Tags Google
// @Produce json
// @Success 200 {array} CalendarItemDto
// @Failure 403 {object} rest.ErrorResponse "Google authentication required"
// @Router /api/integrations/google/calendars [get]
// @Security XUserId
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := h.service.ListCalendars(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthenticated):
			rest.WriteError(w, http.StatusForbidden, "Google authentication required", "")
		case errors.Is(err, user.ErrNoUser):
			rest.WriteError(w, http.StatusForbidden, "User not found", "")
		default:
			log.Errorf("failed to list Google calendars: %v", err)
			rest.WriteError(w, http.StatusInternalServerError, "Failed to list calendars", "")
		}
		return
	}

	items := make([]CalendarItemDto, 0, len(calendars))
	for _, c := range calendars {
		items = append(items, CalendarItemDto{Id: c.ID, Summary: c.Summary, Primary: c.Primary})
	}
	rest.WriteJSON(w, http.StatusOK, items)
}
