package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Scheduling
	r.HandleFunc("/api/schedule/task", deps.ScheduleHandler.ScheduleTask).Methods("POST")
	r.HandleFunc("/api/schedule/natural", deps.ScheduleHandler.ScheduleFromText).Methods("POST")
	r.HandleFunc("/api/schedule/event/{eventUid}/reschedule", deps.ScheduleHandler.Reschedule).Methods("PUT")
	r.HandleFunc("/api/schedule/block", deps.ScheduleHandler.CreateBlock).Methods("POST")
	r.HandleFunc("/api/schedule/free-slots", deps.ScheduleHandler.FreeSlots).Methods("GET")
	r.HandleFunc("/api/schedule/agenda", deps.ScheduleHandler.Agenda).Methods("GET")
	r.HandleFunc("/api/schedule/optimize", deps.ScheduleHandler.OptimizeDay).Methods("GET", "POST")
	r.HandleFunc("/api/schedule/routine/suggestions", deps.ScheduleHandler.SuggestRoutine).Methods("POST")

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")
	r.HandleFunc("/api/user", deps.UserHandler.GetAvailableUsers).Methods("GET")
	r.HandleFunc("/api/user/{userUid}", deps.UserHandler.DeleteUser).Methods("DELETE")

	// Local calendar
	r.HandleFunc("/api/calendar/event", deps.LocalCalendarHandler.GetEvents).Queries("from", "{from}", "to", "{to}").Methods("GET")
	r.HandleFunc("/api/calendar/event", deps.LocalCalendarHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/calendar/event/{eventUid}", deps.LocalCalendarHandler.GetEvent).Methods("GET")
	r.HandleFunc("/api/calendar/event/{eventUid}", deps.LocalCalendarHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/calendar/event/{eventUid}", deps.LocalCalendarHandler.DeleteEvent).Methods("DELETE")
	r.HandleFunc("/api/calendar/migrate/{direction}", deps.CalendarMigratorHandler.Migrate).Queries("from", "{from}", "to", "{to}").Methods("POST")

	// Google integration
	r.HandleFunc("/api/integrations/google/auth/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/logout", deps.GoogleAuth.OAuthLogout).Methods("DELETE")
	r.HandleFunc("/api/integrations/google/auth/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/calendars", deps.GoogleHandler.ListCalendars).Methods("GET")
}
