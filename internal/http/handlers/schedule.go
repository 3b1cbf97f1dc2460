package handlers

import (
	"net/http"
	"strings"

	"github.com/clinicflow/clinicflow/internal/actor"
	"github.com/clinicflow/clinicflow/internal/appointments"
	"github.com/clinicflow/clinicflow/internal/schedule"
	"github.com/clinicflow/clinicflow/pkg/logging"
)

// ScheduleHandler serves the per-provider day grid.
type ScheduleHandler struct {
	store  appointments.Store
	grid   schedule.Grid
	logger *logging.Logger
}

// NewScheduleHandler creates a schedule handler over a fixed grid.
func NewScheduleHandler(store appointments.Store, grid schedule.Grid, logger *logging.Logger) *ScheduleHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScheduleHandler{store: store, grid: grid, logger: logger}
}

// Placement is one appointment block on the grid. Unplaced is true
// when the appointment's time label is not on the grid; the block has
// zero geometry and the UI decides how to surface it.
type Placement struct {
	Appointment *appointments.Appointment `json:"appointment"`
	Position    schedule.Position         `json:"position"`
	Unplaced    bool                      `json:"unplaced,omitempty"`
}

// ScheduleResponse is the day-grid payload.
type ScheduleResponse struct {
	Date       string                 `json:"date"`
	Slots      []string               `json:"slots"`
	SlotHeight int                    `json:"slot_height"`
	Providers  map[string][]Placement `json:"providers"`
}

// GetSchedule lays a day of appointments onto the grid, one column
// per provider.
// GET /schedule?date=YYYY-MM-DD[&provider=Name]
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"missing actor"}`, http.StatusUnauthorized)
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		http.Error(w, `{"error":"date required"}`, http.StatusBadRequest)
		return
	}
	provider := strings.TrimSpace(r.URL.Query().Get("provider"))
	if caller.Role == appointments.RoleDoctor {
		// Doctors only ever see their own column.
		provider = caller.DoctorName
	}

	active, err := h.store.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	resp := ScheduleResponse{
		Date:       date,
		Slots:      h.grid.Slots,
		SlotHeight: h.grid.SlotHeight,
		Providers:  map[string][]Placement{},
	}
	for _, a := range active {
		if a.Date != date {
			continue
		}
		if provider != "" && a.Provider != provider {
			continue
		}
		a.DoctorNotes = appointments.VisibleNotes(a, caller.Role, caller.DoctorID)
		pos, placed := h.grid.Place(a.Time, a.Duration)
		resp.Providers[a.Provider] = append(resp.Providers[a.Provider], Placement{
			Appointment: a,
			Position:    pos,
			Unplaced:    !placed,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
