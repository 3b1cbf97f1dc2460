package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicflow/clinicflow/internal/actor"
	"github.com/clinicflow/clinicflow/internal/appointments"
	"github.com/clinicflow/clinicflow/internal/schedule"
)

func mountSchedule(h *ScheduleHandler, caller actor.Actor) http.Handler {
	r := chi.NewRouter()
	r.Use(asActor(caller))
	r.Get("/schedule", h.GetSchedule)
	return r
}

func dayGrid() schedule.Grid {
	start := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 20, 17, 0, 0, 0, time.UTC)
	return schedule.NewGrid(schedule.Slots(start, end, 15*time.Minute), 60, 15, 4)
}

func TestGetScheduleRequiresDate(t *testing.T) {
	h := NewScheduleHandler(appointments.NewInMemoryStore(), dayGrid(), nil)

	rec := doJSON(t, mountSchedule(h, adminActor), http.MethodGet, "/schedule", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetScheduleProviderColumns(t *testing.T) {
	store := appointments.NewInMemoryStore()
	seedAppointment(t, store, "Dana Wells", "Dr. Lee", "2026-03-20", "9:00 AM")
	seedAppointment(t, store, "Ben Ortiz", "Dr. Shah", "2026-03-20", "9:00 AM")
	seedAppointment(t, store, "Ana Ruiz", "Dr. Lee", "2026-03-21", "9:00 AM") // other day
	h := NewScheduleHandler(store, dayGrid(), nil)

	rec := doJSON(t, mountSchedule(h, adminActor), http.MethodGet, "/schedule?date=2026-03-20", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp ScheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Providers) != 2 {
		t.Fatalf("expected 2 provider columns, got %v", resp.Providers)
	}
	lee := resp.Providers["Dr. Lee"]
	if len(lee) != 1 || lee[0].Position.Top != 0 || lee[0].Unplaced {
		t.Fatalf("Dr. Lee column wrong: %+v", lee)
	}
}

func TestGetScheduleDoctorForcedToOwnColumn(t *testing.T) {
	store := appointments.NewInMemoryStore()
	seedAppointment(t, store, "Dana Wells", "Dr. Lee", "2026-03-20", "9:00 AM")
	seedAppointment(t, store, "Ben Ortiz", "Dr. Shah", "2026-03-20", "9:00 AM")
	h := NewScheduleHandler(store, dayGrid(), nil)

	// Asking for someone else's column is ignored for doctors.
	rec := doJSON(t, mountSchedule(h, doctorLee), http.MethodGet, "/schedule?date=2026-03-20&provider=Dr.+Shah", nil)
	var resp ScheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Providers) != 1 || len(resp.Providers["Dr. Lee"]) != 1 {
		t.Fatalf("doctor must only get own column: %v", resp.Providers)
	}
}

func TestGetScheduleUnplacedLabel(t *testing.T) {
	store := appointments.NewInMemoryStore()
	seedAppointment(t, store, "Dana Wells", "Dr. Lee", "2026-03-20", "7:00 AM") // before grid start
	h := NewScheduleHandler(store, dayGrid(), nil)

	rec := doJSON(t, mountSchedule(h, adminActor), http.MethodGet, "/schedule?date=2026-03-20", nil)
	var resp ScheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	lee := resp.Providers["Dr. Lee"]
	if len(lee) != 1 || !lee[0].Unplaced {
		t.Fatalf("off-grid appointment should be flagged, not dropped: %+v", lee)
	}
}
