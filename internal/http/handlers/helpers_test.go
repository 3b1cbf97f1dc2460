package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/clinicflow/clinicflow/internal/actor"
	"github.com/clinicflow/clinicflow/internal/appointments"
)

// asActor injects a fixed caller identity, standing in for the JWT
// middleware.
func asActor(a actor.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
		})
	}
}

var (
	adminActor = actor.Actor{Role: appointments.RoleAdmin}
	doctorLee  = actor.Actor{Role: appointments.RoleDoctor, DoctorID: "doc-lee", DoctorName: "Dr. Lee"}
	doctorShah = actor.Actor{Role: appointments.RoleDoctor, DoctorID: "doc-shah", DoctorName: "Dr. Shah"}
)

func mountAppointments(h *AppointmentsHandler, caller actor.Actor) http.Handler {
	r := chi.NewRouter()
	r.Use(asActor(caller))
	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/cancelled", h.ListCancelled)
		r.Get("/attention", h.Attention)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Patch)
			r.Post("/confirm", h.Confirm)
			r.Post("/intake/complete", h.CompleteIntake)
			r.Post("/intake/summary", h.SetIntakeSummary)
			r.Post("/arrive", h.MarkArrived)
			r.Post("/reschedule", h.Reschedule)
			r.Post("/cancel", h.Cancel)
			r.Get("/notes", h.Notes)
			r.Post("/notes", h.AddNote)
			r.Put("/notes/{noteID}", h.UpdateNote)
			r.Post("/follow-up", h.SetFollowUp)
		})
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeAppt(t *testing.T, rec *httptest.ResponseRecorder) *appointments.Appointment {
	t.Helper()
	var appt appointments.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode appointment: %v (body %s)", err, rec.Body.String())
	}
	return &appt
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) ListResponse {
	t.Helper()
	var list ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v (body %s)", err, rec.Body.String())
	}
	return list
}

func seedAppointment(t *testing.T, store appointments.Store, name, provider, date, slot string) *appointments.Appointment {
	t.Helper()
	appt, err := store.Create(context.Background(), &appointments.CreateAppointmentRequest{
		PatientName: name,
		Provider:    provider,
		Date:        date,
		Time:        slot,
	})
	if err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return appt
}
