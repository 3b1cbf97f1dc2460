package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clinicflow/clinicflow/internal/actor"
	"github.com/clinicflow/clinicflow/internal/appointments"
	"github.com/clinicflow/clinicflow/internal/observability/metrics"
	"github.com/clinicflow/clinicflow/pkg/logging"
)

// AppointmentsHandler exposes the appointment command/query API.
type AppointmentsHandler struct {
	store   appointments.Store
	metrics *metrics.APIMetrics
	logger  *logging.Logger
}

// NewAppointmentsHandler creates the appointments HTTP handler.
func NewAppointmentsHandler(store appointments.Store, m *metrics.APIMetrics, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{store: store, metrics: m, logger: logger}
}

// ListResponse is the envelope for appointment list endpoints.
type ListResponse struct {
	Appointments []*appointments.Appointment `json:"appointments"`
	Count        int                         `json:"count"`
}

// List returns the appointments visible to the caller's role.
// GET /appointments
// Query params:
//   - date: calendar day filter; required for the doctor role
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"missing actor"}`, http.StatusUnauthorized)
		return
	}

	active, err := h.store.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if caller.Role == appointments.RoleDoctor && date == "" {
		http.Error(w, `{"error":"date required for doctor view"}`, http.StatusBadRequest)
		return
	}

	visible := appointments.VisibleAppointments(active, caller.Role, caller.DoctorName, date)
	if caller.Role != appointments.RoleDoctor && date != "" {
		filtered := visible[:0:0]
		for _, a := range visible {
			if a.Date == date {
				filtered = append(filtered, a)
			}
		}
		visible = filtered
	}
	for _, a := range visible {
		a.DoctorNotes = appointments.VisibleNotes(a, caller.Role, caller.DoctorID)
	}

	writeJSON(w, http.StatusOK, ListResponse{Appointments: visible, Count: len(visible)})
}

// ListCancelled returns cancelled appointments for audit views.
// GET /appointments/cancelled, admin and owner only.
func (h *AppointmentsHandler) ListCancelled(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor.FromContext(r.Context())
	if !ok || caller.Role == appointments.RoleDoctor {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	cancelled, err := h.store.ListCancelled(r.Context())
	if err != nil {
		h.logger.Error("failed to list cancelled appointments", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Appointments: cancelled, Count: len(cancelled)})
}

// Attention returns the needs-attention queue.
// GET /appointments/attention?filter=all|unconfirmed|missing-intake
// Admin and owner only; the queue spans every provider's patients.
func (h *AppointmentsHandler) Attention(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor.FromContext(r.Context())
	if !ok || caller.Role == appointments.RoleDoctor {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	active, err := h.store.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	filter := appointments.ParseAttentionFilter(r.URL.Query().Get("filter"))
	queue := appointments.FilterNeedingAttention(active, filter)
	h.metrics.SetAttentionDepth(len(appointments.FilterNeedingAttention(active, appointments.FilterAll)))
	writeJSON(w, http.StatusOK, ListResponse{Appointments: queue, Count: len(queue)})
}

// Get returns one appointment with notes scoped to the caller.
// GET /appointments/{id}
func (h *AppointmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"missing actor"}`, http.StatusUnauthorized)
		return
	}
	appt, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	appt.DoctorNotes = appointments.VisibleNotes(appt, caller.Role, caller.DoctorID)
	writeJSON(w, http.StatusOK, appt)
}

// Notes returns the caller-visible notes for one appointment.
// GET /appointments/{id}/notes
func (h *AppointmentsHandler) Notes(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor.FromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"missing actor"}`, http.StatusUnauthorized)
		return
	}
	appt, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	notes := appointments.VisibleNotes(appt, caller.Role, caller.DoctorID)
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes, "count": len(notes)})
}

// Create schedules a new appointment.
// POST /appointments
func (h *AppointmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req appointments.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	appt, err := h.store.Create(r.Context(), &req)
	if err != nil {
		h.metrics.ObserveMutation("create", "error")
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	h.metrics.ObserveMutation("create", "ok")
	h.logger.Info("appointment created", "id", appt.ID, "provider", appt.Provider, "date", appt.Date)
	writeJSON(w, http.StatusCreated, appt)
}

// Patch merges a partial update.
// PATCH /appointments/{id}
func (h *AppointmentsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var upd appointments.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	h.mutate(w, r, "update", func(id string) (*appointments.Appointment, error) {
		return h.store.Update(r.Context(), id, upd)
	})
}

// Confirm marks the appointment confirmed.
// POST /appointments/{id}/confirm
func (h *AppointmentsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "confirm", func(id string) (*appointments.Appointment, error) {
		return h.store.Confirm(r.Context(), id)
	})
}

// CompleteIntake marks the intake flow finished.
// POST /appointments/{id}/intake/complete
func (h *AppointmentsHandler) CompleteIntake(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "complete_intake", func(id string) (*appointments.Appointment, error) {
		return h.store.CompleteIntake(r.Context(), id)
	})
}

// SetIntakeSummary stores the intake result.
// POST /appointments/{id}/intake/summary
func (h *AppointmentsHandler) SetIntakeSummary(w http.ResponseWriter, r *http.Request) {
	var summary appointments.IntakeSummary
	if err := json.NewDecoder(r.Body).Decode(&summary); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	h.mutate(w, r, "intake_summary", func(id string) (*appointments.Appointment, error) {
		return h.store.SetIntakeSummary(r.Context(), id, summary)
	})
}

// MarkArrived records patient check-in.
// POST /appointments/{id}/arrive
func (h *AppointmentsHandler) MarkArrived(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "arrive", func(id string) (*appointments.Appointment, error) {
		return h.store.MarkArrived(r.Context(), id)
	})
}

type rescheduleRequest struct {
	Time     string `json:"time"`
	Provider string `json:"provider"`
	Date     string `json:"date"`
}

// Reschedule moves the appointment to a new slot.
// POST /appointments/{id}/reschedule
func (h *AppointmentsHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Time == "" || req.Provider == "" || req.Date == "" {
		http.Error(w, `{"error":"time, provider and date are required"}`, http.StatusBadRequest)
		return
	}
	h.mutate(w, r, "reschedule", func(id string) (*appointments.Appointment, error) {
		return h.store.Reschedule(r.Context(), id, req.Time, req.Provider, req.Date)
	})
}

type cancelRequest struct {
	Type string `json:"type"`
	Note string `json:"note"`
}

// Cancel moves the appointment to the cancelled collection. Repeated
// cancellations are permitted and append to the history.
// POST /appointments/{id}/cancel
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, _ := actor.FromContext(r.Context())
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Type) == "" {
		http.Error(w, `{"error":"cancellation type is required"}`, http.StatusBadRequest)
		return
	}
	cancelledBy := string(caller.Role)
	if caller.DoctorID != "" {
		cancelledBy = caller.DoctorID
	}
	h.mutate(w, r, "cancel", func(id string) (*appointments.Appointment, error) {
		return h.store.Cancel(r.Context(), id, appointments.CancellationRecord{
			Type:        req.Type,
			Note:        req.Note,
			CancelledBy: cancelledBy,
		})
	})
}

type noteRequest struct {
	Content string `json:"content"`
}

// AddNote appends a private doctor note authored by the caller.
// POST /appointments/{id}/notes, doctor role only.
func (h *AppointmentsHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor.FromContext(r.Context())
	if !ok || caller.Role != appointments.RoleDoctor {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		http.Error(w, `{"error":"note content is required"}`, http.StatusBadRequest)
		return
	}
	h.mutate(w, r, "add_note", func(id string) (*appointments.Appointment, error) {
		return h.store.AddDoctorNote(r.Context(), id, caller.DoctorID, req.Content)
	})
}

// UpdateNote replaces a note's content. Doctors may only touch their
// own notes.
// PUT /appointments/{id}/notes/{noteID}
func (h *AppointmentsHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor.FromContext(r.Context())
	if !ok || caller.Role != appointments.RoleDoctor {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	noteID := chi.URLParam(r, "noteID")
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		http.Error(w, `{"error":"note content is required"}`, http.StatusBadRequest)
		return
	}

	appt, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	owned := false
	for _, note := range appt.DoctorNotes {
		if note.ID == noteID && note.DoctorID == caller.DoctorID {
			owned = true
			break
		}
	}
	if !owned {
		http.Error(w, `{"error":"doctor note not found"}`, http.StatusNotFound)
		return
	}

	h.mutate(w, r, "update_note", func(id string) (*appointments.Appointment, error) {
		return h.store.UpdateDoctorNote(r.Context(), id, noteID, req.Content)
	})
}

type followUpRequest struct {
	Date string `json:"date"`
	Note string `json:"note"`
}

// SetFollowUp overwrites the follow-up recommendation.
// POST /appointments/{id}/follow-up, doctor role only.
func (h *AppointmentsHandler) SetFollowUp(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor.FromContext(r.Context())
	if !ok || caller.Role != appointments.RoleDoctor {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	var req followUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Date) == "" {
		http.Error(w, `{"error":"follow-up date is required"}`, http.StatusBadRequest)
		return
	}
	h.mutate(w, r, "follow_up", func(id string) (*appointments.Appointment, error) {
		return h.store.SetFollowUp(r.Context(), id, req.Date, req.Note, caller.DoctorID)
	})
}

func (h *AppointmentsHandler) mutate(w http.ResponseWriter, r *http.Request, operation string, fn func(id string) (*appointments.Appointment, error)) {
	id := chi.URLParam(r, "id")
	appt, err := fn(id)
	if err != nil {
		h.metrics.ObserveMutation(operation, "error")
		h.writeError(w, err)
		return
	}
	h.metrics.ObserveMutation(operation, "ok")
	// Mutation responses carry the full snapshot, so the note privacy
	// partition applies here the same as on reads.
	if caller, ok := actor.FromContext(r.Context()); ok {
		appt.DoctorNotes = appointments.VisibleNotes(appt, caller.Role, caller.DoctorID)
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *AppointmentsHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointments.ErrAppointmentNotFound), errors.Is(err, appointments.ErrNoteNotFound):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusNotFound)
	default:
		h.logger.Error("appointment operation failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
