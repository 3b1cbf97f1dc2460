package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicflow/clinicflow/internal/actor"
	"github.com/clinicflow/clinicflow/internal/appointments"
	"github.com/clinicflow/clinicflow/internal/notify"
	"github.com/clinicflow/clinicflow/pkg/logging"
)

// NudgeHandler triggers patient reminder emails.
type NudgeHandler struct {
	service *notify.Service
	logger  *logging.Logger
}

// NewNudgeHandler creates the nudge handler.
func NewNudgeHandler(service *notify.Service, logger *logging.Logger) *NudgeHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &NudgeHandler{service: service, logger: logger}
}

type nudgeRequest struct {
	Kind string `json:"kind"` // "confirmation" | "intake"
}

// Send emails the patient and records the outbound message.
// POST /appointments/{id}/nudge
func (h *NudgeHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req nudgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	kind := notify.NudgeKind(req.Kind)
	if kind != notify.NudgeConfirmation && kind != notify.NudgeIntake {
		http.Error(w, `{"error":"kind must be confirmation or intake"}`, http.StatusBadRequest)
		return
	}

	appt, err := h.service.SendNudge(r.Context(), chi.URLParam(r, "id"), kind)
	switch {
	case errors.Is(err, appointments.ErrAppointmentNotFound):
		http.Error(w, `{"error":"appointment not found"}`, http.StatusNotFound)
		return
	case errors.Is(err, notify.ErrNoPatientEmail):
		http.Error(w, `{"error":"patient has no email on file"}`, http.StatusUnprocessableEntity)
		return
	case err != nil:
		h.logger.Error("failed to send nudge", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	// The response is a full snapshot, so note privacy applies here too.
	if caller, ok := actor.FromContext(r.Context()); ok {
		appt.DoctorNotes = appointments.VisibleNotes(appt, caller.Role, caller.DoctorID)
	}
	writeJSON(w, http.StatusOK, appt)
}
