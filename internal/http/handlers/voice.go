package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicflow/clinicflow/internal/appointments"
	"github.com/clinicflow/clinicflow/internal/voiceai"
	"github.com/clinicflow/clinicflow/pkg/logging"
)

// VoiceEvent is the webhook payload posted by the voice provider as a
// call progresses. EventType is one of call.initiated, call.answered,
// call.turn, call.ended.
type VoiceEvent struct {
	EventType     string `json:"event_type"`
	CallID        string `json:"call_id"`
	AppointmentID string `json:"appointment_id,omitempty"`
	PatientPhone  string `json:"patient_phone,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
	// Role and Text carry one transcript turn on call.turn events.
	Role string `json:"role,omitempty"`
	Text string `json:"text,omitempty"`
	// Outcome arrives on call.ended: confirmed, no-answer, failed.
	Outcome string `json:"outcome,omitempty"`
}

// VoiceHandler ingests voice provider webhooks and exposes call
// activity for the appointment timeline.
type VoiceHandler struct {
	calls  *voiceai.Store
	store  appointments.Store
	logger *logging.Logger
}

// NewVoiceHandler creates a VoiceHandler.
func NewVoiceHandler(calls *voiceai.Store, store appointments.Store, logger *logging.Logger) *VoiceHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &VoiceHandler{calls: calls, store: store, logger: logger}
}

// HandleEvent is POST /webhooks/voice.
func (h *VoiceHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event VoiceEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if event.CallID == "" {
		http.Error(w, `{"error":"call_id is required"}`, http.StatusBadRequest)
		return
	}

	var err error
	switch event.EventType {
	case "call.initiated":
		now := time.Now().UTC()
		err = h.calls.SaveCallState(ctx, &voiceai.CallState{
			CallID:         event.CallID,
			AppointmentID:  event.AppointmentID,
			PatientPhone:   event.PatientPhone,
			Purpose:        event.Purpose,
			Status:         voiceai.CallStatusRinging,
			StartedAt:      now,
			LastActivityAt: now,
		})
	case "call.answered":
		err = h.markAnswered(r, event.CallID)
	case "call.turn":
		if err = h.calls.AppendTranscript(ctx, event.CallID, voiceai.TranscriptEntry{
			Role:      event.Role,
			Text:      event.Text,
			Timestamp: time.Now().UTC(),
		}); err == nil {
			err = h.calls.IncrementTurn(ctx, event.CallID)
		}
	case "call.ended":
		_, err = h.calls.EndCall(ctx, h.store, event.CallID, event.Outcome)
	default:
		http.Error(w, `{"error":"unknown event_type"}`, http.StatusBadRequest)
		return
	}

	if err != nil {
		h.logger.Error("voice event failed",
			"event_type", event.EventType,
			"call_id", event.CallID,
			"error", err,
		)
		http.Error(w, `{"error":"event processing failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *VoiceHandler) markAnswered(r *http.Request, callID string) error {
	ctx := r.Context()
	state, err := h.calls.GetCallState(ctx, callID)
	if err != nil {
		return err
	}
	if state == nil {
		state = &voiceai.CallState{CallID: callID, StartedAt: time.Now().UTC()}
	}
	state.Status = voiceai.CallStatusActive
	state.StartedAt = time.Now().UTC()
	state.LastActivityAt = state.StartedAt
	return h.calls.SaveCallState(ctx, state)
}

// GetCall is GET /voice/calls/{callID}: current state plus transcript.
func (h *VoiceHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callID := chi.URLParam(r, "callID")

	state, err := h.calls.GetCallState(ctx, callID)
	if err != nil {
		h.logger.Error("failed to load call state", "call_id", callID, "error", err)
		http.Error(w, `{"error":"failed to load call"}`, http.StatusInternalServerError)
		return
	}
	if state == nil {
		http.Error(w, `{"error":"call not found"}`, http.StatusNotFound)
		return
	}
	transcript, err := h.calls.GetTranscript(ctx, callID)
	if err != nil {
		h.logger.Error("failed to load transcript", "call_id", callID, "error", err)
		http.Error(w, `{"error":"failed to load call"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"call":       state,
		"transcript": transcript,
	})
}
