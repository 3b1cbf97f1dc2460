package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/clinicflow/clinicflow/internal/appointments"
	"github.com/clinicflow/clinicflow/internal/prefs"
	"github.com/clinicflow/clinicflow/pkg/logging"
)

// SessionHandler exposes the persisted role / active-doctor
// preferences.
type SessionHandler struct {
	sessions *prefs.SessionStore
	logger   *logging.Logger
}

// NewSessionHandler creates the session preferences handler.
func NewSessionHandler(sessions *prefs.SessionStore, logger *logging.Logger) *SessionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionHandler{sessions: sessions, logger: logger}
}

// userID scopes sessions per caller; the UI passes a stable device or
// account id.
func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return "default"
}

// Get returns the stored session.
// GET /session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("failed to load session", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type sessionUpdate struct {
	Role           string `json:"role,omitempty"`
	ActiveDoctorID string `json:"active_doctor_id,omitempty"`
}

// Put updates the role and/or active doctor. Switching away from the
// doctor role clears the doctor selection.
// PUT /session
func (h *SessionHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req sessionUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	uid := userID(r)
	var (
		sess prefs.Session
		err  error
	)
	if req.Role != "" {
		sess, err = h.sessions.SetRole(r.Context(), uid, appointments.Role(req.Role))
		if errors.Is(err, prefs.ErrUnknownRole) {
			http.Error(w, `{"error":"unknown role"}`, http.StatusBadRequest)
			return
		}
		if err != nil {
			h.logger.Error("failed to set role", "error", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
	}
	if req.ActiveDoctorID != "" {
		sess, err = h.sessions.SetActiveDoctor(r.Context(), uid, req.ActiveDoctorID)
		if err != nil {
			h.logger.Error("failed to set active doctor", "error", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
	}
	if req.Role == "" && req.ActiveDoctorID == "" {
		http.Error(w, `{"error":"role or active_doctor_id required"}`, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}
