package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/clinicflow/clinicflow/internal/prefs"
)

func newSessionHandler(t *testing.T) *SessionHandler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionHandler(prefs.NewSessionStore(client, time.Hour), nil)
}

func sessionRequest(t *testing.T, h *SessionHandler, method, body, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/session", strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	if method == http.MethodGet {
		h.Get(rec, req)
	} else {
		h.Put(rec, req)
	}
	return rec
}

func TestSessionDefaults(t *testing.T) {
	h := newSessionHandler(t)

	rec := sessionRequest(t, h, http.MethodGet, "", "user-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var sess prefs.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.Role != "admin" {
		t.Fatalf("default role = %s, want admin", sess.Role)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	h := newSessionHandler(t)

	rec := sessionRequest(t, h, http.MethodPut, `{"role":"doctor","active_doctor_id":"doc-7"}`, "user-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = sessionRequest(t, h, http.MethodGet, "", "user-1")
	var sess prefs.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.Role != "doctor" || sess.ActiveDoctorID != "doc-7" {
		t.Fatalf("session not persisted: %+v", sess)
	}

	// Sessions are scoped per user.
	rec = sessionRequest(t, h, http.MethodGet, "", "user-2")
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.Role != "admin" {
		t.Fatalf("other user must get defaults, got %+v", sess)
	}
}

func TestSessionRoleSwitchClearsDoctor(t *testing.T) {
	h := newSessionHandler(t)

	sessionRequest(t, h, http.MethodPut, `{"role":"doctor","active_doctor_id":"doc-7"}`, "user-1")
	rec := sessionRequest(t, h, http.MethodPut, `{"role":"owner"}`, "user-1")

	var sess prefs.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.Role != "owner" || sess.ActiveDoctorID != "" {
		t.Fatalf("doctor id must clear on role switch: %+v", sess)
	}
}

func TestSessionRejectsUnknownRole(t *testing.T) {
	h := newSessionHandler(t)

	rec := sessionRequest(t, h, http.MethodPut, `{"role":"nurse"}`, "user-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSessionPutRequiresField(t *testing.T) {
	h := newSessionHandler(t)

	rec := sessionRequest(t, h, http.MethodPut, `{}`, "user-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
