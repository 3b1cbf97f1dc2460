// Package prefs persists the two UI preferences that survive restart:
// the current role and the active doctor id.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicflow/clinicflow/internal/appointments"
)

// ErrDoctorNotSelected is returned when the doctor role is active but
// no doctor has been chosen. Callers must force a selection step
// before showing appointment data.
var ErrDoctorNotSelected = errors.New("doctor not selected")

// ErrUnknownRole is returned for role values outside admin/doctor/owner.
var ErrUnknownRole = errors.New("unknown role")

// Session is the persisted preference record.
type Session struct {
	Role           appointments.Role `json:"role"`
	ActiveDoctorID string            `json:"active_doctor_id,omitempty"`
}

const sessionKeyPrefix = "prefs:session:"

// SessionStore keeps per-user session preferences in Redis.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStore creates a session store. A zero ttl means sessions
// never expire.
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

// Get returns the stored session, defaulting to the admin role when
// none exists.
func (s *SessionStore) Get(ctx context.Context, userID string) (Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Session{Role: appointments.RoleAdmin}, nil
		}
		return Session{}, fmt.Errorf("prefs: get session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("prefs: unmarshal session: %w", err)
	}
	return sess, nil
}

// SetRole switches roles, enforcing the reset rule: leaving the
// doctor role clears the active doctor id.
func (s *SessionStore) SetRole(ctx context.Context, userID string, role appointments.Role) (Session, error) {
	if !appointments.ValidRole(string(role)) {
		return Session{}, ErrUnknownRole
	}
	sess, err := s.Get(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	sess.Role = role
	if role != appointments.RoleDoctor {
		sess.ActiveDoctorID = ""
	}
	return sess, s.save(ctx, userID, sess)
}

// SetActiveDoctor records the selected doctor. Only meaningful for
// the doctor role.
func (s *SessionStore) SetActiveDoctor(ctx context.Context, userID, doctorID string) (Session, error) {
	sess, err := s.Get(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	sess.ActiveDoctorID = doctorID
	return sess, s.save(ctx, userID, sess)
}

// ActiveDoctor returns the selected doctor id for the doctor role.
// Fail-closed: a doctor session without a selection is an error, not
// an unfiltered view.
func (s *SessionStore) ActiveDoctor(ctx context.Context, userID string) (string, error) {
	sess, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if sess.Role != appointments.RoleDoctor {
		return "", nil
	}
	if sess.ActiveDoctorID == "" {
		return "", ErrDoctorNotSelected
	}
	return sess.ActiveDoctorID, nil
}

func (s *SessionStore) save(ctx context.Context, userID string, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("prefs: marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("prefs: save session: %w", err)
	}
	return nil
}
