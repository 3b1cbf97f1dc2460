// Package voiceai tracks live voice-AI call state and transcripts in
// Redis. Finished calls are mirrored onto the appointment record via
// the appointment store.
package voiceai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicflow/clinicflow/internal/appointments"
)

// CallState tracks one outbound confirmation/intake call.
type CallState struct {
	// CallID is the provider call control id.
	CallID string `json:"call_id"`
	// AppointmentID links the call to the visit being confirmed.
	AppointmentID string `json:"appointment_id"`
	// PatientPhone is the dialed number in E.164.
	PatientPhone string `json:"patient_phone"`
	// Purpose is what the AI is calling about: confirmation or intake.
	Purpose string `json:"purpose"`
	// Status tracks the call lifecycle: ringing, active, ended.
	Status string `json:"status"`
	// TurnCount tracks back-and-forth exchanges.
	TurnCount int `json:"turn_count"`
	// StartedAt is when the call was answered.
	StartedAt time.Time `json:"started_at"`
	// LastActivityAt tracks the most recent interaction.
	LastActivityAt time.Time `json:"last_activity_at"`
	// Outcome records how the call ended: confirmed, no-answer, failed.
	Outcome string `json:"outcome,omitempty"`
}

// TranscriptEntry is a single turn in a call transcript.
type TranscriptEntry struct {
	Role      string    `json:"role"` // "patient" or "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	callKeyPrefix       = "voiceai:call:"
	transcriptKeyPrefix = "voiceai:transcript:"

	CallStatusRinging = "ringing"
	CallStatusActive  = "active"
	CallStatusEnded   = "ended"

	PurposeConfirmation = "confirmation"
	PurposeIntake       = "intake"
)

// Store manages voice call state in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a voice activity store backed by Redis. A zero ttl
// defaults to 24 hours.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func callKey(callID string) string {
	return callKeyPrefix + callID
}

func transcriptKey(callID string) string {
	return transcriptKeyPrefix + callID
}

// SaveCallState persists or updates call state.
func (s *Store) SaveCallState(ctx context.Context, state *CallState) error {
	if state == nil || state.CallID == "" {
		return fmt.Errorf("voiceai: call_id required")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("voiceai: marshal state: %w", err)
	}
	return s.rdb.Set(ctx, callKey(state.CallID), data, s.ttl).Err()
}

// GetCallState retrieves call state; (nil, nil) when absent.
func (s *Store) GetCallState(ctx context.Context, callID string) (*CallState, error) {
	data, err := s.rdb.Get(ctx, callKey(callID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("voiceai: get state: %w", err)
	}
	var state CallState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("voiceai: unmarshal state: %w", err)
	}
	return &state, nil
}

// IncrementTurn bumps the turn counter and refreshes last activity.
func (s *Store) IncrementTurn(ctx context.Context, callID string) error {
	state, err := s.GetCallState(ctx, callID)
	if err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("voiceai: call %s not found", callID)
	}
	state.TurnCount++
	state.LastActivityAt = time.Now().UTC()
	return s.SaveCallState(ctx, state)
}

// AppendTranscript adds a transcript entry to the call.
func (s *Store) AppendTranscript(ctx context.Context, callID string, entry TranscriptEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("voiceai: marshal transcript entry: %w", err)
	}
	pipe := s.rdb.Pipeline()
	pipe.RPush(ctx, transcriptKey(callID), data)
	pipe.Expire(ctx, transcriptKey(callID), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// GetTranscript retrieves the full call transcript.
func (s *Store) GetTranscript(ctx context.Context, callID string) ([]TranscriptEntry, error) {
	data, err := s.rdb.LRange(ctx, transcriptKey(callID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("voiceai: get transcript: %w", err)
	}
	entries := make([]TranscriptEntry, 0, len(data))
	for _, d := range data {
		var entry TranscriptEntry
		if err := json.Unmarshal([]byte(d), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// EndCall marks the call ended and mirrors it onto the appointment as
// a voice call attempt. The attempt transcript is the flattened text
// of the call.
func (s *Store) EndCall(ctx context.Context, store appointments.Store, callID, outcome string) (*appointments.Appointment, error) {
	state, err := s.GetCallState(ctx, callID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("voiceai: call %s not found", callID)
	}
	state.Status = CallStatusEnded
	state.Outcome = outcome
	state.LastActivityAt = time.Now().UTC()
	if err := s.SaveCallState(ctx, state); err != nil {
		return nil, err
	}

	transcript, err := s.GetTranscript(ctx, callID)
	if err != nil {
		return nil, err
	}

	attempt := appointments.VoiceCallAttempt{
		ID:         callID,
		Timestamp:  state.StartedAt,
		Status:     attemptStatus(outcome),
		Duration:   callDuration(state),
		Transcript: flatten(transcript),
	}
	if attempt.Status == appointments.CallFailed {
		attempt.NeedsAttention = true
		attempt.AttentionReason = "call " + outcome
	}
	return store.RecordVoiceCallAttempt(ctx, state.AppointmentID, attempt)
}

func attemptStatus(outcome string) appointments.VoiceCallAttemptStatus {
	switch outcome {
	case "confirmed", "completed":
		return appointments.CallCompleted
	case "no-answer":
		return appointments.CallNoAnswer
	default:
		return appointments.CallFailed
	}
}

func callDuration(state *CallState) string {
	if state.StartedAt.IsZero() || state.LastActivityAt.Before(state.StartedAt) {
		return ""
	}
	return state.LastActivityAt.Sub(state.StartedAt).Round(time.Second).String()
}

func flatten(entries []TranscriptEntry) string {
	var out string
	for i, e := range entries {
		if i > 0 {
			out += "\n"
		}
		out += e.Role + ": " + e.Text
	}
	return out
}
