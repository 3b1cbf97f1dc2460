package voiceai

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/clinicflow/clinicflow/internal/appointments"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client, time.Hour)
}

func TestSaveAndGetCallState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := &CallState{
		CallID:        "call-1",
		AppointmentID: "appt-1",
		PatientPhone:  "+15551230000",
		Purpose:       PurposeConfirmation,
		Status:        CallStatusRinging,
		StartedAt:     time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SaveCallState(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetCallState(ctx, "call-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.AppointmentID != "appt-1" || got.Status != CallStatusRinging {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestGetCallStateMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetCallState(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("missing call should be (nil, nil), got %+v err %v", got, err)
	}
}

func TestSaveCallStateRequiresID(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveCallState(context.Background(), &CallState{}); err == nil {
		t.Fatal("expected error for missing call id")
	}
}

func TestIncrementTurn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveCallState(ctx, &CallState{CallID: "call-1", Status: CallStatusActive}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.IncrementTurn(ctx, "call-1"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := s.IncrementTurn(ctx, "call-1"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	got, _ := s.GetCallState(ctx, "call-1")
	if got.TurnCount != 2 {
		t.Fatalf("turn count = %d, want 2", got.TurnCount)
	}

	if err := s.IncrementTurn(ctx, "unknown"); err == nil {
		t.Fatal("expected error for unknown call")
	}
}

func TestTranscriptAppendOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := []TranscriptEntry{
		{Role: "assistant", Text: "Hi, calling to confirm your visit."},
		{Role: "patient", Text: "Yes, I will be there."},
	}
	for _, e := range entries {
		if err := s.AppendTranscript(ctx, "call-1", e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.GetTranscript(ctx, "call-1")
	if err != nil {
		t.Fatalf("get transcript: %v", err)
	}
	if len(got) != 2 || got[0].Role != "assistant" || got[1].Text != "Yes, I will be there." {
		t.Fatalf("transcript mismatch: %+v", got)
	}
}

func TestEndCallMirrorsOntoAppointment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	appts := appointments.NewInMemoryStore()
	appt, err := appts.Create(ctx, &appointments.CreateAppointmentRequest{
		PatientName: "Dana Wells", Provider: "Dr. Lee", Date: "2026-03-20", Time: "9:00 AM",
	})
	if err != nil {
		t.Fatalf("create appt: %v", err)
	}

	started := time.Now().UTC().Add(-time.Minute)
	if err := s.SaveCallState(ctx, &CallState{
		CallID:        "call-1",
		AppointmentID: appt.ID,
		Purpose:       PurposeConfirmation,
		Status:        CallStatusActive,
		StartedAt:     started,
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.AppendTranscript(ctx, "call-1", TranscriptEntry{Role: "patient", Text: "Confirmed."}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.EndCall(ctx, appts, "call-1", "confirmed")
	if err != nil {
		t.Fatalf("end call: %v", err)
	}
	if len(got.VoiceCallAttempts) != 1 {
		t.Fatalf("attempt not mirrored: %+v", got.VoiceCallAttempts)
	}
	attempt := got.VoiceCallAttempts[0]
	if attempt.Status != appointments.CallCompleted {
		t.Fatalf("attempt status = %s, want completed", attempt.Status)
	}
	if attempt.Transcript != "patient: Confirmed." {
		t.Fatalf("transcript = %q", attempt.Transcript)
	}
	if !got.Indicators.VoiceCallSent {
		t.Fatal("voice call indicator not set")
	}

	state, _ := s.GetCallState(ctx, "call-1")
	if state.Status != CallStatusEnded || state.Outcome != "confirmed" {
		t.Fatalf("call state not finalized: %+v", state)
	}
}

func TestEndCallFailedFlagsAttention(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	appts := appointments.NewInMemoryStore()
	appt, err := appts.Create(ctx, &appointments.CreateAppointmentRequest{
		PatientName: "Ben Ortiz", Provider: "Dr. Lee", Date: "2026-03-20", Time: "9:30 AM",
	})
	if err != nil {
		t.Fatalf("create appt: %v", err)
	}
	if err := s.SaveCallState(ctx, &CallState{CallID: "call-2", AppointmentID: appt.ID, Status: CallStatusActive}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.EndCall(ctx, appts, "call-2", "failed")
	if err != nil {
		t.Fatalf("end call: %v", err)
	}
	attempt := got.VoiceCallAttempts[0]
	if attempt.Status != appointments.CallFailed || !attempt.NeedsAttention {
		t.Fatalf("failed call must flag attention: %+v", attempt)
	}
}
