package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clinicflow/clinicflow/internal/appointments"
)

// recordingSender captures sent emails for assertions.
type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func setup(t *testing.T, email string) (*Service, *recordingSender, *appointments.Appointment) {
	t.Helper()
	store := appointments.NewInMemoryStore()
	appt, err := store.Create(context.Background(), &appointments.CreateAppointmentRequest{
		PatientName:  "Dana Wells",
		PatientEmail: email,
		Provider:     "Dr. Lee",
		Date:         "2026-03-20",
		Time:         "9:00 AM",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sender := &recordingSender{}
	return NewService(sender, store, "Northside Clinic", nil), sender, appt
}

func TestSendNudgeConfirmation(t *testing.T) {
	svc, sender, appt := setup(t, "dana@example.com")

	got, err := svc.SendNudge(context.Background(), appt.ID, NudgeConfirmation)
	if err != nil {
		t.Fatalf("send nudge: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "dana@example.com" || !strings.Contains(msg.Subject, "confirm") {
		t.Fatalf("unexpected email: %+v", msg)
	}
	if !strings.Contains(msg.Body, "2026-03-20 at 9:00 AM with Dr. Lee") {
		t.Fatalf("body missing slot details: %q", msg.Body)
	}

	// The send lands on the appointment's message log.
	if len(got.Messages) != 1 {
		t.Fatalf("expected one recorded message, got %d", len(got.Messages))
	}
	rec := got.Messages[0]
	if rec.Type != appointments.MessageEmail || rec.Direction != appointments.DirectionOutbound || rec.Sender != appointments.SenderAI {
		t.Fatalf("unexpected recorded message: %+v", rec)
	}
}

func TestSendNudgeIntake(t *testing.T) {
	svc, sender, appt := setup(t, "dana@example.com")

	if _, err := svc.SendNudge(context.Background(), appt.ID, NudgeIntake); err != nil {
		t.Fatalf("send nudge: %v", err)
	}
	if !strings.Contains(sender.sent[0].Subject, "intake") {
		t.Fatalf("unexpected subject: %q", sender.sent[0].Subject)
	}
}

func TestSendNudgeNoEmail(t *testing.T) {
	svc, sender, appt := setup(t, "")

	if _, err := svc.SendNudge(context.Background(), appt.ID, NudgeConfirmation); !errors.Is(err, ErrNoPatientEmail) {
		t.Fatalf("expected ErrNoPatientEmail, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("no email should be sent without an address")
	}
}

func TestSendNudgeUnknownAppointment(t *testing.T) {
	svc, _, _ := setup(t, "dana@example.com")

	if _, err := svc.SendNudge(context.Background(), "missing", NudgeConfirmation); !errors.Is(err, appointments.ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestSendNudgeSenderFailure(t *testing.T) {
	store := appointments.NewInMemoryStore()
	appt, err := store.Create(context.Background(), &appointments.CreateAppointmentRequest{
		PatientName: "Dana Wells", PatientEmail: "dana@example.com",
		Provider: "Dr. Lee", Date: "2026-03-20", Time: "9:00 AM",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := NewService(sender, store, "", nil)

	if _, err := svc.SendNudge(context.Background(), appt.ID, NudgeConfirmation); err == nil {
		t.Fatal("expected send failure to propagate")
	}
	fresh, _ := store.Get(context.Background(), appt.ID)
	if len(fresh.Messages) != 0 {
		t.Fatal("failed send must not be recorded on the appointment")
	}
}
