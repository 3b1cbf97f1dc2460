package notify

import (
	"context"
	"fmt"

	"github.com/clinicflow/clinicflow/internal/appointments"
	"github.com/clinicflow/clinicflow/pkg/logging"
)

// NudgeKind selects which reminder to send.
type NudgeKind string

const (
	NudgeConfirmation NudgeKind = "confirmation"
	NudgeIntake       NudgeKind = "intake"
)

// ErrNoPatientEmail is returned when the appointment has no email on
// file.
var ErrNoPatientEmail = fmt.Errorf("notify: patient has no email on file")

// Service sends patient nudges and records each send on the
// appointment's message log.
type Service struct {
	email      EmailSender
	store      appointments.Store
	clinicName string
	logger     *logging.Logger
}

// NewService creates a nudge service. A nil email sender falls back
// to the stub.
func NewService(email EmailSender, store appointments.Store, clinicName string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	if clinicName == "" {
		clinicName = "Clinicflow"
	}
	return &Service{email: email, store: store, clinicName: clinicName, logger: logger}
}

// SendNudge emails the patient a confirmation request or intake
// reminder and appends the outbound message to the appointment.
func (s *Service) SendNudge(ctx context.Context, appointmentID string, kind NudgeKind) (*appointments.Appointment, error) {
	appt, err := s.store.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.PatientEmail == "" {
		return nil, ErrNoPatientEmail
	}

	subject, body := s.render(appt, kind)
	if err := s.email.Send(ctx, EmailMessage{
		To:      appt.PatientEmail,
		ToName:  appt.PatientName,
		Subject: subject,
		Body:    body,
	}); err != nil {
		return nil, err
	}
	s.logger.Info("nudge sent", "appointment_id", appointmentID, "kind", string(kind), "to", appt.PatientEmail)

	return s.store.AppendMessage(ctx, appointmentID, appointments.Message{
		Type:      appointments.MessageEmail,
		Direction: appointments.DirectionOutbound,
		Sender:    appointments.SenderAI,
		Content:   subject + "\n\n" + body,
	})
}

func (s *Service) render(appt *appointments.Appointment, kind NudgeKind) (subject, body string) {
	when := fmt.Sprintf("%s at %s with %s", appt.Date, appt.Time, appt.Provider)
	switch kind {
	case NudgeIntake:
		subject = fmt.Sprintf("Please complete your intake forms - %s", s.clinicName)
		body = fmt.Sprintf(`Hi %s,

Your appointment on %s is coming up, and we still need your intake
forms. Completing them ahead of time keeps your visit on schedule.

Thank you,
%s`, appt.PatientName, when, s.clinicName)
	default:
		subject = fmt.Sprintf("Please confirm your appointment - %s", s.clinicName)
		body = fmt.Sprintf(`Hi %s,

We have you scheduled for %s. Please reply or call to confirm your
visit.

Thank you,
%s`, appt.PatientName, when, s.clinicName)
	}
	return subject, body
}
