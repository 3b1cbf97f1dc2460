package appointments

import (
	"encoding/json"
	"fmt"
	"time"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanAppointment decodes one row in apptColumns order, unpacking the
// JSONB collections.
func scanAppointment(row rowScanner) (*Appointment, error) {
	var (
		appt          Appointment
		visitType     string
		visitCategory string
		override      *bool
		reason        []byte
		history       []byte
		attempts      []byte
		messages      []byte
		intake        []byte
		notes         []byte
		followUp      []byte
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := row.Scan(
		&appt.ID,
		&appt.Time,
		&appt.Date,
		&appt.Duration,
		&appt.Provider,
		&visitType,
		&visitCategory,
		&appt.PatientName,
		&appt.PatientPhone,
		&appt.PatientEmail,
		&appt.Status.Confirmed,
		&appt.Status.IntakeComplete,
		&appt.Status.Paid,
		&appt.Indicators.VoiceCallSent,
		&appt.Indicators.Rescheduled,
		&appt.Arrived,
		&override,
		&appt.Cancelled,
		&reason,
		&history,
		&attempts,
		&messages,
		&intake,
		&notes,
		&followUp,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	appt.VisitType = VisitType(visitType)
	appt.VisitCategory = VisitCategory(visitCategory)
	appt.NeedsAttentionOverride = override
	appt.CreatedAt = createdAt
	appt.UpdatedAt = updatedAt

	if err := unmarshalNullable(reason, &appt.CancellationReason); err != nil {
		return nil, fmt.Errorf("appointments: decode cancellation reason: %w", err)
	}
	if err := unmarshalList(history, &appt.CancellationHistory); err != nil {
		return nil, fmt.Errorf("appointments: decode cancellation history: %w", err)
	}
	appt.TotalCancellations = len(appt.CancellationHistory)
	if err := unmarshalList(attempts, &appt.VoiceCallAttempts); err != nil {
		return nil, fmt.Errorf("appointments: decode call attempts: %w", err)
	}
	if err := unmarshalList(messages, &appt.Messages); err != nil {
		return nil, fmt.Errorf("appointments: decode messages: %w", err)
	}
	if err := unmarshalNullable(intake, &appt.IntakeSummary); err != nil {
		return nil, fmt.Errorf("appointments: decode intake summary: %w", err)
	}
	if err := unmarshalList(notes, &appt.DoctorNotes); err != nil {
		return nil, fmt.Errorf("appointments: decode doctor notes: %w", err)
	}
	if err := unmarshalNullable(followUp, &appt.NextFollowUp); err != nil {
		return nil, fmt.Errorf("appointments: decode follow-up: %w", err)
	}

	return &appt, nil
}

func unmarshalNullable[T any](data []byte, dst **T) error {
	if len(data) == 0 || string(data) == "null" {
		*dst = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func unmarshalList[T any](data []byte, dst *[]T) error {
	if len(data) == 0 || string(data) == "null" {
		*dst = nil
		return nil
	}
	return json.Unmarshal(data, dst)
}

func marshalNullable[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("appointments: marshal: %w", err)
	}
	return data, nil
}
