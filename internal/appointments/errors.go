package appointments

import "errors"

var (
	// ErrAppointmentNotFound is returned when no active appointment
	// matches the given id.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrNoteNotFound is returned when a doctor note id does not exist
	// on the appointment.
	ErrNoteNotFound = errors.New("doctor note not found")

	// ErrMissingPatientName is returned when a create request has no
	// patient name.
	ErrMissingPatientName = errors.New("patient name is required")

	// ErrMissingProvider is returned when a create request has no
	// provider.
	ErrMissingProvider = errors.New("provider is required")

	// ErrMissingSlot is returned when a create request lacks a time or
	// date.
	ErrMissingSlot = errors.New("time and date are required")
)
