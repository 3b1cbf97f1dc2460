package appointments

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the command/query surface over the appointment collections.
// Cancelled appointments live in a separate collection from active
// ones; an appointment is never in both.
type Store interface {
	Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error)
	Get(ctx context.Context, id string) (*Appointment, error)
	ListActive(ctx context.Context) ([]*Appointment, error)
	ListCancelled(ctx context.Context) ([]*Appointment, error)

	Update(ctx context.Context, id string, upd Update) (*Appointment, error)
	Confirm(ctx context.Context, id string) (*Appointment, error)
	CompleteIntake(ctx context.Context, id string) (*Appointment, error)
	SetIntakeSummary(ctx context.Context, id string, summary IntakeSummary) (*Appointment, error)
	MarkArrived(ctx context.Context, id string) (*Appointment, error)
	Reschedule(ctx context.Context, id, newTime, newProvider, newDate string) (*Appointment, error)
	Cancel(ctx context.Context, id string, reason CancellationRecord) (*Appointment, error)
	AddDoctorNote(ctx context.Context, id, doctorID, content string) (*Appointment, error)
	UpdateDoctorNote(ctx context.Context, id, noteID, content string) (*Appointment, error)
	SetFollowUp(ctx context.Context, id, date, note, doctorID string) (*Appointment, error)
	RecordVoiceCallAttempt(ctx context.Context, id string, attempt VoiceCallAttempt) (*Appointment, error)
	AppendMessage(ctx context.Context, id string, msg Message) (*Appointment, error)
}

// InMemoryStore holds the appointment collections in process memory.
// Order of the active list is insertion order and is preserved by
// every operation.
type InMemoryStore struct {
	mu        sync.RWMutex
	active    []*Appointment
	cancelled []*Appointment
	now       func() time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{now: func() time.Time { return time.Now().UTC() }}
}

// Create schedules a new appointment.
func (s *InMemoryStore) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	appt := &Appointment{
		ID:            uuid.New().String(),
		Time:          req.Time,
		Date:          req.Date,
		Duration:      req.Duration,
		Provider:      req.Provider,
		VisitType:     req.VisitType,
		VisitCategory: req.VisitCategory,
		PatientName:   req.PatientName,
		PatientPhone:  req.PatientPhone,
		PatientEmail:  req.PatientEmail,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	s.active = append(s.active, appt)
	s.mu.Unlock()

	return snapshot(appt), nil
}

// Get returns the appointment from either collection.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if appt := findByID(s.active, id); appt != nil {
		return snapshot(appt), nil
	}
	if appt := findByID(s.cancelled, id); appt != nil {
		return snapshot(appt), nil
	}
	return nil, ErrAppointmentNotFound
}

// ListActive returns the non-cancelled appointments in insertion order.
func (s *InMemoryStore) ListActive(ctx context.Context) ([]*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotAll(s.active), nil
}

// ListCancelled returns the cancelled appointments.
func (s *InMemoryStore) ListCancelled(ctx context.Context) ([]*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotAll(s.cancelled), nil
}

// Update merges a partial update into the matching appointment.
func (s *InMemoryStore) Update(ctx context.Context, id string, upd Update) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) error {
		if upd.Time != nil {
			a.Time = *upd.Time
		}
		if upd.Date != nil {
			a.Date = *upd.Date
		}
		if upd.Duration != nil {
			a.Duration = *upd.Duration
		}
		if upd.Provider != nil {
			a.Provider = *upd.Provider
		}
		if upd.VisitType != nil {
			a.VisitType = *upd.VisitType
		}
		if upd.PatientPhone != nil {
			a.PatientPhone = *upd.PatientPhone
		}
		if upd.PatientEmail != nil {
			a.PatientEmail = *upd.PatientEmail
		}
		if upd.Paid != nil {
			a.Status.Paid = *upd.Paid
		}
		if upd.VoiceCallSent != nil {
			a.Indicators.VoiceCallSent = *upd.VoiceCallSent
		}
		if upd.NeedsAttentionOverride != nil {
			override := *upd.NeedsAttentionOverride
			a.NeedsAttentionOverride = &override
		}
		return nil
	})
}

// Confirm marks the appointment confirmed. Safe to repeat.
func (s *InMemoryStore) Confirm(ctx context.Context, id string) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) error {
		a.Status.Confirmed = true
		return nil
	})
}

// CompleteIntake marks the intake flow finished. Safe to repeat.
func (s *InMemoryStore) CompleteIntake(ctx context.Context, id string) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) error {
		a.Status.IntakeComplete = true
		return nil
	})
}

// SetIntakeSummary stores the intake result and, when the summary is
// marked completed, flips the intake status with it.
func (s *InMemoryStore) SetIntakeSummary(ctx context.Context, id string, summary IntakeSummary) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) error {
		sum := summary
		a.IntakeSummary = &sum
		if sum.Completed {
			a.Status.IntakeComplete = true
		}
		return nil
	})
}

// MarkArrived records patient check-in. Safe to repeat.
func (s *InMemoryStore) MarkArrived(ctx context.Context, id string) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) error {
		a.Arrived = true
		return nil
	})
}

// Reschedule overwrites the slot fields and flips the rescheduled
// indicator. Status flags are left untouched.
func (s *InMemoryStore) Reschedule(ctx context.Context, id, newTime, newProvider, newDate string) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) error {
		a.Time = newTime
		a.Provider = newProvider
		a.Date = newDate
		a.Indicators.Rescheduled = true
		return nil
	})
}

// Cancel moves an active appointment to the cancelled collection and
// records the cancellation event. Cancelling an already-cancelled
// appointment appends another history entry; reschedule-then-cancel
// flows produce multiple events on purpose.
func (s *InMemoryStore) Cancel(ctx context.Context, id string, reason CancellationRecord) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reason.CancelledAt.IsZero() {
		reason.CancelledAt = s.now()
	}

	for i, appt := range s.active {
		if appt.ID == id {
			s.active = append(s.active[:i], s.active[i+1:]...)
			applyCancellation(appt, reason, s.now())
			s.cancelled = append(s.cancelled, appt)
			return snapshot(appt), nil
		}
	}
	if appt := findByID(s.cancelled, id); appt != nil {
		applyCancellation(appt, reason, s.now())
		return snapshot(appt), nil
	}
	return nil, ErrAppointmentNotFound
}

// AddDoctorNote appends a new private note. Each call adds a note.
func (s *InMemoryStore) AddDoctorNote(ctx context.Context, id, doctorID, content string) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) error {
		a.DoctorNotes = append(a.DoctorNotes, DoctorNote{
			ID:        uuid.New().String(),
			DoctorID:  doctorID,
			Content:   content,
			CreatedAt: s.now(),
		})
		return nil
	})
}

// UpdateDoctorNote replaces the matching note's content.
func (s *InMemoryStore) UpdateDoctorNote(ctx context.Context, id, noteID, content string) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) error {
		for i := range a.DoctorNotes {
			if a.DoctorNotes[i].ID == noteID {
				now := s.now()
				a.DoctorNotes[i].Content = content
				a.DoctorNotes[i].UpdatedAt = &now
				return nil
			}
		}
		return ErrNoteNotFound
	})
}

// SetFollowUp overwrites the single current follow-up value.
func (s *InMemoryStore) SetFollowUp(ctx context.Context, id, date, note, doctorID string) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) error {
		a.NextFollowUp = &FollowUp{
			Date:  date,
			Note:  note,
			SetBy: doctorID,
			SetAt: s.now(),
		}
		return nil
	})
}

// RecordVoiceCallAttempt appends an AI call attempt and flips the
// voice-call indicator.
func (s *InMemoryStore) RecordVoiceCallAttempt(ctx context.Context, id string, attempt VoiceCallAttempt) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) error {
		if attempt.ID == "" {
			attempt.ID = uuid.New().String()
		}
		if attempt.Timestamp.IsZero() {
			attempt.Timestamp = s.now()
		}
		a.VoiceCallAttempts = append(a.VoiceCallAttempts, attempt)
		a.Indicators.VoiceCallSent = true
		return nil
	})
}

// AppendMessage appends a message to the communication log.
func (s *InMemoryStore) AppendMessage(ctx context.Context, id string, msg Message) (*Appointment, error) {
	return s.mutate(id, func(a *Appointment) error {
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}
		if msg.Timestamp.IsZero() {
			msg.Timestamp = s.now()
		}
		a.Messages = append(a.Messages, msg)
		return nil
	})
}

// mutate applies fn to the appointment in either collection under the
// write lock and stamps UpdatedAt.
func (s *InMemoryStore) mutate(id string, fn func(*Appointment) error) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt := findByID(s.active, id)
	if appt == nil {
		appt = findByID(s.cancelled, id)
	}
	if appt == nil {
		return nil, ErrAppointmentNotFound
	}
	if err := fn(appt); err != nil {
		return nil, err
	}
	appt.UpdatedAt = s.now()
	return snapshot(appt), nil
}

func applyCancellation(a *Appointment, reason CancellationRecord, now time.Time) {
	a.Cancelled = true
	rec := reason
	a.CancellationReason = &rec
	a.CancellationHistory = append(a.CancellationHistory, reason)
	a.TotalCancellations = len(a.CancellationHistory)
	a.UpdatedAt = now
}

func findByID(list []*Appointment, id string) *Appointment {
	for _, appt := range list {
		if appt.ID == id {
			return appt
		}
	}
	return nil
}

// snapshot deep-copies an appointment so callers cannot reach into
// store-owned state.
func snapshot(a *Appointment) *Appointment {
	cp := *a

	if a.NeedsAttentionOverride != nil {
		v := *a.NeedsAttentionOverride
		cp.NeedsAttentionOverride = &v
	}
	if a.CancellationReason != nil {
		v := *a.CancellationReason
		cp.CancellationReason = &v
	}
	if a.IntakeSummary != nil {
		v := *a.IntakeSummary
		v.Concerns = append([]string(nil), a.IntakeSummary.Concerns...)
		v.Medications = append([]string(nil), a.IntakeSummary.Medications...)
		v.Allergies = append([]string(nil), a.IntakeSummary.Allergies...)
		cp.IntakeSummary = &v
	}
	if a.NextFollowUp != nil {
		v := *a.NextFollowUp
		cp.NextFollowUp = &v
	}
	cp.CancellationHistory = append([]CancellationRecord(nil), a.CancellationHistory...)
	cp.VoiceCallAttempts = append([]VoiceCallAttempt(nil), a.VoiceCallAttempts...)
	cp.Messages = append([]Message(nil), a.Messages...)
	cp.DoctorNotes = append([]DoctorNote(nil), a.DoctorNotes...)

	return &cp
}

func snapshotAll(list []*Appointment) []*Appointment {
	out := make([]*Appointment, 0, len(list))
	for _, appt := range list {
		out = append(out, snapshot(appt))
	}
	return out
}
