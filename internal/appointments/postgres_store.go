package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool used by the store; tests inject a
// mock implementation.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore persists appointments in the relational database.
// Scalar status flags are columns; nested append-only collections are
// JSONB.
type PostgresStore struct {
	db  Querier
	now func() time.Time
}

// NewPostgresStore initializes a store backed by a pgx pool.
func NewPostgresStore(db Querier) *PostgresStore {
	if db == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const apptColumns = `
	id, time_label, visit_date, duration_mins, provider, visit_type, visit_category,
	patient_name, patient_phone, patient_email,
	confirmed, intake_complete, paid, voice_call_sent, rescheduled, arrived,
	needs_attention_override, cancelled,
	cancellation_reason, cancellation_history,
	voice_call_attempts, messages, intake_summary, doctor_notes, next_follow_up,
	created_at, updated_at
`

// Create inserts a new appointment row.
func (s *PostgresStore) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO appointments (
			id, time_label, visit_date, duration_mins, provider,
			visit_type, visit_category, patient_name, patient_phone, patient_email
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := s.db.QueryRow(ctx, query,
		id,
		req.Time,
		req.Date,
		req.Duration,
		req.Provider,
		string(req.VisitType),
		string(req.VisitCategory),
		req.PatientName,
		req.PatientPhone,
		req.PatientEmail,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}

	return &Appointment{
		ID:            id.String(),
		Time:          req.Time,
		Date:          req.Date,
		Duration:      req.Duration,
		Provider:      req.Provider,
		VisitType:     req.VisitType,
		VisitCategory: req.VisitCategory,
		PatientName:   req.PatientName,
		PatientPhone:  req.PatientPhone,
		PatientEmail:  req.PatientEmail,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

// Get fetches one appointment by id from either collection.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// ListActive returns non-cancelled appointments in creation order.
func (s *PostgresStore) ListActive(ctx context.Context) ([]*Appointment, error) {
	return s.list(ctx, false)
}

// ListCancelled returns cancelled appointments in creation order.
func (s *PostgresStore) ListCancelled(ctx context.Context) ([]*Appointment, error) {
	return s.list(ctx, true)
}

func (s *PostgresStore) list(ctx context.Context, cancelled bool) ([]*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE cancelled = $1 ORDER BY created_at, id`
	rows, err := s.db.Query(ctx, query, cancelled)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}

// Update merges a partial update into the row.
func (s *PostgresStore) Update(ctx context.Context, id string, upd Update) (*Appointment, error) {
	query := `
		UPDATE appointments SET
			time_label = COALESCE($2, time_label),
			visit_date = COALESCE($3, visit_date),
			duration_mins = COALESCE($4, duration_mins),
			provider = COALESCE($5, provider),
			visit_type = COALESCE($6, visit_type),
			patient_phone = COALESCE($7, patient_phone),
			patient_email = COALESCE($8, patient_email),
			paid = COALESCE($9, paid),
			voice_call_sent = COALESCE($10, voice_call_sent),
			needs_attention_override = COALESCE($11, needs_attention_override),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + apptColumns
	var visitType *string
	if upd.VisitType != nil {
		v := string(*upd.VisitType)
		visitType = &v
	}
	appt, err := scanAppointment(s.db.QueryRow(ctx, query, id,
		upd.Time, upd.Date, upd.Duration, upd.Provider, visitType,
		upd.PatientPhone, upd.PatientEmail, upd.Paid, upd.VoiceCallSent,
		upd.NeedsAttentionOverride,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: update failed: %w", err)
	}
	return appt, nil
}

// Confirm sets the confirmed flag.
func (s *PostgresStore) Confirm(ctx context.Context, id string) (*Appointment, error) {
	return s.setFlag(ctx, id, "confirmed")
}

// CompleteIntake sets the intake-complete flag.
func (s *PostgresStore) CompleteIntake(ctx context.Context, id string) (*Appointment, error) {
	return s.setFlag(ctx, id, "intake_complete")
}

// MarkArrived records patient check-in.
func (s *PostgresStore) MarkArrived(ctx context.Context, id string) (*Appointment, error) {
	return s.setFlag(ctx, id, "arrived")
}

func (s *PostgresStore) setFlag(ctx context.Context, id, column string) (*Appointment, error) {
	query := `UPDATE appointments SET ` + column + ` = TRUE, updated_at = now() WHERE id = $1 RETURNING ` + apptColumns
	appt, err := scanAppointment(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: set %s failed: %w", column, err)
	}
	return appt, nil
}

// SetIntakeSummary stores the intake result blob.
func (s *PostgresStore) SetIntakeSummary(ctx context.Context, id string, summary IntakeSummary) (*Appointment, error) {
	blob, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("appointments: marshal intake summary: %w", err)
	}
	query := `
		UPDATE appointments SET
			intake_summary = $2,
			intake_complete = intake_complete OR $3,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + apptColumns
	appt, err := scanAppointment(s.db.QueryRow(ctx, query, id, blob, summary.Completed))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: set intake summary failed: %w", err)
	}
	return appt, nil
}

// Reschedule overwrites the slot fields and flips the rescheduled
// indicator.
func (s *PostgresStore) Reschedule(ctx context.Context, id, newTime, newProvider, newDate string) (*Appointment, error) {
	query := `
		UPDATE appointments SET
			time_label = $2,
			provider = $3,
			visit_date = $4,
			rescheduled = TRUE,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + apptColumns
	appt, err := scanAppointment(s.db.QueryRow(ctx, query, id, newTime, newProvider, newDate))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: reschedule failed: %w", err)
	}
	return appt, nil
}

// Cancel records a cancellation event. Repeating the call appends
// another history entry.
func (s *PostgresStore) Cancel(ctx context.Context, id string, reason CancellationRecord) (*Appointment, error) {
	if reason.CancelledAt.IsZero() {
		reason.CancelledAt = s.now()
	}
	return s.mutateJSON(ctx, id, func(a *Appointment) error {
		applyCancellation(a, reason, s.now())
		return nil
	})
}

// AddDoctorNote appends a new private note.
func (s *PostgresStore) AddDoctorNote(ctx context.Context, id, doctorID, content string) (*Appointment, error) {
	return s.mutateJSON(ctx, id, func(a *Appointment) error {
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
func (s *PostgresStore) UpdateDoctorNote(ctx context.Context, id, noteID, content string) (*Appointment, error) {
	return s.mutateJSON(ctx, id, func(a *Appointment) error {
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
func (s *PostgresStore) SetFollowUp(ctx context.Context, id, date, note, doctorID string) (*Appointment, error) {
	followUp := FollowUp{Date: date, Note: note, SetBy: doctorID, SetAt: s.now()}
	blob, err := json.Marshal(followUp)
	if err != nil {
		return nil, fmt.Errorf("appointments: marshal follow-up: %w", err)
	}
	query := `UPDATE appointments SET next_follow_up = $2, updated_at = now() WHERE id = $1 RETURNING ` + apptColumns
	appt, err := scanAppointment(s.db.QueryRow(ctx, query, id, blob))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: set follow-up failed: %w", err)
	}
	return appt, nil
}

// RecordVoiceCallAttempt appends a call attempt and flips the
// voice-call indicator.
func (s *PostgresStore) RecordVoiceCallAttempt(ctx context.Context, id string, attempt VoiceCallAttempt) (*Appointment, error) {
	return s.mutateJSON(ctx, id, func(a *Appointment) error {
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
func (s *PostgresStore) AppendMessage(ctx context.Context, id string, msg Message) (*Appointment, error) {
	return s.mutateJSON(ctx, id, func(a *Appointment) error {
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

// mutateJSON loads the row under FOR UPDATE, applies fn, and writes
// back every JSONB collection plus derived scalar flags in one
// transaction.
func (s *PostgresStore) mutateJSON(ctx context.Context, id string, fn func(*Appointment) error) (*Appointment, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `SELECT ` + apptColumns + ` FROM appointments WHERE id = $1 FOR UPDATE`
	appt, err := scanAppointment(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select for update failed: %w", err)
	}

	if err := fn(appt); err != nil {
		return nil, err
	}
	appt.UpdatedAt = s.now()

	reason, err := marshalNullable(appt.CancellationReason)
	if err != nil {
		return nil, err
	}
	history, err := json.Marshal(appt.CancellationHistory)
	if err != nil {
		return nil, fmt.Errorf("appointments: marshal history: %w", err)
	}
	attempts, err := json.Marshal(appt.VoiceCallAttempts)
	if err != nil {
		return nil, fmt.Errorf("appointments: marshal attempts: %w", err)
	}
	messages, err := json.Marshal(appt.Messages)
	if err != nil {
		return nil, fmt.Errorf("appointments: marshal messages: %w", err)
	}
	notes, err := json.Marshal(appt.DoctorNotes)
	if err != nil {
		return nil, fmt.Errorf("appointments: marshal notes: %w", err)
	}

	update := `
		UPDATE appointments SET
			cancelled = $2,
			cancellation_reason = $3,
			cancellation_history = $4,
			voice_call_attempts = $5,
			messages = $6,
			doctor_notes = $7,
			voice_call_sent = $8,
			updated_at = $9
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, update, id,
		appt.Cancelled, reason, history, attempts, messages, notes,
		appt.Indicators.VoiceCallSent, appt.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("appointments: write back failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit: %w", err)
	}
	return appt, nil
}
