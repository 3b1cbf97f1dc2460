package appointments

import (
	"strings"
	"time"
)

// VisitType distinguishes how the patient attends the visit.
type VisitType string

const (
	VisitInClinic VisitType = "in-clinic"
	VisitVirtual  VisitType = "virtual"
)

// VisitCategory distinguishes new patients from returning ones.
type VisitCategory string

const (
	CategoryNewPatient VisitCategory = "new-patient"
	CategoryFollowUp   VisitCategory = "follow-up"
)

// Status holds the independent scheduling status booleans.
type Status struct {
	Confirmed      bool `json:"confirmed"`
	IntakeComplete bool `json:"intake_complete"`
	Paid           bool `json:"paid"`
}

// Indicators are informational flags, never authoritative status.
type Indicators struct {
	VoiceCallSent bool `json:"voice_call_sent"`
	Rescheduled   bool `json:"rescheduled"`
}

// CancellationRecord captures a single cancellation event.
type CancellationRecord struct {
	Type        string    `json:"type"`
	Note        string    `json:"note,omitempty"`
	CancelledBy string    `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// VoiceCallAttemptStatus is the outcome of one AI call attempt.
type VoiceCallAttemptStatus string

const (
	CallCompleted  VoiceCallAttemptStatus = "completed"
	CallNoAnswer   VoiceCallAttemptStatus = "no-answer"
	CallFailed     VoiceCallAttemptStatus = "failed"
	CallInProgress VoiceCallAttemptStatus = "in-progress"
)

// VoiceCallAttempt records one outbound voice-AI call to the patient.
type VoiceCallAttempt struct {
	ID              string                 `json:"id"`
	Timestamp       time.Time              `json:"timestamp"`
	Duration        string                 `json:"duration,omitempty"`
	Status          VoiceCallAttemptStatus `json:"status"`
	Transcript      string                 `json:"transcript,omitempty"`
	NeedsAttention  bool                   `json:"needs_attention,omitempty"`
	AttentionReason string                 `json:"attention_reason,omitempty"`
}

// Message is one SMS or email exchanged with the patient.
type Message struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`      // "sms" | "email"
	Direction     string    `json:"direction"` // "inbound" | "outbound"
	Sender        string    `json:"sender"`    // "ai" | "patient" | "admin"
	Content       string    `json:"content"`
	Timestamp     time.Time `json:"timestamp"`
	NeedsResponse bool      `json:"needs_response,omitempty"`
}

const (
	MessageSMS   = "sms"
	MessageEmail = "email"

	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	SenderAI      = "ai"
	SenderPatient = "patient"
	SenderAdmin   = "admin"
)

// DoctorNote is a private clinical note visible only to its author.
type DoctorNote struct {
	ID        string     `json:"id"`
	DoctorID  string     `json:"doctor_id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// IntakeSummary is the condensed result of the automated intake flow.
type IntakeSummary struct {
	Completed   bool     `json:"completed"`
	Concerns    []string `json:"concerns,omitempty"`
	Medications []string `json:"medications,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// FollowUp is the single current follow-up recommendation. It is
// overwritten on update, never accumulated.
type FollowUp struct {
	Date  string    `json:"date"`
	Note  string    `json:"note,omitempty"`
	SetBy string    `json:"set_by"`
	SetAt time.Time `json:"set_at"`
}

// Appointment is one scheduled visit. The ID is immutable once
// created. Time is the slot label ("9:00 AM" style), Date the
// calendar day in YYYY-MM-DD form, Duration the length in minutes.
type Appointment struct {
	ID            string        `json:"id"`
	Time          string        `json:"time"`
	Date          string        `json:"date"`
	Duration      int           `json:"duration"`
	Provider      string        `json:"provider"`
	VisitType     VisitType     `json:"visit_type"`
	VisitCategory VisitCategory `json:"visit_category"`

	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone,omitempty"`
	PatientEmail string `json:"patient_email,omitempty"`

	Status     Status     `json:"status"`
	Indicators Indicators `json:"indicators"`
	Arrived    bool       `json:"arrived"`

	// NeedsAttentionOverride is a manual flag set by staff. The
	// attention filter derives its own answer from the status flags
	// and never consults this field.
	NeedsAttentionOverride *bool `json:"needs_attention,omitempty"`

	Cancelled           bool                 `json:"cancelled,omitempty"`
	CancellationReason  *CancellationRecord  `json:"cancellation_reason,omitempty"`
	CancellationHistory []CancellationRecord `json:"cancellation_history,omitempty"`
	TotalCancellations  int                  `json:"total_cancellations,omitempty"`

	VoiceCallAttempts []VoiceCallAttempt `json:"voice_call_attempts,omitempty"`
	Messages          []Message          `json:"messages,omitempty"`

	IntakeSummary *IntakeSummary `json:"intake_summary,omitempty"`
	DoctorNotes   []DoctorNote   `json:"doctor_notes,omitempty"`
	NextFollowUp  *FollowUp      `json:"next_follow_up,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NeedsAttention reports whether the appointment requires staff
// action: unconfirmed or missing intake. Derived, authoritative.
func (a *Appointment) NeedsAttention() bool {
	return !a.Status.Confirmed || !a.Status.IntakeComplete
}

// CreateAppointmentRequest is the payload for scheduling a new visit.
type CreateAppointmentRequest struct {
	Time          string        `json:"time"`
	Date          string        `json:"date"`
	Duration      int           `json:"duration"`
	Provider      string        `json:"provider"`
	VisitType     VisitType     `json:"visit_type"`
	VisitCategory VisitCategory `json:"visit_category"`
	PatientName   string        `json:"patient_name"`
	PatientPhone  string        `json:"patient_phone"`
	PatientEmail  string        `json:"patient_email"`
}

// Validate checks required fields and applies defaults.
func (r *CreateAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.PatientName) == "" {
		return ErrMissingPatientName
	}
	if strings.TrimSpace(r.Provider) == "" {
		return ErrMissingProvider
	}
	if strings.TrimSpace(r.Time) == "" || strings.TrimSpace(r.Date) == "" {
		return ErrMissingSlot
	}
	if r.Duration <= 0 {
		r.Duration = DefaultDurationMinutes
	}
	if r.VisitType == "" {
		r.VisitType = VisitInClinic
	}
	if r.VisitCategory == "" {
		r.VisitCategory = CategoryNewPatient
	}
	return nil
}

// DefaultDurationMinutes is applied when a visit length is not given.
const DefaultDurationMinutes = 30

// Update carries a partial merge for updateAppointment. Nil pointers
// leave the corresponding field untouched.
type Update struct {
	Time                   *string    `json:"time,omitempty"`
	Date                   *string    `json:"date,omitempty"`
	Duration               *int       `json:"duration,omitempty"`
	Provider               *string    `json:"provider,omitempty"`
	VisitType              *VisitType `json:"visit_type,omitempty"`
	PatientPhone           *string    `json:"patient_phone,omitempty"`
	PatientEmail           *string    `json:"patient_email,omitempty"`
	Paid                   *bool      `json:"paid,omitempty"`
	VoiceCallSent          *bool      `json:"voice_call_sent,omitempty"`
	NeedsAttentionOverride *bool      `json:"needs_attention,omitempty"`
}
