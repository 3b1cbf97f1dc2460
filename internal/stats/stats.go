// Package stats computes dashboard summary numbers from an
// appointment snapshot. Every function is order-independent and
// guards division by zero.
package stats

import (
	"math"

	"github.com/clinicflow/clinicflow/internal/appointments"
)

// ConfirmationRate is confirmed / total as a fraction, 0 for an empty
// snapshot.
func ConfirmationRate(appts []*appointments.Appointment) float64 {
	if len(appts) == 0 {
		return 0
	}
	confirmed := 0
	for _, a := range appts {
		if a.Status.Confirmed {
			confirmed++
		}
	}
	return float64(confirmed) / float64(len(appts))
}

// AtRiskCount sums the unconfirmed and missing-intake counts. An
// appointment in both states is counted twice; the dashboard has
// always reported the sum of the two columns, not distinct patients.
// AttentionCount is the deduplicated variant.
func AtRiskCount(appts []*appointments.Appointment) int {
	unconfirmed, missingIntake := 0, 0
	for _, a := range appts {
		if !a.Status.Confirmed {
			unconfirmed++
		}
		if !a.Status.IntakeComplete {
			missingIntake++
		}
	}
	return unconfirmed + missingIntake
}

// AttentionCount counts appointments needing staff action exactly
// once.
func AttentionCount(appts []*appointments.Appointment) int {
	count := 0
	for _, a := range appts {
		if a.NeedsAttention() {
			count++
		}
	}
	return count
}

// NoShowRiskPercent is round(unconfirmed / total * 100), 0 for an
// empty snapshot.
func NoShowRiskPercent(appts []*appointments.Appointment) int {
	if len(appts) == 0 {
		return 0
	}
	unconfirmed := 0
	for _, a := range appts {
		if !a.Status.Confirmed {
			unconfirmed++
		}
	}
	return int(math.Round(float64(unconfirmed) / float64(len(appts)) * 100))
}

// IntakeCompletionRate is round(intakeComplete / total * 100), 0 for
// an empty snapshot.
func IntakeCompletionRate(appts []*appointments.Appointment) int {
	if len(appts) == 0 {
		return 0
	}
	completed := 0
	for _, a := range appts {
		if a.Status.IntakeComplete {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(appts)) * 100))
}

// VoiceActivity is the voice-AI rollup across a snapshot.
type VoiceActivity struct {
	TotalAttempts     int            `json:"total_attempts"`
	ByStatus          map[string]int `json:"by_status"`
	AnswerRatePercent int            `json:"answer_rate_percent"`
	FlaggedAttempts   int            `json:"flagged_attempts"`
	MessagesTotal     int            `json:"messages_total"`
	NeedingResponse   int            `json:"needing_response"`
}

// VoiceActivityRollup aggregates call attempts and messages across
// all appointments in the snapshot.
func VoiceActivityRollup(appts []*appointments.Appointment) VoiceActivity {
	rollup := VoiceActivity{ByStatus: map[string]int{}}
	completed := 0
	for _, a := range appts {
		for _, attempt := range a.VoiceCallAttempts {
			rollup.TotalAttempts++
			rollup.ByStatus[string(attempt.Status)]++
			if attempt.Status == appointments.CallCompleted {
				completed++
			}
			if attempt.NeedsAttention {
				rollup.FlaggedAttempts++
			}
		}
		for _, msg := range a.Messages {
			rollup.MessagesTotal++
			if msg.NeedsResponse {
				rollup.NeedingResponse++
			}
		}
	}
	if rollup.TotalAttempts > 0 {
		rollup.AnswerRatePercent = int(math.Round(float64(completed) / float64(rollup.TotalAttempts) * 100))
	}
	return rollup
}
