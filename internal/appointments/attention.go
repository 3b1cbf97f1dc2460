package appointments

// AttentionFilter selects which staff-action predicate to apply.
type AttentionFilter string

const (
	FilterAll           AttentionFilter = "all"
	FilterUnconfirmed   AttentionFilter = "unconfirmed"
	FilterMissingIntake AttentionFilter = "missing-intake"
)

// ParseAttentionFilter maps a raw query value to a filter, defaulting
// to FilterAll.
func ParseAttentionFilter(raw string) AttentionFilter {
	switch AttentionFilter(raw) {
	case FilterUnconfirmed:
		return FilterUnconfirmed
	case FilterMissingIntake:
		return FilterMissingIntake
	default:
		return FilterAll
	}
}

// FilterNeedingAttention returns the subset of appointments requiring
// staff action. The result preserves input order and never contains
// duplicates. The computation is derived from the status flags; the
// manual NeedsAttentionOverride field is informational only and is
// not consulted here. Cancelled appointments are excluded.
func FilterNeedingAttention(appts []*Appointment, filter AttentionFilter) []*Appointment {
	out := make([]*Appointment, 0, len(appts))
	for _, appt := range appts {
		if appt.Cancelled {
			continue
		}
		var match bool
		switch filter {
		case FilterUnconfirmed:
			match = !appt.Status.Confirmed
		case FilterMissingIntake:
			match = !appt.Status.IntakeComplete
		default:
			match = !appt.Status.Confirmed || !appt.Status.IntakeComplete
		}
		if match {
			out = append(out, appt)
		}
	}
	return out
}
