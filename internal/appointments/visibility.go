package appointments

// Role identifies who is looking at the data.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
	RoleOwner  Role = "owner"
)

// ValidRole reports whether the raw value names a known role.
func ValidRole(raw string) bool {
	switch Role(raw) {
	case RoleAdmin, RoleDoctor, RoleOwner:
		return true
	}
	return false
}

// VisibleAppointments restricts the list to what the role may see.
// Admin and owner see every non-cancelled appointment. A doctor sees
// only their own provider's appointments on the selected date; both
// conditions are mandatory.
func VisibleAppointments(appts []*Appointment, role Role, doctorName, selectedDate string) []*Appointment {
	out := make([]*Appointment, 0, len(appts))
	for _, appt := range appts {
		if appt.Cancelled {
			continue
		}
		if role == RoleDoctor {
			if appt.Provider != doctorName || appt.Date != selectedDate {
				continue
			}
		}
		out = append(out, appt)
	}
	return out
}

// VisibleNotes enforces the per-doctor privacy partition. Doctors see
// only notes they authored; any other role gets the full list for
// audit views. A note leaking across doctors is a data leak, so this
// filter is applied at the query layer, never left to callers.
func VisibleNotes(appt *Appointment, role Role, activeDoctorID string) []DoctorNote {
	if appt == nil {
		return nil
	}
	if role != RoleDoctor {
		return append([]DoctorNote(nil), appt.DoctorNotes...)
	}
	out := make([]DoctorNote, 0, len(appt.DoctorNotes))
	for _, note := range appt.DoctorNotes {
		if note.DoctorID == activeDoctorID {
			out = append(out, note)
		}
	}
	return out
}
