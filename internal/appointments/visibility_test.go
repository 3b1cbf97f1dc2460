package appointments

import "testing"

func schedAppt(id, provider, date string, cancelled bool) *Appointment {
	return &Appointment{ID: id, Provider: provider, Date: date, Cancelled: cancelled}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{"admin", "doctor", "owner"} {
		if !ValidRole(role) {
			t.Errorf("expected %q to be valid", role)
		}
	}
	for _, role := range []string{"", "nurse", "Admin"} {
		if ValidRole(role) {
			t.Errorf("expected %q to be invalid", role)
		}
	}
}

func TestVisibleAppointmentsAdminSeesAll(t *testing.T) {
	appts := []*Appointment{
		schedAppt("a", "Dr. Lee", "2026-03-20", false),
		schedAppt("b", "Dr. Shah", "2026-03-21", false),
		schedAppt("c", "Dr. Lee", "2026-03-20", true),
	}
	got := VisibleAppointments(appts, RoleAdmin, "", "")
	if len(got) != 2 {
		t.Fatalf("admin should see all non-cancelled, got %v", ids(got))
	}
}

func TestVisibleAppointmentsDoctorScope(t *testing.T) {
	appts := []*Appointment{
		schedAppt("a", "Dr. Lee", "2026-03-20", false),
		schedAppt("b", "Dr. Lee", "2026-03-21", false),  // other date
		schedAppt("c", "Dr. Shah", "2026-03-20", false), // other provider
		schedAppt("d", "Dr. Lee", "2026-03-20", true),   // cancelled
	}
	got := VisibleAppointments(appts, RoleDoctor, "Dr. Lee", "2026-03-20")
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("doctor scope requires provider and date to match: got %v", ids(got))
	}
}

func TestVisibleNotesPartition(t *testing.T) {
	appt := &Appointment{
		ID: "a",
		DoctorNotes: []DoctorNote{
			{ID: "n1", DoctorID: "doc-1", Content: "mine"},
			{ID: "n2", DoctorID: "doc-2", Content: "theirs"},
		},
	}

	mine := VisibleNotes(appt, RoleDoctor, "doc-1")
	if len(mine) != 1 || mine[0].ID != "n1" {
		t.Fatalf("doctor must only see own notes: %+v", mine)
	}

	// Doctor with no selected identity sees nothing.
	none := VisibleNotes(appt, RoleDoctor, "")
	if len(none) != 0 {
		t.Fatalf("doctor without an id must see no notes: %+v", none)
	}

	all := VisibleNotes(appt, RoleAdmin, "")
	if len(all) != 2 {
		t.Fatalf("admin audit view gets the full list: %+v", all)
	}

	if VisibleNotes(nil, RoleAdmin, "") != nil {
		t.Fatal("nil appointment returns nil")
	}
}
