package schedule

import (
	"testing"
	"time"
)

func testGrid() Grid {
	start := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	return NewGrid(Slots(start, end, 15*time.Minute), 60, 15, 4)
}

func TestPlace(t *testing.T) {
	g := testGrid()

	cases := []struct {
		name     string
		label    string
		duration int
		want     Position
		ok       bool
	}{
		{"first slot single interval", "9:00 AM", 15, Position{Top: 0, Height: 56}, true},
		{"second slot", "9:15 AM", 15, Position{Top: 60, Height: 56}, true},
		{"two intervals", "9:00 AM", 30, Position{Top: 0, Height: 116}, true},
		{"partial interval rounds up", "9:00 AM", 20, Position{Top: 0, Height: 116}, true},
		{"hour long", "10:00 AM", 60, Position{Top: 240, Height: 236}, true},
		{"zero duration uses one interval", "9:00 AM", 0, Position{Top: 0, Height: 56}, true},
		{"unknown label", "7:00 AM", 30, Position{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := g.Place(tc.label, tc.duration)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestNewGridDefaults(t *testing.T) {
	g := NewGrid(nil, 0, 0, -1)
	if g.SlotHeight != DefaultSlotHeight || g.IntervalMinutes != DefaultIntervalMinutes || g.Gap != DefaultGap {
		t.Fatalf("defaults not applied: %+v", g)
	}
}

func TestSlots(t *testing.T) {
	start := time.Date(2026, 3, 20, 11, 30, 0, 0, time.UTC)
	end := time.Date(2026, 3, 20, 12, 30, 0, 0, time.UTC)
	got := Slots(start, end, 30*time.Minute)

	want := []string{"11:30 AM", "12:00 PM"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLabel(t *testing.T) {
	cases := []struct {
		hour, minute int
		want         string
	}{
		{0, 0, "12:00 AM"},
		{9, 5, "9:05 AM"},
		{12, 0, "12:00 PM"},
		{13, 45, "1:45 PM"},
		{23, 59, "11:59 PM"},
	}
	for _, tc := range cases {
		ts := time.Date(2026, 3, 20, tc.hour, tc.minute, 0, 0, time.UTC)
		if got := Label(ts); got != tc.want {
			t.Errorf("Label(%02d:%02d) = %q, want %q", tc.hour, tc.minute, got, tc.want)
		}
	}
}
