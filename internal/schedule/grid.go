// Package schedule maps time-labeled appointments onto a fixed
// interval grid for the per-provider day view.
package schedule

import (
	"fmt"
	"time"
)

// Defaults match the day view: 15-minute rows, 60px per row, 4px gap
// between stacked blocks.
const (
	DefaultIntervalMinutes = 15
	DefaultSlotHeight      = 60
	DefaultGap             = 4
)

// Grid describes the geometry of one day column.
type Grid struct {
	Slots           []string
	SlotHeight      int
	IntervalMinutes int
	Gap             int
}

// NewGrid builds a grid over the given slot labels, applying defaults
// for zero-valued geometry.
func NewGrid(slots []string, slotHeight, intervalMinutes, gap int) Grid {
	if slotHeight <= 0 {
		slotHeight = DefaultSlotHeight
	}
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultIntervalMinutes
	}
	if gap < 0 {
		gap = DefaultGap
	}
	return Grid{
		Slots:           slots,
		SlotHeight:      slotHeight,
		IntervalMinutes: intervalMinutes,
		Gap:             gap,
	}
}

// Position is the vertical placement of one appointment block.
type Position struct {
	Top    int `json:"top"`
	Height int `json:"height"`
}

// Place computes the block position for an appointment at the given
// slot label spanning duration minutes. ok is false when the label is
// not on the grid; the caller decides whether to drop or flag the
// appointment. Overlapping appointments for one provider are allowed
// and will stack; the grid does no collision detection.
func (g Grid) Place(timeLabel string, durationMinutes int) (Position, bool) {
	idx := -1
	for i, slot := range g.Slots {
		if slot == timeLabel {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Position{}, false
	}
	if durationMinutes <= 0 {
		durationMinutes = g.IntervalMinutes
	}

	spanned := (durationMinutes + g.IntervalMinutes - 1) / g.IntervalMinutes
	return Position{
		Top:    idx * g.SlotHeight,
		Height: spanned*g.SlotHeight - g.Gap,
	}, true
}

// Slots generates slot labels from start to end (exclusive) at the
// given interval, formatted like "9:00 AM".
func Slots(start, end time.Time, interval time.Duration) []string {
	if interval <= 0 {
		interval = DefaultIntervalMinutes * time.Minute
	}
	var out []string
	for t := start; t.Before(end); t = t.Add(interval) {
		out = append(out, Label(t))
	}
	return out
}

// Label formats a time as a slot label without a leading zero hour.
func Label(t time.Time) string {
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	meridiem := "AM"
	if t.Hour() >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", hour, t.Minute(), meridiem)
}
