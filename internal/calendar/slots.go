package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Working hours bounding the availability calculation.
const (
	workStartHour = 9
	workEndHour   = 17
)

type interval struct {
	start time.Time
	end   time.Time
}

// freeSlots subtracts busy intervals from the working hours of a day.
// Busy intervals may overlap and arrive unsorted; intervals outside
// working hours are clamped away.
func freeSlots(day time.Time, busy []interval) []interval {
	workStart := time.Date(day.Year(), day.Month(), day.Day(), workStartHour, 0, 0, 0, day.Location())
	workEnd := time.Date(day.Year(), day.Month(), day.Day(), workEndHour, 0, 0, 0, day.Location())

	sorted := make([]interval, len(busy))
	copy(sorted, busy)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].start.Before(sorted[j-1].start); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	var free []interval
	current := workStart
	for _, b := range sorted {
		if b.end.Before(current) || b.start.After(workEnd) {
			continue
		}
		if current.Before(b.start) {
			free = append(free, interval{start: current, end: minTime(b.start, workEnd)})
		}
		if b.end.After(current) {
			current = b.end
		}
	}
	if current.Before(workEnd) {
		free = append(free, interval{start: current, end: workEnd})
	}
	return free
}

// formatSlots renders free slots as the observation the response agent
// reads, for example "9:00 AM - 11:30 AM, 2:00 PM - 5:00 PM".
func formatSlots(slots []interval) string {
	if len(slots) == 0 {
		return "no availability during working hours"
	}
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		parts = append(parts, clockTime(s.start)+" - "+clockTime(s.end))
	}
	return strings.Join(parts, ", ")
}

func clockTime(t time.Time) string {
	return t.Format("3:04 PM")
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// parseDay parses the YYYY-MM-DD day argument of the availability
// tool.
func parseDay(day string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q, expected YYYY-MM-DD: %w", day, err)
	}
	return t, nil
}
