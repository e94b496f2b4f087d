/*
schedule.go - Weekly schedules, expected entry times, and shift durations

PURPOSE:
  A worker's schedule is a weekly template: an entry and exit time of day
  for Monday through Friday. Saturday and Sunday never carry a schedule.
  Assignments are effective-dated; the template in force on a date is the
  latest assignment whose EffectiveFrom is on or before that date.

KEY CONCEPTS:
  ClockTime:
    A time of day in minutes since midnight. Pure arithmetic, no zone.
    Lateness is the minute difference between the actual entry clock time
    and the scheduled one.

  WeekSchedule:
    The weekly template. ExpectedEntry answers "when should this worker
    have arrived on this weekday", or false on unconfigured days.

  ScheduleAssignment:
    Links a worker to a template starting at a date. A worker's history
    is a list of assignments; resolution picks the latest applicable one.

  ShiftDuration:
    Exit minus entry, decomposed into hours/minutes for display. Exit at
    or before entry is invalid: overnight shifts are unsupported.

SEE ALSO:
  - classifier.go: Consumes ExpectedEntry for lateness computation
  - store/memory.go: Dev/test ScheduleSource built from assignments
*/
package attendance

import (
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// CLOCK TIME - Time of day in minutes since midnight
// =============================================================================

type ClockTime int

// ClockUnset marks a weekday with no configured time.
const ClockUnset ClockTime = -1

func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock parses "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (ClockTime, error) {
	var hour, minute, second int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &hour, &minute, &second); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
			return ClockUnset, fmt.Errorf("invalid clock time %q", s)
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockUnset, fmt.Errorf("invalid clock time %q", s)
	}
	return NewClockTime(hour, minute), nil
}

// ClockOf extracts the time of day of t in the given location, truncated
// to the minute.
func ClockOf(t time.Time, loc *time.Location) ClockTime {
	local := t.In(loc)
	return NewClockTime(local.Hour(), local.Minute())
}

func (c ClockTime) IsSet() bool  { return c >= 0 }
func (c ClockTime) Hour() int    { return int(c) / 60 }
func (c ClockTime) Minute() int  { return int(c) % 60 }
func (c ClockTime) Minutes() int { return int(c) }

func (c ClockTime) String() string {
	if !c.IsSet() {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// =============================================================================
// WEEK SCHEDULE - Per-weekday entry/exit template
// =============================================================================

// DaySpan is the entry/exit window for one weekday.
type DaySpan struct {
	Entry ClockTime
	Exit  ClockTime
}

func (s DaySpan) IsSet() bool { return s.Entry.IsSet() && s.Exit.IsSet() }

// Valid reports whether the span describes a same-day shift. Exit at or
// before entry is invalid.
func (s DaySpan) Valid() bool { return s.IsSet() && s.Exit > s.Entry }

type WeekSchedule struct {
	ID          string
	Description string
	Days        map[time.Weekday]DaySpan // Monday..Friday; weekends never present
}

// NewWeekSchedule creates an empty template.
func NewWeekSchedule(id, description string) *WeekSchedule {
	return &WeekSchedule{ID: id, Description: description, Days: make(map[time.Weekday]DaySpan)}
}

// SetDay configures one weekday. Weekend days are rejected.
func (ws *WeekSchedule) SetDay(wd time.Weekday, span DaySpan) error {
	if wd == time.Saturday || wd == time.Sunday {
		return fmt.Errorf("schedule %s: weekend day %s cannot carry a shift", ws.ID, wd)
	}
	if !span.Valid() {
		return fmt.Errorf("schedule %s: %s exit %s must be after entry %s",
			ws.ID, wd, span.Exit, span.Entry)
	}
	if ws.Days == nil {
		ws.Days = make(map[time.Weekday]DaySpan)
	}
	ws.Days[wd] = span
	return nil
}

// Span returns the configured window for a weekday, false when none.
func (ws *WeekSchedule) Span(wd time.Weekday) (DaySpan, bool) {
	if ws == nil {
		return DaySpan{}, false
	}
	span, ok := ws.Days[wd]
	if !ok || !span.Valid() {
		return DaySpan{}, false
	}
	return span, true
}

// ExpectedEntry returns the scheduled entry time for a date's weekday,
// false when the weekday has no configured (or an invalid) schedule.
func (ws *WeekSchedule) ExpectedEntry(date Day) (ClockTime, bool) {
	span, ok := ws.Span(date.Weekday())
	if !ok {
		return ClockUnset, false
	}
	return span.Entry, true
}

// =============================================================================
// SHIFT DURATION - Display decomposition of a day's span
// =============================================================================

type ShiftDuration struct {
	Hours        int
	Minutes      int
	TotalMinutes int
}

// SpanDuration computes the shift length between entry and exit. Returns
// false for unset times or exit at/before entry. Pure minute arithmetic;
// timezone normalization happened at event ingestion.
func SpanDuration(entry, exit ClockTime) (ShiftDuration, bool) {
	if !entry.IsSet() || !exit.IsSet() || exit <= entry {
		return ShiftDuration{}, false
	}
	total := exit.Minutes() - entry.Minutes()
	return ShiftDuration{
		Hours:        total / 60,
		Minutes:      total % 60,
		TotalMinutes: total,
	}, true
}

func (d ShiftDuration) String() string {
	return fmt.Sprintf("%dh %02dm", d.Hours, d.Minutes)
}

// =============================================================================
// SCHEDULE ASSIGNMENT - Effective-dated worker-to-template link
// =============================================================================

type ScheduleAssignment struct {
	ID            string
	Worker        WorkerID
	ScheduleID    string
	EffectiveFrom Day
}

// Applies reports whether the assignment is in force on the given date.
func (a ScheduleAssignment) Applies(date Day) bool {
	return a.EffectiveFrom.BeforeOrEqual(date)
}

// ResolveAssignment picks the assignment in force on a date: the latest
// EffectiveFrom that is on or before the date. Returns ErrNoAssignment
// when the history has no applicable entry.
func ResolveAssignment(history []ScheduleAssignment, date Day) (ScheduleAssignment, error) {
	sorted := make([]ScheduleAssignment, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})

	var found *ScheduleAssignment
	for i := range sorted {
		if sorted[i].Applies(date) {
			found = &sorted[i]
		}
	}
	if found == nil {
		return ScheduleAssignment{}, ErrNoAssignment
	}
	return *found, nil
}

// =============================================================================
// SCHEDULE RESOLVER - ScheduleSource over in-memory snapshots
// =============================================================================

// ScheduleResolver implements ScheduleSource from plain maps. Both the
// sqlite store and the dev/test memory store load into this shape before
// classification, keeping the engine free of I/O.
type ScheduleResolver struct {
	Schedules   map[string]*WeekSchedule          // by schedule ID
	Assignments map[WorkerID][]ScheduleAssignment // per worker, any order
}

func (r *ScheduleResolver) ScheduleFor(worker WorkerID, date Day) (*WeekSchedule, error) {
	assignment, err := ResolveAssignment(r.Assignments[worker], date)
	if err != nil {
		return nil, fmt.Errorf("worker %s on %s: %w", worker, date, err)
	}
	schedule, ok := r.Schedules[assignment.ScheduleID]
	if !ok {
		return nil, fmt.Errorf("worker %s on %s: assignment %s references schedule %s: %w",
			worker, date, assignment.ID, assignment.ScheduleID, ErrScheduleNotFound)
	}
	return schedule, nil
}
