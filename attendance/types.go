/*
Package attendance provides the core attendance classification engine.

PURPOSE:
  This package contains the domain types and algorithms that turn raw
  check-in/check-out swipes into classified daily attendance records.
  Given a worker's weekly schedule, a configurable table of tardiness
  rules, and the holiday/justification calendars, the engine derives one
  status per worker per calendar day.

KEY CONCEPTS IN THIS FILE (types.go):
  - Event: One raw swipe record (biometric or manual)
  - Day: A civil calendar date in the organization's local timezone
  - Status: The classified outcome for a worker-day
  - DailyRecord: The engine's output, one per worker-day
  - Source interfaces: HolidayCalendar, JustificationSource, ScheduleSource

DESIGN PRINCIPLES:
  1. Purity: classification is a function of its inputs, no hidden state
  2. Degradation: missing data maps to a defined status, never a panic
  3. Local time: days are cut at the organization's timezone, not UTC
  4. Data over code: rule severity lives in configuration, not branches

USAGE:
  grouped, bad := attendance.GroupEvents(events, loc)
  classifier := &attendance.Classifier{
      Rules:          rules,
      Schedules:      resolver,
      Holidays:       holidays,
      Justifications: justifications,
  }
  record := classifier.ClassifyDay(workerID, day, grouped.For(workerID, day))

SEE ALSO:
  - schedule.go: Weekly schedules and expected entry times
  - rules.go: Late-rule table and write-time validation
  - grouper.go: Worker-day partitioning of raw events
  - classifier.go: The status decision chain
*/
package attendance

import (
	"fmt"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string

// =============================================================================
// STATUS - Classified outcome for one worker-day
// =============================================================================

type Status string

const (
	StatusOnTime      Status = "ON_TIME"
	StatusTardyMinor  Status = "TARDY_MINOR"
	StatusTardyMajor  Status = "TARDY_MAJOR"
	StatusAbsent      Status = "ABSENT"
	StatusJustified   Status = "JUSTIFIED"
	StatusHoliday     Status = "HOLIDAY"
	StatusNotRecorded Status = "NOT_YET_RECORDED"
)

// Severity orders the lateness outcomes: ON_TIME < TARDY_MINOR <
// TARDY_MAJOR < ABSENT. Statuses outside that chain (holiday, justified,
// not-yet-recorded) report -1 and are never compared for severity.
func (s Status) Severity() int {
	switch s {
	case StatusOnTime:
		return 0
	case StatusTardyMinor:
		return 1
	case StatusTardyMajor:
		return 2
	case StatusAbsent:
		return 3
	default:
		return -1
	}
}

// IsTardy reports whether the status is one of the tardiness grades.
func (s Status) IsTardy() bool {
	return s == StatusTardyMinor || s == StatusTardyMajor
}

// =============================================================================
// RAW EVENT TAGS - Server-assigned strings on stored swipe records
// =============================================================================

// Exit records are tagged SALIDA by the capture device firmware; EXIT is
// accepted for imported data. Everything else counts as an entry-side tag,
// including PENDING records awaiting finalization.
const (
	RawExit      = "SALIDA"
	RawExitAlias = "EXIT"
	RawPending   = "PENDING"
)

// IsExitTag reports whether a raw status marks a check-out record.
func IsExitTag(raw string) bool {
	return raw == RawExit || raw == RawExitAlias
}

// =============================================================================
// EVENT - One raw swipe record
// =============================================================================

type Event struct {
	ID        string
	WorkerID  WorkerID
	Timestamp time.Time // zone-aware; converted to the org zone at grouping
	RawStatus string
}

// Malformed reports whether the event cannot participate in classification.
func (e Event) Malformed() bool {
	return e.Timestamp.IsZero() || e.WorkerID == ""
}

// =============================================================================
// DAY - Civil calendar date
// =============================================================================

// Day is a timezone-free calendar date. All grouping and classification
// happens after timestamps are collapsed to a Day in the organization's
// local zone.
type Day struct {
	Year  int
	Month time.Month
	Date  int
}

func NewDay(year int, month time.Month, date int) Day {
	return Day{Year: year, Month: month, Date: date}
}

// DayOf extracts the civil date of t in the given location.
func DayOf(t time.Time, loc *time.Location) Day {
	local := t.In(loc)
	return Day{Year: local.Year(), Month: local.Month(), Date: local.Day()}
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Day{Year: t.Year(), Month: t.Month(), Date: t.Day()}, nil
}

func (d Day) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, loc)
}

func (d Day) Weekday() time.Weekday { return d.Time(time.UTC).Weekday() }

func (d Day) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Day) AddDays(n int) Day {
	t := d.Time(time.UTC).AddDate(0, 0, n)
	return Day{Year: t.Year(), Month: t.Month(), Date: t.Day()}
}

func (d Day) Before(other Day) bool {
	return d.Time(time.UTC).Before(other.Time(time.UTC))
}

func (d Day) After(other Day) bool {
	return d.Time(time.UTC).After(other.Time(time.UTC))
}

func (d Day) Equal(other Day) bool { return d == other }

func (d Day) BeforeOrEqual(other Day) bool { return !d.After(other) }

func (d Day) IsZero() bool { return d == Day{} }

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Date)
}

// Today returns the current date in the given location.
func Today(loc *time.Location) Day {
	return DayOf(time.Now(), loc)
}

// =============================================================================
// PERIOD - Inclusive date range for reports
// =============================================================================

type Period struct {
	From Day
	To   Day
}

func (p Period) Valid() bool { return !p.To.Before(p.From) }

// Days returns every date in the period, inclusive on both ends.
func (p Period) Days() []Day {
	if !p.Valid() {
		return nil
	}
	var days []Day
	for d := p.From; d.BeforeOrEqual(p.To); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// MonthPeriod covers a full calendar month.
func MonthPeriod(year int, month time.Month) Period {
	first := NewDay(year, month, 1)
	last := first.AddDays(32)
	last = NewDay(last.Year, last.Month, 1).AddDays(-1)
	return Period{From: first, To: last}
}

// =============================================================================
// DAILY RECORD - Classifier output
// =============================================================================

type DayKey struct {
	Worker WorkerID
	Date   Day
}

// DayEvents is the reduced view of one worker-day: at most one entry and
// one exit regardless of how many raw swipes occurred.
type DayEvents struct {
	Entry *Event
	Exit  *Event
}

// DailyRecord is the classified outcome for one worker on one date.
type DailyRecord struct {
	Worker      WorkerID
	Date        Day
	Entry       *Event
	Exit        *Event
	Status      Status
	MinutesLate int

	// Unclassified marks a lateness value no configured rule covers. The
	// status is the conservative default; the flag surfaces the
	// configuration gap for administrative review.
	Unclassified bool

	// RuleID identifies the late rule that decided the status, if any.
	RuleID string

	// Note carries the holiday or justification description when those
	// sources decided the status.
	Note string
}

// =============================================================================
// SOURCE INTERFACES - External collaborators consulted by the classifier
// =============================================================================

// HolidayCalendar answers whether a date is a configured holiday.
type HolidayCalendar interface {
	IsHoliday(date Day) (bool, string)
}

// JustificationSource answers whether an excused absence exists for a
// worker-day.
type JustificationSource interface {
	IsJustified(worker WorkerID, date Day) (bool, string)
}

// ScheduleSource resolves the weekly schedule in force for a worker on a
// date. Returns ErrNoAssignment when the worker has no assignment history
// at all, which is a malformed-input condition distinct from "no schedule
// configured for this weekday".
type ScheduleSource interface {
	ScheduleFor(worker WorkerID, date Day) (*WeekSchedule, error)
}

// =============================================================================
// SNAPSHOT IMPLEMENTATIONS - Plain in-memory views of the sources
// =============================================================================

// HolidaySet maps dates to holiday descriptions. Implements HolidayCalendar.
type HolidaySet map[Day]string

func (h HolidaySet) IsHoliday(date Day) (bool, string) {
	desc, ok := h[date]
	return ok, desc
}

// JustificationSet maps worker-days to justification reasons.
type JustificationSet map[DayKey]string

func (j JustificationSet) IsJustified(worker WorkerID, date Day) (bool, string) {
	reason, ok := j[DayKey{Worker: worker, Date: date}]
	return ok, reason
}

// NoHolidays is a calendar with no configured holidays.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(Day) (bool, string) { return false, "" }

// NoJustifications is a source with no excused absences.
type NoJustifications struct{}

func (NoJustifications) IsJustified(WorkerID, Day) (bool, string) { return false, "" }
