/*
classifier.go - The status decision chain for one worker-day

PURPOSE:
  Combines the scheduled entry time, the day's reduced events, the
  late-rule table, and the holiday/justification calendars into one final
  status per worker-day. This is the heart of the engine; everything else
  feeds it or renders its output.

DECISION ORDER (first match wins):
  1. Configured holiday            -> HOLIDAY
  2. Explicit justification        -> JUSTIFIED, regardless of lateness
  3. No entry on a working day     -> ABSENT
  4. Entry outside any schedule    -> ON_TIME (voluntary work, never
     (weekend / unconfigured day)     penalized)
  5. minutes_late = max(0, entry clock - scheduled entry)
       0            -> ON_TIME
       rule found   -> the rule's severity (an ABSENT severity is how
                       "tardy beyond threshold is an absence" is
                       expressed: as data, not a special branch)
       rule gap     -> TARDY_MINOR, record flagged unclassified

FAILURE SEMANTICS:
  Missing data (no schedule for the weekday, no events, a rule gap)
  degrades to a defined status. Only malformed inputs - an event with no
  usable timestamp, a worker with no assignment history at all - produce
  per-record errors, collected alongside the successful records so one
  bad row never aborts the batch.

PURITY:
  The classifier holds no mutable state and performs no I/O: every source
  it consults is an in-memory snapshot loaded by the caller. Classifying
  identical inputs twice yields identical records.

SEE ALSO:
  - grouper.go: Produces the DayEvents consumed here
  - rules.go: The late-rule table
  - report.go: Aggregates DailyRecords into reports
*/
package attendance

import (
	"errors"
	"time"
)

// =============================================================================
// CLASSIFIER
// =============================================================================

type Classifier struct {
	Rules          *RuleTable
	Schedules      ScheduleSource
	Holidays       HolidayCalendar
	Justifications JustificationSource

	// Location is the organization's local timezone. Day boundaries and
	// entry clock times are computed here, never in UTC.
	Location *time.Location
}

// holidays returns the configured calendar or the no-op default.
func (c *Classifier) holidays() HolidayCalendar {
	if c.Holidays == nil {
		return NoHolidays{}
	}
	return c.Holidays
}

func (c *Classifier) justifications() JustificationSource {
	if c.Justifications == nil {
		return NoJustifications{}
	}
	return c.Justifications
}

// ClassifyDay derives the record for one worker-day from its reduced
// events. The only error is ErrNoAssignment bubbling from the schedule
// source: a worker with no resolvable assignment history is malformed
// input, not a classifiable day.
func (c *Classifier) ClassifyDay(worker WorkerID, date Day, events DayEvents) (DailyRecord, error) {
	record := DailyRecord{
		Worker: worker,
		Date:   date,
		Entry:  events.Entry,
		Exit:   events.Exit,
	}

	// 1. Holidays override everything, including missing or late entries.
	if holiday, desc := c.holidays().IsHoliday(date); holiday {
		record.Status = StatusHoliday
		record.Note = desc
		return record, nil
	}

	// 2. Justifications override any computed lateness.
	if justified, reason := c.justifications().IsJustified(worker, date); justified {
		record.Status = StatusJustified
		record.Note = reason
		return record, nil
	}

	schedule, err := c.Schedules.ScheduleFor(worker, date)
	if err != nil && !errors.Is(err, ErrNoAssignment) {
		return DailyRecord{}, err
	}
	noAssignment := errors.Is(err, ErrNoAssignment)

	expected := ClockUnset
	scheduled := false
	if !noAssignment {
		expected, scheduled = schedule.ExpectedEntry(date)
	}

	if events.Entry == nil {
		if noAssignment {
			// Can't tell whether the day was a working day; malformed input.
			return DailyRecord{}, err
		}
		if scheduled {
			// 3. Working day with no entry evidence.
			record.Status = StatusAbsent
			return record, nil
		}
		// Nothing scheduled, nothing recorded.
		record.Status = StatusNotRecorded
		return record, nil
	}

	if noAssignment {
		return DailyRecord{}, err
	}

	if !scheduled {
		// 4. Out-of-schedule attendance is extra, never penalized.
		record.Status = StatusOnTime
		return record, nil
	}

	// 5. Lateness against the scheduled entry.
	actual := ClockOf(events.Entry.Timestamp, c.Location)
	minutesLate := actual.Minutes() - expected.Minutes()
	if minutesLate < 0 {
		minutesLate = 0
	}
	record.MinutesLate = minutesLate

	if minutesLate == 0 {
		record.Status = StatusOnTime
		return record, nil
	}

	rule, found := c.Rules.Classify(minutesLate)
	if !found {
		// Configuration gap: conservative default, flagged for review.
		record.Status = StatusTardyMinor
		record.Unclassified = true
		return record, nil
	}

	record.RuleID = rule.ID
	record.Status = rule.Outcome()
	return record, nil
}

// =============================================================================
// BATCH CLASSIFICATION
// =============================================================================

// BatchResult carries the classified records together with the per-record
// errors for inputs that could not be classified.
type BatchResult struct {
	Records []DailyRecord
	Errors  []BatchError
}

// BatchError names the worker-day (or event) a failure belongs to.
type BatchError struct {
	Worker WorkerID
	Date   Day
	Err    error
}

func (e BatchError) Error() string { return e.Err.Error() }
func (e BatchError) Unwrap() error { return e.Err }

// ClassifyRange classifies every listed worker over every day of the
// period from one batch of raw events. Malformed events and unresolvable
// workers land in Errors; everything else classifies.
func (c *Classifier) ClassifyRange(workers []WorkerID, period Period, events []Event) (*BatchResult, error) {
	if !period.Valid() {
		return nil, ErrInvalidPeriod
	}

	grouped, malformed := GroupEvents(events, c.Location)

	result := &BatchResult{}
	for _, bad := range malformed {
		result.Errors = append(result.Errors, BatchError{Worker: bad.Worker, Err: bad})
	}

	for _, worker := range workers {
		for _, date := range period.Days() {
			record, err := c.ClassifyDay(worker, date, grouped.For(worker, date))
			if err != nil {
				result.Errors = append(result.Errors, BatchError{Worker: worker, Date: date, Err: err})
				continue
			}
			result.Records = append(result.Records, record)
		}
	}
	return result, nil
}

// =============================================================================
// CHECK-IN CLASSIFICATION - Status stored on a new swipe
// =============================================================================

// ClassifyCheckIn computes the raw status stored on a fresh swipe at
// capture time, using the same lateness path the reports use. Exit swipes
// always store the exit tag; entry swipes store the classified status.
func (c *Classifier) ClassifyCheckIn(worker WorkerID, at time.Time, kind EventKind) (string, error) {
	if kind == KindExit {
		return RawExit, nil
	}

	date := DayOf(at, c.Location)
	entry := &Event{ID: "pending", WorkerID: worker, Timestamp: at}
	record, err := c.ClassifyDay(worker, date, DayEvents{Entry: entry})
	if err != nil {
		return "", err
	}
	return string(record.Status), nil
}
