/*
report.go - Daily and monthly attendance aggregation

PURPOSE:
  Turns classified DailyRecords into the consolidated views the report
  screens and exports consume: one line per worker for a single date, or
  a per-worker month summary with working-day counting and an attendance
  rate.

WORKING DAYS:
  A month's working days exclude weekends and configured holidays. The
  attendance rate is on-time days over working days, computed with
  decimal arithmetic so 21/23 renders as 91.30 and not a float artifact.

SEE ALSO:
  - classifier.go: Produces the records aggregated here
  - api/export.go: Renders monthly reports as CSV/spreadsheet
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATS - Status tallies over a set of records
// =============================================================================

type ReportStats struct {
	WorkingDays    int
	OnTime         int
	TardyMinor     int
	TardyMajor     int
	Absent         int
	Justified      int
	Holidays       int
	NotRecorded    int
	Unclassified   int
	AttendanceRate decimal.Decimal // percentage, 2 decimal places
}

// Tally counts one record into the stats.
func (s *ReportStats) Tally(r DailyRecord) {
	switch r.Status {
	case StatusOnTime:
		s.OnTime++
	case StatusTardyMinor:
		s.TardyMinor++
	case StatusTardyMajor:
		s.TardyMajor++
	case StatusAbsent:
		s.Absent++
	case StatusJustified:
		s.Justified++
	case StatusHoliday:
		s.Holidays++
	case StatusNotRecorded:
		s.NotRecorded++
	}
	if r.Unclassified {
		s.Unclassified++
	}
}

// Tardy is the combined tardiness count.
func (s ReportStats) Tardy() int { return s.TardyMinor + s.TardyMajor }

// finalize computes the attendance rate once all records are tallied.
func (s *ReportStats) finalize() {
	if s.WorkingDays == 0 {
		s.AttendanceRate = decimal.Zero
		return
	}
	s.AttendanceRate = decimal.NewFromInt(int64(s.OnTime)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.WorkingDays))).
		Round(2)
}

// =============================================================================
// DAILY REPORT - One date, one line per worker
// =============================================================================

type DailyReport struct {
	Date    Day
	Records []DailyRecord
	Errors  []BatchError
	Stats   ReportStats
}

// =============================================================================
// MONTHLY REPORT - Per-worker month summaries
// =============================================================================

type WorkerMonth struct {
	Worker  WorkerID
	Days    []DailyRecord
	Stats   ReportStats
}

type MonthlyReport struct {
	Year    int
	Month   time.Month
	Period  Period
	Workers []WorkerMonth
	Errors  []BatchError
}

// =============================================================================
// REPORTER
// =============================================================================

type Reporter struct {
	Classifier *Classifier
}

// Daily builds the consolidated report for one date: every listed worker
// classified against that day's events.
func (r *Reporter) Daily(workers []WorkerID, date Day, events []Event) (*DailyReport, error) {
	batch, err := r.Classifier.ClassifyRange(workers, Period{From: date, To: date}, events)
	if err != nil {
		return nil, err
	}

	report := &DailyReport{Date: date, Records: batch.Records, Errors: batch.Errors}
	report.Stats.WorkingDays = countWorkingRecords(batch.Records)
	for _, rec := range batch.Records {
		report.Stats.Tally(rec)
	}
	report.Stats.finalize()
	return report, nil
}

// Monthly builds per-worker summaries over a calendar month. Weekend days
// are skipped entirely, matching the report screens; holidays appear in
// the day series but don't count as working days.
func (r *Reporter) Monthly(workers []WorkerID, year int, month time.Month, events []Event) (*MonthlyReport, error) {
	period := MonthPeriod(year, month)
	batch, err := r.Classifier.ClassifyRange(workers, period, events)
	if err != nil {
		return nil, err
	}

	byWorker := make(map[WorkerID][]DailyRecord)
	for _, rec := range batch.Records {
		if rec.Date.IsWeekend() {
			continue
		}
		byWorker[rec.Worker] = append(byWorker[rec.Worker], rec)
	}

	report := &MonthlyReport{Year: year, Month: month, Period: period, Errors: batch.Errors}
	for _, worker := range workers {
		days := byWorker[worker]
		wm := WorkerMonth{Worker: worker, Days: days}
		wm.Stats.WorkingDays = countWorkingRecords(days)
		for _, rec := range days {
			wm.Stats.Tally(rec)
		}
		wm.Stats.finalize()
		report.Workers = append(report.Workers, wm)
	}
	return report, nil
}

// countWorkingRecords counts days that demand attendance: weekdays that
// are neither holidays nor outside the worker's schedule.
func countWorkingRecords(records []DailyRecord) int {
	var n int
	for _, rec := range records {
		if rec.Date.IsWeekend() {
			continue
		}
		if rec.Status == StatusHoliday || rec.Status == StatusNotRecorded {
			continue
		}
		n++
	}
	return n
}
