/*
Package sqlite provides a SQLite-backed implementation of the data sources.

PURPOSE:
  Persists workers, schedules, assignments, raw attendance events, late
  rules, holidays, and justifications, and loads them back as the plain
  in-memory snapshots the classification engine consumes. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

SOURCES IMPLEMENTED (via the Load* snapshot methods):
  attendance.RuleTable:        LoadRuleTable
  attendance.HolidaySet:       LoadHolidaySet
  attendance.JustificationSet: LoadJustificationSet
  attendance.ScheduleResolver: LoadScheduleResolver

KEY TABLES:
  workers:              Worker identity records
  schedules:            Weekly templates, one column pair per weekday
  schedule_assignments: Effective-dated worker-to-template links
  attendance_events:    Raw swipe records (the persisted source of truth)
  late_rules:           The tardiness classification table
  holidays:             Organization holiday calendar
  justifications:       Excused absences per worker-day

EVENTS ARE THE SOURCE OF TRUTH:
  Classified DailyRecords are computed on demand and never persisted;
  only the raw events are stored. An event's raw_status may be updated
  (administrative correction) or the row deleted, but timestamps are
  written once at capture.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  rules, err := store.LoadRuleTable(ctx)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - attendance/types.go: Source interface definitions
  - attendance/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/turno/attendance-engine/attendance"
)

// Store implements all persistence for the attendance engine.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Workers
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		rfc TEXT UNIQUE,
		department TEXT,
		position TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_workers_department
		ON workers(department);

	-- Weekly schedule templates, one entry/exit pair per weekday
	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		monday_entry TEXT, monday_exit TEXT,
		tuesday_entry TEXT, tuesday_exit TEXT,
		wednesday_entry TEXT, wednesday_exit TEXT,
		thursday_entry TEXT, thursday_exit TEXT,
		friday_entry TEXT, friday_exit TEXT,
		created_at TEXT NOT NULL
	);

	-- Effective-dated worker-to-schedule links
	CREATE TABLE IF NOT EXISTS schedule_assignments (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		schedule_id TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_worker
		ON schedule_assignments(worker_id, effective_from);

	-- Raw swipe records: the persisted source of truth
	CREATE TABLE IF NOT EXISTS attendance_events (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		raw_status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Hot path: per-worker day windows for grouping
	CREATE INDEX IF NOT EXISTS idx_events_worker_timestamp
		ON attendance_events(worker_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp
		ON attendance_events(timestamp);

	-- Late-classification table
	CREATE TABLE IF NOT EXISTS late_rules (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		minutes_min INTEGER NOT NULL,
		minutes_max INTEGER NOT NULL,
		severity TEXT,
		created_at TEXT NOT NULL
	);

	-- Holiday calendar
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Excused absences
	CREATE TABLE IF NOT EXISTS justifications (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		date TEXT NOT NULL,
		reason TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(worker_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_justifications_date
		ON justifications(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

func newID() string { return uuid.NewString() }

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

// =============================================================================
// WORKERS
// =============================================================================

// Worker is the persisted identity record. Profile detail beyond what
// reports render lives outside the engine.
type Worker struct {
	ID         string
	Name       string
	RFC        string
	Department string
	Position   string
	Active     bool
	CreatedAt  time.Time
}

// SaveWorker inserts or replaces a worker. A missing ID is generated.
func (s *Store) SaveWorker(ctx context.Context, w *Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == "" {
		w.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workers (id, name, rfc, department, position, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, rfc = excluded.rfc,
			department = excluded.department, position = excluded.position,
			active = excluded.active`,
		w.ID, w.Name, w.RFC, w.Department, w.Position, w.Active, nowRFC3339())
	return err
}

// GetWorker returns (nil, nil) when the worker doesn't exist.
func (s *Store) GetWorker(ctx context.Context, id string) (*Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, rfc, department, position, active, created_at
		FROM workers WHERE id = ?`, id)

	var w Worker
	var createdAt string
	err := row.Scan(&w.ID, &w.Name, &w.RFC, &w.Department, &w.Position, &w.Active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &w, nil
}

// ListWorkers returns workers ordered by name; activeOnly filters to
// active records.
func (s *Store) ListWorkers(ctx context.Context, activeOnly bool) ([]Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, name, rfc, department, position, active, created_at
		FROM workers`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		var w Worker
		var createdAt string
		if err := rows.Scan(&w.ID, &w.Name, &w.RFC, &w.Department, &w.Position, &w.Active, &createdAt); err != nil {
			return nil, err
		}
		w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

func (s *Store) DeleteWorker(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM workers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrWorkerNotFound
	}
	return nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

var scheduleWeekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// SaveSchedule inserts or replaces a weekly template.
func (s *Store) SaveSchedule(ctx context.Context, ws *attendance.WeekSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws.ID == "" {
		ws.ID = newID()
	}

	args := make([]any, 0, 13)
	args = append(args, ws.ID, ws.Description)
	for _, wd := range scheduleWeekdays {
		span, ok := ws.Span(wd)
		if !ok {
			args = append(args, nil, nil)
			continue
		}
		args = append(args, span.Entry.String(), span.Exit.String())
	}
	args = append(args, nowRFC3339())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (id, description,
			monday_entry, monday_exit, tuesday_entry, tuesday_exit,
			wednesday_entry, wednesday_exit, thursday_entry, thursday_exit,
			friday_entry, friday_exit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			monday_entry = excluded.monday_entry, monday_exit = excluded.monday_exit,
			tuesday_entry = excluded.tuesday_entry, tuesday_exit = excluded.tuesday_exit,
			wednesday_entry = excluded.wednesday_entry, wednesday_exit = excluded.wednesday_exit,
			thursday_entry = excluded.thursday_entry, thursday_exit = excluded.thursday_exit,
			friday_entry = excluded.friday_entry, friday_exit = excluded.friday_exit`,
		args...)
	return err
}

const scheduleSelect = `
	SELECT id, description,
		monday_entry, monday_exit, tuesday_entry, tuesday_exit,
		wednesday_entry, wednesday_exit, thursday_entry, thursday_exit,
		friday_entry, friday_exit
	FROM schedules`

// GetSchedule returns (nil, nil) when the schedule doesn't exist.
func (s *Store) GetSchedule(ctx context.Context, id string) (*attendance.WeekSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, scheduleSelect+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanSchedule(rows)
}

// ListSchedules returns every weekly template.
func (s *Store) ListSchedules(ctx context.Context) ([]*attendance.WeekSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, scheduleSelect+` ORDER BY description`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*attendance.WeekSchedule
	for rows.Next() {
		ws, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, ws)
	}
	return schedules, rows.Err()
}

// DeleteSchedule refuses to delete templates with historical assignments.
func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var assignments int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schedule_assignments WHERE schedule_id = ?`, id).
		Scan(&assignments); err != nil {
		return err
	}
	if assignments > 0 {
		return attendance.ErrScheduleInUse
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrScheduleNotFound
	}
	return nil
}

func scanSchedule(rows *sql.Rows) (*attendance.WeekSchedule, error) {
	var id, description string
	spans := make([]sql.NullString, 10)
	dest := []any{&id, &description}
	for i := range spans {
		dest = append(dest, &spans[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	ws := attendance.NewWeekSchedule(id, description)
	for i, wd := range scheduleWeekdays {
		entry, exit := spans[i*2], spans[i*2+1]
		if !entry.Valid || !exit.Valid {
			continue
		}
		entryClock, err := attendance.ParseClock(entry.String)
		if err != nil {
			return nil, fmt.Errorf("schedule %s %s: %w", id, wd, err)
		}
		exitClock, err := attendance.ParseClock(exit.String)
		if err != nil {
			return nil, fmt.Errorf("schedule %s %s: %w", id, wd, err)
		}
		if err := ws.SetDay(wd, attendance.DaySpan{Entry: entryClock, Exit: exitClock}); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// =============================================================================
// SCHEDULE ASSIGNMENTS
// =============================================================================

// SaveAssignment records an effective-dated worker-to-schedule link.
func (s *Store) SaveAssignment(ctx context.Context, a *attendance.ScheduleAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_assignments (id, worker_id, schedule_id, effective_from, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, string(a.Worker), a.ScheduleID, a.EffectiveFrom.String(), nowRFC3339())
	return err
}

// AssignmentsForWorker returns a worker's full assignment history, oldest
// first.
func (s *Store) AssignmentsForWorker(ctx context.Context, worker attendance.WorkerID) ([]attendance.ScheduleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAssignments(ctx, `
		SELECT id, worker_id, schedule_id, effective_from
		FROM schedule_assignments WHERE worker_id = ? ORDER BY effective_from`,
		string(worker))
}

// ListAssignments returns every assignment.
func (s *Store) ListAssignments(ctx context.Context) ([]attendance.ScheduleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAssignments(ctx, `
		SELECT id, worker_id, schedule_id, effective_from
		FROM schedule_assignments ORDER BY worker_id, effective_from`)
}

func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM schedule_assignments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrNoAssignment
	}
	return nil
}

func (s *Store) queryAssignments(ctx context.Context, query string, args ...any) ([]attendance.ScheduleAssignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []attendance.ScheduleAssignment
	for rows.Next() {
		var a attendance.ScheduleAssignment
		var worker, effectiveFrom string
		if err := rows.Scan(&a.ID, &worker, &a.ScheduleID, &effectiveFrom); err != nil {
			return nil, err
		}
		a.Worker = attendance.WorkerID(worker)
		day, err := attendance.ParseDay(effectiveFrom)
		if err != nil {
			return nil, err
		}
		a.EffectiveFrom = day
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// =============================================================================
// ATTENDANCE EVENTS
// =============================================================================

// AppendEvent persists a raw swipe. The timestamp is written once.
func (s *Store) AppendEvent(ctx context.Context, e *attendance.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance_events (id, worker_id, timestamp, raw_status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, string(e.WorkerID), e.Timestamp.Format(time.RFC3339), e.RawStatus, nowRFC3339())
	return err
}

// GetEvent returns (nil, nil) when the event doesn't exist.
func (s *Store) GetEvent(ctx context.Context, id string) (*attendance.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, worker_id, timestamp, raw_status
		FROM attendance_events WHERE id = ?`, id)

	var e attendance.Event
	var worker, timestamp string
	err := row.Scan(&e.ID, &worker, &timestamp, &e.RawStatus)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.WorkerID = attendance.WorkerID(worker)
	e.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
	return &e, nil
}

// EventsInRange returns events with timestamps in [from, to], optionally
// filtered to one worker. Ordered by worker then timestamp.
func (s *Store) EventsInRange(ctx context.Context, worker attendance.WorkerID, from, to time.Time) ([]attendance.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, worker_id, timestamp, raw_status
		FROM attendance_events
		WHERE timestamp >= ? AND timestamp <= ?`
	args := []any{from.Format(time.RFC3339), to.Format(time.RFC3339)}
	if worker != "" {
		query += ` AND worker_id = ?`
		args = append(args, string(worker))
	}
	query += ` ORDER BY worker_id, timestamp`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []attendance.Event
	for rows.Next() {
		var e attendance.Event
		var workerID, timestamp string
		if err := rows.Scan(&e.ID, &workerID, &timestamp, &e.RawStatus); err != nil {
			return nil, err
		}
		e.WorkerID = attendance.WorkerID(workerID)
		// A corrupt stored timestamp leaves the zero value; the grouper
		// reports it as a malformed event instead of failing the query.
		e.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
		events = append(events, e)
	}
	return events, rows.Err()
}

// UpdateEventStatus applies an administrative correction to a raw status.
func (s *Store) UpdateEventStatus(ctx context.Context, id, rawStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE attendance_events SET raw_status = ? WHERE id = ?`, rawStatus, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", id, attendance.ErrMalformedEvent)
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM attendance_events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", id, attendance.ErrMalformedEvent)
	}
	return nil
}

// =============================================================================
// LATE RULES
// =============================================================================

// SaveRule validates the candidate against the persisted table and then
// inserts or replaces it. Overlap failures name the conflicting rule.
func (s *Store) SaveRule(ctx context.Context, rule *attendance.LateRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.listRulesLocked(ctx)
	if err != nil {
		return err
	}
	if err := attendance.ValidateRule(*rule, existing); err != nil {
		return err
	}

	if rule.ID == "" {
		rule.ID = newID()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO late_rules (id, description, minutes_min, minutes_max, severity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			minutes_min = excluded.minutes_min,
			minutes_max = excluded.minutes_max,
			severity = excluded.severity`,
		rule.ID, rule.Description, rule.MinutesMin, rule.MinutesMax,
		string(rule.Outcome()), nowRFC3339())
	return err
}

// ListRules returns the table ordered by lower bound.
func (s *Store) ListRules(ctx context.Context) ([]attendance.LateRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRulesLocked(ctx)
}

func (s *Store) listRulesLocked(ctx context.Context) ([]attendance.LateRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, minutes_min, minutes_max, severity
		FROM late_rules ORDER BY minutes_min`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []attendance.LateRule
	for rows.Next() {
		var r attendance.LateRule
		var severity sql.NullString
		if err := rows.Scan(&r.ID, &r.Description, &r.MinutesMin, &r.MinutesMax, &severity); err != nil {
			return nil, err
		}
		if severity.Valid {
			r.Severity = attendance.Status(severity.String)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *Store) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM late_rules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrRuleNotFound
	}
	return nil
}

// SeedDefaultRules installs the default table on an empty deployment.
// A populated table is left untouched, so the call is idempotent.
func (s *Store) SeedDefaultRules(ctx context.Context) ([]attendance.LateRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.listRulesLocked(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	defaults := attendance.DefaultRules()
	for i := range defaults {
		defaults[i].ID = newID()
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO late_rules (id, description, minutes_min, minutes_max, severity, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			defaults[i].ID, defaults[i].Description, defaults[i].MinutesMin,
			defaults[i].MinutesMax, string(defaults[i].Severity), nowRFC3339())
		if err != nil {
			return nil, err
		}
	}
	return defaults, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holiday is an organization-wide non-working day.
type Holiday struct {
	ID          string
	Date        attendance.Day
	Description string
}

// SaveHoliday inserts a holiday; saving the same date again updates the
// description.
func (s *Store) SaveHoliday(ctx context.Context, h *Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, description, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET description = excluded.description`,
		h.ID, h.Date.String(), h.Description, nowRFC3339())
	return err
}

func (s *Store) ListHolidays(ctx context.Context, period attendance.Period) ([]Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, description FROM holidays
		WHERE date >= ? AND date <= ? ORDER BY date`,
		period.From.String(), period.To.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []Holiday
	for rows.Next() {
		var h Holiday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Description); err != nil {
			return nil, err
		}
		if h.Date, err = attendance.ParseDay(date); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("holiday %s not found", id)
	}
	return nil
}

// =============================================================================
// JUSTIFICATIONS
// =============================================================================

// Justification excuses one worker's absence on one date.
type Justification struct {
	ID     string
	Worker attendance.WorkerID
	Date   attendance.Day
	Reason string
}

// SaveJustification inserts a justification; saving the same worker-day
// again updates the reason.
func (s *Store) SaveJustification(ctx context.Context, j *Justification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.ID == "" {
		j.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO justifications (id, worker_id, date, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(worker_id, date) DO UPDATE SET reason = excluded.reason`,
		j.ID, string(j.Worker), j.Date.String(), j.Reason, nowRFC3339())
	return err
}

func (s *Store) ListJustifications(ctx context.Context, worker attendance.WorkerID, period attendance.Period) ([]Justification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, worker_id, date, reason FROM justifications
		WHERE date >= ? AND date <= ?`
	args := []any{period.From.String(), period.To.String()}
	if worker != "" {
		query += ` AND worker_id = ?`
		args = append(args, string(worker))
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var justifications []Justification
	for rows.Next() {
		var j Justification
		var workerID, date string
		if err := rows.Scan(&j.ID, &workerID, &date, &j.Reason); err != nil {
			return nil, err
		}
		j.Worker = attendance.WorkerID(workerID)
		if j.Date, err = attendance.ParseDay(date); err != nil {
			return nil, err
		}
		justifications = append(justifications, j)
	}
	return justifications, rows.Err()
}

func (s *Store) DeleteJustification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM justifications WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("justification %s not found", id)
	}
	return nil
}

// =============================================================================
// SNAPSHOT LOADERS - In-memory views the classifier consumes
// =============================================================================

// LoadRuleTable snapshots the persisted rules as a classification table.
func (s *Store) LoadRuleTable(ctx context.Context) (*attendance.RuleTable, error) {
	rules, err := s.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	return attendance.NewRuleTable(rules), nil
}

// LoadHolidaySet snapshots the holiday calendar for a period.
func (s *Store) LoadHolidaySet(ctx context.Context, period attendance.Period) (attendance.HolidaySet, error) {
	holidays, err := s.ListHolidays(ctx, period)
	if err != nil {
		return nil, err
	}
	set := make(attendance.HolidaySet, len(holidays))
	for _, h := range holidays {
		set[h.Date] = h.Description
	}
	return set, nil
}

// LoadJustificationSet snapshots excused absences for a period.
func (s *Store) LoadJustificationSet(ctx context.Context, period attendance.Period) (attendance.JustificationSet, error) {
	justifications, err := s.ListJustifications(ctx, "", period)
	if err != nil {
		return nil, err
	}
	set := make(attendance.JustificationSet, len(justifications))
	for _, j := range justifications {
		set[attendance.DayKey{Worker: j.Worker, Date: j.Date}] = j.Reason
	}
	return set, nil
}

// LoadScheduleResolver snapshots every template and assignment into a
// resolver the classifier can consult without touching the database.
func (s *Store) LoadScheduleResolver(ctx context.Context) (*attendance.ScheduleResolver, error) {
	schedules, err := s.ListSchedules(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := s.ListAssignments(ctx)
	if err != nil {
		return nil, err
	}

	resolver := &attendance.ScheduleResolver{
		Schedules:   make(map[string]*attendance.WeekSchedule, len(schedules)),
		Assignments: make(map[attendance.WorkerID][]attendance.ScheduleAssignment),
	}
	for _, ws := range schedules {
		resolver.Schedules[ws.ID] = ws
	}
	for _, a := range assignments {
		resolver.Assignments[a.Worker] = append(resolver.Assignments[a.Worker], a)
	}
	return resolver, nil
}
