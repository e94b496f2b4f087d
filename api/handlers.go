/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance classification engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Workers:
    GET    /api/workers                  List workers (?active=true)
    POST   /api/workers                  Create worker
    GET    /api/workers/{id}             Get worker details
    PUT    /api/workers/{id}             Update worker
    DELETE /api/workers/{id}             Delete worker
    GET    /api/workers/{id}/attendance  Classified records (?from&to)
    GET    /api/workers/{id}/assignments Schedule assignment history

  Attendance:
    POST   /api/attendance/check-in      Register a swipe
    GET    /api/attendance/today         Live dashboard for today
    GET    /api/attendance/events        Raw events (?worker&from&to)
    PUT    /api/attendance/events/{id}   Correct a raw status
    DELETE /api/attendance/events/{id}   Remove an event

  Rules:
    GET    /api/rules                    List the late-rule table
    POST   /api/rules                    Create rule (409 on overlap)
    PUT    /api/rules/{id}               Update rule (409 on overlap)
    DELETE /api/rules/{id}               Delete rule
    POST   /api/rules/defaults           Seed the default table

  Schedules:
    GET/POST /api/schedules              List / create weekly templates
    GET/DELETE /api/schedules/{id}       Fetch / delete a template
    POST   /api/assignments              Assign a template to a worker
    DELETE /api/assignments/{id}         Remove an assignment

  Calendar:
    GET/POST /api/holidays               List (?year) / create
    DELETE /api/holidays/{id}            Delete
    GET/POST /api/justifications         List (?worker&from&to) / create
    DELETE /api/justifications/{id}      Delete

  Reports:
    GET /api/reports/daily               ?date=YYYY-MM-DD&department
    GET /api/reports/monthly             ?year&month&department
    GET /api/reports/monthly/export      ?year&month&format=csv|xlsx

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Load snapshots, call domain logic (classifier, reporter)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Rule overlap, schedule still in use
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - export.go: CSV and spreadsheet rendering
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/turno/attendance-engine/attendance"
	"github.com/turno/attendance-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Location *time.Location
	Log      zerolog.Logger
}

// NewHandler creates a new handler with the given store and timezone.
func NewHandler(store *sqlite.Store, loc *time.Location, log zerolog.Logger) *Handler {
	return &Handler{Store: store, Location: loc, Log: log}
}

// classifierFor assembles a classifier from snapshots covering the
// period. One load per request keeps classification I/O-free.
func (h *Handler) classifierFor(ctx context.Context, period attendance.Period) (*attendance.Classifier, error) {
	rules, err := h.Store.LoadRuleTable(ctx)
	if err != nil {
		return nil, err
	}
	holidays, err := h.Store.LoadHolidaySet(ctx, period)
	if err != nil {
		return nil, err
	}
	justifications, err := h.Store.LoadJustificationSet(ctx, period)
	if err != nil {
		return nil, err
	}
	schedules, err := h.Store.LoadScheduleResolver(ctx)
	if err != nil {
		return nil, err
	}
	return &attendance.Classifier{
		Rules:          rules,
		Schedules:      schedules,
		Holidays:       holidays,
		Justifications: justifications,
		Location:       h.Location,
	}, nil
}

// workerRoster returns active worker IDs plus an id-to-name map for
// report rendering. A non-empty department narrows the roster.
func (h *Handler) workerRoster(ctx context.Context, department string) ([]attendance.WorkerID, map[string]string, error) {
	workers, err := h.Store.ListWorkers(ctx, true)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]attendance.WorkerID, 0, len(workers))
	names := make(map[string]string, len(workers))
	for _, w := range workers {
		if department != "" && w.Department != department {
			continue
		}
		ids = append(ids, attendance.WorkerID(w.ID))
		names[w.ID] = w.Name
	}
	return ids, names, nil
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// ListWorkers returns workers; ?active=true filters to active records.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	workers, err := h.Store.ListWorkers(r.Context(), activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}

	dtos := make([]WorkerDTO, len(workers))
	for i, worker := range workers {
		dtos[i] = toWorkerDTO(worker)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWorker returns a single worker.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	worker, err := h.Store.GetWorker(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get worker", err)
		return
	}
	if worker == nil {
		writeError(w, http.StatusNotFound, "Worker not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(*worker))
}

// CreateWorker creates a new worker.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req SaveWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Worker name is required", nil)
		return
	}

	worker := sqlite.Worker{
		ID:         req.ID,
		Name:       req.Name,
		RFC:        req.RFC,
		Department: req.Department,
		Position:   req.Position,
		Active:     true,
	}
	if req.Active != nil {
		worker.Active = *req.Active
	}
	if err := h.Store.SaveWorker(r.Context(), &worker); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create worker", err)
		return
	}

	h.Log.Info().Str("worker", worker.ID).Str("name", worker.Name).Msg("worker created")
	writeJSON(w, http.StatusCreated, toWorkerDTO(worker))
}

// UpdateWorker updates an existing worker.
func (h *Handler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.Store.GetWorker(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get worker", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Worker not found", nil)
		return
	}

	var req SaveWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.RFC != "" {
		existing.RFC = req.RFC
	}
	if req.Department != "" {
		existing.Department = req.Department
	}
	if req.Position != "" {
		existing.Position = req.Position
	}
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if err := h.Store.SaveWorker(r.Context(), existing); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update worker", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(*existing))
}

// DeleteWorker removes a worker.
func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteWorker(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete worker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetWorkerAttendance returns one worker's classified records for a
// period (?from&to, default: current month to date).
func (h *Handler) GetWorkerAttendance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	worker, err := h.Store.GetWorker(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get worker", err)
		return
	}
	if worker == nil {
		writeError(w, http.StatusNotFound, "Worker not found", nil)
		return
	}

	period, err := h.periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	classifier, err := h.classifierFor(ctx, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load classification sources", err)
		return
	}
	events, err := h.Store.EventsInRange(ctx, attendance.WorkerID(id),
		period.From.Time(h.Location), period.To.AddDays(1).Time(h.Location))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load events", err)
		return
	}

	batch, err := classifier.ClassifyRange([]attendance.WorkerID{attendance.WorkerID(id)}, period, events)
	if err != nil {
		writeDomainError(w, "Classification failed", err)
		return
	}

	names := map[string]string{worker.ID: worker.Name}
	records := make([]DailyRecordDTO, len(batch.Records))
	for i, rec := range batch.Records {
		records[i] = toDailyRecordDTO(rec, names)
	}
	writeJSON(w, http.StatusOK, struct {
		From    string           `json:"from"`
		To      string           `json:"to"`
		Records []DailyRecordDTO `json:"records"`
		Errors  []BatchErrorDTO  `json:"errors,omitempty"`
	}{period.From.String(), period.To.String(), records, toBatchErrorDTOs(batch.Errors)})
}

// GetWorkerAssignments returns a worker's schedule assignment history.
func (h *Handler) GetWorkerAssignments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	assignments, err := h.Store.AssignmentsForWorker(r.Context(), attendance.WorkerID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assignments", err)
		return
	}
	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// CheckIn registers a swipe. The engine decides whether it is an entry
// or an exit from the worker's events so far today, classifies entries
// at capture time, and stores the result as the event's raw status.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.WorkerID == "" {
		writeError(w, http.StatusBadRequest, "worker_id is required", nil)
		return
	}
	worker, err := h.Store.GetWorker(ctx, req.WorkerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get worker", err)
		return
	}
	if worker == nil {
		writeError(w, http.StatusNotFound, "Worker not found", nil)
		return
	}

	at := time.Now().In(h.Location)
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid timestamp, expected RFC3339", err)
			return
		}
		at = parsed.In(h.Location)
	}

	today := attendance.DayOf(at, h.Location)
	existing, err := h.Store.EventsInRange(ctx, attendance.WorkerID(req.WorkerID),
		today.Time(h.Location), today.AddDays(1).Time(h.Location))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load today's events", err)
		return
	}

	kind := attendance.DetermineKind(existing)
	classifier, err := h.classifierFor(ctx, attendance.Period{From: today, To: today})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load classification sources", err)
		return
	}
	rawStatus, err := classifier.ClassifyCheckIn(attendance.WorkerID(req.WorkerID), at, kind)
	if err != nil {
		writeDomainError(w, "Check-in classification failed", err)
		return
	}

	event := attendance.Event{
		WorkerID:  attendance.WorkerID(req.WorkerID),
		Timestamp: at,
		RawStatus: rawStatus,
	}
	if err := h.Store.AppendEvent(ctx, &event); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record event", err)
		return
	}

	h.Log.Info().
		Str("worker", req.WorkerID).
		Str("kind", string(kind)).
		Str("status", rawStatus).
		Msg("check-in recorded")

	writeJSON(w, http.StatusCreated, CheckInResponse{
		Event:  toEventDTO(event),
		Kind:   string(kind),
		Status: rawStatus,
	})
}

// Today returns the live dashboard: every active worker classified
// against today's events so far.
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := attendance.Today(h.Location)

	ids, names, err := h.workerRoster(ctx, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}
	report, err := h.dailyReport(ctx, ids, today)
	if err != nil {
		writeDomainError(w, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportDTO(report, names))
}

// ListEvents returns raw events (?worker&from&to, default today).
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	worker := attendance.WorkerID(r.URL.Query().Get("worker"))
	events, err := h.Store.EventsInRange(r.Context(), worker,
		period.From.Time(h.Location), period.To.AddDays(1).Time(h.Location))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}

	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateEvent corrects the stored raw status of an event.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.RawStatus == "" {
		writeError(w, http.StatusBadRequest, "raw_status is required", nil)
		return
	}

	if err := h.Store.UpdateEventStatus(r.Context(), id, req.RawStatus); err != nil {
		writeDomainError(w, "Failed to update event", err)
		return
	}
	event, err := h.Store.GetEvent(r.Context(), id)
	if err != nil || event == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload event", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(*event))
}

// DeleteEvent removes a raw event.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteEvent(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LATE RULE HANDLERS
// =============================================================================

// ListRules returns the late-rule table ordered by lower bound.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rules", err)
		return
	}
	dtos := make([]RuleDTO, len(rules))
	for i, rule := range rules {
		dtos[i] = toRuleDTO(rule)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRule adds a rule. Overlapping intervals are rejected with 409
// and the conflicting rule named in the error.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	h.saveRule(w, r, "")
}

// UpdateRule edits a rule in place, revalidating against the rest of
// the table.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	h.saveRule(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) saveRule(w http.ResponseWriter, r *http.Request, id string) {
	var req SaveRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rule := attendance.LateRule{
		ID:          id,
		Description: req.Description,
		MinutesMin:  req.MinutesMin,
		MinutesMax:  req.MinutesMax,
		Severity:    attendance.Status(req.Severity),
	}
	if rule.ID == "" {
		rule.ID = req.ID
	}

	if err := h.Store.SaveRule(r.Context(), &rule); err != nil {
		var conflict *attendance.RuleConflictError
		if errors.As(err, &conflict) {
			writeError(w, http.StatusConflict, "Rule overlaps an existing rule", conflict)
			return
		}
		writeDomainError(w, "Failed to save rule", err)
		return
	}

	status := http.StatusCreated
	if id != "" {
		status = http.StatusOK
	}
	writeJSON(w, status, toRuleDTO(rule))
}

// DeleteRule removes a rule.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteRule(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SeedDefaultRules installs the default table when none is configured.
func (h *Handler) SeedDefaultRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.SeedDefaultRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed default rules", err)
		return
	}
	dtos := make([]RuleDTO, len(rules))
	for i, rule := range rules {
		dtos[i] = toRuleDTO(rule)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
}

// ListSchedules returns every weekly template.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.Store.ListSchedules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list schedules", err)
		return
	}
	dtos := make([]ScheduleDTO, len(schedules))
	for i, ws := range schedules {
		dtos[i] = toScheduleDTO(ws)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSchedule returns one weekly template.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ws, err := h.Store.GetSchedule(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get schedule", err)
		return
	}
	if ws == nil {
		writeError(w, http.StatusNotFound, "Schedule not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(ws))
}

// CreateSchedule creates a weekly template from named weekday spans.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req SaveScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "Schedule description is required", nil)
		return
	}

	ws := attendance.NewWeekSchedule(req.ID, req.Description)
	for name, span := range req.Days {
		wd, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown weekday: "+name, nil)
			return
		}
		entry, err := attendance.ParseClock(span.Entry)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid entry time for "+name, err)
			return
		}
		exit, err := attendance.ParseClock(span.Exit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid exit time for "+name, err)
			return
		}
		if err := ws.SetDay(wd, attendance.DaySpan{Entry: entry, Exit: exit}); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid span for "+name, err)
			return
		}
	}

	if err := h.Store.SaveSchedule(r.Context(), ws); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleDTO(ws))
}

// DeleteSchedule removes a template; templates with assignment history
// are refused with 409.
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.Store.DeleteSchedule(r.Context(), id)
	if errors.Is(err, attendance.ErrScheduleInUse) {
		writeError(w, http.StatusConflict, "Schedule has assignments", err)
		return
	}
	if err != nil {
		writeDomainError(w, "Failed to delete schedule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateAssignment links a worker to a template from an effective date.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	worker, err := h.Store.GetWorker(ctx, req.WorkerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get worker", err)
		return
	}
	if worker == nil {
		writeError(w, http.StatusNotFound, "Worker not found", nil)
		return
	}
	schedule, err := h.Store.GetSchedule(ctx, req.ScheduleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get schedule", err)
		return
	}
	if schedule == nil {
		writeError(w, http.StatusNotFound, "Schedule not found", nil)
		return
	}

	effectiveFrom := attendance.Today(h.Location)
	if req.EffectiveFrom != "" {
		effectiveFrom, err = attendance.ParseDay(req.EffectiveFrom)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid effective_from, expected YYYY-MM-DD", err)
			return
		}
	}

	assignment := attendance.ScheduleAssignment{
		Worker:        attendance.WorkerID(req.WorkerID),
		ScheduleID:    req.ScheduleID,
		EffectiveFrom: effectiveFrom,
	}
	if err := h.Store.SaveAssignment(ctx, &assignment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(assignment))
}

// DeleteAssignment removes an assignment record.
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteAssignment(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete assignment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toScheduleDTO(ws *attendance.WeekSchedule) ScheduleDTO {
	dto := ScheduleDTO{
		ID:          ws.ID,
		Description: ws.Description,
		Days:        make(map[string]DaySpanDTO),
	}
	for name, wd := range weekdayNames {
		span, ok := ws.Span(wd)
		if !ok {
			continue
		}
		dto.Days[name] = DaySpanDTO{Entry: span.Entry.String(), Exit: span.Exit.String()}
	}
	return dto
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns holidays for a year (?year, default current).
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := attendance.Today(h.Location).Year
	if q := r.URL.Query().Get("year"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}

	period := attendance.Period{
		From: attendance.NewDay(year, time.January, 1),
		To:   attendance.NewDay(year, time.December, 31),
	}
	holidays, err := h.Store.ListHolidays(r.Context(), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, holiday := range holidays {
		dtos[i] = HolidayDTO{ID: holiday.ID, Date: holiday.Date.String(), Description: holiday.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday to the calendar.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req SaveHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := attendance.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	holiday := sqlite.Holiday{Date: date, Description: req.Description}
	if err := h.Store.SaveHoliday(r.Context(), &holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{
		ID: holiday.ID, Date: holiday.Date.String(), Description: holiday.Description,
	})
}

// DeleteHoliday removes a holiday.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "Holiday not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// JUSTIFICATION HANDLERS
// =============================================================================

// ListJustifications returns excused absences (?worker&from&to).
func (h *Handler) ListJustifications(w http.ResponseWriter, r *http.Request) {
	period, err := h.periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	worker := attendance.WorkerID(r.URL.Query().Get("worker"))
	justifications, err := h.Store.ListJustifications(r.Context(), worker, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list justifications", err)
		return
	}

	dtos := make([]JustificationDTO, len(justifications))
	for i, j := range justifications {
		dtos[i] = JustificationDTO{
			ID: j.ID, WorkerID: string(j.Worker), Date: j.Date.String(), Reason: j.Reason,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateJustification excuses one worker-day.
func (h *Handler) CreateJustification(w http.ResponseWriter, r *http.Request) {
	var req SaveJustificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := attendance.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}
	if req.WorkerID == "" {
		writeError(w, http.StatusBadRequest, "worker_id is required", nil)
		return
	}

	justification := sqlite.Justification{
		Worker: attendance.WorkerID(req.WorkerID),
		Date:   date,
		Reason: req.Reason,
	}
	if err := h.Store.SaveJustification(r.Context(), &justification); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save justification", err)
		return
	}
	writeJSON(w, http.StatusCreated, JustificationDTO{
		ID:       justification.ID,
		WorkerID: string(justification.Worker),
		Date:     justification.Date.String(),
		Reason:   justification.Reason,
	})
}

// DeleteJustification removes an excused absence.
func (h *Handler) DeleteJustification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteJustification(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "Justification not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// DailyReport returns the consolidated report for one date (?date,
// default today; ?department narrows the roster).
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date := attendance.Today(h.Location)
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := attendance.ParseDay(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
			return
		}
		date = parsed
	}

	ids, names, err := h.workerRoster(ctx, r.URL.Query().Get("department"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}
	report, err := h.dailyReport(ctx, ids, date)
	if err != nil {
		writeDomainError(w, "Failed to build daily report", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyReportDTO(report, names))
}

// MonthlyReport returns per-worker month summaries (?year&month,
// default current month).
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year, month, err := h.monthParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year/month", err)
		return
	}

	ids, names, err := h.workerRoster(ctx, r.URL.Query().Get("department"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}
	report, err := h.monthlyReport(ctx, ids, year, month)
	if err != nil {
		writeDomainError(w, "Failed to build monthly report", err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyReportDTO(report, names))
}

func (h *Handler) dailyReport(ctx context.Context, ids []attendance.WorkerID, date attendance.Day) (*attendance.DailyReport, error) {
	period := attendance.Period{From: date, To: date}
	classifier, err := h.classifierFor(ctx, period)
	if err != nil {
		return nil, err
	}
	events, err := h.Store.EventsInRange(ctx, "",
		date.Time(h.Location), date.AddDays(1).Time(h.Location))
	if err != nil {
		return nil, err
	}
	reporter := attendance.Reporter{Classifier: classifier}
	return reporter.Daily(ids, date, events)
}

func (h *Handler) monthlyReport(ctx context.Context, ids []attendance.WorkerID, year int, month time.Month) (*attendance.MonthlyReport, error) {
	period := attendance.MonthPeriod(year, month)
	classifier, err := h.classifierFor(ctx, period)
	if err != nil {
		return nil, err
	}
	events, err := h.Store.EventsInRange(ctx, "",
		period.From.Time(h.Location), period.To.AddDays(1).Time(h.Location))
	if err != nil {
		return nil, err
	}
	reporter := attendance.Reporter{Classifier: classifier}
	return reporter.Monthly(ids, year, month, events)
}

func (h *Handler) monthParams(r *http.Request) (int, time.Month, error) {
	today := attendance.Today(h.Location)
	year, month := today.Year, today.Month

	if q := r.URL.Query().Get("year"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			return 0, 0, err
		}
		year = parsed
	}
	if q := r.URL.Query().Get("month"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			return 0, 0, err
		}
		if parsed < 1 || parsed > 12 {
			return 0, 0, errors.New("month out of range")
		}
		month = time.Month(parsed)
	}
	return year, month, nil
}

// periodParam reads ?from&to; default is the current month to date.
func (h *Handler) periodParam(r *http.Request) (attendance.Period, error) {
	today := attendance.Today(h.Location)
	period := attendance.Period{
		From: attendance.NewDay(today.Year, today.Month, 1),
		To:   today,
	}

	if q := r.URL.Query().Get("from"); q != "" {
		from, err := attendance.ParseDay(q)
		if err != nil {
			return attendance.Period{}, err
		}
		period.From = from
	}
	if q := r.URL.Query().Get("to"); q != "" {
		to, err := attendance.ParseDay(q)
		if err != nil {
			return attendance.Period{}, err
		}
		period.To = to
	}
	if !period.Valid() {
		return attendance.Period{}, attendance.ErrInvalidPeriod
	}
	return period, nil
}

func toDailyReportDTO(report *attendance.DailyReport, names map[string]string) DailyReportDTO {
	records := make([]DailyRecordDTO, len(report.Records))
	for i, rec := range report.Records {
		records[i] = toDailyRecordDTO(rec, names)
	}
	return DailyReportDTO{
		Date:    report.Date.String(),
		Records: records,
		Errors:  toBatchErrorDTOs(report.Errors),
		Stats:   toStatsDTO(report.Stats),
	}
}

func toMonthlyReportDTO(report *attendance.MonthlyReport, names map[string]string) MonthlyReportDTO {
	workers := make([]WorkerMonthDTO, len(report.Workers))
	for i, wm := range report.Workers {
		days := make([]DailyRecordDTO, len(wm.Days))
		for j, rec := range wm.Days {
			days[j] = toDailyRecordDTO(rec, names)
		}
		workers[i] = WorkerMonthDTO{
			WorkerID:   string(wm.Worker),
			WorkerName: names[string(wm.Worker)],
			Days:       days,
			Stats:      toStatsDTO(wm.Stats),
		}
	}
	return MonthlyReportDTO{
		Year:    report.Year,
		Month:   int(report.Month),
		From:    report.Period.From.String(),
		To:      report.Period.To.String(),
		Workers: workers,
		Errors:  toBatchErrorDTOs(report.Errors),
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain error categories onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case attendance.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case attendance.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
