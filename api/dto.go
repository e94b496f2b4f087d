/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Worker:
    WorkerDTO, SaveWorkerRequest

  Attendance:
    CheckInRequest, CheckInResponse, EventDTO, UpdateEventRequest,
    DailyRecordDTO, TodayDTO

  Rules:
    RuleDTO, SaveRuleRequest

  Schedules:
    ScheduleDTO, DaySpanDTO, SaveScheduleRequest,
    AssignmentDTO, CreateAssignmentRequest

  Calendar:
    HolidayDTO, SaveHolidayRequest, JustificationDTO,
    SaveJustificationRequest

  Reports:
    DailyReportDTO, MonthlyReportDTO, WorkerMonthDTO, StatsDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - attendance/types.go: Domain model these types project
*/
package api

import (
	"time"

	"github.com/turno/attendance-engine/attendance"
	"github.com/turno/attendance-engine/store/sqlite"
)

// =============================================================================
// WORKERS
// =============================================================================

// WorkerDTO represents a worker in API responses.
type WorkerDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RFC        string `json:"rfc,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// SaveWorkerRequest is the request to create or update a worker.
type SaveWorkerRequest struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	RFC        string `json:"rfc,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	Active     *bool  `json:"active,omitempty"`
}

func toWorkerDTO(w sqlite.Worker) WorkerDTO {
	return WorkerDTO{
		ID:         w.ID,
		Name:       w.Name,
		RFC:        w.RFC,
		Department: w.Department,
		Position:   w.Position,
		Active:     w.Active,
		CreatedAt:  w.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// ATTENDANCE EVENTS AND CHECK-IN
// =============================================================================

// CheckInRequest registers a swipe for a worker. Timestamp is optional
// and defaults to the server clock.
type CheckInRequest struct {
	WorkerID  string `json:"worker_id"`
	Timestamp string `json:"timestamp,omitempty"` // RFC3339
}

// CheckInResponse reports the swipe the engine recorded.
type CheckInResponse struct {
	Event  EventDTO `json:"event"`
	Kind   string   `json:"kind"`   // ENTRADA or SALIDA
	Status string   `json:"status"` // classified raw status stored
}

// EventDTO represents a raw attendance event.
type EventDTO struct {
	ID        string `json:"id"`
	WorkerID  string `json:"worker_id"`
	Timestamp string `json:"timestamp"`
	RawStatus string `json:"raw_status"`
}

// UpdateEventRequest corrects the stored raw status of an event.
type UpdateEventRequest struct {
	RawStatus string `json:"raw_status"`
}

func toEventDTO(e attendance.Event) EventDTO {
	return EventDTO{
		ID:        e.ID,
		WorkerID:  string(e.WorkerID),
		Timestamp: e.Timestamp.Format(time.RFC3339),
		RawStatus: e.RawStatus,
	}
}

// DailyRecordDTO is one classified worker-day.
type DailyRecordDTO struct {
	WorkerID     string    `json:"worker_id"`
	WorkerName   string    `json:"worker_name,omitempty"`
	Date         string    `json:"date"`
	Entry        *EventDTO `json:"entry,omitempty"`
	Exit         *EventDTO `json:"exit,omitempty"`
	Status       string    `json:"status"`
	MinutesLate  int       `json:"minutes_late"`
	Unclassified bool      `json:"unclassified,omitempty"`
	RuleID       string    `json:"rule_id,omitempty"`
	Note         string    `json:"note,omitempty"`
}

func toDailyRecordDTO(r attendance.DailyRecord, names map[string]string) DailyRecordDTO {
	dto := DailyRecordDTO{
		WorkerID:     string(r.Worker),
		WorkerName:   names[string(r.Worker)],
		Date:         r.Date.String(),
		Status:       string(r.Status),
		MinutesLate:  r.MinutesLate,
		Unclassified: r.Unclassified,
		RuleID:       r.RuleID,
		Note:         r.Note,
	}
	if r.Entry != nil {
		entry := toEventDTO(*r.Entry)
		dto.Entry = &entry
	}
	if r.Exit != nil {
		exit := toEventDTO(*r.Exit)
		dto.Exit = &exit
	}
	return dto
}

// =============================================================================
// LATE RULES
// =============================================================================

// RuleDTO represents a tardiness rule.
type RuleDTO struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	MinutesMin  int    `json:"minutes_min"`
	MinutesMax  int    `json:"minutes_max"`
	Severity    string `json:"severity"`
}

// SaveRuleRequest creates or updates a rule. Severity is optional; when
// absent it is derived from the description.
type SaveRuleRequest struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	MinutesMin  int    `json:"minutes_min"`
	MinutesMax  int    `json:"minutes_max"`
	Severity    string `json:"severity,omitempty"`
}

func toRuleDTO(r attendance.LateRule) RuleDTO {
	return RuleDTO{
		ID:          r.ID,
		Description: r.Description,
		MinutesMin:  r.MinutesMin,
		MinutesMax:  r.MinutesMax,
		Severity:    string(r.Outcome()),
	}
}

// =============================================================================
// SCHEDULES AND ASSIGNMENTS
// =============================================================================

// DaySpanDTO is one weekday's entry/exit pair, "HH:MM".
type DaySpanDTO struct {
	Entry string `json:"entry"`
	Exit  string `json:"exit"`
}

// ScheduleDTO represents a weekly template. Keys of Days are lowercase
// English weekday names (monday..friday).
type ScheduleDTO struct {
	ID          string                `json:"id"`
	Description string                `json:"description"`
	Days        map[string]DaySpanDTO `json:"days"`
}

// SaveScheduleRequest creates or updates a weekly template.
type SaveScheduleRequest struct {
	ID          string                `json:"id,omitempty"`
	Description string                `json:"description"`
	Days        map[string]DaySpanDTO `json:"days"`
}

// AssignmentDTO represents a schedule assignment.
type AssignmentDTO struct {
	ID            string `json:"id"`
	WorkerID      string `json:"worker_id"`
	ScheduleID    string `json:"schedule_id"`
	EffectiveFrom string `json:"effective_from"`
}

// CreateAssignmentRequest links a worker to a template from a date.
type CreateAssignmentRequest struct {
	WorkerID      string `json:"worker_id"`
	ScheduleID    string `json:"schedule_id"`
	EffectiveFrom string `json:"effective_from"`
}

func toAssignmentDTO(a attendance.ScheduleAssignment) AssignmentDTO {
	return AssignmentDTO{
		ID:            a.ID,
		WorkerID:      string(a.Worker),
		ScheduleID:    a.ScheduleID,
		EffectiveFrom: a.EffectiveFrom.String(),
	}
}

// =============================================================================
// HOLIDAYS AND JUSTIFICATIONS
// =============================================================================

// HolidayDTO represents a holiday in API responses.
type HolidayDTO struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// SaveHolidayRequest creates a holiday.
type SaveHolidayRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// JustificationDTO represents an excused absence.
type JustificationDTO struct {
	ID       string `json:"id"`
	WorkerID string `json:"worker_id"`
	Date     string `json:"date"`
	Reason   string `json:"reason"`
}

// SaveJustificationRequest excuses one worker-day.
type SaveJustificationRequest struct {
	WorkerID string `json:"worker_id"`
	Date     string `json:"date"`
	Reason   string `json:"reason"`
}

// =============================================================================
// REPORTS
// =============================================================================

// StatsDTO is a tally of statuses over a set of records.
type StatsDTO struct {
	WorkingDays    int    `json:"working_days"`
	OnTime         int    `json:"on_time"`
	TardyMinor     int    `json:"tardy_minor"`
	TardyMajor     int    `json:"tardy_major"`
	Absent         int    `json:"absent"`
	Justified      int    `json:"justified"`
	Holidays       int    `json:"holidays"`
	NotRecorded    int    `json:"not_recorded"`
	Unclassified   int    `json:"unclassified"`
	AttendanceRate string `json:"attendance_rate"`
}

func toStatsDTO(s attendance.ReportStats) StatsDTO {
	return StatsDTO{
		WorkingDays:    s.WorkingDays,
		OnTime:         s.OnTime,
		TardyMinor:     s.TardyMinor,
		TardyMajor:     s.TardyMajor,
		Absent:         s.Absent,
		Justified:      s.Justified,
		Holidays:       s.Holidays,
		NotRecorded:    s.NotRecorded,
		Unclassified:   s.Unclassified,
		AttendanceRate: s.AttendanceRate.StringFixed(2),
	}
}

// BatchErrorDTO surfaces a worker-day that could not be classified.
type BatchErrorDTO struct {
	WorkerID string `json:"worker_id"`
	Date     string `json:"date,omitempty"`
	Error    string `json:"error"`
}

func toBatchErrorDTOs(errs []attendance.BatchError) []BatchErrorDTO {
	dtos := make([]BatchErrorDTO, len(errs))
	for i, e := range errs {
		dtos[i] = BatchErrorDTO{WorkerID: string(e.Worker), Error: e.Err.Error()}
		if !e.Date.IsZero() {
			dtos[i].Date = e.Date.String()
		}
	}
	return dtos
}

// DailyReportDTO is the consolidated view for one date.
type DailyReportDTO struct {
	Date    string           `json:"date"`
	Records []DailyRecordDTO `json:"records"`
	Errors  []BatchErrorDTO  `json:"errors,omitempty"`
	Stats   StatsDTO         `json:"stats"`
}

// WorkerMonthDTO is one worker's month summary.
type WorkerMonthDTO struct {
	WorkerID   string           `json:"worker_id"`
	WorkerName string           `json:"worker_name,omitempty"`
	Days       []DailyRecordDTO `json:"days"`
	Stats      StatsDTO         `json:"stats"`
}

// MonthlyReportDTO is the per-worker monthly view.
type MonthlyReportDTO struct {
	Year    int              `json:"year"`
	Month   int              `json:"month"`
	From    string           `json:"from"`
	To      string           `json:"to"`
	Workers []WorkerMonthDTO `json:"workers"`
	Errors  []BatchErrorDTO  `json:"errors,omitempty"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
