// Package store provides an in-memory data store for testing and dev.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/turno/attendance-engine/attendance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory holds every data set the classifier consumes. It implements the
// attendance source interfaces directly, so tests wire it straight into a
// Classifier without a database.
type Memory struct {
	mu             sync.RWMutex
	events         map[attendance.WorkerID][]attendance.Event
	rules          []attendance.LateRule
	schedules      map[string]*attendance.WeekSchedule
	assignments    map[attendance.WorkerID][]attendance.ScheduleAssignment
	holidays       attendance.HolidaySet
	justifications attendance.JustificationSet
}

func NewMemory() *Memory {
	return &Memory{
		events:         make(map[attendance.WorkerID][]attendance.Event),
		schedules:      make(map[string]*attendance.WeekSchedule),
		assignments:    make(map[attendance.WorkerID][]attendance.ScheduleAssignment),
		holidays:       make(attendance.HolidaySet),
		justifications: make(attendance.JustificationSet),
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// AddEvent inserts an event in timestamp order for its worker.
func (m *Memory) AddEvent(e attendance.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := m.events[e.WorkerID]
	i := sort.Search(len(events), func(i int) bool {
		return events[i].Timestamp.After(e.Timestamp)
	})
	events = append(events, attendance.Event{})
	copy(events[i+1:], events[i:])
	events[i] = e
	m.events[e.WorkerID] = events
}

// EventsInRange returns a worker's events with timestamps in [from, to].
func (m *Memory) EventsInRange(worker attendance.WorkerID, from, to time.Time) []attendance.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []attendance.Event
	for _, e := range m.events[worker] {
		if !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
			result = append(result, e)
		}
	}
	return result
}

// AllEvents returns every stored event across workers.
func (m *Memory) AllEvents() []attendance.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []attendance.Event
	for _, events := range m.events {
		result = append(result, events...)
	}
	return result
}

// =============================================================================
// LATE RULES
// =============================================================================

// SaveRule validates and inserts or replaces a rule.
func (m *Memory) SaveRule(rule attendance.LateRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := attendance.ValidateRule(rule, m.rules); err != nil {
		return err
	}
	for i, r := range m.rules {
		if r.ID == rule.ID {
			m.rules[i] = rule
			return nil
		}
	}
	m.rules = append(m.rules, rule)
	return nil
}

func (m *Memory) DeleteRule(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.rules {
		if r.ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return attendance.ErrRuleNotFound
}

// RuleTable snapshots the current rules as a classification table.
func (m *Memory) RuleTable() *attendance.RuleTable {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return attendance.NewRuleTable(m.rules)
}

// =============================================================================
// SCHEDULES AND ASSIGNMENTS
// =============================================================================

func (m *Memory) SaveSchedule(s *attendance.WeekSchedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[s.ID] = s
}

func (m *Memory) Assign(a attendance.ScheduleAssignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.Worker] = append(m.assignments[a.Worker], a)
}

// ScheduleFor implements attendance.ScheduleSource.
func (m *Memory) ScheduleFor(worker attendance.WorkerID, date attendance.Day) (*attendance.WeekSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resolver := &attendance.ScheduleResolver{
		Schedules:   m.schedules,
		Assignments: m.assignments,
	}
	return resolver.ScheduleFor(worker, date)
}

// =============================================================================
// HOLIDAYS AND JUSTIFICATIONS
// =============================================================================

func (m *Memory) AddHoliday(date attendance.Day, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[date] = description
}

func (m *Memory) AddJustification(worker attendance.WorkerID, date attendance.Day, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.justifications[attendance.DayKey{Worker: worker, Date: date}] = reason
}

// IsHoliday implements attendance.HolidayCalendar.
func (m *Memory) IsHoliday(date attendance.Day) (bool, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.holidays.IsHoliday(date)
}

// IsJustified implements attendance.JustificationSource.
func (m *Memory) IsJustified(worker attendance.WorkerID, date attendance.Day) (bool, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justifications.IsJustified(worker, date)
}
