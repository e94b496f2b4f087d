package attendance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turno/attendance-engine/attendance"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newTestClassifier builds a classifier with the default rule table and a
// single Monday-to-Friday 08:00-17:00 template assigned to worker w1
// since January 2025.
func newTestClassifier(t *testing.T) *attendance.Classifier {
	t.Helper()

	schedule := attendance.NewWeekSchedule("morning", "Turno matutino")
	span := attendance.DaySpan{
		Entry: attendance.NewClockTime(8, 0),
		Exit:  attendance.NewClockTime(17, 0),
	}
	for _, wd := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday} {
		require.NoError(t, schedule.SetDay(wd, span))
	}

	resolver := &attendance.ScheduleResolver{
		Schedules: map[string]*attendance.WeekSchedule{"morning": schedule},
		Assignments: map[attendance.WorkerID][]attendance.ScheduleAssignment{
			"w1": {{ID: "a1", Worker: "w1", ScheduleID: "morning", EffectiveFrom: attendance.NewDay(2025, time.January, 1)}},
		},
	}

	return &attendance.Classifier{
		Rules:     attendance.NewRuleTable(attendance.DefaultRules()),
		Schedules: resolver,
		Location:  tzMazatlan,
	}
}

func entryAt(hour, minute int) attendance.DayEvents {
	e := ev("e1", "w1", at(2025, time.March, 3, hour, minute), "PENDING")
	return attendance.DayEvents{Entry: &e}
}

var monday = attendance.NewDay(2025, time.March, 3)
var saturday = attendance.NewDay(2025, time.March, 8)

// =============================================================================
// LATENESS CLASSIFICATION
// =============================================================================

func TestClassifyDay_LatenessBands(t *testing.T) {
	// GIVEN: Expected entry 08:00 and the default rule table
	// WHEN: Classifying entries across all bands
	// THEN: Each entry maps to its band; early arrival is never negative

	c := newTestClassifier(t)

	cases := []struct {
		name        string
		hour        int
		minute      int
		wantStatus  attendance.Status
		wantMinutes int
	}{
		{"early arrival", 7, 40, attendance.StatusOnTime, 0},
		{"exact entry", 8, 0, attendance.StatusOnTime, 0},
		{"inside tolerance", 8, 10, attendance.StatusOnTime, 10},
		{"minor tardiness", 8, 15, attendance.StatusTardyMinor, 15},
		{"major tardiness", 8, 25, attendance.StatusTardyMajor, 25},
		{"counts as absence", 8, 45, attendance.StatusAbsent, 45},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := c.ClassifyDay("w1", monday, entryAt(tc.hour, tc.minute))
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, record.Status)
			assert.Equal(t, tc.wantMinutes, record.MinutesLate)
			assert.False(t, record.Unclassified)
		})
	}
}

func TestClassifyDay_LateEntryCarriesRuleID(t *testing.T) {
	c := newTestClassifier(t)
	rules := c.Rules.Rules()
	// Tag the table rows so the record can point back at one
	for i := range rules {
		rules[i].ID = rules[i].Description
	}
	c.Rules = attendance.NewRuleTable(rules)

	record, err := c.ClassifyDay("w1", monday, entryAt(8, 15))
	require.NoError(t, err)
	assert.Equal(t, "Retardo Menor", record.RuleID)
}

func TestClassifyDay_RuleGapFlagsUnclassified(t *testing.T) {
	// GIVEN: A rule table with a hole between 10 and 21 minutes
	// WHEN: An entry lands in the hole
	// THEN: Conservative TARDY_MINOR, flagged for review

	c := newTestClassifier(t)
	c.Rules = attendance.NewRuleTable([]attendance.LateRule{
		{ID: "r1", Description: "Tolerancia", MinutesMin: 0, MinutesMax: 10, Severity: attendance.StatusOnTime},
		{ID: "r2", Description: "Retardo Mayor", MinutesMin: 21, MinutesMax: 30, Severity: attendance.StatusTardyMajor},
	})

	record, err := c.ClassifyDay("w1", monday, entryAt(8, 15))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusTardyMinor, record.Status)
	assert.True(t, record.Unclassified)
	assert.Empty(t, record.RuleID)
}

// =============================================================================
// PRECEDENCE
// =============================================================================

func TestClassifyDay_HolidayOverridesLateness(t *testing.T) {
	c := newTestClassifier(t)
	c.Holidays = attendance.HolidaySet{monday: "Aniversario"}

	record, err := c.ClassifyDay("w1", monday, entryAt(9, 30))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusHoliday, record.Status)
	assert.Equal(t, "Aniversario", record.Note)
	assert.Zero(t, record.MinutesLate)
}

func TestClassifyDay_JustificationOverridesAbsence(t *testing.T) {
	c := newTestClassifier(t)
	c.Justifications = attendance.JustificationSet{
		{Worker: "w1", Date: monday}: "Cita medica",
	}

	record, err := c.ClassifyDay("w1", monday, attendance.DayEvents{})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusJustified, record.Status)
	assert.Equal(t, "Cita medica", record.Note)
}

func TestClassifyDay_HolidayBeatsJustification(t *testing.T) {
	c := newTestClassifier(t)
	c.Holidays = attendance.HolidaySet{monday: "Aniversario"}
	c.Justifications = attendance.JustificationSet{
		{Worker: "w1", Date: monday}: "Cita medica",
	}

	record, err := c.ClassifyDay("w1", monday, attendance.DayEvents{})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusHoliday, record.Status)
}

// =============================================================================
// MISSING EVIDENCE
// =============================================================================

func TestClassifyDay_NoEntryOnWorkingDay_Absent(t *testing.T) {
	c := newTestClassifier(t)

	record, err := c.ClassifyDay("w1", monday, attendance.DayEvents{})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, record.Status)
}

func TestClassifyDay_LoneExitOnWorkingDay_Absent(t *testing.T) {
	// An exit with no entry gives no arrival evidence.
	c := newTestClassifier(t)
	exit := ev("x1", "w1", at(2025, time.March, 3, 17, 0), attendance.RawExit)

	record, err := c.ClassifyDay("w1", monday, attendance.DayEvents{Exit: &exit})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, record.Status)
}

func TestClassifyDay_NoEntryOnWeekend_NotRecorded(t *testing.T) {
	c := newTestClassifier(t)

	record, err := c.ClassifyDay("w1", saturday, attendance.DayEvents{})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusNotRecorded, record.Status)
}

func TestClassifyDay_WeekendEntryNeverPenalized(t *testing.T) {
	c := newTestClassifier(t)
	e := ev("e1", "w1", at(2025, time.March, 8, 11, 30), "PENDING")

	record, err := c.ClassifyDay("w1", saturday, attendance.DayEvents{Entry: &e})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusOnTime, record.Status)
	assert.Zero(t, record.MinutesLate)
}

func TestClassifyDay_NoAssignmentIsError(t *testing.T) {
	c := newTestClassifier(t)

	_, err := c.ClassifyDay("nobody", monday, entryAt(8, 0))
	assert.ErrorIs(t, err, attendance.ErrNoAssignment)
}

// =============================================================================
// BATCH CLASSIFICATION
// =============================================================================

func TestClassifyRange_OneRecordPerWorkerDay(t *testing.T) {
	// GIVEN: Worker w1 over Monday-Wednesday with one on-time and one late day
	// WHEN: Classifying the range
	// THEN: Three records, in band order, absence where nothing was recorded

	c := newTestClassifier(t)
	events := []attendance.Event{
		ev("e1", "w1", at(2025, time.March, 3, 8, 0), "PENDING"),
		ev("e2", "w1", at(2025, time.March, 4, 8, 25), "PENDING"),
	}

	period := attendance.Period{
		From: attendance.NewDay(2025, time.March, 3),
		To:   attendance.NewDay(2025, time.March, 5),
	}
	batch, err := c.ClassifyRange([]attendance.WorkerID{"w1"}, period, events)
	require.NoError(t, err)
	require.Len(t, batch.Records, 3)
	assert.Empty(t, batch.Errors)

	assert.Equal(t, attendance.StatusOnTime, batch.Records[0].Status)
	assert.Equal(t, attendance.StatusTardyMajor, batch.Records[1].Status)
	assert.Equal(t, attendance.StatusAbsent, batch.Records[2].Status)
}

func TestClassifyRange_MalformedEventsLandInErrors(t *testing.T) {
	c := newTestClassifier(t)
	events := []attendance.Event{
		ev("bad", "w1", time.Time{}, "PENDING"),
		ev("ok", "w1", at(2025, time.March, 3, 8, 0), "PENDING"),
	}

	batch, err := c.ClassifyRange([]attendance.WorkerID{"w1"}, attendance.Period{From: monday, To: monday}, events)
	require.NoError(t, err)
	require.Len(t, batch.Errors, 1)
	assert.ErrorIs(t, batch.Errors[0], attendance.ErrMalformedEvent)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, attendance.StatusOnTime, batch.Records[0].Status)
}

func TestClassifyRange_InvalidPeriodRejected(t *testing.T) {
	c := newTestClassifier(t)
	period := attendance.Period{
		From: attendance.NewDay(2025, time.March, 10),
		To:   attendance.NewDay(2025, time.March, 3),
	}

	_, err := c.ClassifyRange([]attendance.WorkerID{"w1"}, period, nil)
	assert.ErrorIs(t, err, attendance.ErrInvalidPeriod)
}

func TestClassifyRange_Idempotent(t *testing.T) {
	// Classification is a pure function of its inputs.
	c := newTestClassifier(t)
	events := []attendance.Event{
		ev("e1", "w1", at(2025, time.March, 3, 8, 15), "PENDING"),
	}
	period := attendance.Period{From: monday, To: monday}

	first, err := c.ClassifyRange([]attendance.WorkerID{"w1"}, period, events)
	require.NoError(t, err)
	second, err := c.ClassifyRange([]attendance.WorkerID{"w1"}, period, events)
	require.NoError(t, err)
	assert.Equal(t, first.Records, second.Records)
}

// =============================================================================
// CHECK-IN CLASSIFICATION
// =============================================================================

func TestClassifyCheckIn(t *testing.T) {
	c := newTestClassifier(t)

	status, err := c.ClassifyCheckIn("w1", at(2025, time.March, 3, 8, 5), attendance.KindEntry)
	require.NoError(t, err)
	assert.Equal(t, string(attendance.StatusOnTime), status)

	status, err = c.ClassifyCheckIn("w1", at(2025, time.March, 3, 8, 15), attendance.KindEntry)
	require.NoError(t, err)
	assert.Equal(t, string(attendance.StatusTardyMinor), status)

	// Exit swipes always store the exit tag, regardless of clock
	status, err = c.ClassifyCheckIn("w1", at(2025, time.March, 3, 9, 40), attendance.KindExit)
	require.NoError(t, err)
	assert.Equal(t, attendance.RawExit, status)
}
