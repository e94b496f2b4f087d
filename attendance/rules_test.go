package attendance_test

import (
	"errors"
	"testing"

	"github.com/turno/attendance-engine/attendance"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func rule(id, desc string, min, max int, severity attendance.Status) attendance.LateRule {
	return attendance.LateRule{
		ID:          id,
		Description: desc,
		MinutesMin:  min,
		MinutesMax:  max,
		Severity:    severity,
	}
}

// =============================================================================
// CLASSIFICATION TESTS
// =============================================================================

func TestRuleTable_DefaultBoundaries(t *testing.T) {
	// GIVEN: The default seed table
	// WHEN: Classifying minute values at every band boundary
	// THEN: Each value maps to the band containing it (closed intervals)

	table := attendance.NewRuleTable(attendance.DefaultRules())

	cases := []struct {
		minutes int
		want    attendance.Status
	}{
		{0, attendance.StatusOnTime},
		{1, attendance.StatusOnTime},
		{10, attendance.StatusOnTime},
		{11, attendance.StatusTardyMinor},
		{20, attendance.StatusTardyMinor},
		{21, attendance.StatusTardyMajor},
		{30, attendance.StatusTardyMajor},
		{31, attendance.StatusAbsent},
		{120, attendance.StatusAbsent},
		{999, attendance.StatusAbsent},
	}
	for _, tc := range cases {
		matched, found := table.Classify(tc.minutes)
		if !found {
			t.Fatalf("Classify(%d): no rule matched", tc.minutes)
		}
		if got := matched.Outcome(); got != tc.want {
			t.Errorf("Classify(%d) = %s, want %s", tc.minutes, got, tc.want)
		}
	}
}

func TestRuleTable_GapReportsNoMatch(t *testing.T) {
	// GIVEN: A table with a hole between 10 and 21 minutes
	// WHEN: Classifying a value inside the hole
	// THEN: No match is reported; the caller applies the defined fallback

	table := attendance.NewRuleTable([]attendance.LateRule{
		rule("r1", "Tolerancia", 0, 10, attendance.StatusOnTime),
		rule("r2", "Retardo Mayor", 21, 30, attendance.StatusTardyMajor),
	})

	if _, found := table.Classify(15); found {
		t.Fatal("Classify(15): expected no match in the configured gap")
	}
	if _, found := table.Classify(10); !found {
		t.Fatal("Classify(10): expected a match at the band edge")
	}
}

func TestRuleTable_DefaultsCoverEveryMinute(t *testing.T) {
	// The seed table must leave no gaps between 0 and the unbounded cap.
	table := attendance.NewRuleTable(attendance.DefaultRules())
	for m := 0; m <= attendance.UnboundedMinutes; m++ {
		if _, found := table.Classify(m); !found {
			t.Fatalf("default table leaves minute %d uncovered", m)
		}
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidateRule_OverlapNamesConflictingRule(t *testing.T) {
	// GIVEN: An existing tolerance band 0-10
	// WHEN: Adding a rule 5-15
	// THEN: Rejected, and the error identifies the tolerance band

	existing := []attendance.LateRule{
		rule("r1", "Tolerancia", 0, 10, attendance.StatusOnTime),
	}
	err := attendance.ValidateRule(rule("", "Nueva", 5, 15, attendance.StatusTardyMinor), existing)

	if !errors.Is(err, attendance.ErrRuleOverlap) {
		t.Fatalf("expected ErrRuleOverlap, got %v", err)
	}
	var conflict *attendance.RuleConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected RuleConflictError, got %T", err)
	}
	if conflict.Conflicting.Description != "Tolerancia" {
		t.Errorf("conflicting rule = %q, want Tolerancia", conflict.Conflicting.Description)
	}
}

func TestValidateRule_SharedBoundaryIsOverlap(t *testing.T) {
	// Intervals are closed: 0-10 and 10-20 both contain minute 10.
	existing := []attendance.LateRule{
		rule("r1", "Tolerancia", 0, 10, attendance.StatusOnTime),
	}
	err := attendance.ValidateRule(rule("", "Retardo", 10, 20, attendance.StatusTardyMinor), existing)
	if !errors.Is(err, attendance.ErrRuleOverlap) {
		t.Fatalf("expected ErrRuleOverlap for shared boundary, got %v", err)
	}
}

func TestValidateRule_AdjacentIntervalsAllowed(t *testing.T) {
	existing := []attendance.LateRule{
		rule("r1", "Tolerancia", 0, 10, attendance.StatusOnTime),
	}
	err := attendance.ValidateRule(rule("", "Retardo Menor", 11, 20, attendance.StatusTardyMinor), existing)
	if err != nil {
		t.Fatalf("adjacent intervals should validate, got %v", err)
	}
}

func TestValidateRule_EditKeepsOwnInterval(t *testing.T) {
	// GIVEN: A rule being edited
	// WHEN: Revalidating against a table that still contains its old row
	// THEN: The rule does not conflict with itself

	existing := []attendance.LateRule{
		rule("r1", "Tolerancia", 0, 10, attendance.StatusOnTime),
		rule("r2", "Retardo Menor", 11, 20, attendance.StatusTardyMinor),
	}
	err := attendance.ValidateRule(rule("r2", "Retardo Menor", 11, 19, attendance.StatusTardyMinor), existing)
	if err != nil {
		t.Fatalf("editing a rule inside its own interval should validate, got %v", err)
	}
}

func TestValidateRule_Bounds(t *testing.T) {
	cases := []struct {
		name string
		min  int
		max  int
	}{
		{"min equals max", 10, 10},
		{"min above max", 20, 10},
		{"negative min", -1, 10},
		{"negative max", 0, -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := attendance.ValidateRule(rule("", "x", tc.min, tc.max, ""), nil)
			if !errors.Is(err, attendance.ErrInvalidRuleBounds) {
				t.Fatalf("expected ErrInvalidRuleBounds, got %v", err)
			}
		})
	}
}

// =============================================================================
// SEVERITY DERIVATION
// =============================================================================

func TestDeriveSeverity_LegacyDescriptions(t *testing.T) {
	cases := []struct {
		description string
		want        attendance.Status
	}{
		{"Falta por Retardo", attendance.StatusAbsent},
		{"Absence threshold", attendance.StatusAbsent},
		{"Retardo Mayor", attendance.StatusTardyMajor},
		{"major tardiness", attendance.StatusTardyMajor},
		{"Retardo Menor", attendance.StatusTardyMinor},
		{"minor tardiness", attendance.StatusTardyMinor},
		{"Tolerancia", attendance.StatusOnTime},
	}
	for _, tc := range cases {
		if got := attendance.DeriveSeverity(tc.description); got != tc.want {
			t.Errorf("DeriveSeverity(%q) = %s, want %s", tc.description, got, tc.want)
		}
	}
}

func TestLateRule_ExplicitSeverityWins(t *testing.T) {
	// A stored severity overrides whatever the description suggests.
	r := rule("r1", "Retardo Menor", 11, 20, attendance.StatusTardyMajor)
	if got := r.Outcome(); got != attendance.StatusTardyMajor {
		t.Errorf("Outcome() = %s, want explicit TARDY_MAJOR", got)
	}
}
