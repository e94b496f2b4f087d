/*
rules.go - Late-rule table: minute ranges mapped to tardiness outcomes

PURPOSE:
  Administrators configure how many minutes of lateness map to which
  outcome. Each rule is an inclusive [MinutesMin, MinutesMax] range with
  a severity. "Tardy beyond threshold counts as an absence" is expressed
  as a rule whose severity is ABSENT, not as a special code path.

INVARIANTS (enforced at write time, never at classify time):
  - MinutesMin < MinutesMax
  - Both bounds non-negative
  - No two rules' closed intervals overlap

GAP HANDLING:
  Classification never fails for missing coverage. A lateness value no
  rule covers is a configuration gap: the classifier falls back to a
  conservative default and flags the record unclassified.

SEVERITY:
  Severity is stored with the rule. Rows persisted before the column
  existed derive it once at load time from description keywords
  (FALTA/ABSEN -> ABSENT, MAYOR/MAJOR -> TARDY_MAJOR, MENOR/MINOR ->
  TARDY_MINOR, anything else -> ON_TIME, i.e. a tolerance band).

SEE ALSO:
  - classifier.go: Consults the table for positive lateness
  - errors.go: RuleConflictError, RuleBoundsError
*/
package attendance

import (
	"sort"
	"strings"
)

// UnboundedMinutes is the conventional sentinel for "no upper limit" on
// the last rule of a table. It is an ordinary inclusive bound to the
// engine; only the UI renders it as infinity.
const UnboundedMinutes = 999

// =============================================================================
// LATE RULE - One row of the classification table
// =============================================================================

type LateRule struct {
	ID          string
	Description string
	MinutesMin  int
	MinutesMax  int
	Severity    Status
}

// Contains reports whether minutesLate falls in the rule's closed range.
func (r LateRule) Contains(minutesLate int) bool {
	return minutesLate >= r.MinutesMin && minutesLate <= r.MinutesMax
}

// Overlaps reports whether two closed intervals intersect.
func (r LateRule) Overlaps(other LateRule) bool {
	return r.MinutesMin <= other.MinutesMax && other.MinutesMin <= r.MinutesMax
}

// Outcome returns the status this rule maps to, deriving it from the
// description when no explicit severity was stored.
func (r LateRule) Outcome() Status {
	if r.Severity != "" {
		return r.Severity
	}
	return DeriveSeverity(r.Description)
}

// DeriveSeverity maps legacy rule descriptions to a severity. Keyword
// matching covers the seed vocabulary in both languages the capture
// devices shipped with.
func DeriveSeverity(description string) Status {
	d := strings.ToUpper(description)
	switch {
	case strings.Contains(d, "FALTA") || strings.Contains(d, "ABSEN"):
		return StatusAbsent
	case strings.Contains(d, "MAYOR") || strings.Contains(d, "MAJOR"):
		return StatusTardyMajor
	case strings.Contains(d, "MENOR") || strings.Contains(d, "MINOR"):
		return StatusTardyMinor
	default:
		return StatusOnTime // tolerance band
	}
}

// =============================================================================
// RULE TABLE - Ordered, non-overlapping rule set with minute lookup
// =============================================================================

type RuleTable struct {
	rules []LateRule
}

// NewRuleTable copies and orders the rules by MinutesMin. The table is
// read-only to the classifier; validation happened at write time.
func NewRuleTable(rules []LateRule) *RuleTable {
	sorted := make([]LateRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinutesMin < sorted[j].MinutesMin
	})
	return &RuleTable{rules: sorted}
}

// Rules returns the ordered rules.
func (t *RuleTable) Rules() []LateRule {
	if t == nil {
		return nil
	}
	return t.rules
}

// Classify returns the rule whose range contains minutesLate. Linear
// scan: tables hold at most a few dozen rows. False means a gap.
func (t *RuleTable) Classify(minutesLate int) (LateRule, bool) {
	if t == nil {
		return LateRule{}, false
	}
	for _, r := range t.rules {
		if r.Contains(minutesLate) {
			return r, true
		}
	}
	return LateRule{}, false
}

// =============================================================================
// WRITE-TIME VALIDATION
// =============================================================================

// ValidateRule checks a new or edited rule against the table invariants.
// The candidate's own ID is skipped so an edit may keep its interval.
// Overlap failures identify the conflicting rule.
func ValidateRule(candidate LateRule, existing []LateRule) error {
	if candidate.MinutesMin < 0 || candidate.MinutesMax < 0 {
		return &RuleBoundsError{Candidate: candidate, Reason: "negative_bound"}
	}
	if candidate.MinutesMin >= candidate.MinutesMax {
		return &RuleBoundsError{Candidate: candidate, Reason: "min_not_below_max"}
	}
	for _, r := range existing {
		if candidate.ID != "" && r.ID == candidate.ID {
			continue
		}
		if candidate.Overlaps(r) {
			return &RuleConflictError{Candidate: candidate, Conflicting: r}
		}
	}
	return nil
}

// DefaultRules is the seed table installed on fresh deployments:
// a 10-minute tolerance band, two tardiness grades, and absence beyond
// half an hour.
func DefaultRules() []LateRule {
	return []LateRule{
		{Description: "Tolerancia", MinutesMin: 0, MinutesMax: 10, Severity: StatusOnTime},
		{Description: "Retardo Menor", MinutesMin: 11, MinutesMax: 20, Severity: StatusTardyMinor},
		{Description: "Retardo Mayor", MinutesMin: 21, MinutesMax: 30, Severity: StatusTardyMajor},
		{Description: "Falta por Retardo", MinutesMin: 31, MinutesMax: UnboundedMinutes, Severity: StatusAbsent},
	}
}
