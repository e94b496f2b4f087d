/*
errors.go - Centralized error types for the attendance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (store, API) wrap these with additional context.

ERROR CATEGORIES:
  1. Validation errors - Late-rule invariant violations at write time
  2. Malformed input  - Unparsable timestamps, unresolvable assignments
  3. Not-found errors - Missing referenced entities

PROPAGATION POLICY:
  Expected conditions (no schedule for a weekday, no events, a rule gap)
  are NOT errors; they degrade to a defined status on the record. Errors
  here cover direct user actions with a correctable fix (rule validation)
  and genuinely broken inputs (malformed events), which are reported per
  record without aborting the batch.

SEE ALSO:
  - rules.go: Produces RuleConflictError
  - grouper.go / classifier.go: Produce MalformedEventError entries
*/
package attendance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRuleOverlap is returned when a new or edited late rule would
	// overlap an existing rule's minute interval.
	ErrRuleOverlap = errors.New("late rule overlaps an existing rule")

	// ErrInvalidRuleBounds is returned when a rule's bounds violate
	// min < max or carry a negative value.
	ErrInvalidRuleBounds = errors.New("invalid late rule bounds")

	// ErrNoAssignment is returned when a worker has no schedule assignment
	// history at all for the requested date. This is malformed input, not
	// the defined "no schedule for this weekday" condition.
	ErrNoAssignment = errors.New("no schedule assignment for worker")

	// ErrMalformedEvent is returned for events that cannot participate in
	// classification (zero timestamp, missing worker).
	ErrMalformedEvent = errors.New("malformed attendance event")

	// ErrWorkerNotFound is returned when a referenced worker doesn't exist.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrScheduleNotFound is returned when a referenced schedule doesn't exist.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrRuleNotFound is returned when a referenced late rule doesn't exist.
	ErrRuleNotFound = errors.New("late rule not found")

	// ErrInvalidPeriod is returned when a report period ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrScheduleInUse is returned when deleting a schedule that still has
	// historical assignments.
	ErrScheduleInUse = errors.New("schedule has historical assignments")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RuleConflictError identifies the specific rule a candidate overlaps,
// so the caller can render "overlaps with <desc> (min-max)".
type RuleConflictError struct {
	Candidate   LateRule
	Conflicting LateRule
}

func (e *RuleConflictError) Error() string {
	return fmt.Sprintf("rule [%d-%d] overlaps with %q (%d-%d)",
		e.Candidate.MinutesMin, e.Candidate.MinutesMax,
		e.Conflicting.Description, e.Conflicting.MinutesMin, e.Conflicting.MinutesMax)
}

func (e *RuleConflictError) Unwrap() error { return ErrRuleOverlap }

// RuleBoundsError describes which bound invariant a candidate rule failed.
type RuleBoundsError struct {
	Candidate LateRule
	Reason    string // "min_not_below_max", "negative_bound"
}

func (e *RuleBoundsError) Error() string {
	return fmt.Sprintf("rule %q [%d-%d]: %s",
		e.Candidate.Description, e.Candidate.MinutesMin, e.Candidate.MinutesMax, e.Reason)
}

func (e *RuleBoundsError) Unwrap() error { return ErrInvalidRuleBounds }

// MalformedEventError reports one event excluded from a classification
// batch. One bad record never aborts the rest of the batch.
type MalformedEventError struct {
	EventID string
	Worker  WorkerID
	Reason  string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("event %s (worker %s): %s", e.EventID, e.Worker, e.Reason)
}

func (e *MalformedEventError) Unwrap() error { return ErrMalformedEvent }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrRuleOverlap) ||
		errors.Is(err, ErrInvalidRuleBounds) ||
		errors.Is(err, ErrMalformedEvent) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrScheduleInUse)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkerNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrNoAssignment)
}
