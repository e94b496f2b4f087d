/*
grouper.go - Worker-day partitioning of raw swipe events

PURPOSE:
  Capture devices record every swipe: duplicates, test swipes, a worker
  badging three times on the way in. Classification only cares about two
  representative events per worker-day: the entry and the exit. The
  grouper partitions raw events by (worker, local calendar day), sorts
  each partition by timestamp, and reduces it to at most one of each.

REDUCTION RULES:
  - Entry: first event in time order whose raw status is not an exit tag
  - Exit:  last event in time order whose raw status IS an exit tag
  - A single event can only ever be the entry for its day; if entry and
    exit would resolve to the same record, the exit is dropped
  - Malformed events (zero timestamp, missing worker) are excluded and
    reported; they never abort the rest of the batch

DAY BOUNDARIES:
  Days are cut in the organization's local timezone, not UTC. A swipe at
  23:30 local belongs to that local day even when its UTC instant falls
  on the next date.

SEE ALSO:
  - classifier.go: Consumes the reduced DayEvents
  - types.go: Event, Day, DayKey, DayEvents
*/
package attendance

import (
	"sort"
	"time"
)

// Grouped is the reduced view of a batch of raw events.
type Grouped map[DayKey]DayEvents

// For returns the reduced events for one worker-day; the zero value when
// the day has no events.
func (g Grouped) For(worker WorkerID, date Day) DayEvents {
	return g[DayKey{Worker: worker, Date: date}]
}

// =============================================================================
// GROUPING
// =============================================================================

// GroupEvents partitions raw events by (worker, local day) and reduces
// each partition to at most one entry and one exit. Malformed events are
// returned alongside the result rather than failing the batch.
func GroupEvents(events []Event, loc *time.Location) (Grouped, []*MalformedEventError) {
	grouped := make(Grouped)
	var bad []*MalformedEventError

	partitions := make(map[DayKey][]Event)
	for _, e := range events {
		if e.Malformed() {
			bad = append(bad, &MalformedEventError{
				EventID: e.ID,
				Worker:  e.WorkerID,
				Reason:  malformedReason(e),
			})
			continue
		}
		k := DayKey{Worker: e.WorkerID, Date: DayOf(e.Timestamp, loc)}
		partitions[k] = append(partitions[k], e)
	}

	for k, dayEvents := range partitions {
		sort.Slice(dayEvents, func(i, j int) bool {
			return dayEvents[i].Timestamp.Before(dayEvents[j].Timestamp)
		})
		grouped[k] = reduce(dayEvents)
	}
	return grouped, bad
}

// reduce collapses one sorted worker-day partition to its entry and exit.
func reduce(sorted []Event) DayEvents {
	var result DayEvents

	for i := range sorted {
		if !IsExitTag(sorted[i].RawStatus) {
			result.Entry = &sorted[i]
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if IsExitTag(sorted[i].RawStatus) {
			result.Exit = &sorted[i]
			break
		}
	}

	// A lone record can only be the day's entry.
	if result.Entry != nil && result.Exit != nil && result.Entry.ID == result.Exit.ID {
		result.Exit = nil
	}
	return result
}

func malformedReason(e Event) string {
	if e.Timestamp.IsZero() {
		return "timestamp missing or unparsable"
	}
	return "worker id missing"
}

// =============================================================================
// CHECK-IN TYPING
// =============================================================================

// EventKind tags a new swipe as entry-side or exit-side.
type EventKind string

const (
	KindEntry EventKind = "ENTRADA"
	KindExit  EventKind = "SALIDA"
)

// DetermineKind decides whether the next swipe of a day is an entry or an
// exit, from the day's existing records in time order. The first swipe is
// always an entry; a swipe is an exit only while entries outnumber exits,
// so alternating swipes pair up and a stray double-badge stays an entry.
func DetermineKind(existing []Event) EventKind {
	if len(existing) == 0 {
		return KindEntry
	}
	var entries, exits int
	for _, e := range existing {
		if IsExitTag(e.RawStatus) {
			exits++
		} else {
			entries++
		}
	}
	if exits >= entries {
		return KindEntry
	}
	return KindExit
}
