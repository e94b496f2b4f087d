package attendance_test

import (
	"testing"
	"time"

	"github.com/turno/attendance-engine/attendance"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// tzMazatlan approximates the organization timezone without requiring
// tzdata on the test host.
var tzMazatlan = time.FixedZone("MST", -7*60*60)

func ev(id string, worker attendance.WorkerID, ts time.Time, raw string) attendance.Event {
	return attendance.Event{ID: id, WorkerID: worker, Timestamp: ts, RawStatus: raw}
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, tzMazatlan)
}

// =============================================================================
// GROUPING TESTS
// =============================================================================

func TestGroupEvents_EntryIsFirstNonExit_ExitIsLastExit(t *testing.T) {
	// GIVEN: A split shift: entry, lunch exit, afternoon entry, final exit
	// WHEN: Grouping the day
	// THEN: Entry is the 08:05 swipe, exit is the 18:00 swipe

	worker := attendance.WorkerID("w1")
	events := []attendance.Event{
		ev("e3", worker, at(2025, time.March, 3, 14, 0), "ON_TIME"),
		ev("e1", worker, at(2025, time.March, 3, 8, 5), "ON_TIME"),
		ev("e4", worker, at(2025, time.March, 3, 18, 0), attendance.RawExit),
		ev("e2", worker, at(2025, time.March, 3, 13, 0), attendance.RawExit),
	}

	grouped, bad := attendance.GroupEvents(events, tzMazatlan)
	if len(bad) != 0 {
		t.Fatalf("unexpected malformed events: %v", bad)
	}

	day := grouped.For(worker, attendance.NewDay(2025, time.March, 3))
	if day.Entry == nil || day.Entry.ID != "e1" {
		t.Fatalf("entry = %+v, want e1", day.Entry)
	}
	if day.Exit == nil || day.Exit.ID != "e4" {
		t.Fatalf("exit = %+v, want e4", day.Exit)
	}
}

func TestGroupEvents_LoneExitLeavesNoEntry(t *testing.T) {
	// A day with only an exit swipe has entry evidence missing.
	worker := attendance.WorkerID("w1")
	events := []attendance.Event{
		ev("e1", worker, at(2025, time.March, 3, 17, 0), attendance.RawExit),
	}

	grouped, _ := attendance.GroupEvents(events, tzMazatlan)
	day := grouped.For(worker, attendance.NewDay(2025, time.March, 3))
	if day.Entry != nil {
		t.Errorf("entry = %+v, want nil", day.Entry)
	}
	if day.Exit == nil || day.Exit.ID != "e1" {
		t.Errorf("exit = %+v, want e1", day.Exit)
	}
}

func TestGroupEvents_ExitAliasRecognized(t *testing.T) {
	worker := attendance.WorkerID("w1")
	events := []attendance.Event{
		ev("e1", worker, at(2025, time.March, 3, 8, 0), "ON_TIME"),
		ev("e2", worker, at(2025, time.March, 3, 17, 0), attendance.RawExitAlias),
	}

	grouped, _ := attendance.GroupEvents(events, tzMazatlan)
	day := grouped.For(worker, attendance.NewDay(2025, time.March, 3))
	if day.Exit == nil || day.Exit.ID != "e2" {
		t.Errorf("exit = %+v, want e2 via alias tag", day.Exit)
	}
}

func TestGroupEvents_DayBoundaryIsLocal(t *testing.T) {
	// GIVEN: A swipe at 02:00 UTC, which is 19:00 the previous day locally
	// WHEN: Grouping in the organization timezone
	// THEN: The event lands on the local calendar day

	worker := attendance.WorkerID("w1")
	utc := time.Date(2025, time.March, 4, 2, 0, 0, 0, time.UTC)
	grouped, _ := attendance.GroupEvents([]attendance.Event{
		ev("e1", worker, utc, "ON_TIME"),
	}, tzMazatlan)

	if day := grouped.For(worker, attendance.NewDay(2025, time.March, 3)); day.Entry == nil {
		t.Fatal("event should group under the local day March 3")
	}
	if day := grouped.For(worker, attendance.NewDay(2025, time.March, 4)); day.Entry != nil {
		t.Fatal("event must not group under the UTC day March 4")
	}
}

func TestGroupEvents_WorkersPartitionIndependently(t *testing.T) {
	events := []attendance.Event{
		ev("e1", "w1", at(2025, time.March, 3, 8, 0), "ON_TIME"),
		ev("e2", "w2", at(2025, time.March, 3, 8, 30), "ON_TIME"),
	}

	grouped, _ := attendance.GroupEvents(events, tzMazatlan)
	date := attendance.NewDay(2025, time.March, 3)
	if d := grouped.For("w1", date); d.Entry == nil || d.Entry.ID != "e1" {
		t.Errorf("w1 entry = %+v, want e1", d.Entry)
	}
	if d := grouped.For("w2", date); d.Entry == nil || d.Entry.ID != "e2" {
		t.Errorf("w2 entry = %+v, want e2", d.Entry)
	}
}

func TestGroupEvents_MalformedReportedNotFatal(t *testing.T) {
	// GIVEN: A batch with a zero timestamp and a missing worker id
	// WHEN: Grouping
	// THEN: Both are reported, the valid event still groups

	events := []attendance.Event{
		ev("bad1", "w1", time.Time{}, "ON_TIME"),
		ev("bad2", "", at(2025, time.March, 3, 8, 0), "ON_TIME"),
		ev("ok", "w1", at(2025, time.March, 3, 8, 0), "ON_TIME"),
	}

	grouped, bad := attendance.GroupEvents(events, tzMazatlan)
	if len(bad) != 2 {
		t.Fatalf("malformed count = %d, want 2", len(bad))
	}
	if d := grouped.For("w1", attendance.NewDay(2025, time.March, 3)); d.Entry == nil || d.Entry.ID != "ok" {
		t.Errorf("valid event should still group, got %+v", d.Entry)
	}
}

func TestGroupEvents_EmptyBatch(t *testing.T) {
	grouped, bad := attendance.GroupEvents(nil, tzMazatlan)
	if len(grouped) != 0 || len(bad) != 0 {
		t.Fatalf("empty batch should reduce to nothing, got %d groups, %d errors",
			len(grouped), len(bad))
	}
}

// =============================================================================
// CHECK-IN TYPING TESTS
// =============================================================================

func TestDetermineKind(t *testing.T) {
	entry := ev("e", "w1", at(2025, time.March, 3, 8, 0), "ON_TIME")
	exit := ev("x", "w1", at(2025, time.March, 3, 13, 0), attendance.RawExit)

	cases := []struct {
		name     string
		existing []attendance.Event
		want     attendance.EventKind
	}{
		{"first swipe of the day", nil, attendance.KindEntry},
		{"after an open entry", []attendance.Event{entry}, attendance.KindExit},
		{"after a closed pair", []attendance.Event{entry, exit}, attendance.KindEntry},
		{"after split shift reentry", []attendance.Event{entry, exit, entry}, attendance.KindExit},
		{"stray exit first", []attendance.Event{exit}, attendance.KindEntry},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := attendance.DetermineKind(tc.existing); got != tc.want {
				t.Errorf("DetermineKind = %s, want %s", got, tc.want)
			}
		})
	}
}
