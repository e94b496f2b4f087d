/*
handlers_test.go - HTTP-level tests for the attendance API

Tests run against a real router and an in-memory sqlite store, so
they exercise the full request path: routing, JSON decoding, store
round-trips, and classification.
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turno/attendance-engine/api"
	"github.com/turno/attendance-engine/attendance"
	"github.com/turno/attendance-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var tz = time.FixedZone("MST", -7*60*60)

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(store, tz, zerolog.Nop())
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// seedWorkerWithSchedule creates a worker on a Monday-to-Friday
// 08:00-17:00 template effective from January 2025 and returns the
// worker id.
func seedWorkerWithSchedule(t *testing.T, server *httptest.Server) string {
	t.Helper()

	resp := doJSON(t, http.MethodPost, server.URL+"/api/workers", map[string]any{
		"name": "Ana Lopez", "rfc": "LOAA900101", "department": "Sistemas",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	worker := decode[map[string]any](t, resp)
	workerID := worker["id"].(string)

	days := map[string]map[string]string{}
	for _, d := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		days[d] = map[string]string{"entry": "08:00", "exit": "17:00"}
	}
	resp = doJSON(t, http.MethodPost, server.URL+"/api/schedules", map[string]any{
		"description": "Turno matutino", "days": days,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	schedule := decode[map[string]any](t, resp)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/assignments", map[string]any{
		"worker_id":      workerID,
		"schedule_id":    schedule["id"].(string),
		"effective_from": "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return workerID
}

func seedDefaultRules(t *testing.T, server *httptest.Server) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, server.URL+"/api/rules/defaults", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// WORKER ENDPOINT TESTS
// =============================================================================

func TestWorkers_CRUD(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/workers", map[string]any{"name": "Ana Lopez"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]any](t, resp)
	id := created["id"].(string)
	require.NotEmpty(t, id)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/workers/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/workers/"+id, map[string]any{"department": "Soporte"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[map[string]any](t, resp)
	assert.Equal(t, "Soporte", updated["department"])
	assert.Equal(t, "Ana Lopez", updated["name"], "partial update must keep untouched fields")

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/workers/"+id, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/workers/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWorkers_CreateRequiresName(t *testing.T) {
	server, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, server.URL+"/api/workers", map[string]any{"rfc": "X"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// CHECK-IN FLOW TESTS
// =============================================================================

func TestCheckIn_EntryThenExit(t *testing.T) {
	// GIVEN: A scheduled worker and the default rule table
	server, _ := newTestServer(t)
	seedDefaultRules(t, server)
	workerID := seedWorkerWithSchedule(t, server)

	// WHEN: Swiping at 08:15 on a working Monday
	resp := doJSON(t, http.MethodPost, server.URL+"/api/attendance/check-in", map[string]any{
		"worker_id": workerID,
		"timestamp": time.Date(2025, time.March, 3, 8, 15, 0, 0, tz).Format(time.RFC3339),
	})

	// THEN: The swipe is stored as a classified entry
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode[map[string]any](t, resp)
	assert.Equal(t, string(attendance.KindEntry), first["kind"])
	assert.Equal(t, string(attendance.StatusTardyMinor), first["status"])

	// WHEN: Swiping again at 17:05 the same day
	resp = doJSON(t, http.MethodPost, server.URL+"/api/attendance/check-in", map[string]any{
		"worker_id": workerID,
		"timestamp": time.Date(2025, time.March, 3, 17, 5, 0, 0, tz).Format(time.RFC3339),
	})

	// THEN: The second swipe is the exit tag
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decode[map[string]any](t, resp)
	assert.Equal(t, string(attendance.KindExit), second["kind"])
	assert.Equal(t, attendance.RawExit, second["status"])
}

func TestCheckIn_UnknownWorker(t *testing.T) {
	server, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, server.URL+"/api/attendance/check-in", map[string]any{
		"worker_id": "ghost",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckIn_BadTimestamp(t *testing.T) {
	server, _ := newTestServer(t)
	seedDefaultRules(t, server)
	workerID := seedWorkerWithSchedule(t, server)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/attendance/check-in", map[string]any{
		"worker_id": workerID,
		"timestamp": "03/03/2025 8:15am",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// RULE ENDPOINT TESTS
// =============================================================================

func TestRules_OverlapReturnsConflict(t *testing.T) {
	server, _ := newTestServer(t)
	seedDefaultRules(t, server)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/rules", map[string]any{
		"description": "Solapada", "minutes_min": 5, "minutes_max": 15,
		"severity": string(attendance.StatusTardyMinor),
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Contains(t, body["details"], "Tolerancia", "conflict must name the overlapping rule")
}

func TestRules_InvalidBoundsRejected(t *testing.T) {
	server, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, server.URL+"/api/rules", map[string]any{
		"description": "Invertida", "minutes_min": 20, "minutes_max": 10,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRules_SeedIsIdempotentAndOrdered(t *testing.T) {
	server, _ := newTestServer(t)
	seedDefaultRules(t, server)
	seedDefaultRules(t, server)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/rules", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rules := decode[[]map[string]any](t, resp)
	require.Len(t, rules, 4)
	assert.Equal(t, "Tolerancia", rules[0]["description"])
	assert.Equal(t, "Falta por Retardo", rules[3]["description"])
}

// =============================================================================
// SCHEDULE ENDPOINT TESTS
// =============================================================================

func TestSchedules_WeekendSpanRejected(t *testing.T) {
	server, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, server.URL+"/api/schedules", map[string]any{
		"description": "Fin de semana",
		"days": map[string]any{
			"saturday": map[string]string{"entry": "08:00", "exit": "14:00"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSchedules_DeleteInUseReturnsConflict(t *testing.T) {
	server, store := newTestServer(t)
	seedWorkerWithSchedule(t, server)

	schedules, err := store.ListSchedules(context.Background())
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	resp := doJSON(t, http.MethodDelete, server.URL+"/api/schedules/"+schedules[0].ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// =============================================================================
// REPORT ENDPOINT TESTS
// =============================================================================

func TestReports_Daily(t *testing.T) {
	// GIVEN: A worker who checked in 25 minutes late on a Monday
	server, _ := newTestServer(t)
	seedDefaultRules(t, server)
	workerID := seedWorkerWithSchedule(t, server)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/attendance/check-in", map[string]any{
		"worker_id": workerID,
		"timestamp": time.Date(2025, time.March, 3, 8, 25, 0, 0, tz).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// WHEN: Requesting the daily report for that date
	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/daily?date=2025-03-03", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// THEN: The record carries the tardiness and the stats tally it
	report := decode[struct {
		Date    string `json:"date"`
		Records []struct {
			WorkerID    string `json:"worker_id"`
			Status      string `json:"status"`
			MinutesLate int    `json:"minutes_late"`
		} `json:"records"`
		Stats struct {
			WorkingDays int `json:"working_days"`
			TardyMajor  int `json:"tardy_major"`
		} `json:"stats"`
	}](t, resp)

	assert.Equal(t, "2025-03-03", report.Date)
	require.Len(t, report.Records, 1)
	assert.Equal(t, workerID, report.Records[0].WorkerID)
	assert.Equal(t, string(attendance.StatusTardyMajor), report.Records[0].Status)
	assert.Equal(t, 25, report.Records[0].MinutesLate)
	assert.Equal(t, 1, report.Stats.TardyMajor)
}

func TestReports_DailyDepartmentFilter(t *testing.T) {
	server, _ := newTestServer(t)
	seedDefaultRules(t, server)
	seedWorkerWithSchedule(t, server)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/reports/daily?date=2025-03-03&department=Contabilidad", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decode[struct {
		Records []json.RawMessage `json:"records"`
	}](t, resp)
	assert.Empty(t, report.Records, "worker in another department must be excluded")
}

func TestReports_MonthlyExportCSV(t *testing.T) {
	server, _ := newTestServer(t)
	seedDefaultRules(t, server)
	seedWorkerWithSchedule(t, server)

	url := fmt.Sprintf("%s/api/reports/monthly/export?year=2025&month=3&format=csv", server.URL)
	resp := doJSON(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attendance-2025-03.csv")
}

func TestReports_MonthlyRejectsBadMonth(t *testing.T) {
	server, _ := newTestServer(t)
	resp := doJSON(t, http.MethodGet, server.URL+"/api/reports/monthly?year=2025&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// HOLIDAY AND JUSTIFICATION TESTS
// =============================================================================

func TestHolidays_AffectDailyReport(t *testing.T) {
	server, _ := newTestServer(t)
	seedDefaultRules(t, server)
	seedWorkerWithSchedule(t, server)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/holidays", map[string]any{
		"date": "2025-03-17", "description": "Natalicio",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/daily?date=2025-03-17", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decode[struct {
		Records []struct {
			Status string `json:"status"`
			Note   string `json:"note"`
		} `json:"records"`
	}](t, resp)
	require.Len(t, report.Records, 1)
	assert.Equal(t, string(attendance.StatusHoliday), report.Records[0].Status)
	assert.Equal(t, "Natalicio", report.Records[0].Note)
}

func TestJustifications_ExcuseAbsence(t *testing.T) {
	server, _ := newTestServer(t)
	seedDefaultRules(t, server)
	workerID := seedWorkerWithSchedule(t, server)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/justifications", map[string]any{
		"worker_id": workerID, "date": "2025-03-04", "reason": "Cita medica",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/daily?date=2025-03-04", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decode[struct {
		Records []struct {
			Status string `json:"status"`
		} `json:"records"`
	}](t, resp)
	require.Len(t, report.Records, 1)
	assert.Equal(t, string(attendance.StatusJustified), report.Records[0].Status)
}
