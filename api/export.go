/*
export.go - Monthly report rendering as CSV and spreadsheet

PURPOSE:
  Streams the monthly report in file formats administrators actually
  consume: CSV for payroll imports, xlsx for review. Both formats render
  one summary row per worker followed by the detail rows of that
  worker's classified days.

FORMATS:
  csv:  text/csv, one flat table (worker, date, entry, exit, status,
        minutes late, note) with a summary section at the top
  xlsx: two sheets, "Summary" and "Detail"

SEE ALSO:
  - handlers.go: MonthlyReport JSON endpoint
  - attendance/report.go: Report structures rendered here
*/
package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/turno/attendance-engine/attendance"
)

// ExportMonthlyReport renders the monthly report as a file download.
// GET /api/reports/monthly/export?year&month&format=csv|xlsx
func (h *Handler) ExportMonthlyReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year, month, err := h.monthParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year/month", err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
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

	filename := fmt.Sprintf("attendance-%04d-%02d", year, int(month))
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		if err := writeReportCSV(w, report, names); err != nil {
			h.Log.Error().Err(err).Msg("csv export failed")
		}
	case "xlsx":
		w.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.xlsx"`)
		if err := writeReportXLSX(w, report, names); err != nil {
			h.Log.Error().Err(err).Msg("xlsx export failed")
		}
	default:
		writeError(w, http.StatusBadRequest, "Unknown format: "+format, nil)
	}
}

var summaryHeader = []string{
	"Worker", "Working Days", "On Time", "Tardy Minor", "Tardy Major",
	"Absent", "Justified", "Attendance %",
}

var detailHeader = []string{
	"Worker", "Date", "Entry", "Exit", "Status", "Minutes Late", "Note",
}

func summaryRow(wm attendance.WorkerMonth, names map[string]string) []string {
	return []string{
		workerLabel(wm.Worker, names),
		strconv.Itoa(wm.Stats.WorkingDays),
		strconv.Itoa(wm.Stats.OnTime),
		strconv.Itoa(wm.Stats.TardyMinor),
		strconv.Itoa(wm.Stats.TardyMajor),
		strconv.Itoa(wm.Stats.Absent),
		strconv.Itoa(wm.Stats.Justified),
		wm.Stats.AttendanceRate.StringFixed(2),
	}
}

func detailRow(rec attendance.DailyRecord, names map[string]string) []string {
	return []string{
		workerLabel(rec.Worker, names),
		rec.Date.String(),
		eventClock(rec.Entry),
		eventClock(rec.Exit),
		string(rec.Status),
		strconv.Itoa(rec.MinutesLate),
		rec.Note,
	}
}

func workerLabel(id attendance.WorkerID, names map[string]string) string {
	if name, ok := names[string(id)]; ok && name != "" {
		return name
	}
	return string(id)
}

func eventClock(e *attendance.Event) string {
	if e == nil {
		return ""
	}
	return e.Timestamp.Format("15:04")
}

func writeReportCSV(w http.ResponseWriter, report *attendance.MonthlyReport, names map[string]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, wm := range report.Workers {
		if err := cw.Write(summaryRow(wm, names)); err != nil {
			return err
		}
	}

	// Blank separator, then the per-day detail
	if err := cw.Write([]string{}); err != nil {
		return err
	}
	if err := cw.Write(detailHeader); err != nil {
		return err
	}
	for _, wm := range report.Workers {
		for _, rec := range wm.Days {
			if err := cw.Write(detailRow(rec, names)); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeReportXLSX(w http.ResponseWriter, report *attendance.MonthlyReport, names map[string]string) error {
	f := excelize.NewFile()
	defer f.Close()

	summary := "Summary"
	detail := "Detail"
	f.SetSheetName(f.GetSheetName(0), summary)
	if _, err := f.NewSheet(detail); err != nil {
		return err
	}

	writeRow := func(sheet string, row int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		cells := make([]any, len(values))
		for i, v := range values {
			cells[i] = v
		}
		return f.SetSheetRow(sheet, cell, &cells)
	}

	title := fmt.Sprintf("Attendance %s %d", time.Month(report.Month).String(), report.Year)
	if err := writeRow(summary, 1, []string{title}); err != nil {
		return err
	}
	if err := writeRow(summary, 2, summaryHeader); err != nil {
		return err
	}
	for i, wm := range report.Workers {
		if err := writeRow(summary, 3+i, summaryRow(wm, names)); err != nil {
			return err
		}
	}

	if err := writeRow(detail, 1, detailHeader); err != nil {
		return err
	}
	row := 2
	for _, wm := range report.Workers {
		for _, rec := range wm.Days {
			if err := writeRow(detail, row, detailRow(rec, names)); err != nil {
				return err
			}
			row++
		}
	}

	return f.Write(w)
}
