// Package export renders the schedule into Excel files for offline use.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"maitred/internal/domain"
	"maitred/internal/models"
	"maitred/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	reservationsSheet = "Reservations"
	shiftsSheet       = "Shifts"
)

type Exporter struct {
	reservations domain.ReservationStore
	shifts       domain.ShiftStore
	exportPath   string
	logger       *zerolog.Logger
}

func NewExporter(reservations domain.ReservationStore, shifts domain.ShiftStore, exportPath string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		reservations: reservations,
		shifts:       shifts,
		exportPath:   exportPath,
		logger:       logger,
	}
}

// ExportSchedule writes an xlsx with one sheet of reservations and one of
// shifts for the date range, and returns the file path.
func (e *Exporter) ExportSchedule(ctx context.Context, fromDate, toDate string) (string, error) {
	from, err := schedule.ParseDate(fromDate)
	if err != nil {
		return "", err
	}
	to, err := schedule.ParseDate(toDate)
	if err != nil {
		return "", err
	}
	if to.Before(from) {
		return "", fmt.Errorf("to date is before from date")
	}

	if err := os.MkdirAll(e.exportPath, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	reservations, err := e.reservations.ListReservations(ctx, models.ReservationFilter{FromDate: fromDate, ToDate: toDate})
	if err != nil {
		return "", fmt.Errorf("load reservations: %w", err)
	}
	shifts, err := e.shifts.ListShifts(ctx, models.ShiftFilter{FromDate: fromDate, ToDate: toDate})
	if err != nil {
		return "", fmt.Errorf("load shifts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeReservations(f, fromDate, toDate, reservations); err != nil {
		return "", err
	}
	if err := e.writeShifts(f, fromDate, toDate, shifts); err != nil {
		return "", err
	}
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%s_to_%s.xlsx", fromDate, toDate)
	filePath := filepath.Join(e.exportPath, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save export file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).
		Int("reservations", len(reservations)).Int("shifts", len(shifts)).
		Msg("schedule exported")
	return filePath, nil
}

func (e *Exporter) writeReservations(f *excelize.File, fromDate, toDate string, reservations []*models.Reservation) error {
	index, err := f.NewSheet(reservationsSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(reservationsSheet, "A1", fmt.Sprintf("Reservations %s to %s", fromDate, toDate))
	writeHeader(f, reservationsSheet, []string{"Date", "Time", "Guest", "Phone", "Party", "Table", "Status", "Code", "Request"})

	sorted := make([]*models.Reservation, len(reservations))
	copy(sorted, reservations)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Time < sorted[j].Time
	})

	for i, r := range sorted {
		row := i + 3
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("A%d", row), r.Date)
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("B%d", row), r.Time)
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("C%d", row), r.GuestName)
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("D%d", row), r.GuestPhone)
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("E%d", row), r.PartySize)
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("F%d", row), r.TableNumber)
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("G%d", row), r.Status)
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("H%d", row), r.ConfirmationCode)
		_ = f.SetCellValue(reservationsSheet, fmt.Sprintf("I%d", row), r.SpecialRequest)

		if styleID, err := reservationRowStyle(f, r.Status); err == nil {
			_ = f.SetCellStyle(reservationsSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), styleID)
		}
	}

	_ = f.SetColWidth(reservationsSheet, "A", "B", 12)
	_ = f.SetColWidth(reservationsSheet, "C", "D", 22)
	_ = f.SetColWidth(reservationsSheet, "G", "I", 18)
	_ = f.MergeCell(reservationsSheet, "A1", "I1")
	applyTitleStyle(f, reservationsSheet)
	return nil
}

func (e *Exporter) writeShifts(f *excelize.File, fromDate, toDate string, shifts []*models.Shift) error {
	if _, err := f.NewSheet(shiftsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	_ = f.SetCellValue(shiftsSheet, "A1", fmt.Sprintf("Shifts %s to %s", fromDate, toDate))
	writeHeader(f, shiftsSheet, []string{"Date", "Employee", "Start", "End", "Type", "Position", "Status", "Hours", "Overtime"})

	sorted := make([]*models.Shift, len(shifts))
	copy(sorted, shifts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].StartTime < sorted[j].StartTime
	})

	for i, s := range sorted {
		row := i + 3
		_ = f.SetCellValue(shiftsSheet, fmt.Sprintf("A%d", row), s.Date)
		_ = f.SetCellValue(shiftsSheet, fmt.Sprintf("B%d", row), s.EmployeeName)
		_ = f.SetCellValue(shiftsSheet, fmt.Sprintf("C%d", row), s.StartTime)
		_ = f.SetCellValue(shiftsSheet, fmt.Sprintf("D%d", row), s.EndTime)
		_ = f.SetCellValue(shiftsSheet, fmt.Sprintf("E%d", row), s.ShiftType)
		_ = f.SetCellValue(shiftsSheet, fmt.Sprintf("F%d", row), s.Position)
		_ = f.SetCellValue(shiftsSheet, fmt.Sprintf("G%d", row), s.Status)
		_ = f.SetCellValue(shiftsSheet, fmt.Sprintf("H%d", row), float64(s.ScheduledDuration())/60)
		_ = f.SetCellValue(shiftsSheet, fmt.Sprintf("I%d", row), float64(s.OvertimeMinutes())/60)
	}

	_ = f.SetColWidth(shiftsSheet, "A", "A", 12)
	_ = f.SetColWidth(shiftsSheet, "B", "B", 22)
	_ = f.SetColWidth(shiftsSheet, "E", "G", 14)
	_ = f.MergeCell(shiftsSheet, "A1", "I1")
	applyTitleStyle(f, shiftsSheet)
	return nil
}

func writeHeader(f *excelize.File, sheetName string, headers []string) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func applyTitleStyle(f *excelize.File, sheetName string) {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)
}

// reservationRowStyle colors rows by lifecycle state: green for seated and
// completed, yellow for pending, red for cancelled and no-show.
func reservationRowStyle(f *excelize.File, status string) (int, error) {
	var color string
	switch status {
	case models.ReservationSeated, models.ReservationCompleted, models.ReservationConfirmed:
		color = "#C6EFCE"
	case models.ReservationPending:
		color = "#FFEB9C"
	case models.ReservationCancelled, models.ReservationNoShow:
		color = "#FFC7CE"
	default:
		color = "#FFFFFF"
	}
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
}
