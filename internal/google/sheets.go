// Package google publishes the schedule to a Google Sheets spreadsheet so
// floor managers can read it without touching the API.
package google

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"maitred/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	reservationsSheet = "Reservations"
	shiftsSheet       = "Shifts"
)

// SheetsPublisher mirrors a date range of reservations and shifts into two
// tabs of one spreadsheet. Each publish rewrites the tab from the header
// down; the sheet is a read model, never an input.
type SheetsPublisher struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *zerolog.Logger

	mu       sync.Mutex
	sheetIDs map[string]int64
}

func NewSheetsPublisher(ctx context.Context, credentialsFile, spreadsheetID string, logger *zerolog.Logger) (*SheetsPublisher, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	client := config.Client(ctx)
	service, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsPublisher{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// TestConnection verifies the service account can see the spreadsheet.
func (p *SheetsPublisher) TestConnection(ctx context.Context) error {
	spreadsheet, err := p.service.Spreadsheets.Get(p.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("access spreadsheet: %w", err)
	}
	p.logger.Info().Str("title", spreadsheet.Properties.Title).Msg("spreadsheet connection ok")
	return nil
}

// PublishSchedule rewrites both tabs with the given range. The range bounds
// only label the header; callers pass rows already filtered to it.
func (p *SheetsPublisher) PublishSchedule(ctx context.Context, fromDate, toDate string, reservations []*models.Reservation, shifts []*models.Shift) error {
	if err := p.writeSheet(ctx, reservationsSheet, reservationRows(fromDate, toDate, reservations)); err != nil {
		return fmt.Errorf("publish reservations: %w", err)
	}
	if err := p.writeSheet(ctx, shiftsSheet, shiftRows(fromDate, toDate, shifts)); err != nil {
		return fmt.Errorf("publish shifts: %w", err)
	}

	p.logger.Info().Str("from", fromDate).Str("to", toDate).
		Int("reservations", len(reservations)).Int("shifts", len(shifts)).
		Msg("schedule published to sheet")
	return nil
}

// reservationRows builds the tab contents: a range banner, a header row and
// one row per reservation ordered by date then start time.
func reservationRows(fromDate, toDate string, reservations []*models.Reservation) [][]interface{} {
	sorted := make([]*models.Reservation, len(reservations))
	copy(sorted, reservations)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Time < sorted[j].Time
	})

	rows := [][]interface{}{
		{fmt.Sprintf("Reservations %s to %s", fromDate, toDate)},
		{"Date", "Time", "Guest", "Phone", "Party", "Table", "Status", "Code"},
	}
	for _, r := range sorted {
		rows = append(rows, []interface{}{
			r.Date, r.Time, r.GuestName, r.GuestPhone, r.PartySize, r.TableNumber, r.Status, r.ConfirmationCode,
		})
	}
	return rows
}

func shiftRows(fromDate, toDate string, shifts []*models.Shift) [][]interface{} {
	sorted := make([]*models.Shift, len(shifts))
	copy(sorted, shifts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].StartTime < sorted[j].StartTime
	})

	rows := [][]interface{}{
		{fmt.Sprintf("Shifts %s to %s", fromDate, toDate)},
		{"Date", "Employee", "Start", "End", "Type", "Position", "Status", "Hours"},
	}
	for _, s := range sorted {
		rows = append(rows, []interface{}{
			s.Date, s.EmployeeName, s.StartTime, s.EndTime, s.ShiftType, s.Position, s.Status,
			fmt.Sprintf("%.1f", float64(s.ScheduledDuration())/60),
		})
	}
	return rows
}

// writeSheet clears the tab and writes the rows starting at A1, then applies
// header formatting.
func (p *SheetsPublisher) writeSheet(ctx context.Context, sheetName string, rows [][]interface{}) error {
	clearRange := fmt.Sprintf("%s!A1:Z1000", sheetName)
	if _, err := p.service.Spreadsheets.Values.Clear(p.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	valueRange := &sheets.ValueRange{Values: rows}
	_, err := p.service.Spreadsheets.Values.Update(p.spreadsheetID, fmt.Sprintf("%s!A1", sheetName), valueRange).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheetName, err)
	}

	sheetID, err := p.sheetIDByName(ctx, sheetName)
	if err != nil {
		// Formatting is cosmetic; data already landed.
		p.logger.Warn().Err(err).Str("sheet", sheetName).Msg("skip header formatting")
		return nil
	}

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:       sheetID,
					StartRowIndex: 1,
					EndRowIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{
							Red: 0.9, Green: 0.9, Blue: 0.9,
						},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
	}

	batchRequest := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := p.service.Spreadsheets.BatchUpdate(p.spreadsheetID, batchRequest).Context(ctx).Do(); err != nil {
		p.logger.Warn().Err(err).Str("sheet", sheetName).Msg("header formatting failed")
	}
	return nil
}

func (p *SheetsPublisher) sheetIDByName(ctx context.Context, sheetName string) (int64, error) {
	p.mu.Lock()
	if id, ok := p.sheetIDs[sheetName]; ok {
		p.mu.Unlock()
		return id, nil
	}
	p.mu.Unlock()

	spreadsheet, err := p.service.Spreadsheets.Get(p.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			p.mu.Lock()
			p.sheetIDs[sheetName] = sheet.Properties.SheetId
			p.mu.Unlock()
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet '%s' not found", sheetName)
}
