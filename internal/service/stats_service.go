package service

import (
	"context"
	"time"

	"maitred/internal/domain"
	"maitred/internal/models"
	"maitred/internal/schedule"

	"github.com/rs/zerolog"
)

// StatsService aggregates reservations and shifts over a date range.
type StatsService struct {
	reservations domain.ReservationStore
	shifts       domain.ShiftStore
	logger       *zerolog.Logger

	now func() time.Time
}

func NewStatsService(reservations domain.ReservationStore, shifts domain.ShiftStore, logger *zerolog.Logger) *StatsService {
	return &StatsService{
		reservations: reservations,
		shifts:       shifts,
		logger:       logger,
		now:          time.Now,
	}
}

// Collect builds the combined report for [fromDate, toDate].
func (s *StatsService) Collect(ctx context.Context, fromDate, toDate string) (*models.ScheduleStats, error) {
	if _, err := schedule.ParseDate(fromDate); err != nil {
		return nil, err
	}
	if _, err := schedule.ParseDate(toDate); err != nil {
		return nil, err
	}

	reservations, err := s.reservations.ListReservations(ctx, models.ReservationFilter{FromDate: fromDate, ToDate: toDate})
	if err != nil {
		return nil, err
	}
	shifts, err := s.shifts.ListShifts(ctx, models.ShiftFilter{FromDate: fromDate, ToDate: toDate})
	if err != nil {
		return nil, err
	}

	stats := &models.ScheduleStats{
		From:         fromDate,
		To:           toDate,
		Reservations: collectReservationStats(reservations),
		Shifts:       collectShiftStats(shifts),
		GeneratedAt:  s.now(),
	}

	s.logger.Debug().Str("from", fromDate).Str("to", toDate).
		Int("reservations", stats.Reservations.Total).Int("shifts", stats.Shifts.Total).
		Msg("stats collected")
	return stats, nil
}

func collectReservationStats(reservations []*models.Reservation) models.ReservationStats {
	stats := models.ReservationStats{ByStatus: map[string]int{}}
	for _, r := range reservations {
		stats.Total++
		stats.ByStatus[r.Status]++
		stats.TotalGuests += r.PartySize
	}
	if stats.Total > 0 {
		stats.AvgPartySize = float64(stats.TotalGuests) / float64(stats.Total)
	}
	return stats
}

func collectShiftStats(shifts []*models.Shift) models.ShiftStats {
	stats := models.ShiftStats{ByStatus: map[string]int{}, ByType: map[string]int{}}
	completed := 0
	for _, sh := range shifts {
		stats.Total++
		stats.ByStatus[sh.Status]++
		if sh.ShiftType != "" {
			stats.ByType[sh.ShiftType]++
		}
		stats.ScheduledHours += float64(sh.ScheduledDuration()) / 60
		stats.ActualHours += float64(sh.ActualDuration()) / 60
		stats.OvertimeHours += float64(sh.OvertimeMinutes()) / 60
		if sh.Status == models.ShiftCompleted {
			completed++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(completed) / float64(stats.Total)
	}
	return stats
}
