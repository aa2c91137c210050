package models

import "time"

// ReservationStats summarizes reservations over a date range.
type ReservationStats struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"by_status"`
	TotalGuests  int            `json:"total_guests"`
	AvgPartySize float64        `json:"avg_party_size"`
}

// ShiftStats summarizes shifts over a date range. Hours are decimal.
type ShiftStats struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	ByType         map[string]int `json:"by_type"`
	ScheduledHours float64        `json:"scheduled_hours"`
	ActualHours    float64        `json:"actual_hours"`
	OvertimeHours  float64        `json:"overtime_hours"`
	CompletionRate float64        `json:"completion_rate"`
}

// ScheduleStats is the combined report served by the stats endpoint.
type ScheduleStats struct {
	From         string           `json:"from"`
	To           string           `json:"to"`
	Reservations ReservationStats `json:"reservations"`
	Shifts       ShiftStats       `json:"shifts"`
	GeneratedAt  time.Time        `json:"generated_at"`
}
