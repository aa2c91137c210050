package models

import "time"

// Shift is one employee's scheduled work window on a calendar day.
// Start and end are HH:MM strings; an end at or before the start means the
// shift runs past midnight.
type Shift struct {
	ID           int64  `json:"id"`
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name"`

	Date      string `json:"date"`       // YYYY-MM-DD
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`   // HH:MM

	ShiftType string `json:"shift_type"`
	Position  string `json:"position"`
	Status    string `json:"status"`

	BreakDuration int `json:"break_duration"` // minutes, unpaid

	ActualStart *time.Time `json:"actual_start,omitempty"`
	ActualEnd   *time.Time `json:"actual_end,omitempty"`

	Notes string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// IsActive reports whether the shift still occupies the employee's time
// for conflict checking.
func (s *Shift) IsActive() bool {
	return s.Status == ShiftScheduled || s.Status == ShiftInProgress
}

// ScheduledDuration returns the planned net working minutes, overnight-aware,
// with the unpaid break subtracted.
func (s *Shift) ScheduledDuration() int {
	start, err := minutesOfDay(s.StartTime)
	if err != nil {
		return 0
	}
	end, err := minutesOfDay(s.EndTime)
	if err != nil {
		return 0
	}
	if end <= start {
		end += 24 * 60
	}
	d := end - start - s.BreakDuration
	if d < 0 {
		return 0
	}
	return d
}

// ActualDuration returns worked minutes between clock-in and clock-out, net of
// break. Zero until both stamps exist.
func (s *Shift) ActualDuration() int {
	if s.ActualStart == nil || s.ActualEnd == nil {
		return 0
	}
	d := int(s.ActualEnd.Sub(*s.ActualStart).Minutes()) - s.BreakDuration
	if d < 0 {
		return 0
	}
	return d
}

// OvertimeMinutes returns actual minutes worked beyond the regular day.
func (s *Shift) OvertimeMinutes() int {
	d := s.ActualDuration()
	if d <= RegularShiftMinutes {
		return 0
	}
	return d - RegularShiftMinutes
}

func minutesOfDay(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ShiftFilter narrows list queries. Zero values mean "any".
type ShiftFilter struct {
	EmployeeID int64
	Date       string
	FromDate   string
	ToDate     string
	Status     string
	Position   string
}
