package schedule

import "maitred/internal/models"

// DeriveShiftType classifies a shift by its start hour and gross duration.
// Used when a shift is created or retimed without an explicit type. A split
// shift is never derived; models.ShiftSplit only appears when set explicitly.
func DeriveShiftType(startClock, endClock string) (string, error) {
	window, err := ClockInterval(startClock, endClock)
	if err != nil {
		return "", err
	}

	if window.Duration() >= 10*60 {
		return models.ShiftFullDay, nil
	}

	startHour := window.Start / 60
	switch {
	case startHour < 12:
		return models.ShiftMorning, nil
	case startHour < 17:
		return models.ShiftAfternoon, nil
	default:
		return models.ShiftEvening, nil
	}
}
