package schedule

import "maitred/internal/models"

// ReservedLoad sums party sizes of active reservations whose dining window
// overlaps the given window. Every reservation occupies diningDuration minutes
// from its start time; cancelled, no-show and completed reservations are
// skipped. Returns the summed load and the number of overlapping reservations.
func ReservedLoad(reservations []*models.Reservation, window Interval, diningDuration int) (int, int) {
	load := 0
	conflicting := 0
	for _, r := range reservations {
		if !r.IsActive() {
			continue
		}
		start, err := ParseClock(r.Time)
		if err != nil {
			continue
		}
		if Overlaps(NewInterval(start, diningDuration), window) {
			load += r.PartySize
			conflicting++
		}
	}
	return load, conflicting
}

// OverlappingShifts filters shifts whose [start, end) window intersects the
// given window, skipping inactive shifts and the excluded id (the shift being
// updated must not conflict with itself).
func OverlappingShifts(shifts []*models.Shift, window Interval, excludeID int64) []*models.Shift {
	var conflicts []*models.Shift
	for _, s := range shifts {
		if s.ID == excludeID || !s.IsActive() {
			continue
		}
		w, err := ClockInterval(s.StartTime, s.EndTime)
		if err != nil {
			continue
		}
		if Overlaps(w, window) {
			conflicts = append(conflicts, s)
		}
	}
	return conflicts
}
