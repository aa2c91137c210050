package schedule

// Interval is a half-open [Start, End) window in minutes since midnight.
// End may exceed 24h for windows that run past midnight.
type Interval struct {
	Start int
	End   int
}

// NewInterval builds a window from a start and a duration in minutes.
func NewInterval(start, duration int) Interval {
	return Interval{Start: start, End: start + duration}
}

// ClockInterval builds a window from "HH:MM" start and end strings. An end at
// or before the start is treated as next-day.
func ClockInterval(startClock, endClock string) (Interval, error) {
	start, err := ParseClock(startClock)
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseClock(endClock)
	if err != nil {
		return Interval{}, err
	}
	if end <= start {
		end += minutesPerDay
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns the window length in minutes.
func (i Interval) Duration() int {
	return i.End - i.Start
}

// Overlaps reports whether two half-open windows on the same day intersect.
// Windows that merely touch ([09:00,13:00) and [13:00,17:00)) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}
