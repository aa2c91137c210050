package models

import "time"

// CapacitySettings is the restaurant-wide booking policy singleton.
// Slot override keys use the "YYYY-MM-DD_HH:MM" form; blocked slots map a
// date to the list of blocked start times on that date.
type CapacitySettings struct {
	MaxCapacity    int `json:"max_capacity" yaml:"max_capacity"`
	DiningDuration int `json:"dining_duration" yaml:"dining_duration"` // minutes

	SlotCapacityOverrides map[string]int      `json:"slot_capacity_overrides" yaml:"slot_capacity_overrides"`
	BlockedDates          []string            `json:"blocked_dates" yaml:"blocked_dates"`
	BlockedSlots          map[string][]string `json:"blocked_slots" yaml:"blocked_slots"`

	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
	Version   int64     `json:"version" yaml:"-"`
}

// DefaultCapacitySettings returns the policy used until staff configure one.
func DefaultCapacitySettings() *CapacitySettings {
	return &CapacitySettings{
		MaxCapacity:           DefaultMaxCapacity,
		DiningDuration:        DefaultDiningDuration,
		SlotCapacityOverrides: map[string]int{},
		BlockedSlots:          map[string][]string{},
	}
}

// Clone returns a deep copy. Cached and in-flight copies must never share
// the override maps or the blocked-date slices.
func (c *CapacitySettings) Clone() *CapacitySettings {
	if c == nil {
		return nil
	}
	clone := *c
	if c.SlotCapacityOverrides != nil {
		clone.SlotCapacityOverrides = make(map[string]int, len(c.SlotCapacityOverrides))
		for key, capacity := range c.SlotCapacityOverrides {
			clone.SlotCapacityOverrides[key] = capacity
		}
	}
	if c.BlockedDates != nil {
		clone.BlockedDates = append([]string(nil), c.BlockedDates...)
	}
	if c.BlockedSlots != nil {
		clone.BlockedSlots = make(map[string][]string, len(c.BlockedSlots))
		for date, slots := range c.BlockedSlots {
			clone.BlockedSlots[date] = append([]string(nil), slots...)
		}
	}
	return &clone
}

// SlotKey builds the override key for a (date, time) pair.
func SlotKey(date, clock string) string {
	return date + "_" + clock
}

// IsDateBlocked reports whether the whole date has zero capacity.
func (c *CapacitySettings) IsDateBlocked(date string) bool {
	for _, d := range c.BlockedDates {
		if d == date {
			return true
		}
	}
	return false
}

// IsSlotBlocked reports whether the exact (date, time) slot is blocked.
func (c *CapacitySettings) IsSlotBlocked(date, clock string) bool {
	for _, t := range c.BlockedSlots[date] {
		if t == clock {
			return true
		}
	}
	return false
}
