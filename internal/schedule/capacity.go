package schedule

import "maitred/internal/models"

// EffectiveCapacity is the capacity that applies to one (date, time) slot
// after blocks and overrides are folded over the global default.
type EffectiveCapacity struct {
	Capacity      int
	Blocked       bool
	BlockedReason string
}

// ResolveCapacity merges the settings policy for a slot. Checks short-circuit
// in order: blocked date, blocked slot, per-slot override, global default.
func ResolveCapacity(settings *models.CapacitySettings, date, clock string) EffectiveCapacity {
	if settings.IsDateBlocked(date) {
		return EffectiveCapacity{Blocked: true, BlockedReason: "date blocked"}
	}
	if settings.IsSlotBlocked(date, clock) {
		return EffectiveCapacity{Blocked: true, BlockedReason: "slot blocked"}
	}
	if override, ok := settings.SlotCapacityOverrides[models.SlotKey(date, clock)]; ok {
		return EffectiveCapacity{Capacity: override}
	}
	return EffectiveCapacity{Capacity: settings.MaxCapacity}
}
