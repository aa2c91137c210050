package service

import "maitred/internal/models"

// The single source of truth for which status moves are legal. Guards beyond
// state membership (cutoffs, table number, actor role) live with the methods
// that trigger the transition.
var reservationTransitions = map[string][]string{
	models.ReservationPending:   {models.ReservationConfirmed, models.ReservationCancelled},
	models.ReservationConfirmed: {models.ReservationSeated, models.ReservationCancelled, models.ReservationNoShow},
	models.ReservationSeated:    {models.ReservationCompleted, models.ReservationNoShow},
	// completed, cancelled and no-show are terminal
}

var shiftTransitions = map[string][]string{
	models.ShiftScheduled:  {models.ShiftInProgress, models.ShiftCancelled, models.ShiftNoShow},
	models.ShiftInProgress: {models.ShiftCompleted},
}

func canTransition(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// reservationTransition validates a status move, returning the typed error
// naming both states when it is not in the table.
func reservationTransition(from, to string) error {
	if !canTransition(reservationTransitions, from, to) {
		return &InvalidTransitionError{Entity: "reservation", From: from, To: to}
	}
	return nil
}

func shiftTransition(from, to string) error {
	if !canTransition(shiftTransitions, from, to) {
		return &InvalidTransitionError{Entity: "shift", From: from, To: to}
	}
	return nil
}
