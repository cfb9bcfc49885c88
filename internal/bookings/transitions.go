package bookings

import (
	"github.com/resourcebook/backend/internal/events"
	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/pkg/apperror"
)

// Action is a lifecycle transition requested on an existing booking.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// Actions lists every transition action.
var Actions = []Action{ActionApprove, ActionStart, ActionComplete, ActionCancel}

type transition struct {
	from  []models.BookingStatus
	to    models.BookingStatus
	event events.Type
}

var transitions = map[Action]transition{
	ActionApprove:  {from: []models.BookingStatus{models.BookingInitial}, to: models.BookingApproved, event: events.BookingApproved},
	ActionStart:    {from: []models.BookingStatus{models.BookingApproved}, to: models.BookingInProgress, event: events.BookingStarted},
	ActionComplete: {from: []models.BookingStatus{models.BookingInProgress}, to: models.BookingCompleted, event: events.BookingCompleted},
	ActionCancel:   {from: []models.BookingStatus{models.BookingInitial, models.BookingApproved}, to: models.BookingCancelled, event: events.BookingCancelled},
}

// Next returns the state reached by applying a to a booking in state from,
// or an InvalidTransition error naming both states.
func Next(from models.BookingStatus, a Action) (models.BookingStatus, error) {
	t, ok := transitions[a]
	if !ok {
		return "", apperror.Validation("unknown action %q", a)
	}
	for _, s := range t.from {
		if s == from {
			return t.to, nil
		}
	}
	return "", apperror.InvalidTransition(string(from), string(t.to))
}
