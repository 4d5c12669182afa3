package booking

import "github.com/BruksfildServices01/agenda-scheduler/internal/httperr"

// ===============================
// Booking Status
// ===============================

type Status string

const (
	StatusCreated             Status = "CREADO"
	StatusPendingConfirmation Status = "PENDIENTE_CONFIRMACION"
	StatusConfirmed           Status = "CONFIRMADO"
	StatusAttended            Status = "ATENDIDO"
	StatusNoShow              Status = "NO_ASISTIO"
	StatusCancelled           Status = "CANCELADO"
)

// ActiveStatuses are the states a date block considers in conflict.
var ActiveStatuses = []Status{
	StatusCreated,
	StatusPendingConfirmation,
	StatusConfirmed,
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusCreated, StatusPendingConfirmation, StatusConfirmed,
		StatusAttended, StatusNoShow, StatusCancelled:
		return st, true
	}
	return "", false
}

// IsTerminal reports whether no transition may leave the state.
func (s Status) IsTerminal() bool {
	return s == StatusAttended || s == StatusCancelled
}

// ===============================
// Transitions
// ===============================

// allowedFrom lists, per target, the states it may be entered from.
// CREADO is absent: it is only ever the initial state.
var allowedFrom = map[Status][]Status{
	StatusPendingConfirmation: {StatusCreated},
	StatusConfirmed:           {StatusCreated, StatusPendingConfirmation},
	StatusAttended:            {StatusConfirmed},
	StatusNoShow:              {StatusConfirmed},
	StatusCancelled:           {StatusCreated, StatusPendingConfirmation, StatusConfirmed, StatusNoShow},
}

// CanTransition validates from -> to against the lifecycle rules.
func CanTransition(from, to Status) error {
	if from.IsTerminal() {
		return httperr.Validation(
			"invalid_state",
			"O agendamento está %s e não pode mais ser alterado.", from,
		)
	}

	sources, ok := allowedFrom[to]
	if !ok {
		return httperr.Validation("invalid_transition", "Não é possível mudar o agendamento para %s.", to)
	}
	for _, s := range sources {
		if s == from {
			return nil
		}
	}
	return httperr.Validation(
		"invalid_transition",
		"Não é possível mudar o agendamento de %s para %s.", from, to,
	)
}

// InitialStatus is the state every new booking starts in.
func InitialStatus() Status {
	return StatusCreated
}
