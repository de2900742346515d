package visits

import "time"

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Visit es la asignación de trabajo de un sitter para un cliente.
// Este paquete solo expone el read-side que necesita el chequeo de
// impacto pre-revocación; el CRUD de visitas vive en otro módulo.
type Visit struct {
	ID           string
	ClientID     string
	SitterUserID string

	ScheduledDate time.Time
	Status        Status
}

// Open reporta si la visita sigue viva: abierta por estado, o agendada a
// futuro. Una cancelada nunca cuenta, aunque su fecha sea futura.
func (v Visit) Open(now time.Time) bool {
	switch v.Status {
	case StatusScheduled, StatusInProgress:
		return true
	case StatusCancelled:
		return false
	}
	return v.ScheduledDate.After(now)
}
