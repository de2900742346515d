package permissions

import (
	"errors"
	"strings"
)

var (
	ErrUnknownResource = errors.New("unknown resource")
	ErrUnknownAction   = errors.New("unknown action")
)

// Resource es el set cerrado de entidades sujetas a permisos CRUD.
// Los nombres llegan como strings desde la config/HTTP; se validan acá
// para que un tag desconocido falle rápido en vez de default-ear silencioso.
type Resource string

const (
	ResourceClients  Resource = "clients"
	ResourcePets     Resource = "pets"
	ResourceServices Resource = "services"
	ResourceVisits   Resource = "visits"
	ResourceSitters  Resource = "sitters"
	ResourcePayments Resource = "payments"
	ResourceReports  Resource = "reports"
	ResourceSettings Resource = "settings"
)

var knownResources = map[Resource]struct{}{
	ResourceClients:  {},
	ResourcePets:     {},
	ResourceServices: {},
	ResourceVisits:   {},
	ResourceSitters:  {},
	ResourcePayments: {},
	ResourceReports:  {},
	ResourceSettings: {},
}

func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownResources[r]; !ok {
		return "", ErrUnknownResource
	}
	return r, nil
}

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionRead:
		return ActionRead, nil
	case ActionCreate:
		return ActionCreate, nil
	case ActionUpdate:
		return ActionUpdate, nil
	case ActionDelete:
		return ActionDelete, nil
	default:
		return "", ErrUnknownAction
	}
}

// Grant es la fila de permisos de un profile sobre un resource.
// Data de referencia configurada por el admin; read-only para este subsistema.
type Grant struct {
	ProfileID string
	Resource  Resource

	CanRead   bool
	CanCreate bool
	CanUpdate bool
	CanDelete bool
}

// Allows devuelve el flag correspondiente a la acción.
func (g Grant) Allows(a Action) bool {
	switch a {
	case ActionRead:
		return g.CanRead
	case ActionCreate:
		return g.CanCreate
	case ActionUpdate:
		return g.CanUpdate
	case ActionDelete:
		return g.CanDelete
	default:
		return false
	}
}
