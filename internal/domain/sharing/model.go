package sharing

import (
	"errors"
	"strings"
	"time"
)

// AccessLevel del grant: lectura sola o lectura+edición del registro
// del cliente. No otorga bypass de FLS: la visibilidad por field del
// grantee sigue acotada por su propia matriz.
type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
)

func ParseAccessLevel(s string) (AccessLevel, error) {
	switch AccessLevel(strings.ToLower(strings.TrimSpace(s))) {
	case AccessRead:
		return AccessRead, nil
	case AccessWrite:
		return AccessWrite, nil
	default:
		return "", ErrInvalidInput
	}
}

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("grant not found")

	// ErrConflict: ya existe un grant activo para el par (cliente, grantee).
	ErrConflict = errors.New("grant already exists")

	// ErrInvalidTarget: el grantee no resuelve a un perfil activo.
	ErrInvalidTarget = errors.New("grantee has no active profile")
)

// ConflictError lleva la identidad del grant existente; el caller la
// necesita para mostrar/editar el grant vigente en vez del duplicado.
type ConflictError struct {
	ExistingID string
}

func (e *ConflictError) Error() string {
	return "active grant already exists: " + e.ExistingID
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Grant delega acceso de lectura (u opcionalmente escritura) sobre el
// registro de un cliente, de un usuario a otro. Revocable en cualquier
// momento; como máximo un grant activo por (cliente, grantee).
type Grant struct {
	ID string

	ClientID string

	SharedByUserID   string
	SharedWithUserID string

	AccessLevel AccessLevel

	// FieldRestrictions (opcional) lista fields que este grant NO expone,
	// por encima de lo que ya recorte la FLS del grantee.
	FieldRestrictions []string

	SharedAt time.Time
}

// Grantee es el grant denormalizado con los datos de presentación del
// usuario, para la vista "quién puede ver este cliente".
type Grantee struct {
	Grant

	FullName  string
	Email     string
	AvatarRef string
}
