package sharing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProfileDirectory valida destinatarios sin importar el paquete profiles
// (mismo truco que el lookup de owners: evita acoplar módulos entre sí).
type ProfileDirectory interface {
	IsActiveUser(ctx context.Context, userID string) (bool, error)
}

// Service administra los sharing grants de clientes.
//
// El chequeo de impacto pre-revocación (visitas abiertas/futuras del
// grantee para ese cliente) es del caller: esas filas pertenecen a otro
// dominio y este store no conoce su schema. Acá Revoke siempre borra.
type Service struct {
	repo      Repository
	directory ProfileDirectory
	now       func() time.Time
}

func NewService(repo Repository, directory ProfileDirectory) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		now:       time.Now,
	}
}

type CreateInput struct {
	ClientID          string
	SharedByUserID    string
	SharedWithUserID  string
	AccessLevel       AccessLevel
	FieldRestrictions []string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Grant, error) {
	clientID := strings.TrimSpace(in.ClientID)
	byID := strings.TrimSpace(in.SharedByUserID)
	withID := strings.TrimSpace(in.SharedWithUserID)

	if clientID == "" || byID == "" || withID == "" {
		return Grant{}, ErrInvalidInput
	}
	if byID == withID {
		return Grant{}, ErrInvalidInput
	}

	level := in.AccessLevel
	if level == "" {
		level = AccessRead
	}
	if level != AccessRead && level != AccessWrite {
		return Grant{}, ErrInvalidInput
	}

	if s.directory != nil {
		ok, err := s.directory.IsActiveUser(ctx, withID)
		if err != nil || !ok {
			return Grant{}, ErrInvalidTarget
		}
	}

	// Unicidad: a lo sumo un grant activo por (cliente, grantee).
	if existing, err := s.repo.GetActive(ctx, clientID, withID); err == nil {
		return Grant{}, &ConflictError{ExistingID: existing.ID}
	} else if !errors.Is(err, ErrNotFound) {
		return Grant{}, err
	}

	g := Grant{
		ID:                uuid.NewString(),
		ClientID:          clientID,
		SharedByUserID:    byID,
		SharedWithUserID:  withID,
		AccessLevel:       level,
		FieldRestrictions: normalizeRestrictions(in.FieldRestrictions),
		SharedAt:          s.now(),
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// Revoke borra el grant activo del par. Incondicional: el warning por
// asignaciones vivas ya lo resolvió (o ignoró) el caller.
func (s *Service) Revoke(ctx context.Context, clientID, granteeUserID string) error {
	clientID = strings.TrimSpace(clientID)
	granteeUserID = strings.TrimSpace(granteeUserID)

	if clientID == "" || granteeUserID == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, clientID, granteeUserID)
}

func (s *Service) ListGrantees(ctx context.Context, clientID string) ([]Grantee, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByClient(ctx, clientID)
}

func (s *Service) ActiveGrant(ctx context.Context, clientID, granteeUserID string) (Grant, error) {
	clientID = strings.TrimSpace(clientID)
	granteeUserID = strings.TrimSpace(granteeUserID)

	if clientID == "" || granteeUserID == "" {
		return Grant{}, ErrInvalidInput
	}
	return s.repo.GetActive(ctx, clientID, granteeUserID)
}

// ListByGrantee lista los clientes compartidos CON un usuario ("shared with me").
func (s *Service) ListByGrantee(ctx context.Context, granteeUserID string) ([]Grant, error) {
	granteeUserID = strings.TrimSpace(granteeUserID)
	if granteeUserID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByGrantee(ctx, granteeUserID)
}

func normalizeRestrictions(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, f := range in {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
