package profiles

import (
	"context"
	"errors"
	"strings"

	"petsit-admin/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound cubre identidad inexistente, asignación faltante y
	// perfil desactivado: el caller no puede (ni debe) distinguirlos.
	ErrNotFound = errors.New("profile not found")
)

// Resolver carga la asignación de perfil de una identidad autenticada.
// Fail-closed: cualquier error del backing store se reporta como ErrNotFound,
// nunca como acceso elevado.
type Resolver struct {
	repo Repository
	log  logger.Logger
}

func NewResolver(repo Repository, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{repo: repo, log: log}
}

func (r *Resolver) Resolve(ctx context.Context, userID string) (Resolved, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Resolved{}, ErrNotFound
	}

	res, err := r.repo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.Warn("profiles: resolve failed, treating as not found", map[string]any{
				"user_id": userID,
				"err":     err.Error(),
			})
		}
		return Resolved{}, ErrNotFound
	}

	if !res.Usable() {
		r.log.Info("profiles: inactive profile, access denied", map[string]any{
			"user_id": userID,
			"profile": res.Profile.Name,
		})
		return Resolved{}, ErrNotFound
	}

	return res, nil
}

// ListActive lista perfiles usables para la selección de grantees.
// Filtra de nuevo por Usable por si el repo devuelve data sucia.
func (r *Resolver) ListActive(ctx context.Context) ([]Resolved, error) {
	items, err := r.repo.ListActive(ctx)
	if err != nil {
		r.log.Warn("profiles: list active failed", logger.Err(err))
		return nil, err
	}

	out := make([]Resolved, 0, len(items))
	for _, it := range items {
		if it.Usable() {
			out = append(out, it)
		}
	}
	return out, nil
}
