package memory

import (
	"context"
	"sync"

	"petsit-admin/internal/domain/permissions"
)

type PermissionsRepo struct {
	mu        sync.RWMutex
	byProfile map[string][]permissions.Grant
}

func NewPermissionsRepo() *PermissionsRepo {
	return &PermissionsRepo{
		byProfile: make(map[string][]permissions.Grant),
	}
}

// SetGrants reemplaza las filas de un profile (seed de dev/tests).
func (r *PermissionsRepo) SetGrants(profileID string, grants []permissions.Grant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]permissions.Grant, 0, len(grants))
	for _, g := range grants {
		g.ProfileID = profileID
		rows = append(rows, g)
	}
	r.byProfile[profileID] = rows
}

func (r *PermissionsRepo) ListByProfile(ctx context.Context, profileID string) ([]permissions.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.byProfile[profileID]
	out := make([]permissions.Grant, len(rows))
	copy(out, rows)
	return out, nil
}
