package memory

import (
	"context"
	"sync"

	"petsit-admin/internal/domain/profiles"
)

type ProfilesRepo struct {
	mu       sync.RWMutex
	byUserID map[string]profiles.Resolved
}

func NewProfilesRepo() *ProfilesRepo {
	return &ProfilesRepo{
		byUserID: make(map[string]profiles.Resolved),
	}
}

// Seed instala (o reemplaza) la asignación de un usuario.
// Para modo dev y tests; en producción esto es data administrada.
func (r *ProfilesRepo) Seed(res profiles.Resolved) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUserID[res.User.UserID] = res
}

func (r *ProfilesRepo) GetByUserID(ctx context.Context, userID string) (profiles.Resolved, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.byUserID[userID]
	if !ok {
		return profiles.Resolved{}, profiles.ErrNotFound
	}
	return res, nil
}

func (r *ProfilesRepo) ListActive(ctx context.Context) ([]profiles.Resolved, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]profiles.Resolved, 0)
	for _, res := range r.byUserID {
		if res.Usable() {
			out = append(out, res)
		}
	}
	return out, nil
}
