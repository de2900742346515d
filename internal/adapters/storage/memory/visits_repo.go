package memory

import (
	"context"
	"sync"

	"petsit-admin/internal/domain/visits"
)

type VisitsRepo struct {
	mu    sync.RWMutex
	items []visits.Visit
}

func NewVisitsRepo() *VisitsRepo {
	return &VisitsRepo{}
}

func (r *VisitsRepo) Add(v visits.Visit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, v)
}

func (r *VisitsRepo) ListByClientSitter(ctx context.Context, clientID, sitterUserID string) ([]visits.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]visits.Visit, 0)
	for _, v := range r.items {
		if v.ClientID == clientID && v.SitterUserID == sitterUserID {
			out = append(out, v)
		}
	}
	return out, nil
}
