package memory

import (
	"context"
	"errors"
	"sync"

	"petsit-admin/internal/domain/sharing"
)

type grantKey struct {
	clientID  string
	granteeID string
}

type SharingRepo struct {
	mu     sync.RWMutex
	byPair map[grantKey]sharing.Grant

	// profiles (opcional) denormaliza nombre/email en ListByClient,
	// como hace el join en el repo de Postgres.
	profiles *ProfilesRepo
}

func NewSharingRepo(profiles *ProfilesRepo) *SharingRepo {
	return &SharingRepo{
		byPair:   make(map[grantKey]sharing.Grant),
		profiles: profiles,
	}
}

func (r *SharingRepo) Create(ctx context.Context, g sharing.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	k := grantKey{g.ClientID, g.SharedWithUserID}
	if _, exists := r.byPair[k]; exists {
		return errors.New("active grant already exists for pair")
	}
	r.byPair[k] = g
	return nil
}

func (r *SharingRepo) Delete(ctx context.Context, clientID, granteeUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := grantKey{clientID, granteeUserID}
	if _, exists := r.byPair[k]; !exists {
		return sharing.ErrNotFound
	}
	delete(r.byPair, k)
	return nil
}

func (r *SharingRepo) GetActive(ctx context.Context, clientID, granteeUserID string) (sharing.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byPair[grantKey{clientID, granteeUserID}]
	if !ok {
		return sharing.Grant{}, sharing.ErrNotFound
	}
	return g, nil
}

func (r *SharingRepo) ListByClient(ctx context.Context, clientID string) ([]sharing.Grantee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sharing.Grantee, 0)
	for k, g := range r.byPair {
		if k.clientID != clientID {
			continue
		}
		ge := sharing.Grantee{Grant: g}
		if r.profiles != nil {
			if res, err := r.profiles.GetByUserID(ctx, g.SharedWithUserID); err == nil {
				ge.FullName = res.User.FullName
				ge.Email = res.User.Email
				ge.AvatarRef = res.User.AvatarRef
			}
		}
		out = append(out, ge)
	}
	return out, nil
}

func (r *SharingRepo) ListByGrantee(ctx context.Context, granteeUserID string) ([]sharing.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sharing.Grant, 0)
	for k, g := range r.byPair {
		if k.granteeID == granteeUserID {
			out = append(out, g)
		}
	}
	return out, nil
}
