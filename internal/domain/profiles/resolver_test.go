package profiles

import (
	"context"
	"errors"
	"testing"
)

type testRepo struct {
	byUserID map[string]Resolved
	failWith error
}

func newTestRepo() *testRepo {
	return &testRepo{byUserID: map[string]Resolved{}}
}

func (r *testRepo) GetByUserID(ctx context.Context, userID string) (Resolved, error) {
	if r.failWith != nil {
		return Resolved{}, r.failWith
	}
	res, ok := r.byUserID[userID]
	if !ok {
		return Resolved{}, ErrNotFound
	}
	return res, nil
}

func (r *testRepo) ListActive(ctx context.Context) ([]Resolved, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := make([]Resolved, 0)
	for _, res := range r.byUserID {
		out = append(out, res)
	}
	return out, nil
}

func seed(r *testRepo, userID string, userActive, profileActive, admin bool) {
	r.byUserID[userID] = Resolved{
		User: UserProfile{
			ID:        "up-" + userID,
			UserID:    userID,
			ProfileID: "prof-1",
			FullName:  "Test User",
			IsActive:  userActive,
		},
		Profile: Profile{
			ID:       "prof-1",
			Name:     "Partner",
			IsAdmin:  admin,
			IsActive: profileActive,
		},
	}
}

func TestResolver_Resolve_OK(t *testing.T) {
	repo := newTestRepo()
	seed(repo, "user-1", true, true, false)

	res, err := NewResolver(repo, nil).Resolve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if res.Profile.Name != "Partner" || res.User.UserID != "user-1" {
		t.Fatalf("unexpected resolved profile: %+v", res)
	}
}

func TestResolver_Resolve_MissingIsNotFound(t *testing.T) {
	repo := newTestRepo()

	_, err := NewResolver(repo, nil).Resolve(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolver_Resolve_InactiveUserProfile_FailsClosed(t *testing.T) {
	repo := newTestRepo()
	seed(repo, "user-1", false, true, false)

	_, err := NewResolver(repo, nil).Resolve(context.Background(), "user-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive assignment, got %v", err)
	}
}

func TestResolver_Resolve_InactiveProfile_FailsClosed(t *testing.T) {
	repo := newTestRepo()
	seed(repo, "user-1", true, false, false)

	_, err := NewResolver(repo, nil).Resolve(context.Background(), "user-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive profile, got %v", err)
	}
}

func TestResolver_Resolve_StoreErrorIsNotFound(t *testing.T) {
	repo := newTestRepo()
	repo.failWith = errors.New("connection refused")

	// Errores del backing store jamás escalan acceso: mismo trato que missing.
	_, err := NewResolver(repo, nil).Resolve(context.Background(), "user-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on store error, got %v", err)
	}
}

func TestResolver_Resolve_EmptyIdentity(t *testing.T) {
	repo := newTestRepo()

	_, err := NewResolver(repo, nil).Resolve(context.Background(), "   ")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank identity, got %v", err)
	}
}

func TestResolver_ListActive_FiltersUnusable(t *testing.T) {
	repo := newTestRepo()
	seed(repo, "user-1", true, true, false)
	seed(repo, "user-2", false, true, false)

	items, err := NewResolver(repo, nil).ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive error: %v", err)
	}
	if len(items) != 1 || items[0].User.UserID != "user-1" {
		t.Fatalf("expected only user-1, got %+v", items)
	}
}
