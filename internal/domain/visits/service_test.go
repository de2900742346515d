package visits

import (
	"context"
	"testing"
	"time"
)

type testRepo struct {
	items []Visit
}

func (r *testRepo) ListByClientSitter(ctx context.Context, clientID, sitterUserID string) ([]Visit, error) {
	out := make([]Visit, 0)
	for _, v := range r.items {
		if v.ClientID == clientID && v.SitterUserID == sitterUserID {
			out = append(out, v)
		}
	}
	return out, nil
}

func TestService_OpenAssignments(t *testing.T) {
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	repo := &testRepo{items: []Visit{
		{ID: "v1", ClientID: "c1", SitterUserID: "u2", Status: StatusScheduled, ScheduledDate: now.Add(-24 * time.Hour)},
		{ID: "v2", ClientID: "c1", SitterUserID: "u2", Status: StatusCompleted, ScheduledDate: now.Add(-48 * time.Hour)},
		{ID: "v3", ClientID: "c1", SitterUserID: "u2", Status: StatusCompleted, ScheduledDate: now.Add(24 * time.Hour)},
		{ID: "v4", ClientID: "c1", SitterUserID: "u2", Status: StatusCancelled, ScheduledDate: now.Add(24 * time.Hour)},
		{ID: "v5", ClientID: "c1", SitterUserID: "otro", Status: StatusScheduled, ScheduledDate: now.Add(24 * time.Hour)},
	}}

	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	open, err := svc.OpenAssignments(context.Background(), "c1", "u2")
	if err != nil {
		t.Fatalf("OpenAssignments error: %v", err)
	}

	ids := map[string]bool{}
	for _, v := range open {
		ids[v.ID] = true
	}
	// v1 abierta por estado, v3 futura; v2 cerrada, v4 cancelada, v5 de otro sitter.
	if len(open) != 2 || !ids["v1"] || !ids["v3"] {
		t.Fatalf("expected v1+v3, got %#v", open)
	}
}

func TestService_OpenAssignments_InvalidInput(t *testing.T) {
	svc := NewService(&testRepo{})
	if _, err := svc.OpenAssignments(context.Background(), "", "u2"); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
