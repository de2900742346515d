package permissions

import (
	"context"
	"errors"
	"testing"

	"petsit-admin/internal/domain/profiles"
)

type testRepo struct {
	rows     []Grant
	failWith error
	calls    int
}

func (r *testRepo) ListByProfile(ctx context.Context, profileID string) ([]Grant, error) {
	r.calls++
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := make([]Grant, 0)
	for _, g := range r.rows {
		if g.ProfileID == profileID {
			out = append(out, g)
		}
	}
	return out, nil
}

var partnerProfile = profiles.Profile{ID: "prof-partner", Name: "Partner", IsActive: true}
var adminProfile = profiles.Profile{ID: "prof-admin", Name: "Admin", IsAdmin: true, IsActive: true}

func TestMatrix_PartnerScenario(t *testing.T) {
	repo := &testRepo{rows: []Grant{
		{ProfileID: "prof-partner", Resource: ResourceClients, CanRead: true, CanUpdate: false},
	}}
	m := NewMatrix(repo, nil)
	m.Load(context.Background(), partnerProfile)

	if !m.CanRead(ResourceClients) {
		t.Fatalf("expected canRead(clients)=true")
	}
	if m.CanUpdate(ResourceClients) {
		t.Fatalf("expected canUpdate(clients)=false")
	}
	// Sin fila para visits => default-deny.
	if m.Authorize(ResourceVisits, ActionRead) {
		t.Fatalf("expected authorize(visits, read)=false without a row")
	}
}

func TestMatrix_DefaultDeny_AllActions(t *testing.T) {
	m := NewMatrix(&testRepo{}, nil)
	m.Load(context.Background(), partnerProfile)

	for _, a := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
		if m.Authorize(ResourceReports, a) {
			t.Fatalf("expected deny for %s without a grant row", a)
		}
	}
}

func TestMatrix_AdminBypass_Total(t *testing.T) {
	// El admin ni siquiera debe tocar el repo.
	repo := &testRepo{failWith: errors.New("must not be called")}
	m := NewMatrix(repo, nil)
	m.Load(context.Background(), adminProfile)

	for res := range knownResources {
		for _, a := range []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete} {
			if !m.Authorize(res, a) {
				t.Fatalf("expected admin bypass for %s/%s", res, a)
			}
		}
	}
	if repo.calls != 0 {
		t.Fatalf("expected no repo calls for admin, got %d", repo.calls)
	}
}

func TestMatrix_NoProfile_Denies(t *testing.T) {
	m := NewMatrix(&testRepo{}, nil)

	if m.Authorize(ResourceClients, ActionRead) {
		t.Fatalf("expected deny without a resolved profile")
	}
}

func TestMatrix_LoadFailure_EmptyGrants(t *testing.T) {
	repo := &testRepo{failWith: errors.New("backing store unavailable")}
	m := NewMatrix(repo, nil)
	m.Load(context.Background(), partnerProfile)

	if m.Loading() {
		t.Fatalf("expected loading=false after failed load")
	}
	if m.Authorize(ResourceClients, ActionRead) {
		t.Fatalf("expected deny after failed load")
	}
}

func TestMatrix_Reset_ClearsEverything(t *testing.T) {
	repo := &testRepo{rows: []Grant{
		{ProfileID: "prof-partner", Resource: ResourceClients, CanRead: true},
	}}
	m := NewMatrix(repo, nil)
	m.Load(context.Background(), partnerProfile)

	if !m.CanRead(ResourceClients) {
		t.Fatalf("precondition: expected read access")
	}

	m.Reset()

	if m.CanRead(ResourceClients) {
		t.Fatalf("expected deny after reset")
	}
}

func TestParseResource_RejectsUnknown(t *testing.T) {
	if _, err := ParseResource("invoices"); !errors.Is(err, ErrUnknownResource) {
		t.Fatalf("expected ErrUnknownResource, got %v", err)
	}
	r, err := ParseResource("  Clients ")
	if err != nil || r != ResourceClients {
		t.Fatalf("expected clients, got %q err=%v", r, err)
	}
}

func TestParseAction_RejectsUnknown(t *testing.T) {
	if _, err := ParseAction("approve"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	a, err := ParseAction("READ")
	if err != nil || a != ActionRead {
		t.Fatalf("expected read, got %q err=%v", a, err)
	}
}
