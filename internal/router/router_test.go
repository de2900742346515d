package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mem "petsit-admin/internal/adapters/storage/memory"
	"petsit-admin/internal/domain/fieldsec"
	"petsit-admin/internal/domain/permissions"
	"petsit-admin/internal/domain/profiles"
	"petsit-admin/internal/domain/visits"
	"petsit-admin/internal/platform/logger"
)

// Fixture end-to-end en modo dev (X-Debug-User-ID):
//   - ana: profile owner, activo, con clients read+update
//   - bruno: profile sitter, activo, sin permisos sobre clients
//   - ghost: sin profile
// FLS: el profile owner no puede leer user_profiles.phone.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	profRepo := mem.NewProfilesRepo()
	permRepo := mem.NewPermissionsRepo()
	fieldRepo := mem.NewFieldSecRepo()
	visitRepo := mem.NewVisitsRepo()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	profRepo.Seed(profiles.Resolved{
		User: profiles.UserProfile{
			ID: "up-ana", UserID: "ana", ProfileID: "prof-owner",
			FullName: "Ana Torres", Email: "ana@petsit.app",
			Phone: "+54 11 5555-0001", IsActive: true,
		},
		Profile: profiles.Profile{ID: "prof-owner", Name: "owner", IsActive: true},
	})
	profRepo.Seed(profiles.Resolved{
		User: profiles.UserProfile{
			ID: "up-bruno", UserID: "bruno", ProfileID: "prof-sitter",
			FullName: "Bruno Díaz", Email: "bruno@petsit.app", IsActive: true,
		},
		Profile: profiles.Profile{ID: "prof-sitter", Name: "sitter", IsActive: true},
	})

	permRepo.SetGrants("prof-owner", []permissions.Grant{
		{ProfileID: "prof-owner", Resource: permissions.ResourceClients, CanRead: true, CanUpdate: true},
	})
	// prof-sitter: sin grants => default deny en clients

	fieldRepo.SetRules("prof-owner", fieldsec.TableUserProfiles, []fieldsec.Rule{
		{ProfileID: "prof-owner", Table: fieldsec.TableUserProfiles, Field: "phone", CanRead: false},
	})

	visitRepo.Add(visits.Visit{
		ID: "visit-1", ClientID: "client-1", SitterUserID: "bruno",
		ScheduledDate: now.Add(48 * time.Hour), Status: visits.StatusScheduled,
	})

	return NewRouter(Options{
		Log: logger.Nop(),
		Repos: &Repos{
			Profiles:    profRepo,
			Permissions: permRepo,
			Fields:      fieldRepo,
			Sharing:     mem.NewSharingRepo(profRepo),
			Visits:      visitRepo,
		},
	})
}

func doRequest(t *testing.T, h http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestRouter_Health(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_GrantLifecycle(t *testing.T) {
	h := newTestHandler(t)

	// Crear
	rec := doRequest(t, h, http.MethodPost, "/clients/client-1/grants", "ana",
		`{"grantee_user_id":"bruno","access_level":"read"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID               string `json:"id"`
		SharedWithUserID string `json:"shared_with_user_id"`
	}
	decodeBody(t, rec, &created)
	if created.ID == "" || created.SharedWithUserID != "bruno" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	// Duplicado => 409 con el id existente
	rec = doRequest(t, h, http.MethodPost, "/clients/client-1/grants", "ana",
		`{"grantee_user_id":"bruno"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rec.Code)
	}
	var conflict struct {
		ExistingGrantID string `json:"existing_grant_id"`
	}
	decodeBody(t, rec, &conflict)
	if conflict.ExistingGrantID != created.ID {
		t.Fatalf("expected existing_grant_id %q, got %q", created.ID, conflict.ExistingGrantID)
	}

	// Listado de grantees, denormalizado
	rec = doRequest(t, h, http.MethodGet, "/clients/client-1/grants", "ana", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var grantees []struct {
		SharedWithUserID string `json:"shared_with_user_id"`
		FullName         string `json:"full_name"`
	}
	decodeBody(t, rec, &grantees)
	if len(grantees) != 1 || grantees[0].FullName != "Bruno Díaz" {
		t.Fatalf("unexpected grantees: %+v", grantees)
	}

	// El grantee ve el share
	rec = doRequest(t, h, http.MethodGet, "/me/shared", "bruno", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("me/shared: expected 200, got %d", rec.Code)
	}
	var shared []struct {
		ClientID string `json:"client_id"`
	}
	decodeBody(t, rec, &shared)
	if len(shared) != 1 || shared[0].ClientID != "client-1" {
		t.Fatalf("unexpected shared list: %+v", shared)
	}

	// Revocar: borra siempre y avisa por la visita agendada del par
	rec = doRequest(t, h, http.MethodDelete, "/clients/client-1/grants/bruno", "ana", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("revoke: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var revoked struct {
		Revoked  bool `json:"revoked"`
		Warnings []struct {
			VisitID string `json:"visit_id"`
		} `json:"warnings"`
	}
	decodeBody(t, rec, &revoked)
	if !revoked.Revoked {
		t.Fatal("expected revoked true")
	}
	if len(revoked.Warnings) != 1 || revoked.Warnings[0].VisitID != "visit-1" {
		t.Fatalf("expected warning for visit-1, got %+v", revoked.Warnings)
	}

	// Y el grantee deja de verlo
	rec = doRequest(t, h, http.MethodGet, "/me/shared", "bruno", "")
	decodeBody(t, rec, &shared)
	if len(shared) != 0 {
		t.Fatalf("expected empty shared list after revoke, got %+v", shared)
	}
}

func TestRouter_GrantGuards(t *testing.T) {
	h := newTestHandler(t)

	// Sin identidad => 401
	rec := doRequest(t, h, http.MethodPost, "/clients/client-1/grants", "",
		`{"grantee_user_id":"bruno"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rec.Code)
	}

	// Sitter sin permisos sobre clients => 403
	rec = doRequest(t, h, http.MethodPost, "/clients/client-1/grants", "bruno",
		`{"grantee_user_id":"ana"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("sitter: expected 403, got %d", rec.Code)
	}

	// Identidad sin profile => 403, indistinguible de sin permisos
	rec = doRequest(t, h, http.MethodGet, "/clients/client-1/grants", "ghost", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("ghost: expected 403, got %d", rec.Code)
	}

	// Grantee inexistente => 422
	rec = doRequest(t, h, http.MethodPost, "/clients/client-1/grants", "ana",
		`{"grantee_user_id":"nobody"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid target: expected 422, got %d", rec.Code)
	}
}

func TestRouter_MeProfile_FiltersFields(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/me/profile", "ana", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["full_name"] != "Ana Torres" {
		t.Fatalf("unexpected full_name: %v", body["full_name"])
	}
	if _, ok := body["phone"]; ok {
		t.Fatalf("phone should be filtered out, body=%v", body)
	}

	// Sin profile => 404
	rec = doRequest(t, h, http.MethodGet, "/me/profile", "ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("ghost: expected 404, got %d", rec.Code)
	}

	// Sin identidad => 401
	rec = doRequest(t, h, http.MethodGet, "/me/profile", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rec.Code)
	}
}

func TestRouter_ListActiveUsers(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/users/active", "ana", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var users []struct {
		UserID  string `json:"user_id"`
		Profile string `json:"profile"`
	}
	decodeBody(t, rec, &users)
	if len(users) != 2 {
		t.Fatalf("expected 2 active users, got %+v", users)
	}

	// El sitter no tiene clients:read => no elige grantees
	rec = doRequest(t, h, http.MethodGet, "/users/active", "bruno", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("sitter: expected 403, got %d", rec.Code)
	}
}

func TestRouter_Logout(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/me/profile", "ana", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodPost, "/auth/logout", "ana", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}

	// El próximo request re-ancla la sesión y vuelve a resolver
	rec = doRequest(t, h, http.MethodGet, "/me/profile", "ana", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("re-login: expected 200, got %d", rec.Code)
	}
}
