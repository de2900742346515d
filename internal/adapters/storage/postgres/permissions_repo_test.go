package postgres

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"petsit-admin/internal/domain/permissions"
)

func TestPermissionsRepo_ListByProfile(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	cols := []string{"profile_id", "resource", "can_read", "can_create", "can_update", "can_delete"}
	mock.ExpectQuery(`SELECT .+ FROM permissions`).
		WithArgs("prof-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("prof-1", "clients", true, false, false, false).
			AddRow("prof-1", "visits", true, true, true, false))

	repo := NewPermissionsRepo(db)
	grants, err := repo.ListByProfile(context.Background(), "prof-1")
	if err != nil {
		t.Fatalf("ListByProfile error: %v", err)
	}
	if len(grants) != 2 {
		t.Fatalf("expected 2 grants, got %d", len(grants))
	}
	if grants[0].Resource != permissions.ResourceClients || !grants[0].CanRead || grants[0].CanUpdate {
		t.Fatalf("unexpected first grant: %+v", grants[0])
	}
	if grants[1].Resource != permissions.ResourceVisits || !grants[1].CanUpdate {
		t.Fatalf("unexpected second grant: %+v", grants[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPermissionsRepo_ListByProfile_SkipsUnknownResource(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	cols := []string{"profile_id", "resource", "can_read", "can_create", "can_update", "can_delete"}
	mock.ExpectQuery(`SELECT .+ FROM permissions`).
		WithArgs("prof-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("prof-1", "warehouses", true, true, true, true).
			AddRow("prof-1", "pets", true, false, false, false))

	repo := NewPermissionsRepo(db)
	grants, err := repo.ListByProfile(context.Background(), "prof-1")
	if err != nil {
		t.Fatalf("ListByProfile error: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected the unknown tag skipped, got %d grants", len(grants))
	}
	if grants[0].Resource != permissions.ResourcePets {
		t.Fatalf("unexpected surviving grant: %+v", grants[0])
	}
}

func TestPermissionsRepo_ListByProfile_BlankProfileSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewPermissionsRepo(db)
	grants, err := repo.ListByProfile(context.Background(), "  ")
	if err != nil {
		t.Fatalf("ListByProfile error: %v", err)
	}
	if len(grants) != 0 {
		t.Fatalf("expected no grants, got %d", len(grants))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected query issued: %v", err)
	}
}
