package postgres

import (
	"context"
	"database/sql"
	"strings"

	"petsit-admin/internal/domain/permissions"
)

type PermissionsRepo struct {
	db *sql.DB
}

func NewPermissionsRepo(db *sql.DB) *PermissionsRepo {
	return &PermissionsRepo{db: db}
}

func (r *PermissionsRepo) ListByProfile(ctx context.Context, profileID string) ([]permissions.Grant, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT profile_id, resource, can_read, can_create, can_update, can_delete
		FROM permissions
		WHERE profile_id = $1
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]permissions.Grant, 0)
	for rows.Next() {
		var g permissions.Grant
		var resource string

		if err := rows.Scan(
			&g.ProfileID,
			&resource,
			&g.CanRead,
			&g.CanCreate,
			&g.CanUpdate,
			&g.CanDelete,
		); err != nil {
			return nil, err
		}

		// Un tag desconocido en la tabla es data corrupta o un deploy
		// desfasado; lo salteamos en vez de inventar un resource.
		res, err := permissions.ParseResource(resource)
		if err != nil {
			continue
		}
		g.Resource = res
		out = append(out, g)
	}

	return out, rows.Err()
}
