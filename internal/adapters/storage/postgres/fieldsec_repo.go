package postgres

import (
	"context"
	"database/sql"
	"strings"

	"petsit-admin/internal/domain/fieldsec"
)

type FieldSecRepo struct {
	db *sql.DB
}

func NewFieldSecRepo(db *sql.DB) *FieldSecRepo {
	return &FieldSecRepo{db: db}
}

func (r *FieldSecRepo) ListByProfileTable(ctx context.Context, profileID string, table fieldsec.Table) ([]fieldsec.Rule, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT profile_id, table_name, field_name, can_read, can_write
		FROM field_permissions
		WHERE profile_id = $1
		  AND table_name = $2
	`, profileID, string(table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]fieldsec.Rule, 0)
	for rows.Next() {
		var rule fieldsec.Rule
		var tableName string

		if err := rows.Scan(
			&rule.ProfileID,
			&tableName,
			&rule.Field,
			&rule.CanRead,
			&rule.CanWrite,
		); err != nil {
			return nil, err
		}
		rule.Table = fieldsec.Table(tableName)
		out = append(out, rule)
	}

	return out, rows.Err()
}
