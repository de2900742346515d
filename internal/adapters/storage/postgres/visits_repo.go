package postgres

import (
	"context"
	"database/sql"
	"strings"

	"petsit-admin/internal/domain/visits"
)

type VisitsRepo struct {
	db *sql.DB
}

func NewVisitsRepo(db *sql.DB) *VisitsRepo {
	return &VisitsRepo{db: db}
}

func (r *VisitsRepo) ListByClientSitter(ctx context.Context, clientID, sitterUserID string) ([]visits.Visit, error) {
	clientID = strings.TrimSpace(clientID)
	sitterUserID = strings.TrimSpace(sitterUserID)
	if clientID == "" || sitterUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, sitter_user_id, scheduled_date, status
		FROM visits
		WHERE client_id = $1
		  AND sitter_user_id = $2
		ORDER BY scheduled_date ASC
	`, clientID, sitterUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]visits.Visit, 0)
	for rows.Next() {
		var v visits.Visit
		var status string

		if err := rows.Scan(
			&v.ID,
			&v.ClientID,
			&v.SitterUserID,
			&v.ScheduledDate,
			&status,
		); err != nil {
			return nil, err
		}
		v.Status = visits.Status(status)
		out = append(out, v)
	}

	return out, rows.Err()
}
