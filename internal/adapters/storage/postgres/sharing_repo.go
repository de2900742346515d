package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"petsit-admin/internal/domain/sharing"
)

// typeMap decodifica tipos de Postgres que database/sql no convierte solo.
// El driver stdlib de pgx entrega text[] como string cruda ("{a,b}"); el
// scanner de pgtype la parsea (y maneja NULL) hacia []string.
var typeMap = pgtype.NewMap()

type SharingRepo struct {
	db *sql.DB
}

func NewSharingRepo(db *sql.DB) *SharingRepo {
	return &SharingRepo{db: db}
}

func (r *SharingRepo) Create(ctx context.Context, g sharing.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sharing_grants (
			sharing_id, client_id, shared_by_user_id, shared_with_user_id,
			access_level, field_restrictions, shared_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		g.ID,
		g.ClientID,
		g.SharedByUserID,
		g.SharedWithUserID,
		string(g.AccessLevel),
		restrictionsToTextArray(g.FieldRestrictions),
		g.SharedAt,
	)
	return err
}

func (r *SharingRepo) Delete(ctx context.Context, clientID, granteeUserID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM sharing_grants
		WHERE client_id = $1
		  AND shared_with_user_id = $2
	`, clientID, granteeUserID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sharing.ErrNotFound
	}
	return nil
}

func (r *SharingRepo) GetActive(ctx context.Context, clientID, granteeUserID string) (sharing.Grant, error) {
	clientID = strings.TrimSpace(clientID)
	granteeUserID = strings.TrimSpace(granteeUserID)
	if clientID == "" || granteeUserID == "" {
		return sharing.Grant{}, sharing.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT sharing_id, client_id, shared_by_user_id, shared_with_user_id,
		       access_level, field_restrictions, shared_at
		FROM sharing_grants
		WHERE client_id = $1
		  AND shared_with_user_id = $2
	`, clientID, granteeUserID)

	g, err := scanGrant(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return sharing.Grant{}, sharing.ErrNotFound
		}
		return sharing.Grant{}, err
	}
	return g, nil
}

func (r *SharingRepo) ListByClient(ctx context.Context, clientID string) ([]sharing.Grantee, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT g.sharing_id, g.client_id, g.shared_by_user_id, g.shared_with_user_id,
		       g.access_level, g.field_restrictions, g.shared_at,
		       up.full_name, up.email, up.avatar_ref
		FROM sharing_grants g
		JOIN user_profiles up ON up.user_id = g.shared_with_user_id
		WHERE g.client_id = $1
		ORDER BY g.shared_at ASC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sharing.Grantee, 0)
	for rows.Next() {
		var ge sharing.Grantee
		var level string
		var restrictions []string
		var email, avatarRef sql.NullString

		if err := rows.Scan(
			&ge.ID,
			&ge.ClientID,
			&ge.SharedByUserID,
			&ge.SharedWithUserID,
			&level,
			typeMap.SQLScanner(&restrictions),
			&ge.SharedAt,
			&ge.FullName,
			&email,
			&avatarRef,
		); err != nil {
			return nil, err
		}

		ge.AccessLevel = sharing.AccessLevel(level)
		ge.FieldRestrictions = restrictions
		ge.Email = email.String
		ge.AvatarRef = avatarRef.String
		out = append(out, ge)
	}

	return out, rows.Err()
}

func (r *SharingRepo) ListByGrantee(ctx context.Context, granteeUserID string) ([]sharing.Grant, error) {
	granteeUserID = strings.TrimSpace(granteeUserID)
	if granteeUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT sharing_id, client_id, shared_by_user_id, shared_with_user_id,
		       access_level, field_restrictions, shared_at
		FROM sharing_grants
		WHERE shared_with_user_id = $1
		ORDER BY shared_at DESC
	`, granteeUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sharing.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}

	return out, rows.Err()
}

// helpers

func scanGrant(row interface{ Scan(...any) error }) (sharing.Grant, error) {
	var g sharing.Grant
	var level string
	var restrictions []string

	if err := row.Scan(
		&g.ID,
		&g.ClientID,
		&g.SharedByUserID,
		&g.SharedWithUserID,
		&level,
		typeMap.SQLScanner(&restrictions),
		&g.SharedAt,
	); err != nil {
		return sharing.Grant{}, err
	}

	g.AccessLevel = sharing.AccessLevel(level)
	g.FieldRestrictions = restrictions
	return g, nil
}

func restrictionsToTextArray(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	return in
}
