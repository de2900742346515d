package postgres

import (
	"context"
	"database/sql"
	"strings"

	"petsit-admin/internal/domain/profiles"
)

type ProfilesRepo struct {
	db *sql.DB
}

func NewProfilesRepo(db *sql.DB) *ProfilesRepo {
	return &ProfilesRepo{db: db}
}

const resolvedColumns = `
	up.id, up.user_id, up.profile_id,
	up.full_name, up.email, up.avatar_ref, up.phone,
	up.is_active, up.created_at, up.updated_at,
	p.id, p.name, p.is_admin, p.is_active,
	p.created_at, p.updated_at
`

func scanResolved(row interface{ Scan(...any) error }) (profiles.Resolved, error) {
	var res profiles.Resolved
	var email, avatarRef, phone sql.NullString

	err := row.Scan(
		&res.User.ID,
		&res.User.UserID,
		&res.User.ProfileID,
		&res.User.FullName,
		&email,
		&avatarRef,
		&phone,
		&res.User.IsActive,
		&res.User.CreatedAt,
		&res.User.UpdatedAt,
		&res.Profile.ID,
		&res.Profile.Name,
		&res.Profile.IsAdmin,
		&res.Profile.IsActive,
		&res.Profile.CreatedAt,
		&res.Profile.UpdatedAt,
	)
	if err != nil {
		return profiles.Resolved{}, err
	}

	res.User.Email = email.String
	res.User.AvatarRef = avatarRef.String
	res.User.Phone = phone.String
	return res, nil
}

func (r *ProfilesRepo) GetByUserID(ctx context.Context, userID string) (profiles.Resolved, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return profiles.Resolved{}, profiles.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+resolvedColumns+`
		FROM user_profiles up
		JOIN profiles p ON p.id = up.profile_id
		WHERE up.user_id = $1
	`, userID)

	res, err := scanResolved(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return profiles.Resolved{}, profiles.ErrNotFound
		}
		return profiles.Resolved{}, err
	}
	return res, nil
}

func (r *ProfilesRepo) ListActive(ctx context.Context) ([]profiles.Resolved, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+resolvedColumns+`
		FROM user_profiles up
		JOIN profiles p ON p.id = up.profile_id
		WHERE up.is_active = true
		  AND p.is_active = true
		ORDER BY up.full_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profiles.Resolved, 0)
	for rows.Next() {
		res, err := scanResolved(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
