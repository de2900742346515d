package profiles

import "time"

// Profile es el rol asignado a un usuario. Un profile admin bypasea
// por completo las matrices de permisos.
type Profile struct {
	ID       string
	Name     string
	IsAdmin  bool
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserProfile asocia una identidad externa (auth provider) con un Profile,
// más los datos de presentación del usuario.
type UserProfile struct {
	ID        string
	UserID    string // identidad externa, dueña del subsistema de auth
	ProfileID string

	FullName  string
	Email     string
	AvatarRef string
	Phone     string

	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Resolved es el join UserProfile ⋈ Profile que consume el resto del engine.
type Resolved struct {
	User    UserProfile
	Profile Profile
}

// Usable aplica el invariante: ambos flags activos, o el profile no existe
// a efectos de autorización.
func (r Resolved) Usable() bool {
	return r.User.IsActive && r.Profile.IsActive
}
