package auth

// Claims representa la información extraída del token de sesión.
type Claims struct {
	UserID string
	Email  string
	// SessionID identifica la sesión del proveedor de auth.
	// Lo usamos para distinguir re-anuncios del mismo login de un login nuevo.
	SessionID string
}
