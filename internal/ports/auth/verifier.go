package auth

import "context"

// AuthVerifier verifica un token y devuelve claims o error.
// La emisión/firma del token es del proveedor externo; acá solo verificamos.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
