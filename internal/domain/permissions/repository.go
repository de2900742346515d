package permissions

import "context"

type Repository interface {
	// ListByProfile devuelve todas las filas de permisos del profile.
	ListByProfile(ctx context.Context, profileID string) ([]Grant, error)
}
