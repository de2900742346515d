package sharing

import "context"

type Repository interface {
	Create(ctx context.Context, g Grant) error

	// Delete elimina el grant activo del par. ErrNotFound si no existe.
	Delete(ctx context.Context, clientID, granteeUserID string) error

	GetActive(ctx context.Context, clientID, granteeUserID string) (Grant, error)

	// ListByClient devuelve los grantees denormalizados con nombre/email.
	ListByClient(ctx context.Context, clientID string) ([]Grantee, error)

	ListByGrantee(ctx context.Context, granteeUserID string) ([]Grant, error)
}
