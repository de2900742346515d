package profiles

import "context"

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (Resolved, error)

	// ListActive devuelve los perfiles usables (ambos flags activos).
	// Lo consume la selección de destinatarios al compartir un cliente.
	ListActive(ctx context.Context) ([]Resolved, error)
}
