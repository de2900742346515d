package visits

import "context"

type Repository interface {
	ListByClientSitter(ctx context.Context, clientID, sitterUserID string) ([]Visit, error)
}
