package fieldsec

import "context"

type Repository interface {
	// ListByProfileTable devuelve los overrides de un profile para una tabla.
	ListByProfileTable(ctx context.Context, profileID string, table Table) ([]Rule, error)
}
