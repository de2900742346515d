package visits

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// OpenAssignments devuelve las visitas vivas del par (cliente, sitter).
// Lo consulta el handler de revocación ANTES de borrar un grant, para el
// warning de "este sitter todavía tiene trabajo asignado acá". Es
// advisory: la revocación procede igual.
func (s *Service) OpenAssignments(ctx context.Context, clientID, sitterUserID string) ([]Visit, error) {
	clientID = strings.TrimSpace(clientID)
	sitterUserID = strings.TrimSpace(sitterUserID)

	if clientID == "" || sitterUserID == "" {
		return nil, ErrInvalidInput
	}

	items, err := s.repo.ListByClientSitter(ctx, clientID, sitterUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]Visit, 0)
	for _, v := range items {
		if v.Open(now) {
			out = append(out, v)
		}
	}
	return out, nil
}
