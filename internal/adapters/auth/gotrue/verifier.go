package gotrue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"petsit-admin/internal/ports/auth"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier implementa auth.AuthVerifier contra GoTrue.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.GetUser(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return auth.Claims{}, err
		}
		return auth.Claims{}, fmt.Errorf("gotrue verify failed: %w", err)
	}

	return claims, nil
}
