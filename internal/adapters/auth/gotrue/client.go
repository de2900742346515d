package gotrue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petsit-admin/internal/platform/httpclient"
	"petsit-admin/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("gotrue client not configured")
	ErrUnauthorized  = errors.New("gotrue unauthorized")
	ErrUpstream      = errors.New("gotrue upstream error")
)

// Config del cliente GoTrue.
// BaseURL y APIKey normalmente vienen de env vars en quien lo instancia.
type Config struct {
	BaseURL string
	APIKey  string

	// Timeout HTTP (default 5s).
	Timeout time.Duration
}

type Client struct {
	apiKey string
	http   *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		apiKey: strings.TrimSpace(cfg.APIKey),
		http:   hc,
	}, nil
}

// NewClientWithHTTP permite inyectar el httpclient (tests).
func NewClientWithHTTP(apiKey string, hc *httpclient.Client) *Client {
	return &Client{apiKey: strings.TrimSpace(apiKey), http: hc}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

// userResponse es el shape de GET /user en GoTrue.
type userResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	SessionID    string `json:"session_id"`
	Aud          string `json:"aud"`
	Role         string `json:"role"`
	LastSignInAt string `json:"last_sign_in_at"`
}

// GetUser valida el access token contra GoTrue y devuelve los claims
// del usuario dueño del token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	var out userResponse
	err := c.http.DoJSON(ctx, "GET", "/user", map[string]string{
		"Authorization": "Bearer " + accessToken,
		"apikey":        c.apiKey,
	}, nil, &out)
	if err != nil {
		if httpclient.IsHTTPStatus(err, 401) || httpclient.IsHTTPStatus(err, 403) {
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.ID = strings.TrimSpace(out.ID)
	if out.ID == "" {
		return auth.Claims{}, errors.New("gotrue response missing user id")
	}

	return auth.Claims{
		UserID:    out.ID,
		Email:     strings.TrimSpace(out.Email),
		SessionID: strings.TrimSpace(out.SessionID),
	}, nil
}
