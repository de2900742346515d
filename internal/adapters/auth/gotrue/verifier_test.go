package gotrue

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"petsit-admin/internal/platform/httpclient"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, fn roundTripFunc) *Client {
	t.Helper()
	hc := httpclient.NewWithTransport(time.Second, fn)
	hc.BaseURL = "http://gotrue.test"
	return NewClientWithHTTP("anon-key", hc)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestVerifier_Verify_OK(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/user" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Fatalf("unexpected Authorization header %q", got)
		}
		if got := req.Header.Get("apikey"); got != "anon-key" {
			t.Fatalf("unexpected apikey header %q", got)
		}
		return jsonResponse(200, `{"id":"user-1","email":"ana@petsit.app","session_id":"sess-9"}`), nil
	})

	claims, err := NewVerifier(client).Verify(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "ana@petsit.app" || claims.SessionID != "sess-9" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifier_Verify_ExpiredToken(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(401, `{"msg":"JWT expired"}`), nil
	})

	_, err := NewVerifier(client).Verify(context.Background(), "stale")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifier_Verify_EmptyToken(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected for empty token")
		return nil, nil
	})

	_, err := NewVerifier(client).Verify(context.Background(), "   ")
	if !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("expected ErrTokenEmpty, got %v", err)
	}
}

func TestVerifier_Verify_MissingUserID(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"id":"","email":"x@y.z"}`), nil
	})

	if _, err := NewVerifier(client).Verify(context.Background(), "tok"); err == nil {
		t.Fatal("expected error for claims without user id")
	}
}
