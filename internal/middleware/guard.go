package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"petsit-admin/internal/authz"
	"petsit-admin/internal/domain/permissions"
)

const gatewayKey ctxKey = "authz_gateway"

// RequireAccess guarda una ruta con la decisión del gateway de la sesión:
// - sin claims => 401
// - Pending (profile/permisos cargando) => 503 con Retry-After corto
// - Denied => 403
// - Allowed => sigue, con el gateway inyectado en el context para que el
//   handler pueda enmascarar/filtrar fields.
func RequireAccess(reg *authz.Registry, resource permissions.Resource, action permissions.Action) func(http.Handler) http.Handler {
	return requireDecision(reg, func(gw *authz.Gateway) authz.Decision {
		return gw.CanAccess(resource, action)
	})
}

// RequireAdmin exige profile administrador, independiente de los grants.
func RequireAdmin(reg *authz.Registry, resource permissions.Resource, action permissions.Action) func(http.Handler) http.Handler {
	return requireDecision(reg, func(gw *authz.Gateway) authz.Decision {
		return gw.CanAccessAdmin(resource, action)
	})
}

func requireDecision(reg *authz.Registry, decide func(*authz.Gateway) authz.Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok || strings.TrimSpace(claims.UserID) == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			gw := reg.SignIn(claims.UserID)
			if gw == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			d := decide(gw)
			if d.Pending() {
				d = awaitSettled(r.Context(), gw, decide)
			}
			switch d.State {
			case authz.StateAllowed:
				ctx := context.WithValue(r.Context(), gatewayKey, gw)
				next.ServeHTTP(w, r.WithContext(ctx))
			case authz.StatePending:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "authorization state loading", http.StatusServiceUnavailable)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}

// awaitSettled le da un plazo corto a la resolución en vuelo antes de
// contestar 503. El primer request de una sesión siempre arranca Pending;
// sin esta espera cada login costaría un retry al cliente.
func awaitSettled(ctx context.Context, gw *authz.Gateway, decide func(*authz.Gateway) authz.Decision) authz.Decision {
	deadline := time.NewTimer(2 * time.Second)
	defer deadline.Stop()

	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return authz.Decision{State: authz.StatePending, Reason: "loading"}
		case <-deadline.C:
			return decide(gw)
		case <-tick.C:
			if d := decide(gw); !d.Pending() {
				return d
			}
		}
	}
}

// GetGateway devuelve el gateway de la sesión del request, si un guard lo inyectó.
func GetGateway(ctx context.Context) (*authz.Gateway, bool) {
	v := ctx.Value(gatewayKey)
	if v == nil {
		return nil, false
	}
	gw, ok := v.(*authz.Gateway)
	return gw, ok
}
