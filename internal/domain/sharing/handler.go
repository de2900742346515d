package sharing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"petsit-admin/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// AssignmentWarning describe una visita viva del grantee para el cliente.
// El chequeo es advisory y vive fuera de este paquete (las asignaciones
// son de otro dominio); acá solo se transporta el warning al caller.
type AssignmentWarning struct {
	VisitID       string    `json:"visit_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Status        string    `json:"status"`
}

// ImpactChecker lo implementa el composition root sobre el dominio de
// visitas; este paquete no conoce el schema de asignaciones.
type ImpactChecker interface {
	OpenAssignments(ctx context.Context, clientID, granteeUserID string) ([]AssignmentWarning, error)
}

// RegisterRoutes monta las rutas de sharing. readGuard/writeGuard son los
// guards de permisos del caller (nil => sin guard, para tests).
// /me/shared queda solo detrás de auth: el grantee ve lo que le compartieron
// aunque su profile no tenga permiso sobre el resource clients.
func RegisterRoutes(r chi.Router, svc *Service, impact ImpactChecker, readGuard, writeGuard func(http.Handler) http.Handler) {
	r.Route("/clients/{clientID}/grants", func(gr chi.Router) {
		read, write := chi.Router(gr), chi.Router(gr)
		if readGuard != nil {
			read = gr.With(readGuard)
		}
		if writeGuard != nil {
			write = gr.With(writeGuard)
		}

		write.Post("/", createGrantHandler(svc))
		read.Get("/", listGranteesHandler(svc))
		write.Delete("/{granteeID}", revokeGrantHandler(svc, impact))
	})

	// Grantee: qué clientes me compartieron
	r.Get("/me/shared", listMySharedHandler(svc))
}

type createGrantRequest struct {
	GranteeUserID     string   `json:"grantee_user_id"`
	AccessLevel       string   `json:"access_level"`
	FieldRestrictions []string `json:"field_restrictions"`
}

type grantResponse struct {
	ID                string    `json:"id"`
	ClientID          string    `json:"client_id"`
	SharedByUserID    string    `json:"shared_by_user_id"`
	SharedWithUserID  string    `json:"shared_with_user_id"`
	AccessLevel       string    `json:"access_level"`
	FieldRestrictions []string  `json:"field_restrictions,omitempty"`
	SharedAt          time.Time `json:"shared_at"`
}

type granteeResponse struct {
	grantResponse
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
	AvatarRef string `json:"avatar_ref,omitempty"`
}

type revokeResponse struct {
	Revoked  bool                `json:"revoked"`
	Warnings []AssignmentWarning `json:"warnings,omitempty"`
}

func toGrantResponse(g Grant) grantResponse {
	return grantResponse{
		ID:                g.ID,
		ClientID:          g.ClientID,
		SharedByUserID:    g.SharedByUserID,
		SharedWithUserID:  g.SharedWithUserID,
		AccessLevel:       string(g.AccessLevel),
		FieldRestrictions: g.FieldRestrictions,
		SharedAt:          g.SharedAt,
	}
}

func createGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createGrantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var level AccessLevel
		if strings.TrimSpace(req.AccessLevel) != "" {
			var err error
			level, err = ParseAccessLevel(req.AccessLevel)
			if err != nil {
				http.Error(w, "invalid access_level", http.StatusBadRequest)
				return
			}
		}

		g, err := svc.Create(r.Context(), CreateInput{
			ClientID:          chi.URLParam(r, "clientID"),
			SharedByUserID:    claims.UserID,
			SharedWithUserID:  req.GranteeUserID,
			AccessLevel:       level,
			FieldRestrictions: req.FieldRestrictions,
		})
		if err != nil {
			var ce *ConflictError
			switch {
			case errors.As(err, &ce):
				writeJSON(w, http.StatusConflict, map[string]any{
					"error":             "grant already exists",
					"existing_grant_id": ce.ExistingID,
				})
			case errors.Is(err, ErrInvalidTarget):
				http.Error(w, "grantee has no active profile", http.StatusUnprocessableEntity)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, "invalid input", http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toGrantResponse(g))
	}
}

func listGranteesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListGrantees(r.Context(), chi.URLParam(r, "clientID"))
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "invalid input", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]granteeResponse, 0, len(items))
		for _, it := range items {
			out = append(out, granteeResponse{
				grantResponse: toGrantResponse(it.Grant),
				FullName:      it.FullName,
				Email:         it.Email,
				AvatarRef:     it.AvatarRef,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// revokeGrantHandler compone el chequeo advisory con el borrado: consulta
// las asignaciones vivas ANTES de borrar (para el warning) pero borra
// siempre; el store nunca bloquea una revocación.
func revokeGrantHandler(svc *Service, impact ImpactChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := chi.URLParam(r, "clientID")
		granteeID := chi.URLParam(r, "granteeID")

		var warnings []AssignmentWarning
		if impact != nil {
			// Best-effort: si el chequeo falla, la revocación procede igual.
			if ws, err := impact.OpenAssignments(r.Context(), clientID, granteeID); err == nil {
				warnings = ws
			}
		}

		if err := svc.Revoke(r.Context(), clientID, granteeID); err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "grant not found", http.StatusNotFound)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, "invalid input", http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, revokeResponse{Revoked: true, Warnings: warnings})
	}
}

func listMySharedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByGrantee(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]grantResponse, 0, len(items))
		for _, g := range items {
			out = append(out, toGrantResponse(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
