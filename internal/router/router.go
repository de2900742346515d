package router

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	mem "petsit-admin/internal/adapters/storage/memory"
	pg "petsit-admin/internal/adapters/storage/postgres"
	"petsit-admin/internal/authz"
	"petsit-admin/internal/domain/fieldsec"
	"petsit-admin/internal/domain/permissions"
	"petsit-admin/internal/domain/profiles"
	"petsit-admin/internal/domain/session"
	"petsit-admin/internal/domain/sharing"
	"petsit-admin/internal/domain/visits"
	"petsit-admin/internal/middleware"
	"petsit-admin/internal/platform/logger"
	"petsit-admin/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: repos pre-armados (tests). Pisa DB/memory.
	Repos *Repos

	Log logger.Logger
}

// Repos agrupa los repositorios que consume el engine.
type Repos struct {
	Profiles    profiles.Repository
	Permissions permissions.Repository
	Fields      fieldsec.Repository
	Sharing     sharing.Repository
	Visits      visits.Repository
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	repos := opts.Repos
	if repos == nil {
		// Si no te pasan DB explícita, intenta por env (para dev/handoff)
		db := opts.DB
		if db == nil {
			if dsn := os.Getenv("DB_DSN"); dsn != "" {
				opened, err := pg.Open(dsn)
				if err == nil {
					db = opened
				} else {
					log.Warn("db open failed, falling back to memory", logger.Err(err))
				}
			}
		}

		if db != nil {
			repos = &Repos{
				Profiles:    pg.NewProfilesRepo(db),
				Permissions: pg.NewPermissionsRepo(db),
				Fields:      pg.NewFieldSecRepo(db),
				Sharing:     pg.NewSharingRepo(db),
				Visits:      pg.NewVisitsRepo(db),
			}
		} else {
			profRepo := mem.NewProfilesRepo()
			repos = &Repos{
				Profiles:    profRepo,
				Permissions: mem.NewPermissionsRepo(),
				Fields:      mem.NewFieldSecRepo(),
				Sharing:     mem.NewSharingRepo(profRepo),
				Visits:      mem.NewVisitsRepo(),
			}
		}
	}

	// Un gateway por identidad: cada uno arma su propia resolución de
	// profile y sus matrices sobre los mismos repos.
	reg := authz.NewRegistry(func(m *session.Monitor) *authz.Gateway {
		return authz.NewGateway(
			m,
			profiles.NewResolver(repos.Profiles, log),
			permissions.NewMatrix(repos.Permissions, log),
			fieldsec.NewMatrix(repos.Fields, log),
			log,
		)
	})

	sharingSvc := sharing.NewService(repos.Sharing, profileDirectory{repo: repos.Profiles})
	visitsSvc := visits.NewService(repos.Visits)

	sharing.RegisterRoutes(r, sharingSvc, visitImpact{svc: visitsSvc},
		middleware.RequireAccess(reg, permissions.ResourceClients, permissions.ActionRead),
		middleware.RequireAccess(reg, permissions.ResourceClients, permissions.ActionUpdate),
	)

	r.Get("/me/profile", meProfileHandler(reg))
	r.Post("/auth/logout", logoutHandler(reg))

	// Selección de grantees: usuarios activos del negocio
	r.With(middleware.RequireAccess(reg, permissions.ResourceClients, permissions.ActionRead)).
		Get("/users/active", listActiveUsersHandler(profiles.NewResolver(repos.Profiles, log)))

	return r
}

// profileDirectory adapta el repo de profiles al contrato que valida
// destinatarios de sharing.
type profileDirectory struct {
	repo profiles.Repository
}

func (d profileDirectory) IsActiveUser(ctx context.Context, userID string) (bool, error) {
	res, err := d.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return res.Usable(), nil
}

// visitImpact adapta el read-side de visitas al chequeo advisory de revoke.
type visitImpact struct {
	svc *visits.Service
}

func (v visitImpact) OpenAssignments(ctx context.Context, clientID, granteeUserID string) ([]sharing.AssignmentWarning, error) {
	open, err := v.svc.OpenAssignments(ctx, clientID, granteeUserID)
	if err != nil {
		return nil, err
	}
	out := make([]sharing.AssignmentWarning, 0, len(open))
	for _, vi := range open {
		out = append(out, sharing.AssignmentWarning{
			VisitID:       vi.ID,
			ScheduledDate: vi.ScheduledDate,
			Status:        string(vi.Status),
		})
	}
	return out, nil
}

// meProfileHandler devuelve el profile resuelto del caller, con los fields
// de user_profiles filtrados por su matriz de field security.
func meProfileHandler(reg *authz.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		gw := reg.SignIn(claims.UserID)
		if gw == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		awaitResolved(r.Context(), gw)

		res, ok := gw.Profile()
		if !ok {
			http.Error(w, "no active profile", http.StatusNotFound)
			return
		}

		gw.EnsureTable(r.Context(), fieldsec.TableUserProfiles)

		obj := map[string]any{
			"user_id":      res.User.UserID,
			"full_name":    res.User.FullName,
			"email":        res.User.Email,
			"avatar_ref":   res.User.AvatarRef,
			"phone":        res.User.Phone,
			"profile_id":   res.Profile.ID,
			"profile_name": res.Profile.Name,
			"is_admin":     res.Profile.IsAdmin,
		}
		writeJSON(w, http.StatusOK, gw.FilterObject(fieldsec.TableUserProfiles, obj))
	}
}

func listActiveUsersHandler(resolver *profiles.Resolver) http.HandlerFunc {
	type item struct {
		UserID    string `json:"user_id"`
		FullName  string `json:"full_name"`
		Email     string `json:"email,omitempty"`
		AvatarRef string `json:"avatar_ref,omitempty"`
		Profile   string `json:"profile"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := resolver.ListActive(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]item, 0, len(items))
		for _, it := range items {
			out = append(out, item{
				UserID:    it.User.UserID,
				FullName:  it.User.FullName,
				Email:     it.User.Email,
				AvatarRef: it.User.AvatarRef,
				Profile:   it.Profile.Name,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func logoutHandler(reg *authz.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		reg.SignOut(claims.UserID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// awaitResolved espera (con plazo corto) a que termine la resolución de
// profile en vuelo; el primer request de una sesión siempre la encuentra
// arrancando.
func awaitResolved(ctx context.Context, gw *authz.Gateway) {
	deadline := time.NewTimer(2 * time.Second)
	defer deadline.Stop()

	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for gw.Resolving() {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-tick.C:
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
