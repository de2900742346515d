package permissions

import (
	"context"
	"sync"

	"petsit-admin/internal/domain/profiles"
	"petsit-admin/internal/platform/logger"
)

// Matrix responde consultas booleanas de autorización resource×action para
// el profile resuelto. El estado vive exactamente un ciclo de resolución:
// un Load nuevo reemplaza todo, un Reset lo vacía.
//
// Fail-closed en todos los caminos: sin profile, cargando, o con un fetch
// fallido, la respuesta es false.
type Matrix struct {
	repo Repository
	log  logger.Logger

	mu         sync.RWMutex
	profile    profiles.Profile
	hasProfile bool
	grants     map[Resource]Grant
	loading    bool

	// gen avanza en cada Load/Reset; un fetch que vuelve con gen viejo
	// no instala nada (su ciclo ya fue invalidado).
	gen uint64
}

func NewMatrix(repo Repository, log logger.Logger) *Matrix {
	if log == nil {
		log = logger.Nop()
	}
	return &Matrix{
		repo:   repo,
		log:    log,
		grants: make(map[Resource]Grant),
	}
}

// Load reemplaza el estado completo con los permisos del profile dado.
// Si el fetch falla, queda un grant set vacío (default-deny) y se loggea;
// el caller no recibe el error como denegación fatal.
func (m *Matrix) Load(ctx context.Context, p profiles.Profile) {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.profile = p
	m.hasProfile = true
	m.grants = make(map[Resource]Grant)
	m.loading = true
	m.mu.Unlock()

	// Admin no consulta grants; evitamos el fetch.
	if p.IsAdmin {
		m.mu.Lock()
		if m.gen == gen {
			m.loading = false
		}
		m.mu.Unlock()
		return
	}

	rows, err := m.repo.ListByProfile(ctx, p.ID)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Otro ciclo pudo habernos reemplazado mientras esperábamos el fetch.
	if m.gen != gen {
		return
	}

	m.loading = false
	if err != nil {
		m.log.Warn("permissions: load failed, falling back to empty grants", map[string]any{
			"profile_id": p.ID,
			"err":        err.Error(),
		})
		return
	}

	for _, g := range rows {
		m.grants[g.Resource] = g
	}
}

// Reset descarta profile y grants. Síncrono; no toca el backing store.
func (m *Matrix) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.profile = profiles.Profile{}
	m.hasProfile = false
	m.grants = make(map[Resource]Grant)
	m.loading = false
}

func (m *Matrix) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// Authorize decide resource×action:
//  1. admin => true, sin mirar grants
//  2. sin fila para el resource => false
//  3. con fila => el flag de la acción
func (m *Matrix) Authorize(resource Resource, action Action) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.hasProfile {
		return false
	}
	if m.profile.IsAdmin {
		return true
	}
	if m.loading {
		return false
	}

	g, ok := m.grants[resource]
	if !ok {
		return false
	}
	return g.Allows(action)
}

func (m *Matrix) CanRead(r Resource) bool   { return m.Authorize(r, ActionRead) }
func (m *Matrix) CanCreate(r Resource) bool { return m.Authorize(r, ActionCreate) }
func (m *Matrix) CanUpdate(r Resource) bool { return m.Authorize(r, ActionUpdate) }
func (m *Matrix) CanDelete(r Resource) bool { return m.Authorize(r, ActionDelete) }
