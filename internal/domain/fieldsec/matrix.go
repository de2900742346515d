package fieldsec

import (
	"context"
	"sync"

	"petsit-admin/internal/domain/profiles"
	"petsit-admin/internal/platform/logger"
)

// Pending es el sentinel que devuelve Mask mientras la tabla todavía está
// cargando: distinto del valor real y del mask token, para que el caller
// pueda renderizar un estado neutro en vez de flashear data enmascarada
// que después se desenmascara (o al revés).
var Pending = &pendingValue{}

type pendingValue struct{}

func (*pendingValue) String() string { return "pending" }

// IsPending reporta si un valor devuelto por Mask es el sentinel de carga.
func IsPending(v any) bool {
	p, ok := v.(*pendingValue)
	return ok && p == Pending
}

type tableStatus int

const (
	tableNotLoaded tableStatus = iota
	tableLoading
	tableReady
)

type tableCache struct {
	status tableStatus
	rules  map[string]Rule

	// done se cierra cuando la carga termina o se descarta; los que
	// esperan una tabla ya en vuelo se cuelgan de acá en vez de
	// disparar un fetch duplicado.
	done chan struct{}
}

// Matrix mantiene los overrides de FLS por (profile, tabla), cargados lazy
// por tabla en el primer acceso y cacheados hasta la próxima invalidación.
//
// Mientras una tabla carga, las consultas booleanas responden fail-closed
// y Mask responde Pending. Un fetch fallido deja la tabla "ready" sin
// filas: aplica el default allow-read/deny-write, nunca un crash.
type Matrix struct {
	repo Repository
	log  logger.Logger

	mu         sync.Mutex
	profile    profiles.Profile
	hasProfile bool
	tables     map[Table]*tableCache

	// gen avanza en cada SetProfile/Reset; los loads en vuelo que vuelven
	// con un gen viejo se descartan.
	gen uint64
}

func NewMatrix(repo Repository, log logger.Logger) *Matrix {
	if log == nil {
		log = logger.Nop()
	}
	return &Matrix{
		repo:   repo,
		log:    log,
		tables: make(map[Table]*tableCache),
	}
}

// SetProfile reemplaza el profile y descarta todos los caches por tabla.
func (m *Matrix) SetProfile(p profiles.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = p
	m.hasProfile = true
	m.dropTablesLocked()
	m.gen++
}

// Reset vuelve al estado sin profile. Síncrono, sin I/O.
func (m *Matrix) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = profiles.Profile{}
	m.hasProfile = false
	m.dropTablesLocked()
	m.gen++
}

// Invalidate descarta los caches por tabla sin tocar el profile.
func (m *Matrix) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropTablesLocked()
	m.gen++
}

// dropTablesLocked descarta los caches y destraba a cualquiera que esté
// esperando una carga en vuelo (el resultado de esa carga ya no aplica).
func (m *Matrix) dropTablesLocked() {
	for _, tc := range m.tables {
		if tc.status == tableLoading && tc.done != nil {
			close(tc.done)
		}
	}
	m.tables = make(map[Table]*tableCache)
}

// EnsureTable carga los overrides de una tabla de forma síncrona.
// Los guards HTTP la usan antes de enmascarar una respuesta completa.
func (m *Matrix) EnsureTable(ctx context.Context, table Table) {
	m.mu.Lock()
	if !m.hasProfile || m.profile.IsAdmin {
		m.mu.Unlock()
		return
	}
	tc, ok := m.tables[table]
	if ok && tc.status == tableReady {
		m.mu.Unlock()
		return
	}
	if ok && tc.status == tableLoading {
		// Ya hay una carga en vuelo para esta tabla; esperarla en vez
		// de duplicar el fetch.
		done := tc.done
		m.mu.Unlock()
		if done != nil {
			select {
			case <-done:
			case <-ctx.Done():
			}
		}
		return
	}
	tc = &tableCache{status: tableLoading, done: make(chan struct{})}
	m.tables[table] = tc
	gen := m.gen
	profileID := m.profile.ID
	m.mu.Unlock()

	m.load(ctx, gen, profileID, table)
}

// ensureAsync dispara la carga lazy en background si la tabla no está.
func (m *Matrix) ensureAsync(table Table) {
	tc, ok := m.tables[table]
	if ok {
		return
	}
	tc = &tableCache{status: tableLoading, done: make(chan struct{})}
	m.tables[table] = tc

	gen := m.gen
	profileID := m.profile.ID
	go m.load(context.Background(), gen, profileID, table)
}

func (m *Matrix) load(ctx context.Context, gen uint64, profileID string, table Table) {
	rows, err := m.repo.ListByProfileTable(ctx, profileID, table)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		// Invalidaron mientras cargábamos; este resultado ya no aplica
		// (y dropTablesLocked ya destrabó a los que esperaban).
		return
	}

	rules := make(map[string]Rule)
	if err != nil {
		m.log.Warn("fieldsec: load failed, falling back to default policy", map[string]any{
			"profile_id": profileID,
			"table":      string(table),
			"err":        err.Error(),
		})
	} else {
		for _, r := range rows {
			rules[r.Field] = r
		}
	}

	if tc := m.tables[table]; tc != nil && tc.status == tableLoading && tc.done != nil {
		close(tc.done)
	}
	m.tables[table] = &tableCache{status: tableReady, rules: rules}
}

// policyFor resuelve la policy efectiva. El segundo retorno indica si la
// tabla ya terminó de cargar; con false la respuesta es provisoria.
func (m *Matrix) policyFor(table Table, field string) (Policy, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasProfile {
		return Policy{}, true
	}
	if m.profile.IsAdmin {
		return Policy{Read: true, Write: true}, true
	}

	m.ensureAsync(table)

	tc := m.tables[table]
	if tc.status != tableReady {
		return Policy{}, false
	}

	rule, ok := tc.rules[field]
	if !ok {
		return ResolvePolicy(nil), true
	}
	return ResolvePolicy(&rule), true
}

// CanRead: true si admin; true sin fila; si hay fila, su can_read.
// Mientras la tabla carga responde false (fail-closed).
func (m *Matrix) CanRead(table Table, field string) bool {
	p, ready := m.policyFor(table, field)
	return ready && p.Read
}

// CanWrite: false sin fila; con fila, can_read AND can_write.
func (m *Matrix) CanWrite(table Table, field string) bool {
	p, ready := m.policyFor(table, field)
	return ready && p.Write
}

// Mask devuelve el valor literal si el field es legible, el maskToken si
// no, y Pending mientras la tabla todavía carga.
func (m *Matrix) Mask(table Table, field string, value, maskToken any) any {
	p, ready := m.policyFor(table, field)
	if !ready {
		return Pending
	}
	if p.Read {
		return value
	}
	return maskToken
}

// FilterObject devuelve una shallow copy solo con las keys legibles.
// Mientras la tabla carga devuelve un mapa vacío (fail-closed).
func (m *Matrix) FilterObject(table Table, obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		p, ready := m.policyFor(table, k)
		if ready && p.Read {
			out[k] = v
		}
	}
	return out
}
