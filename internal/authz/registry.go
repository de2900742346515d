package authz

import (
	"strings"
	"sync"
	"time"

	"petsit-admin/internal/domain/session"
)

// defaultIdleTTL: cuánto puede quedar una sesión sin requests antes de
// que el registry la dé de baja (equivale a un logout implícito).
const defaultIdleTTL = 30 * time.Minute

// Registry mantiene un Monitor + Gateway por identidad autenticada.
// Es el punto de entrada del lado HTTP: cada request anuncia su identidad
// (el monitor descarta los re-anuncios redundantes) y obtiene el gateway
// de esa sesión. Logout anuncia la transición real y descarta la entrada;
// las sesiones sin actividad se barren en el próximo SignIn de cualquiera,
// así un server de larga vida no acumula un gateway por usuario que nunca
// pegó al logout.
type Registry struct {
	build func(*session.Monitor) *Gateway

	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	monitor  *session.Monitor
	gateway  *Gateway
	lastSeen time.Time
}

func NewRegistry(build func(*session.Monitor) *Gateway) *Registry {
	return &Registry{
		build:   build,
		idleTTL: defaultIdleTTL,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// SignIn anuncia la identidad y devuelve su gateway, creándolo en el
// primer acceso. Idempotente: el monitor dedup-ea el signed_in repetido.
func (r *Registry) SignIn(userID string) *Gateway {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil
	}

	now := r.now()

	r.mu.Lock()
	idle := r.evictIdleLocked(now)
	e, ok := r.entries[userID]
	if !ok {
		// Anunciamos antes de armar el gateway: así NewGateway se prime
		// síncronamente desde Current() y el primer request ve Pending
		// (nunca un Denied espurio por el evento todavía en el canal).
		monitor := session.NewMonitor(nil)
		monitor.Announce(session.EventSignedIn, userID)
		e = &registryEntry{
			monitor:  monitor,
			gateway:  r.build(monitor),
			lastSeen: now,
		}
		r.entries[userID] = e
		r.mu.Unlock()

		closeEntries(idle)
		return e.gateway
	}
	e.lastSeen = now
	r.mu.Unlock()

	closeEntries(idle)
	e.monitor.Announce(session.EventSignedIn, userID)
	return e.gateway
}

// evictIdleLocked saca del mapa las sesiones vencidas y las devuelve para
// cerrarlas fuera del lock.
func (r *Registry) evictIdleLocked(now time.Time) []*registryEntry {
	if r.idleTTL <= 0 {
		return nil
	}
	var out []*registryEntry
	for id, e := range r.entries {
		if now.Sub(e.lastSeen) > r.idleTTL {
			delete(r.entries, id)
			out = append(out, e)
		}
	}
	return out
}

func closeEntries(entries []*registryEntry) {
	for _, e := range entries {
		e.monitor.Announce(session.EventSignedOut, "")
		e.gateway.Close()
	}
}

// SignOut anuncia el logout (limpieza síncrona de caches) y da de baja
// la entrada.
func (r *Registry) SignOut(userID string) {
	userID = strings.TrimSpace(userID)

	r.mu.Lock()
	e, ok := r.entries[userID]
	if ok {
		delete(r.entries, userID)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	e.monitor.Announce(session.EventSignedOut, "")
	e.gateway.Close()
}

// TokenRefreshed re-anuncia el refresh; no invalida nada, pero cuenta
// como actividad de la sesión.
func (r *Registry) TokenRefreshed(userID string) {
	r.mu.Lock()
	e, ok := r.entries[strings.TrimSpace(userID)]
	if ok {
		e.lastSeen = r.now()
	}
	r.mu.Unlock()
	if ok {
		e.monitor.Announce(session.EventTokenRefreshed, userID)
	}
}
