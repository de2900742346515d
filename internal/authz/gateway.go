package authz

import (
	"context"
	"errors"
	"sync"

	"petsit-admin/internal/domain/fieldsec"
	"petsit-admin/internal/domain/permissions"
	"petsit-admin/internal/domain/profiles"
	"petsit-admin/internal/domain/session"
	"petsit-admin/internal/platform/logger"
)

// Gateway es la fachada de autorización que consume el resto de la app:
// guards de rutas/acciones, helpers de enmascaramiento por field, y el
// profile resuelto de la sesión actual.
//
// Se construye una instancia por sesión de app y se inyecta por referencia;
// nada de singletons globales, así los tests arman instancias aisladas con
// grants fabricados.
//
// Ciclo de vida: cada transición real del Monitor (login/logout) invalida
// todo el estado cacheado y, si hay identidad nueva, dispara la resolución
// del profile y la recarga de las matrices. Los fetches en vuelo llevan el
// epoch con el que arrancaron; si al volver el epoch avanzó, el resultado
// se descarta (una respuesta lenta no puede resucitar permisos de un
// usuario previo después del logout).
type Gateway struct {
	monitor  *session.Monitor
	resolver *profiles.Resolver
	perms    *permissions.Matrix
	fields   *fieldsec.Matrix
	log      logger.Logger

	mu        sync.RWMutex
	epoch     uint64
	resolved  profiles.Resolved
	hasRes    bool
	resolving bool

	cancel func()
	done   chan struct{}
}

func NewGateway(
	monitor *session.Monitor,
	resolver *profiles.Resolver,
	perms *permissions.Matrix,
	fields *fieldsec.Matrix,
	log logger.Logger,
) *Gateway {
	if log == nil {
		log = logger.Nop()
	}

	g := &Gateway{
		monitor:  monitor,
		resolver: resolver,
		perms:    perms,
		fields:   fields,
		log:      log,
		done:     make(chan struct{}),
	}

	events, cancel := monitor.Subscribe()
	g.cancel = cancel

	// Si la sesión ya estaba autenticada al construirnos (restore de
	// sesión previa), arrancamos el ciclo sin esperar un evento.
	if st := monitor.Current(); st.Authenticated {
		g.startCycle(session.Event{Kind: session.EventSignedIn, UserID: st.UserID, Epoch: st.Epoch})
	}

	go g.loop(events)
	return g
}

// Close da de baja la suscripción y frena el loop de eventos.
func (g *Gateway) Close() {
	g.cancel()
	<-g.done
}

func (g *Gateway) loop(events <-chan session.Event) {
	defer close(g.done)
	for ev := range events {
		g.startCycle(ev)
	}
}

// startCycle invalida el ciclo anterior de forma síncrona y, en un login,
// dispara la resolución async del nuevo. El orden importa: primero se
// limpia todo, recién después arranca cualquier load nuevo, para que los
// grants de un profile viejo no respondan queries bajo la identidad nueva.
func (g *Gateway) startCycle(ev session.Event) {
	g.mu.Lock()
	g.epoch = ev.Epoch
	g.resolved = profiles.Resolved{}
	g.hasRes = false
	g.resolving = ev.Kind == session.EventSignedIn
	g.mu.Unlock()

	g.perms.Reset()
	g.fields.Reset()

	if ev.Kind != session.EventSignedIn {
		g.log.Info("authz: session ended, caches cleared", nil)
		return
	}

	go g.resolveCycle(ev)
}

func (g *Gateway) resolveCycle(ev session.Event) {
	ctx := context.Background()

	res, err := g.resolver.Resolve(ctx, ev.UserID)

	g.mu.Lock()
	if g.epoch != ev.Epoch {
		g.mu.Unlock()
		g.log.Debug("authz: stale profile resolution discarded", map[string]any{"epoch": ev.Epoch})
		return
	}
	if err != nil {
		// Sin profile usable: cero acceso, indistinguible de "sin identidad".
		g.resolving = false
		g.mu.Unlock()
		if !errors.Is(err, profiles.ErrNotFound) {
			g.log.Warn("authz: profile resolution failed", logger.Err(err))
		}
		return
	}
	g.resolved = res
	g.hasRes = true
	g.mu.Unlock()

	if !g.sameEpoch(ev.Epoch) {
		return
	}
	g.fields.SetProfile(res.Profile)
	g.perms.Load(ctx, res.Profile)

	// Un logout pudo colarse durante el load; si pasó, lo que el load
	// instaló no pertenece a este epoch y se tira.
	if !g.sameEpoch(ev.Epoch) {
		g.perms.Reset()
		g.fields.Reset()
		return
	}

	// Recién acá el ciclo está completo: profile instalado y matrices
	// cargadas. Marcarlo antes dejaría una ventana donde Profile() ya
	// responde pero la matriz de fields todavía filtra todo.
	g.mu.Lock()
	if g.epoch == ev.Epoch {
		g.resolving = false
	}
	g.mu.Unlock()

	g.log.Info("authz: cycle ready", map[string]any{
		"profile": res.Profile.Name,
		"admin":   res.Profile.IsAdmin,
	})
}

func (g *Gateway) sameEpoch(epoch uint64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.epoch == epoch
}

// Profile devuelve el profile resuelto de la sesión actual, si lo hay.
// Resolving reporta si hay una resolución de profile en vuelo.
func (g *Gateway) Resolving() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolving
}

func (g *Gateway) Profile() (profiles.Resolved, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolved, g.hasRes
}

// CanAccess decide resource×action para la sesión actual.
// Pending mientras el profile o sus grants cargan; Denied fail-closed en
// cualquier estado sin profile usable.
func (g *Gateway) CanAccess(resource permissions.Resource, action permissions.Action) Decision {
	g.mu.RLock()
	resolving := g.resolving
	hasRes := g.hasRes
	g.mu.RUnlock()

	if resolving {
		return pending()
	}
	if !hasRes {
		return denied("no access")
	}
	if g.perms.Loading() {
		return pending()
	}
	if !g.perms.Authorize(resource, action) {
		return denied("not permitted")
	}
	return allowed()
}

// CanAccessAdmin es CanAccess con requisito de administrador: corta en
// Denied salvo que el profile sea admin, independiente de los grants.
func (g *Gateway) CanAccessAdmin(resource permissions.Resource, action permissions.Action) Decision {
	g.mu.RLock()
	resolving := g.resolving
	hasRes := g.hasRes
	isAdmin := g.resolved.Profile.IsAdmin
	g.mu.RUnlock()

	if resolving {
		return pending()
	}
	if !hasRes {
		return denied("no access")
	}
	if !isAdmin {
		return denied("admin required")
	}
	return g.CanAccess(resource, action)
}

// ---- helpers de rendering por field (re-exports scoped al profile actual) ----

func (g *Gateway) CanReadField(table fieldsec.Table, field string) bool {
	return g.fields.CanRead(table, field)
}

func (g *Gateway) CanWriteField(table fieldsec.Table, field string) bool {
	return g.fields.CanWrite(table, field)
}

func (g *Gateway) Mask(table fieldsec.Table, field string, value, maskToken any) any {
	return g.fields.Mask(table, field, value, maskToken)
}

func (g *Gateway) FilterObject(table fieldsec.Table, obj map[string]any) map[string]any {
	return g.fields.FilterObject(table, obj)
}

// EnsureTable precarga los overrides de una tabla de forma síncrona.
// Los handlers lo usan antes de filtrar una respuesta completa, para no
// contestar con el sentinel de carga.
func (g *Gateway) EnsureTable(ctx context.Context, table fieldsec.Table) {
	g.fields.EnsureTable(ctx, table)
}
