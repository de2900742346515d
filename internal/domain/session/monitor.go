package session

import (
	"strings"
	"sync"

	"petsit-admin/internal/platform/logger"
)

type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
)

// State es el snapshot de la sesión actual.
// Epoch avanza solo en transiciones reales (login/logout); los resultados
// async que llegan con un epoch viejo se descartan.
type State struct {
	Authenticated bool
	UserID        string
	Epoch         uint64
}

type Event struct {
	Kind   EventKind
	UserID string
	Epoch  uint64
}

// Monitor dedup-ea los anuncios del transporte de sesión y solo re-emite
// transiciones reales. El proveedor re-anuncia SIGNED_IN en cada cambio de
// visibilidad del tab; recargar permisos en cada uno causa flicker y
// llamadas redundantes al backing store.
type Monitor struct {
	mu      sync.Mutex
	state   State
	subs    map[int]chan Event
	nextSub int
	log     logger.Logger
}

func NewMonitor(log logger.Logger) *Monitor {
	if log == nil {
		log = logger.Nop()
	}
	return &Monitor{
		subs: make(map[int]chan Event),
		log:  log,
	}
}

func (m *Monitor) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe devuelve un canal de eventos y la función para darse de baja.
// Solo llegan transiciones reales; TokenRefreshed y SignedIn redundantes
// se consumen acá.
func (m *Monitor) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++

	ch := make(chan Event, 16)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Announce recibe un evento crudo del transporte de auth.
// Reglas:
//   - TokenRefreshed nunca avanza el epoch ni se re-emite.
//   - SignedIn con el mismo user ya autenticado (tab refocus) se descarta.
//   - SignedIn con un user distinto cuenta como transición real aunque no
//     haya pasado por SignedOut (re-login en el mismo tab).
//   - SignedOut limpia el estado de forma síncrona antes de retornar.
func (m *Monitor) Announce(kind EventKind, userID string) {
	userID = strings.TrimSpace(userID)

	m.mu.Lock()

	switch kind {
	case EventTokenRefreshed:
		m.mu.Unlock()
		m.log.Debug("session: token refreshed, no-op", map[string]any{"user_id": userID})
		return

	case EventSignedIn:
		if userID == "" {
			m.mu.Unlock()
			m.log.Warn("session: signed_in without user id, ignored", nil)
			return
		}
		if m.state.Authenticated && m.state.UserID == userID {
			m.mu.Unlock()
			m.log.Debug("session: redundant signed_in, no-op", map[string]any{"user_id": userID})
			return
		}
		m.state = State{
			Authenticated: true,
			UserID:        userID,
			Epoch:         m.state.Epoch + 1,
		}

	case EventSignedOut:
		if !m.state.Authenticated {
			m.mu.Unlock()
			return
		}
		m.state = State{
			Authenticated: false,
			UserID:        "",
			Epoch:         m.state.Epoch + 1,
		}

	default:
		m.mu.Unlock()
		m.log.Warn("session: unknown event kind", map[string]any{"kind": string(kind)})
		return
	}

	ev := Event{Kind: kind, UserID: m.state.UserID, Epoch: m.state.Epoch}
	subs := make([]chan Event, 0, len(m.subs))
	for _, ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			// Un subscriber que no drena 16 eventos está colgado;
			// mejor perder el evento acá que bloquear el announce.
			m.log.Error("session: subscriber buffer full, event dropped", map[string]any{"kind": string(kind)})
		}
	}
}
