package authz

type DecisionState string

const (
	StateAllowed DecisionState = "allowed"
	StateDenied  DecisionState = "denied"

	// StatePending: el profile o sus permisos todavía están cargando.
	// El consumidor renderiza estado neutro y reintenta; no es un deny.
	StatePending DecisionState = "pending"
)

// Decision es la respuesta de guard del gateway.
type Decision struct {
	State  DecisionState
	Reason string
}

func (d Decision) Allowed() bool { return d.State == StateAllowed }
func (d Decision) Pending() bool { return d.State == StatePending }

func allowed() Decision              { return Decision{State: StateAllowed} }
func denied(reason string) Decision  { return Decision{State: StateDenied, Reason: reason} }
func pending() Decision              { return Decision{State: StatePending, Reason: "loading"} }
