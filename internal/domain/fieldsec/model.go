package fieldsec

import (
	"errors"
	"strings"
)

var ErrUnknownTable = errors.New("unknown table")

// Table es el set cerrado de tablas con field-level security.
type Table string

const (
	TableClients      Table = "clients"
	TablePets         Table = "pets"
	TableServices     Table = "services"
	TableVisits       Table = "visits"
	TableUserProfiles Table = "user_profiles"
	TablePayments     Table = "payments"
)

var knownTables = map[Table]struct{}{
	TableClients:      {},
	TablePets:         {},
	TableServices:     {},
	TableVisits:       {},
	TableUserProfiles: {},
	TablePayments:     {},
}

func ParseTable(s string) (Table, error) {
	t := Table(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownTables[t]; !ok {
		return "", ErrUnknownTable
	}
	return t, nil
}

// Rule es el override explícito de un field para un profile.
// Data de referencia configurada por el admin; read-only acá.
type Rule struct {
	ProfileID string
	Table     Table
	Field     string

	CanRead  bool
	CanWrite bool
}

// Policy es la visibilidad efectiva de un field.
type Policy struct {
	Read  bool
	Write bool
}

// ResolvePolicy centraliza el defaulting de FLS en una función pura:
//   - sin fila => read permitido, write denegado (FLS es una capa de
//     enmascaramiento sobre data que el profile ya puede ver; el default
//     es asimétrico a propósito respecto del default-deny de resources)
//   - con fila => write exige read, aunque la fila diga can_write=true
//     con can_read=false (write implica read)
func ResolvePolicy(rule *Rule) Policy {
	if rule == nil {
		return Policy{Read: true, Write: false}
	}
	return Policy{
		Read:  rule.CanRead,
		Write: rule.CanRead && rule.CanWrite,
	}
}
