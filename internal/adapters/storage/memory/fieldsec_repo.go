package memory

import (
	"context"
	"sync"

	"petsit-admin/internal/domain/fieldsec"
)

type fieldKey struct {
	profileID string
	table     fieldsec.Table
}

type FieldSecRepo struct {
	mu    sync.RWMutex
	rules map[fieldKey][]fieldsec.Rule
}

func NewFieldSecRepo() *FieldSecRepo {
	return &FieldSecRepo{
		rules: make(map[fieldKey][]fieldsec.Rule),
	}
}

// SetRules reemplaza los overrides de (profile, tabla).
func (r *FieldSecRepo) SetRules(profileID string, table fieldsec.Table, rules []fieldsec.Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]fieldsec.Rule, 0, len(rules))
	for _, rule := range rules {
		rule.ProfileID = profileID
		rule.Table = table
		rows = append(rows, rule)
	}
	r.rules[fieldKey{profileID, table}] = rows
}

func (r *FieldSecRepo) ListByProfileTable(ctx context.Context, profileID string, table fieldsec.Table) ([]fieldsec.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.rules[fieldKey{profileID, table}]
	out := make([]fieldsec.Rule, len(rows))
	copy(out, rows)
	return out, nil
}
