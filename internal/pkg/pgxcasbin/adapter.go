// Package pgxcasbin provides a Casbin policy adapter and watcher backed by
// PostgreSQL through pgx. The adapter persists rules in a single table and
// the watcher propagates policy changes between instances with
// listen/notify.
package pgxcasbin

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/samber/lo"
	"go.uber.org/atomic"
)

// Adapter stores and retrieves Casbin policies using pgx.
type Adapter struct {
	store    *ruleStore
	filtered *atomic.Bool
}

var (
	_ persist.Adapter                 = (*Adapter)(nil)
	_ persist.ContextAdapter          = (*Adapter)(nil)
	_ persist.FilteredAdapter         = (*Adapter)(nil)
	_ persist.ContextFilteredAdapter  = (*Adapter)(nil)
	_ persist.BatchAdapter            = (*Adapter)(nil)
	_ persist.ContextBatchAdapter     = (*Adapter)(nil)
	_ persist.UpdatableAdapter        = (*Adapter)(nil)
	_ persist.ContextUpdatableAdapter = (*Adapter)(nil)
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithTableName overrides the default rule table name.
func WithTableName(tableName string) Option {
	return func(a *Adapter) {
		a.store.setTableName(tableName)
	}
}

// WithNoRowsAffectedError sets the error returned when a write statement
// affects no rows. By default such writes succeed silently.
func WithNoRowsAffectedError(err error) Option {
	return func(a *Adapter) {
		a.store.setNoRowsAffectedError(err)
	}
}

// NewAdapter creates a pgx-backed Casbin adapter. The database is pinged to
// fail fast on bad connections.
func NewAdapter(ctx context.Context, db interface {
	driver.Pinger
	Commander
}, opts ...Option) (*Adapter, error) {
	if err := db.Ping(ctx); err != nil {
		return nil, err
	}

	adapter := &Adapter{
		store:    newRuleStore(db),
		filtered: atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(adapter)
	}

	return adapter, nil
}

// LoadPolicyCtx loads all policies into the model.
func (a *Adapter) LoadPolicyCtx(ctx context.Context, model model.Model) error {
	a.filtered.Store(false)
	lines, err := a.store.selectAll(ctx)
	if err != nil {
		return err
	}
	return loadLines(model, lines)
}

// SavePolicyCtx replaces all stored policies with the model's.
func (a *Adapter) SavePolicyCtx(ctx context.Context, model model.Model) error {
	return a.store.replaceAll(ctx, collectRules(model))
}

// AddPolicyCtx adds a single policy rule.
func (a *Adapter) AddPolicyCtx(ctx context.Context, sec string, ptype string, rule []string) error {
	return a.store.insertRule(ctx, ptype, rule...)
}

// RemovePolicyCtx removes a single policy rule.
func (a *Adapter) RemovePolicyCtx(ctx context.Context, sec string, ptype string, rule []string) error {
	return a.store.deleteRule(ctx, ptype, rule...)
}

// RemoveFilteredPolicyCtx removes policy rules matching the field filter.
func (a *Adapter) RemoveFilteredPolicyCtx(ctx context.Context, sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.store.deleteWhere(ctx, ptype, fieldIndex, fieldValues...)
}

// UpdatePolicyCtx updates a single policy rule.
func (a *Adapter) UpdatePolicyCtx(ctx context.Context, sec string, ptype string, oldRule, newRule []string) error {
	return a.store.updateRule(ctx, ptype, oldRule, newRule)
}

// UpdatePoliciesCtx updates multiple policy rules.
func (a *Adapter) UpdatePoliciesCtx(ctx context.Context, sec string, ptype string, oldRules, newRules [][]string) error {
	return a.store.batchUpdate(ctx, ptype, oldRules, newRules)
}

// UpdateFilteredPoliciesCtx deletes the rules matching the filter, inserts
// newRules, and returns the rules that were removed.
func (a *Adapter) UpdateFilteredPoliciesCtx(ctx context.Context, sec string, ptype string, newRules [][]string, fieldIndex int, fieldValues ...string) ([][]string, error) {
	oldLines, err := a.store.selectWhere(ctx, ptype, fieldIndex, fieldValues...)
	if err != nil {
		return nil, err
	}
	if err := a.store.deleteWhere(ctx, ptype, fieldIndex, fieldValues...); err != nil {
		return nil, err
	}
	if err := a.store.batchInsert(ctx, ptype, newRules); err != nil {
		return nil, err
	}

	oldRules := make([][]string, 0, len(oldLines))
	for _, line := range oldLines {
		if len(line) == 0 {
			continue
		}
		oldRules = append(oldRules, line[1:]) // drop the ptype column
	}
	return oldRules, nil
}

// LoadFilteredPolicyCtx loads only the policies matching the filter. The
// filter must be a map[ptype][][]fieldValues where conditions within a ptype
// are OR-ed; unused positions use an empty string. A nil filter loads
// everything.
func (a *Adapter) LoadFilteredPolicyCtx(ctx context.Context, model model.Model, filter interface{}) error {
	if lo.IsNil(filter) {
		return a.LoadPolicyCtx(ctx, model)
	}
	a.filtered.Store(true)
	ft, ok := filter.(map[string][][]string)
	if !ok {
		return fmt.Errorf("%w: got %T, want map[string][][]string", ErrInvalidFilterType, filter)
	}

	var lines [][]string
	for ptype, conditions := range ft {
		for _, fieldValues := range conditions {
			matched, err := a.store.selectWhere(ctx, ptype, 0, fieldValues...)
			if err != nil {
				return err
			}
			lines = append(lines, matched...)
		}
	}
	lines = lo.UniqBy(lines, func(line []string) string {
		return strings.Join(line, ",")
	})
	if len(lines) == 0 {
		return nil
	}
	return loadLines(model, lines)
}

// IsFilteredCtx reports whether the last load used a filter.
func (a *Adapter) IsFilteredCtx(ctx context.Context) bool {
	return a.filtered.Load()
}

// LoadPolicy loads all policies into the model.
func (a *Adapter) LoadPolicy(model model.Model) error {
	return a.LoadPolicyCtx(context.Background(), model)
}

// SavePolicy replaces all stored policies with the model's.
func (a *Adapter) SavePolicy(model model.Model) error {
	return a.SavePolicyCtx(context.Background(), model)
}

// AddPolicy adds a single policy rule.
func (a *Adapter) AddPolicy(sec string, ptype string, rule []string) error {
	return a.AddPolicyCtx(context.Background(), sec, ptype, rule)
}

// RemovePolicy removes a single policy rule.
func (a *Adapter) RemovePolicy(sec string, ptype string, rule []string) error {
	return a.RemovePolicyCtx(context.Background(), sec, ptype, rule)
}

// RemoveFilteredPolicy removes policy rules matching the field filter.
func (a *Adapter) RemoveFilteredPolicy(sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.RemoveFilteredPolicyCtx(context.Background(), sec, ptype, fieldIndex, fieldValues...)
}

// UpdatePolicy updates a single policy rule.
func (a *Adapter) UpdatePolicy(sec string, ptype string, oldRule, newRule []string) error {
	return a.UpdatePolicyCtx(context.Background(), sec, ptype, oldRule, newRule)
}

// UpdatePolicies updates multiple policy rules.
func (a *Adapter) UpdatePolicies(sec string, ptype string, oldRules, newRules [][]string) error {
	return a.UpdatePoliciesCtx(context.Background(), sec, ptype, oldRules, newRules)
}

// UpdateFilteredPolicies replaces filtered policies with new rules.
func (a *Adapter) UpdateFilteredPolicies(sec string, ptype string, newRules [][]string, fieldIndex int, fieldValues ...string) ([][]string, error) {
	return a.UpdateFilteredPoliciesCtx(context.Background(), sec, ptype, newRules, fieldIndex, fieldValues...)
}

// AddPolicies adds multiple policy rules.
func (a *Adapter) AddPolicies(sec string, ptype string, rules [][]string) error {
	return a.AddPoliciesCtx(context.Background(), sec, ptype, rules)
}

// RemovePolicies removes multiple policy rules.
func (a *Adapter) RemovePolicies(sec string, ptype string, rules [][]string) error {
	return a.RemovePoliciesCtx(context.Background(), sec, ptype, rules)
}

// LoadFilteredPolicy loads only the policies matching the filter.
func (a *Adapter) LoadFilteredPolicy(model model.Model, filter interface{}) error {
	return a.LoadFilteredPolicyCtx(context.Background(), model, filter)
}

// IsFiltered reports whether the last load used a filter.
func (a *Adapter) IsFiltered() bool {
	return a.IsFilteredCtx(context.Background())
}

// AddPoliciesCtx adds multiple policy rules.
func (a *Adapter) AddPoliciesCtx(ctx context.Context, sec string, ptype string, rules [][]string) error {
	return a.store.batchInsert(ctx, ptype, rules)
}

// RemovePoliciesCtx removes multiple policy rules.
func (a *Adapter) RemovePoliciesCtx(ctx context.Context, sec string, ptype string, rules [][]string) error {
	return a.store.batchDelete(ctx, ptype, rules)
}

func collectRules(model model.Model) [][]string {
	var rules [][]string
	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range model[sec] {
			for _, rule := range ast.Policy {
				rules = append(rules, withPtype(ptype, rule))
			}
		}
	}
	return rules
}

func loadLines(model model.Model, lines [][]string) error {
	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, model); err != nil {
			return err
		}
	}
	return nil
}
