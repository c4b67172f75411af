package pgxcasbin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
)

const (
	defaultTableName = "casbin_rule"

	// A Casbin rule carries at most six value columns, v0 through v5.
	ruleColumns = 6

	insertRuleSQL    = "insert into %[1]s (ptype, %[2]s) values ($1, %[3]s) on conflict (ptype, %[2]s) do nothing"
	updateRuleSQL    = "update %[1]s set %[2]s where ptype = $1 and %[3]s"
	truncateRulesSQL = "truncate table %[1]s restart identity"
	deleteRuleSQL    = "delete from %[1]s where ptype = $1 and %[2]s"
	deleteByPtypeSQL = "delete from %[1]s where ptype = $1"
	selectRulesSQL   = "select ptype, %[2]s from %[1]s"
)

// Commander defines the pgx operations the rule store needs. Both
// *pgxpool.Pool and *pgx.Conn satisfy it.
type Commander interface {
	Begin(context.Context) (pgx.Tx, error)
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ruleStore struct {
	db        Commander
	tableName string
	noRowsErr error
}

func newRuleStore(db Commander) *ruleStore {
	return &ruleStore{db: db, tableName: defaultTableName}
}

func (s *ruleStore) setTableName(tableName string) {
	s.tableName = lo.SnakeCase(tableName)
}

func (s *ruleStore) setNoRowsAffectedError(err error) {
	s.noRowsErr = err
}

// valueColumns returns "v0,v1,...,v5" joined by sep, each optionally
// suffixed via fn (placeholder bindings for inserts and updates).
func valueColumns(sep string, fn func(i int) string) string {
	return strings.Join(lo.Times(ruleColumns, fn), sep)
}

func (s *ruleStore) insertStatement() string {
	return fmt.Sprintf(insertRuleSQL, s.tableName,
		valueColumns(",", func(i int) string { return "v" + strconv.Itoa(i) }),
		valueColumns(",", func(i int) string { return "$" + strconv.Itoa(i+2) }),
	)
}

func (s *ruleStore) updateStatement() string {
	return fmt.Sprintf(updateRuleSQL, s.tableName,
		valueColumns(", ", func(i int) string { return "v" + strconv.Itoa(i) + " = $" + strconv.Itoa(i+2) }),
		valueColumns(" and ", func(i int) string { return "v" + strconv.Itoa(i) + " = $" + strconv.Itoa(i+ruleColumns+2) }),
	)
}

func (s *ruleStore) deleteStatement() string {
	return fmt.Sprintf(deleteRuleSQL, s.tableName,
		valueColumns(" and ", func(i int) string { return "v" + strconv.Itoa(i) + " = $" + strconv.Itoa(i+2) }),
	)
}

func (s *ruleStore) insertRule(ctx context.Context, ptype string, rule ...string) error {
	padded, err := padRule(rule)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, s.insertStatement(), lo.ToAnySlice(withPtype(ptype, padded))...)
	if err != nil {
		return errors.Join(ErrInsertRule, err)
	}
	if tag.RowsAffected() == 0 {
		return s.noRowsErr
	}
	return nil
}

func (s *ruleStore) selectAll(ctx context.Context) ([][]string, error) {
	return s.selectWhere(ctx, "", 0)
}

func (s *ruleStore) selectWhere(ctx context.Context, ptype string, startIdx int, fieldValues ...string) ([][]string, error) {
	if len(fieldValues) > ruleColumns-startIdx {
		return nil, fmt.Errorf("%w: %d > %d", ErrFilterTooLong, len(fieldValues), ruleColumns-startIdx)
	}

	query := fmt.Sprintf(selectRulesSQL, s.tableName,
		valueColumns(",", func(i int) string { return "v" + strconv.Itoa(i) }))

	conditions := make([]string, 0, 1+len(fieldValues))
	args := make([]any, 0, 1+len(fieldValues))
	if lo.IsNotEmpty(ptype) {
		conditions = append(conditions, "ptype = $1")
		args = append(args, ptype)
	}
	for i, fv := range fieldValues {
		if lo.IsEmpty(fv) {
			continue
		}
		conditions = append(conditions, "v"+strconv.Itoa(i+startIdx)+" = $"+strconv.Itoa(len(args)+1))
		args = append(args, fv)
	}
	if len(conditions) > 0 {
		query += " where " + strings.Join(conditions, " and ")
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrSelectRules, err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		cols := make([]sql.NullString, ruleColumns+1)
		scanArgs := make([]any, len(cols))
		for i := range cols {
			scanArgs[i] = &cols[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, errors.Join(ErrScanRule, err)
		}
		line := make([]string, len(cols))
		for i := range cols {
			if cols[i].Valid {
				line[i] = cols[i].String
			}
		}
		result = append(result, trimTrailingEmpty(line))
	}
	return result, nil
}

func (s *ruleStore) updateRule(ctx context.Context, ptype string, old, updated []string) error {
	args, err := updateArgs(old, updated)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, s.updateStatement(), lo.ToAnySlice(withPtype(ptype, args))...)
	if err != nil {
		return errors.Join(ErrUpdateRule, err)
	}
	if tag.RowsAffected() == 0 {
		return s.noRowsErr
	}
	return nil
}

func (s *ruleStore) deleteRule(ctx context.Context, ptype string, rule ...string) error {
	padded, err := padRule(rule)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, s.deleteStatement(), lo.ToAnySlice(withPtype(ptype, padded))...)
	if err != nil {
		return errors.Join(ErrDeleteRule, err)
	}
	if tag.RowsAffected() == 0 {
		return s.noRowsErr
	}
	return nil
}

func (s *ruleStore) deleteWhere(ctx context.Context, ptype string, startIdx int, fieldValues ...string) error {
	if ptype == "" {
		return ErrEmptyPtype
	}
	if len(fieldValues) > ruleColumns-startIdx {
		return fmt.Errorf("%w: %d > %d", ErrFilterTooLong, len(fieldValues), ruleColumns-startIdx)
	}

	query := fmt.Sprintf(deleteByPtypeSQL, s.tableName)

	conditions := make([]string, 0, len(fieldValues))
	args := make([]any, 0, 1+len(fieldValues))
	args = append(args, ptype)
	for i, fv := range fieldValues {
		if lo.IsEmpty(fv) {
			continue
		}
		conditions = append(conditions, "v"+strconv.Itoa(i+startIdx)+" = $"+strconv.Itoa(len(args)+1))
		args = append(args, fv)
	}
	if len(conditions) > 0 {
		query += " and " + strings.Join(conditions, " and ")
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return errors.Join(ErrDeleteFiltered, err)
	}
	if tag.RowsAffected() == 0 {
		return s.noRowsErr
	}
	return nil
}

// replaceAll truncates the table and rewrites every rule in one transaction.
// Each rule is ptype-prefixed, as produced by collectRules.
func (s *ruleStore) replaceAll(ctx context.Context, rules [][]string) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Join(ErrBeginTx, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, ErrRollbackTx, rbErr)
			}
		}
	}()

	if _, err = tx.Exec(ctx, fmt.Sprintf(truncateRulesSQL, s.tableName)); err != nil {
		return errors.Join(ErrTruncate, err)
	}

	batch := &pgx.Batch{}
	for _, rule := range rules {
		if len(rule) == 0 {
			return ErrRuleEmpty
		}
		padded, perr := padRule(rule[1:])
		if perr != nil {
			return perr
		}
		batch.Queue(s.insertStatement(), lo.ToAnySlice(withPtype(rule[0], padded))...)
	}
	if batch.Len() > 0 {
		if err = runBatch(tx.SendBatch(ctx, batch), batch.Len(), s.noRowsErr); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.Join(ErrCommitTx, err)
	}
	return nil
}

func (s *ruleStore) batchInsert(ctx context.Context, ptype string, rules [][]string) error {
	if len(rules) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rule := range rules {
		padded, err := padRule(rule)
		if err != nil {
			return err
		}
		batch.Queue(s.insertStatement(), lo.ToAnySlice(withPtype(ptype, padded))...)
	}
	return runBatch(s.db.SendBatch(ctx, batch), batch.Len(), nil)
}

func (s *ruleStore) batchDelete(ctx context.Context, ptype string, rules [][]string) error {
	if len(rules) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rule := range rules {
		padded, err := padRule(rule)
		if err != nil {
			return err
		}
		batch.Queue(s.deleteStatement(), lo.ToAnySlice(withPtype(ptype, padded))...)
	}
	return runBatch(s.db.SendBatch(ctx, batch), batch.Len(), nil)
}

func (s *ruleStore) batchUpdate(ctx context.Context, ptype string, oldRules, newRules [][]string) error {
	if len(oldRules) == 0 || len(newRules) == 0 {
		return nil
	}
	if len(oldRules) != len(newRules) {
		return fmt.Errorf("%w: %d vs %d", ErrRulesMismatch, len(oldRules), len(newRules))
	}

	batch := &pgx.Batch{}
	for i := range oldRules {
		args, err := updateArgs(oldRules[i], newRules[i])
		if err != nil {
			return err
		}
		batch.Queue(s.updateStatement(), lo.ToAnySlice(withPtype(ptype, args))...)
	}
	return runBatch(s.db.SendBatch(ctx, batch), batch.Len(), nil)
}

// runBatch drains n results from br and always closes it. When noRowsErr is
// non-nil a statement that affects zero rows aborts the batch with that error.
func runBatch(br pgx.BatchResults, n int, noRowsErr error) error {
	for i := 0; i < n; i++ {
		tag, err := br.Exec()
		if err != nil {
			return errors.Join(ErrBatchExec, err, closeBatch(br))
		}
		if noRowsErr != nil && tag.RowsAffected() == 0 {
			return errors.Join(noRowsErr, closeBatch(br))
		}
	}
	return closeBatch(br)
}

func closeBatch(br pgx.BatchResults) error {
	if err := br.Close(); err != nil {
		return errors.Join(ErrBatchClose, err)
	}
	return nil
}

// updateArgs pads old and new rules and concatenates them in the order the
// update statement binds them: new values first, old match values second.
func updateArgs(old, updated []string) ([]string, error) {
	paddedOld, err := padRule(old)
	if err != nil {
		return nil, err
	}
	paddedNew, err := padRule(updated)
	if err != nil {
		return nil, err
	}
	return append(paddedNew, paddedOld...), nil
}

func withPtype(ptype string, rule []string) []string {
	result := make([]string, 1+len(rule))
	result[0] = ptype
	copy(result[1:], rule)
	return result
}

func padRule(rule []string) ([]string, error) {
	if len(rule) > ruleColumns {
		return nil, fmt.Errorf("%w: %d > %d", ErrRuleTooLong, len(rule), ruleColumns)
	}
	padded := make([]string, ruleColumns)
	copy(padded, rule)
	return padded, nil
}

func trimTrailingEmpty(rule []string) []string {
	last := len(rule) - 1
	for last >= 0 && rule[last] == "" {
		last--
	}
	return rule[:last+1]
}
