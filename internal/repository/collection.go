package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classconnect-api/internal/models"
)

// ErrNotFound is returned by every store adapter when a record is absent.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateCode is returned when a class join code is already taken.
var ErrDuplicateCode = errors.New("class code already in use")

// RecordError describes one rejected record of a batch write.
type RecordError struct {
	Index int
	Err   error
}

// BatchError is returned when at least one record of a batch write failed.
// No record of the batch is persisted.
type BatchError struct {
	Failures []RecordError
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("record %d: %v", f.Index+1, f.Err))
	}
	return "batch rejected: " + strings.Join(parts, "; ")
}

// collection describes one table and the columns callers may project, filter
// and sort on.
type collection struct {
	table   string
	columns []string
	allowed map[string]bool
}

func newCollection(table string, columns []string) collection {
	allowed := make(map[string]bool, len(columns))
	for _, c := range columns {
		allowed[c] = true
	}
	return collection{table: table, columns: columns, allowed: allowed}
}

func (c collection) columnList() string {
	return strings.Join(c.columns, ", ")
}

// selectQuery renders a models.Query into SQL. Unknown projection fields are
// dropped; unknown filter fields are rejected.
func (c collection) selectQuery(q models.Query) (string, []interface{}, error) {
	projection := make([]string, 0, len(q.Fields))
	for _, f := range q.Fields {
		if c.allowed[f] {
			projection = append(projection, f)
		}
	}
	cols := c.columnList()
	if len(projection) > 0 {
		cols = strings.Join(projection, ", ")
	}

	where, args, err := c.whereClause(q.Where)
	if err != nil {
		return "", nil, err
	}

	sortBy := q.SortField
	if !c.allowed[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(string(q.SortDir))
	if order != string(models.SortAsc) && order != string(models.SortDesc) {
		order = string(models.SortDesc)
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s", cols, c.table, where)
	query += fmt.Sprintf(" ORDER BY %s %s, id %s", sortBy, order, order)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", q.Offset)
	}
	return query, args, nil
}

// countQuery renders SELECT COUNT(*) for the same filter selectQuery applies.
func (c collection) countQuery(conds []models.Condition) (string, []interface{}, error) {
	where, args, err := c.whereClause(conds)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", c.table, where), args, nil
}

func (c collection) whereClause(conds []models.Condition) (string, []interface{}, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(conds))
	args := make([]interface{}, 0, len(conds))
	for _, cond := range conds {
		if !c.allowed[cond.Field] {
			return "", nil, fmt.Errorf("filter %s: unknown field %q", c.table, cond.Field)
		}
		args = append(args, cond.Value)
		parts = append(parts, fmt.Sprintf("%s = $%d", cond.Field, len(args)))
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func countRows(ctx context.Context, db *sqlx.DB, c collection, conds []models.Condition) (int, error) {
	query, args, err := c.countQuery(conds)
	if err != nil {
		return 0, err
	}
	var total int
	if err := db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.table, err)
	}
	return total, nil
}

// setList accumulates the SET clause of a partial update.
type setList struct {
	sets []string
	args []interface{}
}

func (s *setList) add(column string, value interface{}) {
	s.args = append(s.args, value)
	s.sets = append(s.sets, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setList) empty() bool {
	return len(s.sets) == 0
}

// updateQuery renders UPDATE ... RETURNING for the accumulated columns; the
// id is bound last.
func (s *setList) updateQuery(c collection, id int64) (string, []interface{}) {
	args := append(append([]interface{}{}, s.args...), id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s", c.table, strings.Join(s.sets, ", "), len(args), c.columnList())
	return query, args
}

// insertBatch runs insert for each record inside one transaction, isolating
// each record behind a savepoint so every failure can be reported. Any
// failure rolls the whole batch back.
func insertBatch(ctx context.Context, db *sqlx.DB, n int, insert func(tx *sqlx.Tx, i int) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}

	var failures []RecordError
	for i := 0; i < n; i++ {
		savepoint := fmt.Sprintf("batch_record_%d", i)
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("savepoint: %w", err)
		}
		if err := insert(tx, i); err != nil {
			failures = append(failures, RecordError{Index: i, Err: err})
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
				_ = tx.Rollback()
				return fmt.Errorf("rollback savepoint: %w", rbErr)
			}
		}
	}

	if len(failures) > 0 {
		_ = tx.Rollback()
		return &BatchError{Failures: failures}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func deleteByID(ctx context.Context, db *sqlx.DB, c collection, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", c.table), id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", c.table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", c.table, err)
	}
	if affected == 0 {
		return false, ErrNotFound
	}
	return true, nil
}
