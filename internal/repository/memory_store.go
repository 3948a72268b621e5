package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/classconnect-api/internal/models"
)

// memoryTable is an in-process collection with the same contract as the
// Postgres adapters. IDs come from a high-water mark so a deleted ID is never
// handed out again.
type memoryTable[T any] struct {
	mu        sync.RWMutex
	rows      map[int64]T
	highWater int64

	id      func(T) int64
	setID   func(*T, int64)
	created func(*T) *time.Time
	field   func(T, string) (interface{}, bool)
	project func(T, map[string]bool) T
	now     func() time.Time
}

type tableAccess[T any] struct {
	id      func(T) int64
	setID   func(*T, int64)
	created func(*T) *time.Time
	field   func(T, string) (interface{}, bool)
	project func(T, map[string]bool) T
}

func newMemoryTable[T any](access tableAccess[T]) *memoryTable[T] {
	return &memoryTable[T]{
		rows:    make(map[int64]T),
		id:      access.id,
		setID:   access.setID,
		created: access.created,
		field:   access.field,
		project: access.project,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// list filters, sorts, pages and finally projects rows. Unknown projection
// fields are dropped; a projection with no known field returns whole rows.
func (t *memoryTable[T]) list(ctx context.Context, q models.Query) ([]T, error) {
	out, err := t.filter(ctx, q.Where)
	if err != nil {
		return nil, err
	}

	sortBy := q.SortField
	if _, ok := t.probeField(sortBy); !ok {
		sortBy = "created_at"
	}
	desc := !strings.EqualFold(string(q.SortDir), string(models.SortAsc))
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := t.field(out[i], sortBy)
		b, _ := t.field(out[j], sortBy)
		cmp := compareValues(a, b)
		if cmp == 0 {
			cmp = compareValues(t.id(out[i]), t.id(out[j]))
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []T{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}

	keep := make(map[string]bool, len(q.Fields))
	for _, f := range q.Fields {
		if _, ok := t.probeField(f); ok {
			keep[f] = true
		}
	}
	if len(keep) > 0 && t.project != nil {
		for i := range out {
			out[i] = t.project(out[i], keep)
		}
	}
	return out, nil
}

func (t *memoryTable[T]) count(ctx context.Context, where []models.Condition) (int, error) {
	rows, err := t.filter(ctx, where)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (t *memoryTable[T]) filter(ctx context.Context, where []models.Condition) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, cond := range where {
		if _, ok := t.probeField(cond.Field); !ok {
			return nil, fmt.Errorf("filter: unknown field %q", cond.Field)
		}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if t.matches(row, where) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (t *memoryTable[T]) probeField(name string) (interface{}, bool) {
	var zero T
	return t.field(zero, name)
}

func (t *memoryTable[T]) matches(row T, where []models.Condition) bool {
	for _, cond := range where {
		v, _ := t.field(row, cond.Field)
		if compareValues(v, cond.Value) != 0 {
			return false
		}
	}
	return true
}

func (t *memoryTable[T]) get(ctx context.Context, id int64) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (t *memoryTable[T]) find(ctx context.Context, match func(T) bool) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, row := range t.rows {
		if match(row) {
			found := row
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// insert stores all records atomically. check runs under the write lock for
// every record before anything is stored.
func (t *memoryTable[T]) insert(ctx context.Context, records []*T, check func(*T, []*T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if check != nil {
		var failures []RecordError
		for i, rec := range records {
			if err := check(rec, records[:i]); err != nil {
				failures = append(failures, RecordError{Index: i, Err: err})
			}
		}
		if len(failures) > 0 {
			return &BatchError{Failures: failures}
		}
	}

	for id := range t.rows {
		if id > t.highWater {
			t.highWater = id
		}
	}
	for _, rec := range records {
		t.highWater++
		t.setID(rec, t.highWater)
		if created := t.created(rec); created.IsZero() {
			*created = t.now()
		}
		t.rows[t.highWater] = *rec
	}
	return nil
}

// update applies a change under the write lock. An error from apply leaves
// the row untouched.
func (t *memoryTable[T]) update(ctx context.Context, id int64, apply func(*T) error) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := apply(&row); err != nil {
		return nil, err
	}
	t.rows[id] = row
	return &row, nil
}

func (t *memoryTable[T]) remove(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false, ErrNotFound
	}
	delete(t.rows, id)
	return true, nil
}

// compareValues orders the scalar types stored in the collections. Nil sorts
// first; integer kinds compare numerically.
func compareValues(a, b interface{}) int {
	a, b = deref(a), deref(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ai, ok := asInt64(a); ok {
		if bi, ok := asInt64(b); ok {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			}
			return 0
		}
	}
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(av), strings.ToLower(bv))
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func deref(v interface{}) interface{} {
	if p, ok := v.(*int64); ok {
		if p == nil {
			return nil
		}
		return *p
	}
	return v
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
