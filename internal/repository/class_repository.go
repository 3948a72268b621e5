package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/classconnect-api/internal/models"
)

var classCollection = newCollection("classes", models.ClassColumns)

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes matching the query.
func (r *ClassRepository) List(ctx context.Context, q models.Query) ([]models.Class, error) {
	query, args, err := classCollection.selectQuery(q)
	if err != nil {
		return nil, err
	}
	classes := []models.Class{}
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID returns a class record by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classCollection.columnList())
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// FindByCode returns the class using the given join code.
func (r *ClassRepository) FindByCode(ctx context.Context, code string) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE UPPER(class_code) = UPPER($1)", classCollection.columnList())
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find class by code: %w", err)
	}
	return &class, nil
}

// ExistsByCode checks whether a join code is already taken.
func (r *ClassRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM classes WHERE UPPER(class_code) = UPPER($1) LIMIT 1", code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check class code: %w", err)
	}
	return true, nil
}

// Create persists a class record and assigns its ID.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if err := insertClass(ctx, r.db, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// CreateBatch persists all classes or none of them.
func (r *ClassRepository) CreateBatch(ctx context.Context, classes []*models.Class) error {
	return insertBatch(ctx, r.db, len(classes), func(tx *sqlx.Tx, i int) error {
		return insertClass(ctx, tx, classes[i])
	})
}

// Update changes only the supplied fields of a class.
func (r *ClassRepository) Update(ctx context.Context, id int64, in models.ClassInput) (*models.Class, error) {
	var set setList
	if in.Name != nil {
		set.add("name", *in.Name)
	}
	if in.Description != nil {
		set.add("description", *in.Description)
	}
	if in.ClassCode != nil {
		set.add("class_code", *in.ClassCode)
	}
	if in.TeacherID != nil {
		set.add("teacher_id", *in.TeacherID)
	}
	if set.empty() {
		return r.FindByID(ctx, id)
	}

	query, args := set.updateQuery(classCollection, id)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update class: %w", ErrDuplicateCode)
		}
		return nil, fmt.Errorf("update class: %w", err)
	}
	return &class, nil
}

// Count returns how many classes match the filter.
func (r *ClassRepository) Count(ctx context.Context, where []models.Condition) (int, error) {
	return countRows(ctx, r.db, classCollection, where)
}

// Delete removes a class record.
func (r *ClassRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, classCollection, id)
}

func insertClass(ctx context.Context, q sqlx.QueryerContext, class *models.Class) error {
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (name, description, class_code, teacher_id, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := q.QueryRowxContext(ctx, query, class.Name, class.Description, class.ClassCode, class.TeacherID, class.CreatedAt).Scan(&class.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("class code %s: %w", class.ClassCode, ErrDuplicateCode)
	}
	return err
}

// isUniqueViolation reports a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
