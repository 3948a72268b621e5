package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classconnect-api/internal/models"
)

var assignmentCollection = newCollection("assignments", models.AssignmentColumns)

// AssignmentRepository manages persistence for assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments matching the query.
func (r *AssignmentRepository) List(ctx context.Context, q models.Query) ([]models.Assignment, error) {
	query, args, err := assignmentCollection.selectQuery(q)
	if err != nil {
		return nil, err
	}
	assignments := []models.Assignment{}
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// FindByID returns an assignment by ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*models.Assignment, error) {
	query := fmt.Sprintf("SELECT %s FROM assignments WHERE id = $1", assignmentCollection.columnList())
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// Create persists an assignment and assigns its ID.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if err := insertAssignment(ctx, r.db, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// CreateBatch persists all assignments or none of them.
func (r *AssignmentRepository) CreateBatch(ctx context.Context, assignments []*models.Assignment) error {
	return insertBatch(ctx, r.db, len(assignments), func(tx *sqlx.Tx, i int) error {
		return insertAssignment(ctx, tx, assignments[i])
	})
}

// Update changes only the supplied fields of an assignment.
func (r *AssignmentRepository) Update(ctx context.Context, id int64, in models.AssignmentInput) (*models.Assignment, error) {
	var set setList
	if in.Title != nil {
		set.add("title", *in.Title)
	}
	if in.Description != nil {
		set.add("description", *in.Description)
	}
	if in.DueDate != nil {
		set.add("due_date", in.DueDate.UTC())
	}
	if in.Points != nil {
		set.add("points", *in.Points)
	}
	if in.ClassID != nil {
		set.add("class_id", *in.ClassID)
	}
	if in.Attachments != nil {
		set.add("attachments", *in.Attachments)
	}
	if set.empty() {
		return r.FindByID(ctx, id)
	}

	query, args := set.updateQuery(assignmentCollection, id)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update assignment: %w", err)
	}
	return &assignment, nil
}

// Count returns how many assignments match the filter.
func (r *AssignmentRepository) Count(ctx context.Context, where []models.Condition) (int, error) {
	return countRows(ctx, r.db, assignmentCollection, where)
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, assignmentCollection, id)
}

func insertAssignment(ctx context.Context, q sqlx.QueryerContext, a *models.Assignment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Attachments == nil {
		a.Attachments = models.AttachmentList{}
	}
	const query = `INSERT INTO assignments (title, description, due_date, points, class_id, attachments, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return q.QueryRowxContext(ctx, query, a.Title, a.Description, a.DueDate.UTC(), a.Points, a.ClassID, a.Attachments, a.CreatedAt).Scan(&a.ID)
}
