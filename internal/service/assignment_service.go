package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classconnect-api/internal/models"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

type assignmentStore interface {
	List(ctx context.Context, q models.Query) ([]models.Assignment, error)
	Count(ctx context.Context, where []models.Condition) (int, error)
	FindByID(ctx context.Context, id int64) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	CreateBatch(ctx context.Context, assignments []*models.Assignment) error
	Update(ctx context.Context, id int64, in models.AssignmentInput) (*models.Assignment, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type assignmentCreate struct {
	Title       string     `validate:"required"`
	Description string     `validate:"required"`
	DueDate     *time.Time `validate:"required"`
	Points      *int       `validate:"required,gte=0,lte=2147483647"`
	ClassID     int64      `validate:"gt=0"`
}

// assignmentPoints bounds points to the range of the Postgres INTEGER column.
type assignmentPoints struct {
	Points int `validate:"gte=0,lte=2147483647"`
}

// AssignmentService is the entity repository for assignments. An
// assignment's parent is its class.
type AssignmentService struct {
	entityBase
	store assignmentStore
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(store assignmentStore, notifier Notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{
		entityBase: newEntityBase("assignments", "Assignment", notifier, metrics, validate, logger),
		store:      store,
	}
}

// WithStoreTimeout bounds every store call made by the service.
func (s *AssignmentService) WithStoreTimeout(d time.Duration) *AssignmentService {
	s.timeout = d
	return s
}

// GetAll returns every assignment, newest first.
func (s *AssignmentService) GetAll(ctx context.Context) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := s.call(ctx, "list", func(ctx context.Context) (err error) {
		assignments, err = s.store.List(ctx, models.NewestFirst())
		return err
	})
	if err != nil {
		return []models.Assignment{}, s.fail(ctx, "list", err, "Failed to load assignments")
	}
	return assignments, nil
}

// List returns one page of assignments, newest first, with its pagination.
func (s *AssignmentService) List(ctx context.Context, opts models.ListOptions) ([]models.Assignment, *models.Pagination, error) {
	q, pagination, err := s.pageQuery(ctx, opts, "class_id", models.AssignmentColumns)
	if err != nil {
		return []models.Assignment{}, nil, err
	}
	var assignments []models.Assignment
	err = s.call(ctx, "list_page", func(ctx context.Context) (err error) {
		if pagination.TotalCount, err = s.store.Count(ctx, q.Where); err != nil {
			return err
		}
		assignments, err = s.store.List(ctx, q)
		return err
	})
	if err != nil {
		return []models.Assignment{}, nil, s.fail(ctx, "list_page", err, "Failed to load assignments")
	}
	return assignments, pagination, nil
}

// GetByID returns one assignment or a NOT_FOUND error.
func (s *AssignmentService) GetByID(ctx context.Context, id int64) (*models.Assignment, error) {
	var assignment *models.Assignment
	err := s.call(ctx, "get", func(ctx context.Context) (err error) {
		assignment, err = s.store.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "get", err, "Failed to load assignment")
	}
	return assignment, nil
}

// GetByParent returns the assignments of one class, newest first.
func (s *AssignmentService) GetByParent(ctx context.Context, classID int64) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := s.call(ctx, "list_by_parent", func(ctx context.Context) (err error) {
		assignments, err = s.store.List(ctx, newestFirstByParent("class_id", classID))
		return err
	})
	if err != nil {
		return []models.Assignment{}, s.fail(ctx, "list_by_parent", err, "Failed to load assignments")
	}
	return assignments, nil
}

// Create validates fields and stores a new assignment.
func (s *AssignmentService) Create(ctx context.Context, fields models.Fields) (*models.Assignment, error) {
	assignment, appErr := s.prepare(ctx, fields)
	if appErr != nil {
		return nil, s.invalid(ctx, appErr.Message, appErr.Details)
	}
	if err := s.call(ctx, "create", func(ctx context.Context) error { return s.store.Create(ctx, assignment) }); err != nil {
		return nil, s.fail(ctx, "create", err, "Failed to create assignment. Please try again.")
	}
	s.succeed(ctx, "Assignment created successfully!")
	return assignment, nil
}

// CreateBatch stores every assignment or none.
func (s *AssignmentService) CreateBatch(ctx context.Context, batch []models.Fields) ([]models.Assignment, error) {
	if len(batch) == 0 {
		return nil, s.invalid(ctx, "invalid assignment payload", []string{"at least one record is required"})
	}
	assignments := make([]*models.Assignment, 0, len(batch))
	var details []string
	for i, fields := range batch {
		assignment, appErr := s.prepare(ctx, fields)
		if appErr != nil {
			for _, d := range appErr.Details {
				details = append(details, fmt.Sprintf("record %d: %s", i+1, d))
			}
			continue
		}
		assignments = append(assignments, assignment)
	}
	if len(details) > 0 {
		return nil, s.invalid(ctx, "invalid assignment payload", details)
	}
	if err := s.call(ctx, "create_batch", func(ctx context.Context) error { return s.store.CreateBatch(ctx, assignments) }); err != nil {
		return nil, s.fail(ctx, "create_batch", err, "Failed to create assignments")
	}
	out := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, *a)
	}
	s.succeed(ctx, fmt.Sprintf("%d assignments created successfully!", len(out)))
	return out, nil
}

// Update changes only the supplied fields.
func (s *AssignmentService) Update(ctx context.Context, id int64, fields models.Fields) (*models.Assignment, error) {
	in, errs := normalizeAssignment(fields)
	details := append([]string(errs), blank(map[string]*string{"title": in.Title, "description": in.Description})...)
	if in.Points != nil {
		if err := s.validator.StructCtx(ctx, assignmentPoints{Points: *in.Points}); err != nil {
			details = append(details, validationDetails(err)...)
		}
	}
	if in.ClassID != nil && *in.ClassID == 0 {
		details = append(details, "class_id must be greater than 0")
	}
	if len(details) > 0 {
		return nil, s.invalid(ctx, "invalid assignment payload", details)
	}
	var assignment *models.Assignment
	err := s.call(ctx, "update", func(ctx context.Context) (err error) {
		assignment, err = s.store.Update(ctx, id, in)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "update", err, "Failed to update assignment")
	}
	s.succeed(ctx, "Assignment updated successfully!")
	return assignment, nil
}

// Delete removes an assignment. It returns true only when the store confirms.
func (s *AssignmentService) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.call(ctx, "delete", func(ctx context.Context) (err error) {
		deleted, err = s.store.Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, s.fail(ctx, "delete", err, "Failed to delete assignment")
	}
	s.succeed(ctx, "Assignment deleted successfully!")
	return deleted, nil
}

// Validate runs create-time normalization and validation without a store
// call or notification.
func (s *AssignmentService) Validate(ctx context.Context, fields models.Fields) error {
	if _, appErr := s.prepare(ctx, fields); appErr != nil {
		return appErr
	}
	return nil
}

func (s *AssignmentService) prepare(ctx context.Context, fields models.Fields) (*models.Assignment, *appErrors.Error) {
	in, errs := normalizeAssignment(fields)
	candidate := assignmentCreate{
		Title:       trimmed(in.Title),
		Description: trimmed(in.Description),
		DueDate:     in.DueDate,
		Points:      in.Points,
	}
	if in.ClassID != nil {
		candidate.ClassID = *in.ClassID
	}
	details := []string(errs)
	if err := s.validator.StructCtx(ctx, candidate); err != nil {
		details = append(details, validationDetails(err)...)
	}
	if len(details) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "Please fill in all required fields.", details)
	}
	assignment := &models.Assignment{
		Title:       candidate.Title,
		Description: candidate.Description,
		DueDate:     *candidate.DueDate,
		Points:      *candidate.Points,
		ClassID:     candidate.ClassID,
		Attachments: models.AttachmentList{},
	}
	if in.Attachments != nil {
		assignment.Attachments = *in.Attachments
	}
	return assignment, nil
}
