package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/repository"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

type classStore interface {
	List(ctx context.Context, q models.Query) ([]models.Class, error)
	Count(ctx context.Context, where []models.Condition) (int, error)
	FindByID(ctx context.Context, id int64) (*models.Class, error)
	FindByCode(ctx context.Context, code string) (*models.Class, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	CreateBatch(ctx context.Context, classes []*models.Class) error
	Update(ctx context.Context, id int64, in models.ClassInput) (*models.Class, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// classCreate is the validated shape of a new class.
type classCreate struct {
	Name        string `validate:"required"`
	Description string `validate:"required"`
	TeacherID   int64  `validate:"gte=0"`
}

const (
	classCodeLength   = 6
	classCodeAttempts = 5
	classCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	joinFailedMessage = "Failed to join class. Please check the class code."
)

// ClassService is the entity repository for classes. A class's parent is
// its owning teacher.
type ClassService struct {
	entityBase
	store   classStore
	newCode func() string
}

// NewClassService constructs ClassService.
func NewClassService(store classStore, notifier Notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	return &ClassService{
		entityBase: newEntityBase("classes", "Class", notifier, metrics, validate, logger),
		store:      store,
		newCode:    generateClassCode,
	}
}

// WithStoreTimeout bounds every store call made by the service.
func (s *ClassService) WithStoreTimeout(d time.Duration) *ClassService {
	s.timeout = d
	return s
}

// GetAll returns every class, newest first.
func (s *ClassService) GetAll(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	err := s.call(ctx, "list", func(ctx context.Context) (err error) {
		classes, err = s.store.List(ctx, models.NewestFirst())
		return err
	})
	if err != nil {
		return []models.Class{}, s.fail(ctx, "list", err, "Failed to load classes")
	}
	return classes, nil
}

// List returns one page of classes, newest first, with its pagination.
func (s *ClassService) List(ctx context.Context, opts models.ListOptions) ([]models.Class, *models.Pagination, error) {
	q, pagination, err := s.pageQuery(ctx, opts, "teacher_id", models.ClassColumns)
	if err != nil {
		return []models.Class{}, nil, err
	}
	var classes []models.Class
	err = s.call(ctx, "list_page", func(ctx context.Context) (err error) {
		if pagination.TotalCount, err = s.store.Count(ctx, q.Where); err != nil {
			return err
		}
		classes, err = s.store.List(ctx, q)
		return err
	})
	if err != nil {
		return []models.Class{}, nil, s.fail(ctx, "list_page", err, "Failed to load classes")
	}
	return classes, pagination, nil
}

// GetByID returns one class or a NOT_FOUND error.
func (s *ClassService) GetByID(ctx context.Context, id int64) (*models.Class, error) {
	var class *models.Class
	err := s.call(ctx, "get", func(ctx context.Context) (err error) {
		class, err = s.store.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "get", err, "Failed to load class")
	}
	return class, nil
}

// GetByParent returns the classes owned by a teacher, newest first.
func (s *ClassService) GetByParent(ctx context.Context, teacherID int64) ([]models.Class, error) {
	var classes []models.Class
	err := s.call(ctx, "list_by_parent", func(ctx context.Context) (err error) {
		classes, err = s.store.List(ctx, newestFirstByParent("teacher_id", teacherID))
		return err
	})
	if err != nil {
		return []models.Class{}, s.fail(ctx, "list_by_parent", err, "Failed to load classes")
	}
	return classes, nil
}

// GetByCode resolves a join code, ignoring case.
func (s *ClassService) GetByCode(ctx context.Context, code string) (*models.Class, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, s.invalid(ctx, "Please enter a class code.", []string{"class_code is required"})
	}
	var class *models.Class
	err := s.call(ctx, "get_by_code", func(ctx context.Context) (err error) {
		class, err = s.store.FindByCode(ctx, code)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = appErrors.Clone(appErrors.ErrNotFound, joinFailedMessage)
		}
		return nil, s.fail(ctx, "get_by_code", err, joinFailedMessage)
	}
	return class, nil
}

// Create validates fields and stores a new class. A join code is generated
// when none is supplied.
func (s *ClassService) Create(ctx context.Context, fields models.Fields) (*models.Class, error) {
	class, appErr := s.prepare(ctx, fields)
	if appErr != nil {
		return nil, s.invalid(ctx, appErr.Message, appErr.Details)
	}
	if err := s.assignCode(ctx, class); err != nil {
		return nil, err
	}
	if err := s.call(ctx, "create", func(ctx context.Context) error { return s.store.Create(ctx, class) }); err != nil {
		return nil, s.fail(ctx, "create", err, "Failed to create class")
	}
	s.succeed(ctx, "Class created successfully!")
	return class, nil
}

// CreateBatch stores every class or none. Every rejected record is reported.
func (s *ClassService) CreateBatch(ctx context.Context, batch []models.Fields) ([]models.Class, error) {
	if len(batch) == 0 {
		return nil, s.invalid(ctx, "invalid class payload", []string{"at least one record is required"})
	}
	classes := make([]*models.Class, 0, len(batch))
	var details []string
	for i, fields := range batch {
		class, appErr := s.prepare(ctx, fields)
		if appErr != nil {
			for _, d := range appErr.Details {
				details = append(details, fmt.Sprintf("record %d: %s", i+1, d))
			}
			continue
		}
		classes = append(classes, class)
	}
	if len(details) > 0 {
		return nil, s.invalid(ctx, "invalid class payload", details)
	}
	for _, class := range classes {
		if err := s.assignCode(ctx, class); err != nil {
			return nil, err
		}
	}
	if err := s.call(ctx, "create_batch", func(ctx context.Context) error { return s.store.CreateBatch(ctx, classes) }); err != nil {
		return nil, s.fail(ctx, "create_batch", err, "Failed to create classes")
	}
	out := make([]models.Class, 0, len(classes))
	for _, class := range classes {
		out = append(out, *class)
	}
	s.succeed(ctx, fmt.Sprintf("%d classes created successfully!", len(out)))
	return out, nil
}

// Update changes only the supplied fields.
func (s *ClassService) Update(ctx context.Context, id int64, fields models.Fields) (*models.Class, error) {
	in, errs := normalizeClass(fields)
	details := append([]string(errs), blank(map[string]*string{"name": in.Name, "description": in.Description, "class_code": in.ClassCode})...)
	if len(details) > 0 {
		return nil, s.invalid(ctx, "invalid class payload", details)
	}
	if in.ClassCode != nil {
		if err := s.codeFree(ctx, *in.ClassCode, id); err != nil {
			return nil, err
		}
	}
	var class *models.Class
	err := s.call(ctx, "update", func(ctx context.Context) (err error) {
		class, err = s.store.Update(ctx, id, in)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "update", err, "Failed to update class")
	}
	s.succeed(ctx, "Class updated successfully!")
	return class, nil
}

// Delete removes a class. It returns true only when the store confirms.
func (s *ClassService) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.call(ctx, "delete", func(ctx context.Context) (err error) {
		deleted, err = s.store.Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, s.fail(ctx, "delete", err, "Failed to delete class")
	}
	s.succeed(ctx, "Class deleted successfully!")
	return deleted, nil
}

// Validate runs create-time normalization and validation without a store
// call or notification.
func (s *ClassService) Validate(ctx context.Context, fields models.Fields) error {
	if _, appErr := s.prepare(ctx, fields); appErr != nil {
		return appErr
	}
	return nil
}

// prepare normalizes and validates a create payload without touching the store.
func (s *ClassService) prepare(ctx context.Context, fields models.Fields) (*models.Class, *appErrors.Error) {
	in, errs := normalizeClass(fields)
	candidate := classCreate{Name: trimmed(in.Name), Description: trimmed(in.Description)}
	if in.TeacherID != nil {
		candidate.TeacherID = *in.TeacherID
	}
	details := []string(errs)
	if err := s.validator.StructCtx(ctx, candidate); err != nil {
		details = append(details, validationDetails(err)...)
	}
	if len(details) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "Please fill in all required fields.", details)
	}
	class := &models.Class{
		Name:        candidate.Name,
		Description: candidate.Description,
		TeacherID:   candidate.TeacherID,
	}
	if in.ClassCode != nil {
		class.ClassCode = *in.ClassCode
	}
	return class, nil
}

// assignCode checks a supplied join code or generates a free one.
func (s *ClassService) assignCode(ctx context.Context, class *models.Class) error {
	if class.ClassCode != "" {
		var exists bool
		err := s.call(ctx, "exists_by_code", func(ctx context.Context) (err error) {
			exists, err = s.store.ExistsByCode(ctx, class.ClassCode)
			return err
		})
		if err != nil {
			return s.fail(ctx, "exists_by_code", err, "Failed to create class")
		}
		if exists {
			return s.fail(ctx, "exists_by_code", appErrors.Clone(appErrors.ErrConflict, "class code already in use"), "")
		}
		return nil
	}

	for attempt := 0; attempt < classCodeAttempts; attempt++ {
		code := s.newCode()
		var exists bool
		err := s.call(ctx, "exists_by_code", func(ctx context.Context) (err error) {
			exists, err = s.store.ExistsByCode(ctx, code)
			return err
		})
		if err != nil {
			return s.fail(ctx, "exists_by_code", err, "Failed to create class")
		}
		if !exists {
			class.ClassCode = code
			return nil
		}
	}
	return s.fail(ctx, "exists_by_code", appErrors.Clone(appErrors.ErrConflict, "could not allocate a unique class code"), "")
}

// codeFree rejects a join code held by any class other than id. The store
// enforces the same rule, so a racing writer still gets a conflict.
func (s *ClassService) codeFree(ctx context.Context, code string, id int64) error {
	var holder *models.Class
	err := s.call(ctx, "find_by_code", func(ctx context.Context) (err error) {
		holder, err = s.store.FindByCode(ctx, code)
		return err
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return s.fail(ctx, "find_by_code", err, "Failed to update class")
	case holder.ID != id:
		return s.fail(ctx, "find_by_code", appErrors.Clone(appErrors.ErrConflict, "class code already in use"), "")
	}
	return nil
}

// generateClassCode maps random UUID bytes onto an uppercase base36 alphabet.
func generateClassCode() string {
	id := uuid.New()
	code := make([]byte, classCodeLength)
	for i := range code {
		code[i] = classCodeAlphabet[int(id[i])%len(classCodeAlphabet)]
	}
	return string(code)
}
