package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/repository"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.NotificationLevel, string) {}

// entityBase carries what every entity service shares: store-call timing,
// error-kind mapping and notification on failure.
type entityBase struct {
	collection string
	label      string
	notifier   Notifier
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	timeout    time.Duration
}

func newEntityBase(collection, label string, notifier Notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) entityBase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return entityBase{
		collection: collection,
		label:      label,
		notifier:   notifier,
		metrics:    metrics,
		validator:  validate,
		logger:     logger.With(zap.String("collection", collection)),
	}
}

// call runs one store operation under the store timeout and records it.
func (b *entityBase) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(ctx)
	b.metrics.ObserveStoreCall(b.collection, op, err, time.Since(start))
	return err
}

// fail converts a store error into a typed error, logs it and notifies the
// client. message is the user-facing text for remote failures.
func (b *entityBase) fail(ctx context.Context, op string, err error, message string) *appErrors.Error {
	var (
		appErr   *appErrors.Error
		batchErr *repository.BatchError
	)
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, repository.ErrNotFound):
		appErr = appErrors.Clone(appErrors.ErrNotFound, b.label+" not found")
	case errors.Is(err, repository.ErrDuplicateCode):
		appErr = appErrors.Clone(appErrors.ErrConflict, "class code already in use")
		appErr.Err = err
	case errors.As(err, &batchErr):
		details := make([]string, 0, len(batchErr.Failures))
		for _, f := range batchErr.Failures {
			details = append(details, fmt.Sprintf("record %d: %v", f.Index+1, f.Err))
		}
		appErr = appErrors.WithDetails(appErrors.ErrPartialBatch, message, details)
		appErr.Err = err
	default:
		appErr = appErrors.Wrap(err, appErrors.ErrRemote.Code, appErrors.ErrRemote.Status, message)
	}

	b.logger.Warn("store call failed", zap.String("operation", op), zap.String("code", appErr.Code), zap.Error(err))
	b.notifier.Notify(ctx, models.NotificationError, notificationText(appErr))
	return appErr
}

// invalid reports a validation failure detected before any store call.
func (b *entityBase) invalid(ctx context.Context, message string, details []string) *appErrors.Error {
	appErr := appErrors.WithDetails(appErrors.ErrValidation, message, details)
	b.notifier.Notify(ctx, models.NotificationError, notificationText(appErr))
	return appErr
}

func (b *entityBase) succeed(ctx context.Context, message string) {
	b.notifier.Notify(ctx, models.NotificationSuccess, message)
}

func notificationText(err *appErrors.Error) string {
	if len(err.Details) == 0 {
		return err.Message
	}
	return err.Message + ": " + strings.Join(err.Details, "; ")
}

// validationDetails flattens validator errors into "field is required" style text.
func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldLabel(fe.Field())
		switch fe.Tag() {
		case "required":
			details = append(details, field+" is required")
		case "gte":
			details = append(details, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "gt":
			details = append(details, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "lte":
			details = append(details, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		default:
			details = append(details, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return details
}

// blank returns the supplied text fields that are empty after trimming.
func blank(fields map[string]*string) []string {
	var details []string
	for name, v := range fields {
		if v != nil && strings.TrimSpace(*v) == "" {
			details = append(details, name+" must not be blank")
		}
	}
	sort.Strings(details)
	return details
}

var fieldLabels = map[string]string{
	"ClassID":   "class_id",
	"DueDate":   "due_date",
	"TeacherID": "teacher_id",
	"ClassCode": "class_code",
}

func fieldLabel(name string) string {
	if label, ok := fieldLabels[name]; ok {
		return label
	}
	return strings.ToLower(name)
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// pageQuery turns list options into a paged newest-first query. Projection
// fields must be known columns; id is always projected.
func (b *entityBase) pageQuery(ctx context.Context, opts models.ListOptions, parentColumn string, columns []string) (models.Query, *models.Pagination, error) {
	page, size := opts.Page, opts.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = models.DefaultPageSize
	}
	if size > models.MaxPageSize {
		size = models.MaxPageSize
	}

	q := models.NewestFirst()
	if opts.ParentID != nil {
		q = newestFirstByParent(parentColumn, *opts.ParentID)
	}
	q.Limit = size
	q.Offset = (page - 1) * size

	if len(opts.Fields) > 0 {
		known := make(map[string]bool, len(columns))
		for _, c := range columns {
			known[c] = true
		}
		q.Fields = []string{"id"}
		var details []string
		for _, raw := range opts.Fields {
			f := strings.ToLower(strings.TrimSpace(raw))
			switch {
			case f == "" || f == "id":
			case !known[f]:
				details = append(details, fmt.Sprintf("unknown field %q", raw))
			default:
				q.Fields = append(q.Fields, f)
			}
		}
		if len(details) > 0 {
			return models.Query{}, nil, b.invalid(ctx, "invalid field selection", details)
		}
	}
	return q, &models.Pagination{Page: page, PageSize: size}, nil
}

// newestFirstByParent builds the getByParent query for a foreign key column.
func newestFirstByParent(column string, parentID int64) models.Query {
	return models.NewestFirst(models.Condition{Field: column, Value: parentID})
}
