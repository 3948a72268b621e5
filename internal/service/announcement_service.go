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

type announcementStore interface {
	List(ctx context.Context, q models.Query) ([]models.Announcement, error)
	Count(ctx context.Context, where []models.Condition) (int, error)
	FindByID(ctx context.Context, id int64) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	CreateBatch(ctx context.Context, announcements []*models.Announcement) error
	Update(ctx context.Context, id int64, in models.AnnouncementInput) (*models.Announcement, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type announcementCreate struct {
	Title   string `validate:"required"`
	Content string `validate:"required"`
}

// AnnouncementService is the entity repository for announcements. An
// announcement without a class is general and has no parent.
type AnnouncementService struct {
	entityBase
	store announcementStore
}

// NewAnnouncementService constructs AnnouncementService.
func NewAnnouncementService(store announcementStore, notifier Notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	return &AnnouncementService{
		entityBase: newEntityBase("announcements", "Announcement", notifier, metrics, validate, logger),
		store:      store,
	}
}

// WithStoreTimeout bounds every store call made by the service.
func (s *AnnouncementService) WithStoreTimeout(d time.Duration) *AnnouncementService {
	s.timeout = d
	return s
}

// GetAll returns every announcement, newest first.
func (s *AnnouncementService) GetAll(ctx context.Context) ([]models.Announcement, error) {
	var announcements []models.Announcement
	err := s.call(ctx, "list", func(ctx context.Context) (err error) {
		announcements, err = s.store.List(ctx, models.NewestFirst())
		return err
	})
	if err != nil {
		return []models.Announcement{}, s.fail(ctx, "list", err, "Failed to load announcements")
	}
	return announcements, nil
}

// List returns one page of announcements, newest first, with its pagination.
func (s *AnnouncementService) List(ctx context.Context, opts models.ListOptions) ([]models.Announcement, *models.Pagination, error) {
	q, pagination, err := s.pageQuery(ctx, opts, "class_id", models.AnnouncementColumns)
	if err != nil {
		return []models.Announcement{}, nil, err
	}
	var announcements []models.Announcement
	err = s.call(ctx, "list_page", func(ctx context.Context) (err error) {
		if pagination.TotalCount, err = s.store.Count(ctx, q.Where); err != nil {
			return err
		}
		announcements, err = s.store.List(ctx, q)
		return err
	})
	if err != nil {
		return []models.Announcement{}, nil, s.fail(ctx, "list_page", err, "Failed to load announcements")
	}
	return announcements, pagination, nil
}

// GetByID returns one announcement or a NOT_FOUND error.
func (s *AnnouncementService) GetByID(ctx context.Context, id int64) (*models.Announcement, error) {
	var announcement *models.Announcement
	err := s.call(ctx, "get", func(ctx context.Context) (err error) {
		announcement, err = s.store.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "get", err, "Failed to load announcement")
	}
	return announcement, nil
}

// GetByParent returns the announcements posted to one class, newest first.
func (s *AnnouncementService) GetByParent(ctx context.Context, classID int64) ([]models.Announcement, error) {
	var announcements []models.Announcement
	err := s.call(ctx, "list_by_parent", func(ctx context.Context) (err error) {
		announcements, err = s.store.List(ctx, newestFirstByParent("class_id", classID))
		return err
	})
	if err != nil {
		return []models.Announcement{}, s.fail(ctx, "list_by_parent", err, "Failed to load announcements")
	}
	return announcements, nil
}

// Create validates fields and stores a new announcement.
func (s *AnnouncementService) Create(ctx context.Context, fields models.Fields) (*models.Announcement, error) {
	announcement, appErr := s.prepare(ctx, fields)
	if appErr != nil {
		return nil, s.invalid(ctx, appErr.Message, appErr.Details)
	}
	if err := s.call(ctx, "create", func(ctx context.Context) error { return s.store.Create(ctx, announcement) }); err != nil {
		return nil, s.fail(ctx, "create", err, "Failed to create announcement")
	}
	s.succeed(ctx, "Announcement posted successfully!")
	return announcement, nil
}

// CreateBatch stores every announcement or none.
func (s *AnnouncementService) CreateBatch(ctx context.Context, batch []models.Fields) ([]models.Announcement, error) {
	if len(batch) == 0 {
		return nil, s.invalid(ctx, "invalid announcement payload", []string{"at least one record is required"})
	}
	announcements := make([]*models.Announcement, 0, len(batch))
	var details []string
	for i, fields := range batch {
		announcement, appErr := s.prepare(ctx, fields)
		if appErr != nil {
			for _, d := range appErr.Details {
				details = append(details, fmt.Sprintf("record %d: %s", i+1, d))
			}
			continue
		}
		announcements = append(announcements, announcement)
	}
	if len(details) > 0 {
		return nil, s.invalid(ctx, "invalid announcement payload", details)
	}
	if err := s.call(ctx, "create_batch", func(ctx context.Context) error { return s.store.CreateBatch(ctx, announcements) }); err != nil {
		return nil, s.fail(ctx, "create_batch", err, "Failed to create announcements")
	}
	out := make([]models.Announcement, 0, len(announcements))
	for _, a := range announcements {
		out = append(out, *a)
	}
	s.succeed(ctx, fmt.Sprintf("%d announcements posted successfully!", len(out)))
	return out, nil
}

// Update changes only the supplied fields. A class of zero or null makes the
// announcement general.
func (s *AnnouncementService) Update(ctx context.Context, id int64, fields models.Fields) (*models.Announcement, error) {
	in, errs := normalizeAnnouncement(fields)
	details := append([]string(errs), blank(map[string]*string{"title": in.Title, "content": in.Content})...)
	if len(details) > 0 {
		return nil, s.invalid(ctx, "invalid announcement payload", details)
	}
	var announcement *models.Announcement
	err := s.call(ctx, "update", func(ctx context.Context) (err error) {
		announcement, err = s.store.Update(ctx, id, in)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "update", err, "Failed to update announcement")
	}
	s.succeed(ctx, "Announcement updated successfully!")
	return announcement, nil
}

// Delete removes an announcement. It returns true only when the store confirms.
func (s *AnnouncementService) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.call(ctx, "delete", func(ctx context.Context) (err error) {
		deleted, err = s.store.Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, s.fail(ctx, "delete", err, "Failed to delete announcement")
	}
	s.succeed(ctx, "Announcement deleted successfully!")
	return deleted, nil
}

// Validate runs create-time normalization and validation without a store
// call or notification.
func (s *AnnouncementService) Validate(ctx context.Context, fields models.Fields) error {
	if _, appErr := s.prepare(ctx, fields); appErr != nil {
		return appErr
	}
	return nil
}

func (s *AnnouncementService) prepare(ctx context.Context, fields models.Fields) (*models.Announcement, *appErrors.Error) {
	in, errs := normalizeAnnouncement(fields)
	candidate := announcementCreate{Title: trimmed(in.Title), Content: trimmed(in.Content)}
	details := []string(errs)
	if err := s.validator.StructCtx(ctx, candidate); err != nil {
		details = append(details, validationDetails(err)...)
	}
	if len(details) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "Please fill in all required fields.", details)
	}
	announcement := &models.Announcement{Title: candidate.Title, Content: candidate.Content}
	if in.ClassID != nil && *in.ClassID != 0 {
		classID := *in.ClassID
		announcement.ClassID = &classID
	}
	return announcement, nil
}
