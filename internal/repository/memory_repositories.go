package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/classconnect-api/internal/models"
)

// MemoryStore keeps all three collections in process. It backs local
// development and tests with the same error contract as Postgres.
type MemoryStore struct {
	Classes       *MemoryClassRepository
	Assignments   *MemoryAssignmentRepository
	Announcements *MemoryAnnouncementRepository
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Classes: &MemoryClassRepository{table: newMemoryTable(tableAccess[models.Class]{
			id: classID, setID: setClassID, created: classCreated, field: classField, project: projectClass,
		})},
		Assignments: &MemoryAssignmentRepository{table: newMemoryTable(tableAccess[models.Assignment]{
			id: assignmentID, setID: setAssignmentID, created: assignmentCreated, field: assignmentField, project: projectAssignment,
		})},
		Announcements: &MemoryAnnouncementRepository{table: newMemoryTable(tableAccess[models.Announcement]{
			id: announcementID, setID: setAnnouncementID, created: announcementCreated, field: announcementField, project: projectAnnouncement,
		})},
	}
}

// MemoryClassRepository is the in-memory class collection.
type MemoryClassRepository struct {
	table *memoryTable[models.Class]
}

func (r *MemoryClassRepository) List(ctx context.Context, q models.Query) ([]models.Class, error) {
	return r.table.list(ctx, q)
}

func (r *MemoryClassRepository) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	return r.table.get(ctx, id)
}

func (r *MemoryClassRepository) FindByCode(ctx context.Context, code string) (*models.Class, error) {
	return r.table.find(ctx, func(c models.Class) bool { return strings.EqualFold(c.ClassCode, code) })
}

func (r *MemoryClassRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *MemoryClassRepository) Create(ctx context.Context, class *models.Class) error {
	err := r.CreateBatch(ctx, []*models.Class{class})
	var batchErr *BatchError
	if errors.As(err, &batchErr) && len(batchErr.Failures) == 1 {
		return fmt.Errorf("create class: %w", batchErr.Failures[0].Err)
	}
	return err
}

// CreateBatch enforces join-code uniqueness across the store and the batch.
func (r *MemoryClassRepository) CreateBatch(ctx context.Context, classes []*models.Class) error {
	return r.table.insert(ctx, classes, func(c *models.Class, earlier []*models.Class) error {
		for _, existing := range r.table.rows {
			if strings.EqualFold(existing.ClassCode, c.ClassCode) {
				return fmt.Errorf("class code %s: %w", c.ClassCode, ErrDuplicateCode)
			}
		}
		for _, e := range earlier {
			if strings.EqualFold(e.ClassCode, c.ClassCode) {
				return fmt.Errorf("class code %s duplicated in batch", c.ClassCode)
			}
		}
		return nil
	})
}

func (r *MemoryClassRepository) Update(ctx context.Context, id int64, in models.ClassInput) (*models.Class, error) {
	return r.table.update(ctx, id, func(c *models.Class) error {
		if in.ClassCode != nil {
			for otherID, other := range r.table.rows {
				if otherID != id && strings.EqualFold(other.ClassCode, *in.ClassCode) {
					return fmt.Errorf("class code %s: %w", *in.ClassCode, ErrDuplicateCode)
				}
			}
		}
		if in.Name != nil {
			c.Name = *in.Name
		}
		if in.Description != nil {
			c.Description = *in.Description
		}
		if in.ClassCode != nil {
			c.ClassCode = *in.ClassCode
		}
		if in.TeacherID != nil {
			c.TeacherID = *in.TeacherID
		}
		return nil
	})
}

func (r *MemoryClassRepository) Count(ctx context.Context, where []models.Condition) (int, error) {
	return r.table.count(ctx, where)
}

func (r *MemoryClassRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.table.remove(ctx, id)
}

// MemoryAssignmentRepository is the in-memory assignment collection.
type MemoryAssignmentRepository struct {
	table *memoryTable[models.Assignment]
}

func (r *MemoryAssignmentRepository) List(ctx context.Context, q models.Query) ([]models.Assignment, error) {
	return r.table.list(ctx, q)
}

func (r *MemoryAssignmentRepository) FindByID(ctx context.Context, id int64) (*models.Assignment, error) {
	return r.table.get(ctx, id)
}

func (r *MemoryAssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	return r.CreateBatch(ctx, []*models.Assignment{a})
}

func (r *MemoryAssignmentRepository) CreateBatch(ctx context.Context, assignments []*models.Assignment) error {
	for _, a := range assignments {
		if a.Attachments == nil {
			a.Attachments = models.AttachmentList{}
		}
	}
	return r.table.insert(ctx, assignments, nil)
}

func (r *MemoryAssignmentRepository) Update(ctx context.Context, id int64, in models.AssignmentInput) (*models.Assignment, error) {
	return r.table.update(ctx, id, func(a *models.Assignment) error {
		if in.Title != nil {
			a.Title = *in.Title
		}
		if in.Description != nil {
			a.Description = *in.Description
		}
		if in.DueDate != nil {
			a.DueDate = in.DueDate.UTC()
		}
		if in.Points != nil {
			a.Points = *in.Points
		}
		if in.ClassID != nil {
			a.ClassID = *in.ClassID
		}
		if in.Attachments != nil {
			a.Attachments = append(models.AttachmentList{}, (*in.Attachments)...)
		}
		return nil
	})
}

func (r *MemoryAssignmentRepository) Count(ctx context.Context, where []models.Condition) (int, error) {
	return r.table.count(ctx, where)
}

func (r *MemoryAssignmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.table.remove(ctx, id)
}

// MemoryAnnouncementRepository is the in-memory announcement collection.
type MemoryAnnouncementRepository struct {
	table *memoryTable[models.Announcement]
}

func (r *MemoryAnnouncementRepository) List(ctx context.Context, q models.Query) ([]models.Announcement, error) {
	return r.table.list(ctx, q)
}

func (r *MemoryAnnouncementRepository) FindByID(ctx context.Context, id int64) (*models.Announcement, error) {
	return r.table.get(ctx, id)
}

func (r *MemoryAnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	return r.CreateBatch(ctx, []*models.Announcement{a})
}

func (r *MemoryAnnouncementRepository) CreateBatch(ctx context.Context, announcements []*models.Announcement) error {
	for _, a := range announcements {
		switch {
		case a.ClassID == nil:
		case *a.ClassID == 0:
			a.ClassID = nil
		default:
			classID := *a.ClassID
			a.ClassID = &classID
		}
	}
	return r.table.insert(ctx, announcements, nil)
}

func (r *MemoryAnnouncementRepository) Update(ctx context.Context, id int64, in models.AnnouncementInput) (*models.Announcement, error) {
	return r.table.update(ctx, id, func(a *models.Announcement) error {
		if in.Title != nil {
			a.Title = *in.Title
		}
		if in.Content != nil {
			a.Content = *in.Content
		}
		if in.ClassID != nil {
			if *in.ClassID == 0 {
				a.ClassID = nil
			} else {
				classID := *in.ClassID
				a.ClassID = &classID
			}
		}
		return nil
	})
}

func (r *MemoryAnnouncementRepository) Count(ctx context.Context, where []models.Condition) (int, error) {
	return r.table.count(ctx, where)
}

func (r *MemoryAnnouncementRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.table.remove(ctx, id)
}

func classID(c models.Class) int64            { return c.ID }
func setClassID(c *models.Class, id int64)    { c.ID = id }
func classCreated(c *models.Class) *time.Time { return &c.CreatedAt }

func assignmentID(a models.Assignment) int64            { return a.ID }
func setAssignmentID(a *models.Assignment, id int64)    { a.ID = id }
func assignmentCreated(a *models.Assignment) *time.Time { return &a.CreatedAt }

func announcementID(a models.Announcement) int64            { return a.ID }
func setAnnouncementID(a *models.Announcement, id int64)    { a.ID = id }
func announcementCreated(a *models.Announcement) *time.Time { return &a.CreatedAt }

func classField(c models.Class, name string) (interface{}, bool) {
	switch name {
	case "id":
		return c.ID, true
	case "name":
		return c.Name, true
	case "description":
		return c.Description, true
	case "class_code":
		return c.ClassCode, true
	case "teacher_id":
		return c.TeacherID, true
	case "created_at":
		return c.CreatedAt, true
	}
	return nil, false
}

func assignmentField(a models.Assignment, name string) (interface{}, bool) {
	switch name {
	case "id":
		return a.ID, true
	case "title":
		return a.Title, true
	case "description":
		return a.Description, true
	case "due_date":
		return a.DueDate, true
	case "points":
		return a.Points, true
	case "class_id":
		return a.ClassID, true
	case "attachments":
		return a.Attachments.String(), true
	case "created_at":
		return a.CreatedAt, true
	}
	return nil, false
}

func announcementField(a models.Announcement, name string) (interface{}, bool) {
	switch name {
	case "id":
		return a.ID, true
	case "title":
		return a.Title, true
	case "content":
		return a.Content, true
	case "class_id":
		return a.ClassID, true
	case "created_at":
		return a.CreatedAt, true
	}
	return nil, false
}

// Projections keep only the named columns, matching a Postgres SELECT of
// the same column list scanned into a zero struct.

func projectClass(c models.Class, keep map[string]bool) models.Class {
	var out models.Class
	if keep["id"] {
		out.ID = c.ID
	}
	if keep["name"] {
		out.Name = c.Name
	}
	if keep["description"] {
		out.Description = c.Description
	}
	if keep["class_code"] {
		out.ClassCode = c.ClassCode
	}
	if keep["teacher_id"] {
		out.TeacherID = c.TeacherID
	}
	if keep["created_at"] {
		out.CreatedAt = c.CreatedAt
	}
	return out
}

func projectAssignment(a models.Assignment, keep map[string]bool) models.Assignment {
	var out models.Assignment
	if keep["id"] {
		out.ID = a.ID
	}
	if keep["title"] {
		out.Title = a.Title
	}
	if keep["description"] {
		out.Description = a.Description
	}
	if keep["due_date"] {
		out.DueDate = a.DueDate
	}
	if keep["points"] {
		out.Points = a.Points
	}
	if keep["class_id"] {
		out.ClassID = a.ClassID
	}
	if keep["attachments"] {
		out.Attachments = append(models.AttachmentList{}, a.Attachments...)
	}
	if keep["created_at"] {
		out.CreatedAt = a.CreatedAt
	}
	return out
}

func projectAnnouncement(a models.Announcement, keep map[string]bool) models.Announcement {
	var out models.Announcement
	if keep["id"] {
		out.ID = a.ID
	}
	if keep["title"] {
		out.Title = a.Title
	}
	if keep["content"] {
		out.Content = a.Content
	}
	if keep["class_id"] && a.ClassID != nil {
		classID := *a.ClassID
		out.ClassID = &classID
	}
	if keep["created_at"] {
		out.CreatedAt = a.CreatedAt
	}
	return out
}
