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

var announcementCollection = newCollection("announcements", models.AnnouncementColumns)

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements matching the query.
func (r *AnnouncementRepository) List(ctx context.Context, q models.Query) ([]models.Announcement, error) {
	query, args, err := announcementCollection.selectQuery(q)
	if err != nil {
		return nil, err
	}
	announcements := []models.Announcement{}
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return announcements, nil
}

// FindByID returns an announcement by identifier.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id int64) (*models.Announcement, error) {
	query := fmt.Sprintf("SELECT %s FROM announcements WHERE id = $1", announcementCollection.columnList())
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find announcement: %w", err)
	}
	return &announcement, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if err := insertAnnouncement(ctx, r.db, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// CreateBatch persists all announcements or none of them.
func (r *AnnouncementRepository) CreateBatch(ctx context.Context, announcements []*models.Announcement) error {
	return insertBatch(ctx, r.db, len(announcements), func(tx *sqlx.Tx, i int) error {
		return insertAnnouncement(ctx, tx, announcements[i])
	})
}

// Update modifies the supplied fields of an announcement. A class ID of zero
// turns the announcement into a general one.
func (r *AnnouncementRepository) Update(ctx context.Context, id int64, in models.AnnouncementInput) (*models.Announcement, error) {
	var set setList
	if in.Title != nil {
		set.add("title", *in.Title)
	}
	if in.Content != nil {
		set.add("content", *in.Content)
	}
	if in.ClassID != nil {
		set.add("class_id", nullableID(in.ClassID))
	}
	if set.empty() {
		return r.FindByID(ctx, id)
	}

	query, args := set.updateQuery(announcementCollection, id)
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update announcement: %w", err)
	}
	return &announcement, nil
}

// Count returns how many announcements match the filter.
func (r *AnnouncementRepository) Count(ctx context.Context, where []models.Condition) (int, error) {
	return countRows(ctx, r.db, announcementCollection, where)
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.db, announcementCollection, id)
}

func insertAnnouncement(ctx context.Context, q sqlx.QueryerContext, a *models.Announcement) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.ClassID != nil && *a.ClassID == 0 {
		a.ClassID = nil
	}
	const query = `INSERT INTO announcements (title, content, class_id, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	return q.QueryRowxContext(ctx, query, a.Title, a.Content, nullableID(a.ClassID), a.CreatedAt).Scan(&a.ID)
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil || *id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
