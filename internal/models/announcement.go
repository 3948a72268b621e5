package models

import "time"

// Announcement is a notice posted to one class or, with no class, to everyone.
type Announcement struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	ClassID   *int64    `db:"class_id" json:"class_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AnnouncementInput is the canonical create/update payload after alias normalization.
type AnnouncementInput struct {
	Title   *string
	Content *string
	ClassID *int64
}

// AnnouncementColumns lists every column of the announcements collection in select order.
var AnnouncementColumns = []string{"id", "title", "content", "class_id", "created_at"}

// GeneralAudience labels announcements without a resolvable class.
const GeneralAudience = "General"

// AudienceLabel resolves the class label for an announcement.
func (a Announcement) AudienceLabel(classes []Class) string {
	if a.ClassID == nil {
		return GeneralAudience
	}
	for _, c := range classes {
		if c.ID == *a.ClassID {
			return c.Name
		}
	}
	return GeneralAudience
}
