package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Assignment is a piece of work posted to a class.
type Assignment struct {
	ID          int64          `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	DueDate     time.Time      `db:"due_date" json:"due_date"`
	Points      int            `db:"points" json:"points"`
	ClassID     int64          `db:"class_id" json:"class_id"`
	Attachments AttachmentList `db:"attachments" json:"attachments"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// AssignmentInput is the canonical create/update payload after alias normalization.
type AssignmentInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Points      *int
	ClassID     *int64
	Attachments *AttachmentList
}

// AssignmentColumns lists every column of the assignments collection in select order.
var AssignmentColumns = []string{"id", "title", "description", "due_date", "points", "class_id", "attachments", "created_at"}

// AttachmentList is persisted as comma-delimited text.
type AttachmentList []string

// ParseAttachments splits comma-delimited text, dropping blank entries.
func ParseAttachments(raw string) AttachmentList {
	list := AttachmentList{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

// String joins the list back into its stored form.
func (a AttachmentList) String() string {
	return strings.Join(a, ",")
}

// Value implements driver.Valuer.
func (a AttachmentList) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *AttachmentList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = AttachmentList{}
	case string:
		*a = ParseAttachments(v)
	case []byte:
		*a = ParseAttachments(string(v))
	default:
		return fmt.Errorf("scan attachments: unsupported type %T", src)
	}
	return nil
}

// DueStatus classifies an assignment deadline for badges.
type DueStatus string

const (
	DueStatusOverdue  DueStatus = "overdue"
	DueStatusDueSoon  DueStatus = "due_soon"
	DueStatusUpcoming DueStatus = "upcoming"
	DueStatusActive   DueStatus = "active"
)

// DaysUntil returns whole days between now and due, truncated toward zero.
func DaysUntil(due, now time.Time) int {
	return int(due.Sub(now) / (24 * time.Hour))
}

// StatusAt classifies the assignment deadline relative to now.
func (a Assignment) StatusAt(now time.Time) DueStatus {
	if now.After(a.DueDate) {
		return DueStatusOverdue
	}
	days := DaysUntil(a.DueDate, now)
	switch {
	case days <= 1:
		return DueStatusDueSoon
	case days <= 7:
		return DueStatusUpcoming
	default:
		return DueStatusActive
	}
}
