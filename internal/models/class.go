package models

import "time"

// Class represents a class owned by a teacher that students join by code.
type Class struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	ClassCode   string    `db:"class_code" json:"class_code"`
	TeacherID   int64     `db:"teacher_id" json:"teacher_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ClassInput is the canonical create/update payload after alias normalization.
// Nil fields were not supplied by the caller.
type ClassInput struct {
	Name        *string
	Description *string
	ClassCode   *string
	TeacherID   *int64
}

// ClassColumns lists every column of the classes collection in select order.
var ClassColumns = []string{"id", "name", "description", "class_code", "teacher_id", "created_at"}

// UnknownClassName labels assignments whose class no longer resolves.
const UnknownClassName = "Unknown Class"

// ClassName resolves a class name from an already-fetched list.
func ClassName(classes []Class, id int64) string {
	for _, c := range classes {
		if c.ID == id {
			return c.Name
		}
	}
	return UnknownClassName
}
