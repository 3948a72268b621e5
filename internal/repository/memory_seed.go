package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/classconnect-api/internal/models"
)

// DemoTeacherID owns every seeded class.
const DemoTeacherID int64 = 1

// SeedDemo fills an empty memory store with a small demo school. Due dates
// are placed relative to now so every due status is represented.
func SeedDemo(ctx context.Context, store *MemoryStore, now time.Time) error {
	day := 24 * time.Hour
	classes := []*models.Class{
		{Name: "Algebra II", Description: "Functions, polynomials and systems of equations.", ClassCode: "ALG2X7", TeacherID: DemoTeacherID, CreatedAt: now.Add(-30 * day)},
		{Name: "World History", Description: "From ancient civilizations to the modern era.", ClassCode: "HIS4K2", TeacherID: DemoTeacherID, CreatedAt: now.Add(-20 * day)},
		{Name: "Biology", Description: "Cells, genetics and ecosystems.", ClassCode: "BIO9Q1", TeacherID: DemoTeacherID, CreatedAt: now.Add(-10 * day)},
	}
	if err := store.Classes.CreateBatch(ctx, classes); err != nil {
		return fmt.Errorf("seed classes: %w", err)
	}

	algebra, history, biology := classes[0].ID, classes[1].ID, classes[2].ID
	assignments := []*models.Assignment{
		{Title: "Quadratic Functions Worksheet", Description: "Complete problems 1-20.", DueDate: now.Add(-2 * day), Points: 50, ClassID: algebra, Attachments: models.AttachmentList{"worksheet.pdf"}, CreatedAt: now.Add(-9 * day)},
		{Title: "Systems of Equations Quiz", Description: "Short quiz covering substitution and elimination.", DueDate: now.Add(12 * time.Hour), Points: 25, ClassID: algebra, CreatedAt: now.Add(-5 * day)},
		{Title: "Renaissance Essay", Description: "Five paragraphs on a Renaissance figure of your choice.", DueDate: now.Add(5 * day), Points: 100, ClassID: history, Attachments: models.AttachmentList{"rubric.pdf", "sources.docx"}, CreatedAt: now.Add(-4 * day)},
		{Title: "Cell Structure Lab", Description: "Label the organelles observed under the microscope.", DueDate: now.Add(3 * day), Points: 40, ClassID: biology, CreatedAt: now.Add(-2 * day)},
		{Title: "Ecosystem Project", Description: "Group presentation on a local ecosystem.", DueDate: now.Add(21 * day), Points: 150, ClassID: biology, CreatedAt: now.Add(-1 * day)},
	}
	if err := store.Assignments.CreateBatch(ctx, assignments); err != nil {
		return fmt.Errorf("seed assignments: %w", err)
	}

	announcements := []*models.Announcement{
		{Title: "Welcome back!", Content: "Classes resume on Monday. Check each class page for materials.", CreatedAt: now.Add(-15 * day)},
		{Title: "Quiz moved", Content: "The systems of equations quiz is now due tomorrow.", ClassID: &algebra, CreatedAt: now.Add(-3 * day)},
		{Title: "Lab safety", Content: "Bring goggles to every lab session.", ClassID: &biology, CreatedAt: now.Add(-1 * day)},
	}
	if err := store.Announcements.CreateBatch(ctx, announcements); err != nil {
		return fmt.Errorf("seed announcements: %w", err)
	}
	return nil
}
