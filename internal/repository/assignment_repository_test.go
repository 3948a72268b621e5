package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classconnect-api/internal/models"
)

func TestAssignmentRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	due := time.Now().Add(48 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, due_date, points, class_id, attachments, created_at FROM assignments WHERE class_id = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(models.AssignmentColumns).
			AddRow(5, "Lab report", "Cells", due, 100, 2, "lab.pdf, rubric.pdf", time.Now()))

	assignments, err := repo.List(context.Background(), models.NewestFirst(models.Condition{Field: "class_id", Value: int64(2)}))
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, models.AttachmentList{"lab.pdf", "rubric.pdf"}, assignments[0].Attachments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateStoresAttachmentText(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO assignments").
		WithArgs("Essay", "Write", due, 50, int64(1), "a.pdf,b.pdf", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	a := &models.Assignment{Title: "Essay", Description: "Write", DueDate: due, Points: 50, ClassID: 1, Attachments: models.AttachmentList{"a.pdf", "b.pdf"}}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, int64(9), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateNoFieldsReads(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM assignments WHERE id = \\$1").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(models.AssignmentColumns).AddRow(4, "T", "D", time.Now(), 10, 1, "", time.Now()))

	a, err := repo.Update(context.Background(), 4, models.AssignmentInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), a.ID)
	assert.Empty(t, a.Attachments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdatePointsAndDue(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	points := 80
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE assignments SET due_date = $1, points = $2 WHERE id = $3 RETURNING")).
		WithArgs(due, points, int64(4)).
		WillReturnRows(sqlmock.NewRows(models.AssignmentColumns).AddRow(4, "T", "D", due, points, 1, "", time.Now()))

	a, err := repo.Update(context.Background(), 4, models.AssignmentInput{Points: &points, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, 80, a.Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}
