package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/repository"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

func newAssignmentFixture(t *testing.T) (*AssignmentService, *countingAssignments, *recordingNotifier) {
	t.Helper()
	store := &countingAssignments{MemoryAssignmentRepository: repository.NewMemoryStore().Assignments}
	notifier := &recordingNotifier{}
	return NewAssignmentService(store, notifier, nil, nil, nil), store, notifier
}

func validAssignment(classID int64) models.Fields {
	return models.Fields{
		"title":       "Lab Report",
		"description": "Write up the titration lab",
		"dueDate":     "2030-05-01T12:00",
		"points":      50,
		"classId":     classID,
	}
}

func TestAssignmentServiceMissingTitleNeverReachesStore(t *testing.T) {
	svc, store, notifier := newAssignmentFixture(t)
	fields := validAssignment(1)
	delete(fields, "title")

	assignment, err := svc.Create(context.Background(), fields)
	assert.Nil(t, assignment)
	require.True(t, appErrors.IsKind(err, appErrors.ErrValidation))
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
	assert.Contains(t, appErrors.FromError(err).Details, "title is required")
	assert.Equal(t, int32(0), store.calls)
	assert.Equal(t, models.NotificationError, notifier.last().Level)
}

func TestAssignmentServiceCreateNormalizesAliases(t *testing.T) {
	svc, store, notifier := newAssignmentFixture(t)

	assignment, err := svc.Create(context.Background(), models.Fields{
		"Title_c":       "Essay",
		"Description_c": "Five paragraphs",
		"Due_Date_c":    "2030-01-15",
		"Points_c":      "100",
		"Class_c":       map[string]interface{}{"Id": float64(2)},
		"Attachments_c": "rubric.pdf, ,outline.docx",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), assignment.ID)
	assert.Equal(t, 100, assignment.Points)
	assert.Equal(t, int64(2), assignment.ClassID)
	assert.Equal(t, time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC), assignment.DueDate)
	assert.Equal(t, models.AttachmentList{"rubric.pdf", "outline.docx"}, assignment.Attachments)
	assert.Equal(t, int32(1), store.calls)
	assert.Equal(t, "Assignment created successfully!", notifier.last().Message)
}

func TestAssignmentServiceRejectsBadCoercions(t *testing.T) {
	svc, store, _ := newAssignmentFixture(t)
	fields := validAssignment(1)
	fields["points"] = "lots"
	fields["dueDate"] = "next tuesday"

	_, err := svc.Create(context.Background(), fields)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, `due_date: "next tuesday" is not a recognised date`)
	assert.Contains(t, appErr.Details, `points: "lots" is not a number`)
	assert.Equal(t, int32(0), store.calls)
}

func TestAssignmentServiceRejectsNegativePoints(t *testing.T) {
	svc, _, _ := newAssignmentFixture(t)
	fields := validAssignment(1)
	fields["points"] = -5

	_, err := svc.Create(context.Background(), fields)
	assert.Contains(t, appErrors.FromError(err).Details, "points must be at least 0")

	created, err := svc.Create(context.Background(), validAssignment(1))
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), created.ID, models.Fields{"points": -1})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))
}

func TestAssignmentServiceRejectsPointsBeyondColumnRange(t *testing.T) {
	svc, store, _ := newAssignmentFixture(t)
	ctx := context.Background()
	fields := validAssignment(1)
	fields["points"] = "3000000000"

	_, err := svc.Create(ctx, fields)
	require.True(t, appErrors.IsKind(err, appErrors.ErrValidation))
	assert.Contains(t, appErrors.FromError(err).Details, "points must be at most 2147483647")

	created, err := svc.Create(ctx, validAssignment(1))
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, models.Fields{"Points_c": 2147483648})
	require.True(t, appErrors.IsKind(err, appErrors.ErrValidation))
	assert.Contains(t, appErrors.FromError(err).Details, "points must be at most 2147483647")

	stored, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Points, stored.Points)

	updated, err := svc.Update(ctx, created.ID, models.Fields{"points": 2147483647})
	require.NoError(t, err)
	assert.Equal(t, 2147483647, updated.Points)
}

func TestAssignmentServiceGetByParent(t *testing.T) {
	svc, _, _ := newAssignmentFixture(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, validAssignment(1))
	require.NoError(t, err)
	second, err := svc.Create(ctx, validAssignment(1))
	require.NoError(t, err)
	_, err = svc.Create(ctx, validAssignment(2))
	require.NoError(t, err)

	forClass, err := svc.GetByParent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, forClass, 2)
	assert.Equal(t, second.ID, forClass[0].ID)
	for _, a := range forClass {
		assert.Equal(t, int64(1), a.ClassID)
	}

	empty, err := svc.GetByParent(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAssignmentServiceBatchRejectsInvalidRecords(t *testing.T) {
	svc, store, _ := newAssignmentFixture(t)
	bad := validAssignment(1)
	delete(bad, "dueDate")

	_, err := svc.CreateBatch(context.Background(), []models.Fields{validAssignment(1), bad})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, []string{"record 2: due_date is required"}, appErr.Details)
	assert.Equal(t, int32(0), store.calls)

	_, err = svc.CreateBatch(context.Background(), nil)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))
}

func TestAssignmentServiceConcurrentUpdatesStayWellFormed(t *testing.T) {
	svc, _, _ := newAssignmentFixture(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validAssignment(1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Update(ctx, created.ID, models.Fields{"title": fmt.Sprintf("Title %d", i), "points": i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Title %d", final.Points), final.Title)
	assert.Equal(t, "Write up the titration lab", final.Description)
}

func TestAssignmentServiceDeleteMissing(t *testing.T) {
	svc, _, notifier := newAssignmentFixture(t)

	deleted, err := svc.Delete(context.Background(), 5)
	assert.False(t, deleted)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound))
	assert.Equal(t, "Assignment not found", notifier.last().Message)
}

func TestAssignmentServiceCancelledContext(t *testing.T) {
	svc, _, _ := newAssignmentFixture(t)
	svc.WithStoreTimeout(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list, err := svc.GetAll(ctx)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrRemote))
}
