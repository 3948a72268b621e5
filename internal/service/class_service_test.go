package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/repository"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

func newClassFixture(t *testing.T) (*ClassService, *repository.MemoryStore, *recordingNotifier) {
	t.Helper()
	store := repository.NewMemoryStore()
	notifier := &recordingNotifier{}
	svc := NewClassService(store.Classes, notifier, nil, nil, nil)
	return svc, store, notifier
}

func TestClassServiceCreateAssignsNextIDAndListsFirst(t *testing.T) {
	svc, store, notifier := newClassFixture(t)
	ctx := context.Background()
	require.NoError(t, store.Classes.Create(ctx, &models.Class{Name: "Math", ClassCode: "MAT001", CreatedAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, store.Classes.Create(ctx, &models.Class{Name: "Art", ClassCode: "ART001", CreatedAt: time.Now().Add(-time.Minute)}))

	class, err := svc.Create(ctx, models.Fields{"name": "Biology", "description": "Intro"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), class.ID)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-Z]{6}$`), class.ClassCode)
	assert.Equal(t, models.NotificationSuccess, notifier.last().Level)

	classes, err := svc.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 3)
	assert.Equal(t, int64(3), classes[0].ID)
	assert.Equal(t, "Biology", classes[0].Name)

	occurrences := 0
	for _, c := range classes {
		if c.ID == class.ID {
			occurrences++
		}
	}
	assert.Equal(t, 1, occurrences)
}

func TestClassServiceAcceptsSuffixedAliases(t *testing.T) {
	svc, _, _ := newClassFixture(t)

	class, err := svc.Create(context.Background(), models.Fields{
		"Name_c":        "Chemistry",
		"Description_c": "Reactions",
		"Teacher_Id_c":  float64(1),
		"Class_Code_c":  "chem01",
	})
	require.NoError(t, err)
	assert.Equal(t, "CHEM01", class.ClassCode)
	assert.Equal(t, int64(1), class.TeacherID)
}

func TestClassServiceGetByIDNeverIssued(t *testing.T) {
	svc, _, notifier := newClassFixture(t)

	class, err := svc.GetByID(context.Background(), 42)
	assert.Nil(t, class)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound))
	assert.Equal(t, models.NotificationError, notifier.last().Level)
	assert.Equal(t, "Class not found", notifier.last().Message)
}

func TestClassServiceDeleteThenGet(t *testing.T) {
	svc, _, _ := newClassFixture(t)
	ctx := context.Background()
	class, err := svc.Create(ctx, models.Fields{"name": "Biology", "description": "Intro"})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, class.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.GetByID(ctx, class.ID)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound))

	deleted, err = svc.Delete(ctx, class.ID)
	assert.False(t, deleted)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound))
}

func TestClassServiceGetByParent(t *testing.T) {
	svc, _, _ := newClassFixture(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, models.Fields{"name": "Mine", "description": "x", "teacherId": 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.Fields{"name": "Theirs", "description": "x", "teacherId": 2})
	require.NoError(t, err)

	mine, err := svc.GetByParent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Name)

	none, err := svc.GetByParent(ctx, 99)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestClassServiceRejectsDuplicateSuppliedCode(t *testing.T) {
	svc, _, _ := newClassFixture(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, models.Fields{"name": "A", "description": "x", "classCode": "ABC123"})
	require.NoError(t, err)

	class, err := svc.Create(ctx, models.Fields{"name": "B", "description": "x", "classCode": "abc123"})
	assert.Nil(t, class)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrConflict))
}

func TestClassServiceRetriesGeneratedCodeCollision(t *testing.T) {
	svc, store, _ := newClassFixture(t)
	ctx := context.Background()
	require.NoError(t, store.Classes.Create(ctx, &models.Class{Name: "Taken", ClassCode: "AAAAAA"}))

	codes := []string{"AAAAAA", "BBBBBB"}
	svc.newCode = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}

	class, err := svc.Create(ctx, models.Fields{"name": "New", "description": "x"})
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", class.ClassCode)
}

func TestClassServiceValidationFailsBeforeStore(t *testing.T) {
	svc, store, notifier := newClassFixture(t)

	class, err := svc.Create(context.Background(), models.Fields{"name": "   "})
	assert.Nil(t, class)
	require.True(t, appErrors.IsKind(err, appErrors.ErrValidation))
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Details, "name is required")
	assert.Contains(t, appErr.Details, "description is required")
	assert.Equal(t, models.NotificationError, notifier.last().Level)

	classes, err := store.Classes.List(context.Background(), models.Query{})
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func TestClassServiceRemoteFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewClassService(failingClassStore{}, notifier, nil, nil, nil)
	ctx := context.Background()

	classes, err := svc.GetAll(ctx)
	assert.NotNil(t, classes)
	assert.Empty(t, classes)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrRemote))
	assert.Equal(t, "Failed to load classes", notifier.last().Message)

	deleted, err := svc.Delete(ctx, 1)
	assert.False(t, deleted)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrRemote))
}

func TestClassServiceBatchFailureReportsEveryRecord(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewClassService(failingClassStore{}, notifier, nil, nil, nil)

	classes, err := svc.CreateBatch(context.Background(), []models.Fields{
		{"name": "A", "description": "x"},
		{"name": "B", "description": "y"},
	})
	assert.Nil(t, classes)
	require.True(t, appErrors.IsKind(err, appErrors.ErrPartialBatch))
	appErr := appErrors.FromError(err)
	require.Len(t, appErr.Details, 1)
	assert.Contains(t, appErr.Details[0], "record 2")
	assert.Equal(t, 1, notifier.count(models.NotificationError))
}

func TestClassServiceBatchValidationNamesRecords(t *testing.T) {
	svc, store, _ := newClassFixture(t)

	classes, err := svc.CreateBatch(context.Background(), []models.Fields{
		{"name": "A", "description": "x"},
		{"description": "missing name"},
	})
	assert.Nil(t, classes)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, []string{"record 2: name is required"}, appErr.Details)

	all, err := store.Classes.List(context.Background(), models.Query{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestClassServiceBatchCreatesAll(t *testing.T) {
	svc, _, _ := newClassFixture(t)

	classes, err := svc.CreateBatch(context.Background(), []models.Fields{
		{"name": "A", "description": "x"},
		{"name": "B", "description": "y"},
	})
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.NotEqual(t, classes[0].ClassCode, classes[1].ClassCode)
}

func TestClassServiceGetByCode(t *testing.T) {
	svc, _, _ := newClassFixture(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, models.Fields{"name": "A", "description": "x", "classCode": "JOIN01"})
	require.NoError(t, err)

	class, err := svc.GetByCode(ctx, " join01 ")
	require.NoError(t, err)
	assert.Equal(t, "A", class.Name)

	_, err = svc.GetByCode(ctx, "")
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))

	_, err = svc.GetByCode(ctx, "NOPE00")
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound))
}

func TestClassServiceUpdateSuppliedFieldsOnly(t *testing.T) {
	svc, _, _ := newClassFixture(t)
	ctx := context.Background()
	class, err := svc.Create(ctx, models.Fields{"name": "A", "description": "keep"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, class.ID, models.Fields{"Name_c": "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "keep", updated.Description)

	_, err = svc.Update(ctx, class.ID, models.Fields{"name": ""})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))

	_, err = svc.Update(ctx, 999, models.Fields{"name": "x"})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound))
}

func TestClassServiceUpdateRejectsTakenCode(t *testing.T) {
	svc, store, notifier := newClassFixture(t)
	ctx := context.Background()
	a, err := svc.Create(ctx, models.Fields{"name": "A", "description": "x", "classCode": "AAA111"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, models.Fields{"name": "B", "description": "x", "classCode": "BBB222"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, b.ID, models.Fields{"classCode": "aaa111"})
	assert.Nil(t, updated)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrConflict))
	assert.Equal(t, models.NotificationError, notifier.last().Level)

	stored, err := store.Classes.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "BBB222", stored.ClassCode)

	same, err := svc.Update(ctx, a.ID, models.Fields{"classCode": "aaa111", "name": "A2"})
	require.NoError(t, err)
	assert.Equal(t, "AAA111", same.ClassCode)
	assert.Equal(t, "A2", same.Name)
}

func TestClassServiceListPagesAndProjects(t *testing.T) {
	svc, store, _ := newClassFixture(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"A", "B", "C", "D", "E"} {
		teacher := int64(1)
		if i == 4 {
			teacher = 2
		}
		require.NoError(t, store.Classes.Create(ctx, &models.Class{
			Name: name, Description: "d", ClassCode: name + "00000", TeacherID: teacher,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	classes, pagination, err := svc.List(ctx, models.ListOptions{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, models.Pagination{Page: 2, PageSize: 2, TotalCount: 5}, *pagination)
	require.Len(t, classes, 2)
	assert.Equal(t, "C", classes[0].Name)
	assert.Equal(t, "B", classes[1].Name)

	teacher := int64(1)
	classes, pagination, err = svc.List(ctx, models.ListOptions{ParentID: &teacher, Fields: []string{"Name"}})
	require.NoError(t, err)
	assert.Equal(t, models.Pagination{Page: 1, PageSize: models.DefaultPageSize, TotalCount: 4}, *pagination)
	require.Len(t, classes, 4)
	assert.Equal(t, "D", classes[0].Name)
	assert.NotZero(t, classes[0].ID)
	assert.Empty(t, classes[0].ClassCode)
	assert.Empty(t, classes[0].Description)

	_, pagination, err = svc.List(ctx, models.ListOptions{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, models.MaxPageSize, pagination.PageSize)

	classes, pagination, err = svc.List(ctx, models.ListOptions{Fields: []string{"name", "password"}})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))
	assert.Nil(t, pagination)
	assert.NotNil(t, classes)
	assert.Empty(t, classes)
}

func TestClassServiceListRemoteFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewClassService(failingClassStore{}, notifier, nil, nil, nil)

	classes, pagination, err := svc.List(context.Background(), models.ListOptions{})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrRemote))
	assert.Nil(t, pagination)
	assert.NotNil(t, classes)
	assert.Equal(t, "Failed to load classes", notifier.last().Message)
}

func TestGenerateClassCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Regexp(t, `^[0-9A-Z]{6}$`, generateClassCode())
	}
}

func TestClassServiceJoinCodeNotFoundMessage(t *testing.T) {
	svc, _, notifier := newClassFixture(t)

	_, err := svc.GetByCode(context.Background(), "ZZZ999")
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound))
	assert.Equal(t, "Failed to join class. Please check the class code.", notifier.last().Message)
}

func TestClassServiceValidateHasNoSideEffects(t *testing.T) {
	svc, _, notifier := newClassFixture(t)

	err := svc.Validate(context.Background(), models.Fields{"name": "Only name"})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))
	assert.Empty(t, notifier.items)
	assert.NoError(t, svc.Validate(context.Background(), models.Fields{"name": "A", "description": "B"}))
}
