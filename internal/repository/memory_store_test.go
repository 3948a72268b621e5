package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classconnect-api/internal/models"
)

func TestMemoryClassesNewestFirstAndIDsNotReused(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	first := &models.Class{Name: "Math", ClassCode: "MAT001", CreatedAt: base}
	second := &models.Class{Name: "Art", ClassCode: "ART001", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, store.Classes.Create(ctx, first))
	require.NoError(t, store.Classes.Create(ctx, second))
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	ok, err := store.Classes.Delete(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	third := &models.Class{Name: "Biology", ClassCode: "BIO001"}
	require.NoError(t, store.Classes.Create(ctx, third))
	assert.Equal(t, int64(3), third.ID)

	classes, err := store.Classes.List(ctx, models.NewestFirst())
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, "Biology", classes[0].Name)
}

func TestMemoryClassesRejectDuplicateCode(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Classes.Create(ctx, &models.Class{Name: "A", ClassCode: "ABC123"}))

	err := store.Classes.Create(ctx, &models.Class{Name: "B", ClassCode: "abc123"})
	assert.Error(t, err)

	err = store.Classes.CreateBatch(ctx, []*models.Class{
		{Name: "C", ClassCode: "NEW001"},
		{Name: "D", ClassCode: "NEW001"},
	})
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 1, batchErr.Failures[0].Index)

	classes, err := store.Classes.List(ctx, models.Query{})
	require.NoError(t, err)
	assert.Len(t, classes, 1)

	found, err := store.Classes.FindByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)
	exists, err := store.Classes.ExistsByCode(ctx, "ZZZ999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryClassUpdateKeepsCodesUnique(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	a := &models.Class{Name: "A", ClassCode: "AAA111"}
	b := &models.Class{Name: "B", ClassCode: "BBB222"}
	require.NoError(t, store.Classes.CreateBatch(ctx, []*models.Class{a, b}))

	code, name := "aaa111", "Renamed"
	updated, err := store.Classes.Update(ctx, b.ID, models.ClassInput{ClassCode: &code, Name: &name})
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, ErrDuplicateCode)

	stored, err := store.Classes.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "BBB222", stored.ClassCode)
	assert.Equal(t, "B", stored.Name)

	own := "AAA111"
	_, err = store.Classes.Update(ctx, a.ID, models.ClassInput{ClassCode: &own})
	assert.NoError(t, err)

	err = store.Classes.Create(ctx, &models.Class{Name: "C", ClassCode: "BBB222"})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestMemoryAssignmentsFilterSortAndPage(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		classID := int64(1)
		if i%2 == 0 {
			classID = 2
		}
		require.NoError(t, store.Assignments.Create(ctx, &models.Assignment{
			Title:   fmt.Sprintf("Task %d", i),
			Points:  i * 10,
			ClassID: classID,
		}))
	}

	byClass, err := store.Assignments.List(ctx, models.NewestFirst(models.Condition{Field: "class_id", Value: int64(1)}))
	require.NoError(t, err)
	require.Len(t, byClass, 3)
	for _, a := range byClass {
		assert.Equal(t, int64(1), a.ClassID)
		assert.NotNil(t, a.Attachments)
	}

	page, err := store.Assignments.List(ctx, models.Query{SortField: "points", SortDir: models.SortAsc, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 20, page[0].Points)
	assert.Equal(t, 30, page[1].Points)

	none, err := store.Assignments.List(ctx, models.NewestFirst(models.Condition{Field: "class_id", Value: int64(42)}))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = store.Assignments.List(ctx, models.NewestFirst(models.Condition{Field: "nope", Value: 1}))
	assert.Error(t, err)
}

func TestMemoryProjectionAndCount(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, SeedDemo(ctx, store, time.Now().UTC()))

	rows, err := store.Classes.List(ctx, models.Query{Fields: []string{"id", "name", "bogus"}, SortField: "name", SortDir: models.SortAsc})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Algebra II", rows[0].Name)
	assert.NotZero(t, rows[0].ID)
	assert.Empty(t, rows[0].ClassCode)
	assert.Empty(t, rows[0].Description)
	assert.True(t, rows[0].CreatedAt.IsZero())

	full, err := store.Classes.List(ctx, models.Query{Fields: []string{"bogus"}})
	require.NoError(t, err)
	assert.NotEmpty(t, full[0].ClassCode)

	byClass := []models.Condition{{Field: "class_id", Value: int64(3)}}
	total, err := store.Assignments.Count(ctx, byClass)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	total, err = store.Announcements.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, err = store.Classes.Count(ctx, []models.Condition{{Field: "nope", Value: 1}})
	assert.Error(t, err)
}

func TestMemoryAnnouncementsGeneralHasNoClass(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	zero := int64(0)
	classID := int64(3)
	require.NoError(t, store.Announcements.Create(ctx, &models.Announcement{Title: "All", ClassID: &zero}))
	require.NoError(t, store.Announcements.Create(ctx, &models.Announcement{Title: "Three", ClassID: &classID}))

	forClass, err := store.Announcements.List(ctx, models.NewestFirst(models.Condition{Field: "class_id", Value: int64(3)}))
	require.NoError(t, err)
	require.Len(t, forClass, 1)
	assert.Equal(t, "Three", forClass[0].Title)

	general, err := store.Announcements.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, general.ClassID)

	updated, err := store.Announcements.Update(ctx, 2, models.AnnouncementInput{ClassID: &zero})
	require.NoError(t, err)
	assert.Nil(t, updated.ClassID)
}

func TestMemoryMissingRecordsReturnNotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Classes.FindByID(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Assignments.Update(ctx, 1, models.AssignmentInput{})
	assert.ErrorIs(t, err, ErrNotFound)
	ok, err := store.Announcements.Delete(ctx, 1)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryConcurrentUpdatesStayWellFormed(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	a := &models.Assignment{Title: "Start", Points: 1, ClassID: 1}
	require.NoError(t, store.Assignments.Create(ctx, a))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := fmt.Sprintf("Title %d", i)
			points := i
			_, err := store.Assignments.Update(ctx, a.ID, models.AssignmentInput{Title: &title, Points: &points})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.Assignments.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Title %d", got.Points), got.Title)
}

func TestMemoryCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Classes.List(ctx, models.Query{})
	assert.ErrorIs(t, err, context.Canceled)
}
