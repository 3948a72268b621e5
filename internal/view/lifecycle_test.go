package view

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classconnect-api/internal/models"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

func TestLifecycleFailedThenRetry(t *testing.T) {
	f := newFixture(t, models.RoleTeacher)
	working := f.deps.Classes
	f.deps.Classes = failingClasses{}
	page := NewClassesPage(context.Background(), f.deps)
	assert.Equal(t, StateIdle, page.State())

	err := page.Load(context.Background())
	require.Error(t, err)
	view := page.Snapshot()
	assert.Equal(t, StateFailed, view.State)
	assert.Equal(t, "Failed to load classes. Please try again.", view.Error)
	assert.Empty(t, view.Classes)

	page.deps.Classes = working
	require.NoError(t, page.Retry(context.Background()))
	view = page.Snapshot()
	assert.Equal(t, StateReady, view.State)
	assert.Empty(t, view.Error)
	assert.Len(t, view.Classes, 3)
}

func TestLifecycleUnmountDiscardsInFlightLoad(t *testing.T) {
	f := newFixture(t, models.RoleTeacher)
	gated := &gatedClasses{ClassSource: f.deps.Classes, entered: make(chan int64, 1), release: make(chan struct{})}
	f.deps.Classes = gated
	page := NewClassDetailPage(context.Background(), f.deps, 1)

	result := make(chan error, 1)
	go func() { result <- page.Load(context.Background()) }()
	<-gated.entered
	assert.Equal(t, StateLoading, page.State())

	page.Unmount()
	close(gated.release)
	assert.ErrorIs(t, <-result, ErrSuperseded)
	assert.Nil(t, page.Snapshot().Class)
}

func TestClassDetailParameterChangeDropsStaleResult(t *testing.T) {
	f := newFixture(t, models.RoleTeacher)
	gated := &gatedClasses{ClassSource: f.deps.Classes, entered: make(chan int64, 2), release: make(chan struct{})}
	f.deps.Classes = gated
	page := NewClassDetailPage(context.Background(), f.deps, 1)

	first := make(chan error, 1)
	go func() { first <- page.Load(context.Background()) }()
	require.Equal(t, int64(1), <-gated.entered)

	second := make(chan error, 1)
	go func() { second <- page.SetClass(context.Background(), 3) }()
	require.Equal(t, int64(3), <-gated.entered)

	close(gated.release)
	assert.ErrorIs(t, <-first, ErrSuperseded)
	require.NoError(t, <-second)

	view := page.Snapshot()
	require.NotNil(t, view.Class)
	assert.Equal(t, "Biology", view.Class.Name)
	assert.Equal(t, int64(3), view.ClassID)
}

func TestAssignmentDetailParameterChangeDropsStaleResult(t *testing.T) {
	f := newFixture(t, models.RoleStudent)
	gated := &gatedClasses{ClassSource: f.deps.Classes, entered: make(chan int64, 2), release: make(chan struct{})}
	f.deps.Classes = gated
	page := NewAssignmentDetailPage(context.Background(), f.deps, 3)

	first := make(chan error, 1)
	go func() { first <- page.Load(context.Background()) }()
	require.Equal(t, int64(2), <-gated.entered)

	second := make(chan error, 1)
	go func() { second <- page.SetAssignment(context.Background(), 4) }()
	require.Equal(t, int64(3), <-gated.entered)

	close(gated.release)
	assert.ErrorIs(t, <-first, ErrSuperseded)
	require.NoError(t, <-second)

	view := page.Snapshot()
	require.NotNil(t, view.Assignment)
	assert.Equal(t, "Cell Structure Lab", view.Assignment.Title)
	require.NotNil(t, view.Class)
	assert.Equal(t, "Biology", view.Class.Name)
}

func TestFetchAllJoinsEveryRead(t *testing.T) {
	var finished int32
	boom := errors.New("boom")
	err := fetchAll(context.Background(),
		func(context.Context) error { return boom },
		func(context.Context) error {
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&finished, 1)
			return nil
		},
	)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t, models.RoleStudent)
	page := NewClassesPage(context.Background(), f.deps)

	_, err := page.Create(context.Background(), models.Fields{"name": "x", "description": "y"})
	assert.True(t, appErrors.IsKind(err, appErrors.ErrForbidden))

	f.session.state = models.SessionState{}
	_, err = page.Join(context.Background(), "ALG2X7")
	assert.True(t, appErrors.IsKind(err, appErrors.ErrForbidden))
}
