package view

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/repository"
	"github.com/noah-isme/classconnect-api/internal/service"
)

type fakeSession struct {
	state models.SessionState
}

func (f *fakeSession) Current() models.SessionState { return f.state }

func sessionFor(role models.UserRole) *fakeSession {
	user := service.MockUserFor(role)
	return &fakeSession{state: models.SessionState{Role: role, User: &user}}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, _ models.NotificationLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

// countingClasses counts list calls so tests can assert that search and
// create never re-fetch.
type countingClasses struct {
	ClassSource
	lists int32
}

func (c *countingClasses) GetAll(ctx context.Context) ([]models.Class, error) {
	atomic.AddInt32(&c.lists, 1)
	return c.ClassSource.GetAll(ctx)
}

// gatedClasses blocks GetByID until the test releases it.
type gatedClasses struct {
	ClassSource
	entered chan int64
	release chan struct{}
}

func (g *gatedClasses) GetByID(ctx context.Context, id int64) (*models.Class, error) {
	g.entered <- id
	<-g.release
	return g.ClassSource.GetByID(ctx, id)
}

type fixture struct {
	store    *repository.MemoryStore
	classes  *countingClasses
	notifier *recordingNotifier
	session  *fakeSession
	deps     Deps
	now      time.Time
}

func newFixture(t *testing.T, role models.UserRole) *fixture {
	t.Helper()
	now := time.Now().UTC()
	store := repository.NewMemoryStore()
	require.NoError(t, repository.SeedDemo(context.Background(), store, now))

	notifier := &recordingNotifier{}
	classes := &countingClasses{ClassSource: service.NewClassService(store.Classes, notifier, nil, nil, nil)}
	session := sessionFor(role)
	return &fixture{
		store:    store,
		classes:  classes,
		notifier: notifier,
		session:  session,
		now:      now,
		deps: Deps{
			Classes:       classes,
			Assignments:   service.NewAssignmentService(store.Assignments, notifier, nil, nil, nil),
			Announcements: service.NewAnnouncementService(store.Announcements, notifier, nil, nil, nil),
			Session:       session,
			Notifier:      notifier,
			Now:           func() time.Time { return now },
		},
	}
}

type failingClasses struct {
	ClassSource
}

func (failingClasses) GetAll(context.Context) ([]models.Class, error) {
	return []models.Class{}, context.DeadlineExceeded
}
