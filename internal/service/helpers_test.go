package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/repository"
)

type recordingNotifier struct {
	mu    sync.Mutex
	items []models.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, level models.NotificationLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, models.Notification{Level: level, Message: message})
}

func (n *recordingNotifier) last() models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return models.Notification{}
	}
	return n.items[len(n.items)-1]
}

func (n *recordingNotifier) count(level models.NotificationLevel) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, item := range n.items {
		if item.Level == level {
			total++
		}
	}
	return total
}

// countingAssignments records how many store calls reach the memory adapter.
type countingAssignments struct {
	*repository.MemoryAssignmentRepository
	calls int32
}

func (c *countingAssignments) Create(ctx context.Context, a *models.Assignment) error {
	atomic.AddInt32(&c.calls, 1)
	return c.MemoryAssignmentRepository.Create(ctx, a)
}

func (c *countingAssignments) CreateBatch(ctx context.Context, a []*models.Assignment) error {
	atomic.AddInt32(&c.calls, 1)
	return c.MemoryAssignmentRepository.CreateBatch(ctx, a)
}

var errStoreDown = errors.New("connection refused")

type failingClassStore struct{}

func (failingClassStore) List(context.Context, models.Query) ([]models.Class, error) {
	return nil, errStoreDown
}
func (failingClassStore) FindByID(context.Context, int64) (*models.Class, error) {
	return nil, errStoreDown
}
func (failingClassStore) FindByCode(context.Context, string) (*models.Class, error) {
	return nil, errStoreDown
}
func (failingClassStore) ExistsByCode(context.Context, string) (bool, error) {
	return false, nil
}
func (failingClassStore) Create(context.Context, *models.Class) error { return errStoreDown }
func (failingClassStore) CreateBatch(context.Context, []*models.Class) error {
	return &repository.BatchError{Failures: []repository.RecordError{{Index: 1, Err: errors.New("duplicate key")}}}
}
func (failingClassStore) Update(context.Context, int64, models.ClassInput) (*models.Class, error) {
	return nil, errStoreDown
}
func (failingClassStore) Delete(context.Context, int64) (bool, error) { return false, errStoreDown }

type memoryStorage struct {
	mu     sync.Mutex
	values map[string]string
	failOn string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{values: make(map[string]string)}
}

func (m *memoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && key == m.failOn {
		return errStoreDown
	}
	m.values[key] = value
	return nil
}

func (m *memoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && key == m.failOn {
		return errStoreDown
	}
	delete(m.values, key)
	return nil
}
func (failingClassStore) Count(context.Context, []models.Condition) (int, error) {
	return 0, errStoreDown
}
