package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/pkg/jobs"
)

// Notifier emits transient user-visible messages for the client bound to ctx.
type Notifier interface {
	Notify(ctx context.Context, level models.NotificationLevel, message string)
}

type clientKeyCtx struct{}

// AnonymousClient is used when no client key is bound to the context.
const AnonymousClient = "anonymous"

// maxPendingNotifications bounds each client's feed; the oldest entries go first.
const maxPendingNotifications = 20

// WithClientKey binds the per-browser client key to ctx.
func WithClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, clientKeyCtx{}, key)
}

// ClientKeyFrom returns the client key bound to ctx.
func ClientKeyFrom(ctx context.Context) string {
	if key, ok := ctx.Value(clientKeyCtx{}).(string); ok && key != "" {
		return key
	}
	return AnonymousClient
}

type delivery struct {
	client       string
	notification models.Notification
}

// NotificationService delivers notifications through a worker queue into
// per-client feeds. A feed entry expires after the configured TTL, mirroring
// a toast that closes on its own.
type NotificationService struct {
	queue   *jobs.Queue[delivery]
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	feeds map[string][]models.Notification
	async bool
}

// NewNotificationService constructs the service. Until Start is called,
// notifications are delivered synchronously.
func NewNotificationService(ttl time.Duration, workers int, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	s := &NotificationService{
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		feeds:   make(map[string][]models.Notification),
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{Workers: workers, Logger: logger})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	s.mu.Lock()
	s.async = true
	s.mu.Unlock()
}

// Stop halts the delivery workers; later notifications are delivered inline.
func (s *NotificationService) Stop() {
	s.mu.Lock()
	s.async = false
	s.mu.Unlock()
	s.queue.Stop()
}

// Notify queues a notification for the client bound to ctx.
func (s *NotificationService) Notify(ctx context.Context, level models.NotificationLevel, message string) {
	now := s.now()
	d := delivery{
		client: ClientKeyFrom(ctx),
		notification: models.Notification{
			ID:        uuid.NewString(),
			Level:     level,
			Message:   message,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		},
	}
	s.metrics.CountNotification(string(level))

	s.mu.Lock()
	async := s.async
	s.mu.Unlock()
	if async {
		_, err := s.queue.Enqueue(string(level), d)
		if err == nil {
			return
		}
		s.logger.Debug("notification queue unavailable, delivering inline", zap.Error(err))
	}
	_ = s.deliver(ctx, jobs.Job[delivery]{Payload: d})
}

func (s *NotificationService) deliver(_ context.Context, job jobs.Job[delivery]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed := append(s.feeds[job.Payload.client], job.Payload.notification)
	if len(feed) > maxPendingNotifications {
		feed = feed[len(feed)-maxPendingNotifications:]
	}
	s.feeds[job.Payload.client] = feed
	return nil
}

// Drain returns the client's unexpired notifications, oldest first, and
// clears its feed.
func (s *NotificationService) Drain(ctx context.Context) []models.Notification {
	client := ClientKeyFrom(ctx)
	now := s.now()

	s.mu.Lock()
	feed := s.feeds[client]
	delete(s.feeds, client)
	s.pruneLocked(now)
	s.mu.Unlock()

	active := make([]models.Notification, 0, len(feed))
	for _, n := range feed {
		if !n.Expired(now) {
			active = append(active, n)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].CreatedAt.Before(active[j].CreatedAt) })
	return active
}

// pruneLocked drops feeds whose every entry has expired.
func (s *NotificationService) pruneLocked(now time.Time) {
	for client, feed := range s.feeds {
		live := false
		for _, n := range feed {
			if !n.Expired(now) {
				live = true
				break
			}
		}
		if !live {
			delete(s.feeds, client)
		}
	}
}
