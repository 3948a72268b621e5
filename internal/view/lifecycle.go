// Package view holds the server-side page controllers. Each page loads the
// collections it shows, keeps them for local search and filtering, and runs
// create flows that splice new records into the loaded list.
package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/service"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

// PageState is the load state of a page.
type PageState string

const (
	StateIdle    PageState = "idle"
	StateLoading PageState = "loading"
	StateReady   PageState = "ready"
	StateFailed  PageState = "failed"
)

// ErrSuperseded is returned by Load when its result was discarded because the
// page was unmounted or a newer load started.
var ErrSuperseded = errors.New("view: load superseded")

const requiredFieldsMessage = "Please fill in all required fields."

// ClassSource is the class operations pages read and write through.
type ClassSource interface {
	GetAll(ctx context.Context) ([]models.Class, error)
	GetByID(ctx context.Context, id int64) (*models.Class, error)
	GetByCode(ctx context.Context, code string) (*models.Class, error)
	Validate(ctx context.Context, fields models.Fields) error
	Create(ctx context.Context, fields models.Fields) (*models.Class, error)
}

// AssignmentSource is the assignment operations pages read and write through.
type AssignmentSource interface {
	GetAll(ctx context.Context) ([]models.Assignment, error)
	GetByID(ctx context.Context, id int64) (*models.Assignment, error)
	GetByParent(ctx context.Context, classID int64) ([]models.Assignment, error)
	Validate(ctx context.Context, fields models.Fields) error
	Create(ctx context.Context, fields models.Fields) (*models.Assignment, error)
}

// AnnouncementSource is the announcement operations pages read and write through.
type AnnouncementSource interface {
	GetAll(ctx context.Context) ([]models.Announcement, error)
	GetByParent(ctx context.Context, classID int64) ([]models.Announcement, error)
	Validate(ctx context.Context, fields models.Fields) error
	Create(ctx context.Context, fields models.Fields) (*models.Announcement, error)
}

// Session exposes the role and user of the current client.
type Session interface {
	Current() models.SessionState
}

// Deps is what page constructors need. Nil Notifier, Metrics and Now are
// replaced with no-op or wall-clock defaults.
type Deps struct {
	Classes       ClassSource
	Assignments   AssignmentSource
	Announcements AnnouncementSource
	Session       Session
	Notifier      service.Notifier
	Metrics       *service.MetricsService
	Now           func() time.Time
}

type silentNotifier struct{}

func (silentNotifier) Notify(context.Context, models.NotificationLevel, string) {}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = silentNotifier{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

func (d Deps) session() models.SessionState {
	if d.Session == nil {
		return models.SessionState{}
	}
	return d.Session.Current()
}

// Status is the load state every page snapshot carries.
type Status struct {
	Page  string    `json:"page"`
	State PageState `json:"state"`
	Error string    `json:"error,omitempty"`
}

// Modal is the state of a create dialog.
type Modal struct {
	Open       bool `json:"open"`
	Submitting bool `json:"submitting"`
}

// Lifecycle tracks one page's load state. It is bound to a lifetime context;
// results arriving after Unmount, or from a load that a newer one superseded,
// are dropped. Page data is guarded by the same mutex.
type Lifecycle struct {
	deps        Deps
	page        string
	failMessage string
	notFound    string
	reload      func(context.Context) error

	lifetime context.Context
	cancel   context.CancelFunc

	mu         sync.Mutex
	state      PageState
	message    string
	generation uint64
}

func newLifecycle(parent context.Context, page, failMessage string, deps Deps) *Lifecycle {
	lifetime, cancel := context.WithCancel(parent)
	return &Lifecycle{
		deps:        deps.withDefaults(),
		page:        page,
		failMessage: failMessage,
		lifetime:    lifetime,
		cancel:      cancel,
		state:       StateIdle,
	}
}

// begin enters Loading and returns a context that ends with either the call
// or the page lifetime.
func (l *Lifecycle) begin(ctx context.Context) (context.Context, func(), uint64) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.state = StateLoading
	l.message = ""
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(l.lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}, gen
}

// settle applies a finished load unless it went stale.
func (l *Lifecycle) settle(gen uint64, err error, apply func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation || l.lifetime.Err() != nil {
		return ErrSuperseded
	}
	if err != nil {
		l.state = StateFailed
		l.message = l.failMessage
		if l.notFound != "" && appErrors.IsKind(err, appErrors.ErrNotFound) {
			l.message = l.notFound
		}
		l.deps.Metrics.CountPageLoad(l.page, string(StateFailed))
		return err
	}
	apply()
	l.state = StateReady
	l.deps.Metrics.CountPageLoad(l.page, string(StateReady))
	return nil
}

// Retry re-runs the page load.
func (l *Lifecycle) Retry(ctx context.Context) error {
	return l.reload(ctx)
}

// Unmount cancels the page lifetime. In-flight loads are discarded.
func (l *Lifecycle) Unmount() {
	l.cancel()
}

// State returns the current load state.
func (l *Lifecycle) State() PageState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// status must be called with mu held.
func (l *Lifecycle) status() Status {
	return Status{Page: l.page, State: l.state, Error: l.message}
}

func (l *Lifecycle) readyLocked() bool {
	return l.state == StateReady
}

// requireRole rejects page actions reserved for the other role.
func (l *Lifecycle) requireRole(role models.UserRole) error {
	if l.deps.session().Role != role {
		return appErrors.Clone(appErrors.ErrForbidden, "this action requires the "+string(role)+" role")
	}
	return nil
}

// fetchAll runs reads concurrently and waits for every one to settle. It
// returns the first error observed.
func fetchAll(ctx context.Context, reads ...func(context.Context) error) error {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)
	for _, read := range reads {
		wg.Add(1)
		go func(read func(context.Context) error) {
			defer wg.Done()
			if err := read(ctx); err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
			}
		}(read)
	}
	wg.Wait()
	return first
}

// submitCreate runs a create flow: local validation with no store call on
// failure, the Submitting flag while the call is in flight, and a splice at
// the head of the loaded list on success. The modal stays open on failure.
func submitCreate[T any](
	ctx context.Context,
	l *Lifecycle,
	modal *Modal,
	validate func(context.Context) error,
	create func(context.Context) (*T, error),
	splice func(T),
) (*T, error) {
	l.mu.Lock()
	if modal.Submitting {
		l.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrConflict, "a submission is already in progress")
	}
	modal.Open = true
	modal.Submitting = true
	l.mu.Unlock()

	if err := validate(ctx); err != nil {
		l.mu.Lock()
		modal.Submitting = false
		l.mu.Unlock()
		l.deps.Notifier.Notify(ctx, models.NotificationError, requiredFieldsMessage)
		return nil, err
	}

	created, err := create(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	modal.Submitting = false
	if err != nil {
		return nil, err
	}
	splice(*created)
	modal.Open = false
	return created, nil
}

func prepend[T any](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	return append(out, list...)
}
