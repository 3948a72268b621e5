package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/classconnect-api/internal/models"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

// SessionStorage is durable string key/value storage, the server side
// counterpart of browser local storage.
type SessionStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Storage keys written on role selection.
const (
	RoleStorageKey = "userRole"
	UserStorageKey = "currentUser"
)

// storedUser keeps the descriptor layout the browser client persisted.
type storedUser struct {
	ID        int64           `json:"Id"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Email     string          `json:"emailAddress"`
	Role      models.UserRole `json:"role"`
}

// MockUserFor returns the unverified user descriptor chosen by role selection.
func MockUserFor(role models.UserRole) models.User {
	if role == models.RoleTeacher {
		return models.User{ID: 1, FirstName: "Dr. Sarah", LastName: "Johnson", Email: "sarah.johnson@school.edu", Role: role}
	}
	return models.User{ID: 1, FirstName: "Alex", LastName: "Thompson", Email: "alex.thompson@student.edu", Role: role}
}

// SessionService hands out per-client session holders over shared storage.
type SessionService struct {
	storage  SessionStorage
	notifier Notifier
	logger   *zap.Logger
}

// NewSessionService constructs SessionService.
func NewSessionService(storage SessionStorage, notifier Notifier, logger *zap.Logger) *SessionService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{storage: storage, notifier: notifier, logger: logger}
}

// Holder returns an uninitialised holder for the client bound to ctx.
func (s *SessionService) Holder(ctx context.Context) *SessionHolder {
	return &SessionHolder{
		storage:  s.storage,
		client:   ClientKeyFrom(ctx),
		notifier: s.notifier,
		logger:   s.logger,
	}
}

// Restore returns an initialised holder for the client bound to ctx.
func (s *SessionService) Restore(ctx context.Context) (*SessionHolder, error) {
	holder := s.Holder(ctx)
	if _, err := holder.Init(ctx); err != nil {
		return nil, err
	}
	return holder, nil
}

// SessionHolder is the role and user of one client. It is restored from
// durable storage by Init and dropped by Clear.
type SessionHolder struct {
	storage  SessionStorage
	client   string
	notifier Notifier
	logger   *zap.Logger

	mu    sync.RWMutex
	state models.SessionState
}

// NewSessionHolder builds a holder for an explicit client key.
func NewSessionHolder(storage SessionStorage, client string) *SessionHolder {
	return &SessionHolder{storage: storage, client: client, notifier: nopNotifier{}, logger: zap.NewNop()}
}

func (h *SessionHolder) key(name string) string {
	return h.client + ":" + name
}

// Init restores state from storage. Missing or unreadable entries leave the
// holder signed out.
func (h *SessionHolder) Init(ctx context.Context) (models.SessionState, error) {
	role, found, err := h.storage.Get(ctx, h.key(RoleStorageKey))
	if err != nil {
		return models.SessionState{}, appErrors.Wrap(err, appErrors.ErrRemote.Code, appErrors.ErrRemote.Status, "failed to restore session")
	}
	state := models.SessionState{}
	if found && models.UserRole(role).Valid() {
		state.Role = models.UserRole(role)
		raw, ok, err := h.storage.Get(ctx, h.key(UserStorageKey))
		if err != nil {
			return models.SessionState{}, appErrors.Wrap(err, appErrors.ErrRemote.Code, appErrors.ErrRemote.Status, "failed to restore session")
		}
		if ok {
			var stored storedUser
			if err := json.Unmarshal([]byte(raw), &stored); err != nil {
				h.logger.Warn("discarding unreadable user descriptor", zap.String("client", h.client), zap.Error(err))
			} else {
				state.User = &models.User{ID: stored.ID, FirstName: stored.FirstName, LastName: stored.LastName, Email: stored.Email, Role: stored.Role}
			}
		}
	}

	h.mu.Lock()
	h.state = state
	h.mu.Unlock()
	return state, nil
}

// SelectRole signs the client in with the mock user for role and persists
// both keys. Roles other than teacher and student are rejected.
func (h *SessionHolder) SelectRole(ctx context.Context, role models.UserRole) (models.SessionState, error) {
	if !role.Valid() {
		appErr := appErrors.WithDetails(appErrors.ErrValidation, "invalid role", []string{fmt.Sprintf("role %q must be teacher or student", role)})
		h.notifier.Notify(ctx, models.NotificationError, "Failed to sign in. Please try again.")
		return h.Current(), appErr
	}

	user := MockUserFor(role)
	payload, err := json.Marshal(storedUser{ID: user.ID, FirstName: user.FirstName, LastName: user.LastName, Email: user.Email, Role: user.Role})
	if err != nil {
		return h.Current(), appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode user")
	}
	if err := h.storage.Set(ctx, h.key(RoleStorageKey), string(role)); err != nil {
		return h.persistFailed(ctx, err)
	}
	if err := h.storage.Set(ctx, h.key(UserStorageKey), string(payload)); err != nil {
		return h.persistFailed(ctx, err)
	}

	state := models.SessionState{Role: role, User: &user}
	h.mu.Lock()
	h.state = state
	h.mu.Unlock()
	h.notifier.Notify(ctx, models.NotificationSuccess, fmt.Sprintf("Welcome, %s!", user.FullName()))
	return state, nil
}

func (h *SessionHolder) persistFailed(ctx context.Context, err error) (models.SessionState, error) {
	h.logger.Warn("session storage write failed", zap.String("client", h.client), zap.Error(err))
	h.notifier.Notify(ctx, models.NotificationError, "Failed to sign in. Please try again.")
	return h.Current(), appErrors.Wrap(err, appErrors.ErrRemote.Code, appErrors.ErrRemote.Status, "failed to persist session")
}

// Clear signs the client out, removing both keys from storage. Both removals
// are attempted even when the first fails.
func (h *SessionHolder) Clear(ctx context.Context) error {
	h.mu.Lock()
	h.state = models.SessionState{}
	h.mu.Unlock()

	var errs []error
	for _, name := range []string{RoleStorageKey, UserStorageKey} {
		if err := h.storage.Remove(ctx, h.key(name)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		h.logger.Warn("session storage remove failed", zap.String("client", h.client), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrRemote.Code, appErrors.ErrRemote.Status, "failed to clear session")
	}
	return nil
}

// Current returns the in-memory state.
func (h *SessionHolder) Current() models.SessionState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	state := h.state
	if state.User != nil {
		user := *state.User
		state.User = &user
	}
	return state
}

// Role returns the selected role, empty when signed out.
func (h *SessionHolder) Role() models.UserRole {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.Role
}

// Navigation returns the navigation entries for the current role.
func (h *SessionHolder) Navigation() []models.NavItem {
	return models.NavigationFor(h.Role())
}
