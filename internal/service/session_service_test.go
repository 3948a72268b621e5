package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classconnect-api/internal/models"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

func TestSessionSurvivesReload(t *testing.T) {
	storage := newMemoryStorage()
	notifier := &recordingNotifier{}
	sessions := NewSessionService(storage, notifier, nil)
	ctx := WithClientKey(context.Background(), "browser-1")

	holder, err := sessions.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, holder.Current().SignedIn())

	state, err := holder.SelectRole(ctx, models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Johnson", state.User.FullName())
	assert.Equal(t, "Welcome, Dr. Sarah Johnson!", notifier.last().Message)

	reloaded, err := sessions.Restore(ctx)
	require.NoError(t, err)
	current := reloaded.Current()
	assert.Equal(t, models.RoleTeacher, current.Role)
	require.NotNil(t, current.User)
	assert.Equal(t, "sarah.johnson@school.edu", current.User.Email)
	assert.Len(t, reloaded.Navigation(), 5)
	assert.Equal(t, "Gradebook", reloaded.Navigation()[3].Label)

	other, err := sessions.Restore(WithClientKey(context.Background(), "browser-2"))
	require.NoError(t, err)
	assert.False(t, other.Current().SignedIn())
}

func TestSessionLogoutThenReload(t *testing.T) {
	storage := newMemoryStorage()
	holder := NewSessionHolder(storage, "c1")
	ctx := context.Background()
	_, err := holder.SelectRole(ctx, models.RoleStudent)
	require.NoError(t, err)

	require.NoError(t, holder.Clear(ctx))
	assert.False(t, holder.Current().SignedIn())

	reloaded := NewSessionHolder(storage, "c1")
	state, err := reloaded.Init(ctx)
	require.NoError(t, err)
	assert.False(t, state.SignedIn())
	assert.Nil(t, state.User)
	assert.Empty(t, reloaded.Navigation())
}

func TestSessionRejectsUnknownRole(t *testing.T) {
	notifier := &recordingNotifier{}
	holder := NewSessionService(newMemoryStorage(), notifier, nil).Holder(context.Background())

	state, err := holder.SelectRole(context.Background(), models.UserRole("admin"))
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation))
	assert.False(t, state.SignedIn())
	assert.Equal(t, "Failed to sign in. Please try again.", notifier.last().Message)
}

func TestSessionIgnoresCorruptStorage(t *testing.T) {
	storage := newMemoryStorage()
	storage.values["c1:"+RoleStorageKey] = "principal"
	holder := NewSessionHolder(storage, "c1")

	state, err := holder.Init(context.Background())
	require.NoError(t, err)
	assert.False(t, state.SignedIn())

	storage.values["c1:"+RoleStorageKey] = "student"
	storage.values["c1:"+UserStorageKey] = "{not json"
	state, err = holder.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, state.Role)
	assert.Nil(t, state.User)
}

func TestSessionStorageWriteFailure(t *testing.T) {
	storage := newMemoryStorage()
	storage.failOn = "c1:" + UserStorageKey
	holder := NewSessionHolder(storage, "c1")

	_, err := holder.SelectRole(context.Background(), models.RoleStudent)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrRemote))
	assert.False(t, holder.Current().SignedIn())
}

func TestSessionStoredDescriptorLayout(t *testing.T) {
	storage := newMemoryStorage()
	_, err := NewSessionHolder(storage, "c1").SelectRole(context.Background(), models.RoleStudent)
	require.NoError(t, err)

	assert.Equal(t, "student", storage.values["c1:userRole"])
	assert.JSONEq(t, `{"Id":1,"firstName":"Alex","lastName":"Thompson","emailAddress":"alex.thompson@student.edu","role":"student"}`, storage.values["c1:currentUser"])
}

func TestSessionClearAttemptsEveryKey(t *testing.T) {
	storage := newMemoryStorage()
	holder := NewSessionHolder(storage, "c1")
	_, err := holder.SelectRole(context.Background(), models.RoleTeacher)
	require.NoError(t, err)

	storage.failOn = "c1:" + RoleStorageKey
	err = holder.Clear(context.Background())
	assert.True(t, appErrors.IsKind(err, appErrors.ErrRemote))
	assert.ErrorIs(t, err, errStoreDown)
	assert.False(t, holder.Current().SignedIn())

	_, stillThere := storage.values["c1:"+UserStorageKey]
	assert.False(t, stillThere)
	assert.Equal(t, "teacher", storage.values["c1:"+RoleStorageKey])
}
