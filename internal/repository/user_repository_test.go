package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/storage"
)

func newUser(id, username, email string) *models.User {
	return &models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(storage.NewMemoryStore())

	require.NoError(t, repo.Create(ctx, newUser("1", "alice", "alice@example.com")))
	require.NoError(t, repo.Create(ctx, newUser("2", "bob", "bob@example.com")))

	user, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "1", user.ID)

	user, err = repo.FindByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)

	user, err = repo.FindByEmail(ctx, "BOB@example.com")
	require.NoError(t, err)
	assert.Equal(t, "2", user.ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUserRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(storage.NewMemoryStore())

	_, err := repo.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = repo.FindByID(ctx, "42")
	assert.ErrorIs(t, err, ErrUserNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUserRepository_RejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(storage.NewMemoryStore())
	require.NoError(t, repo.Create(ctx, newUser("1", "alice", "a@x.com")))

	err := repo.Create(ctx, newUser("2", "alice", "b@y.com"))
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.ErrorIs(t, err, ErrValidation)

	err = repo.Create(ctx, newUser("3", "carol", "A@X.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(storage.NewMemoryStore())
	require.NoError(t, repo.Create(ctx, newUser("1", "alice", "a@x.com")))
	require.NoError(t, repo.Create(ctx, newUser("2", "bob", "b@y.com")))

	require.NoError(t, repo.Delete(ctx, "1"))
	require.NoError(t, repo.Delete(ctx, "missing"))

	_, err := repo.FindByUsername(ctx, "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)
	user, err := repo.FindByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)

	require.NoError(t, repo.Create(ctx, newUser("3", "alice", "a@x.com")), "a deleted username can be registered again")
}

func TestUserRepository_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, NewUserRepository(store).Create(ctx, newUser("1", "alice", "a@x.com")))

	user, err := NewUserRepository(store).FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", user.PasswordHash)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(storage.NewMemoryStore())

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	session := &models.Session{
		UserID:     "1",
		Username:   "alice",
		Email:      "a@x.com",
		LoggedInAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, session))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, *session, *got)

	require.NoError(t, repo.Clear(ctx))
	_, err = repo.Get(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestValidationError(t *testing.T) {
	var verr *ValidationError
	assert.ErrorAs(t, ErrPasswordMismatch, &verr)
	assert.Equal(t, "confirmPassword", verr.Field)
	assert.Equal(t, "Passwords do not match", ErrPasswordMismatch.Error())
	assert.ErrorIs(t, ErrTitleRequired, ErrValidation)
	assert.NotErrorIs(t, ErrTaskNotFound, ErrValidation)
}
