package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/storage"
)

// StoreUserRepository keeps the users document in a Store. Each call reads
// the document, and Create writes it back while holding the lock, so
// concurrent registrations cannot both claim the same username.
type StoreUserRepository struct {
	store storage.Store
	mu    sync.Mutex
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(store storage.Store) UserRepository {
	return &StoreUserRepository{store: store}
}

func (r *StoreUserRepository) load(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if _, err := r.store.Get(ctx, constants.KeyUsers, &users); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return users, nil
}

// Create stores user. Username matching is exact; email matching ignores case.
func (r *StoreUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == user.Username {
			return ErrUsernameTaken
		}
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailTaken
		}
	}

	users = append(users, *user)
	if err := r.store.Set(ctx, constants.KeyUsers, users); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	return nil
}

// FindByID finds a user by ID
func (r *StoreUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.ID == id })
}

// FindByUsername finds a user by username
func (r *StoreUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return u.Username == username })
}

// FindByEmail finds a user by email
func (r *StoreUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(ctx, func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

// Count returns the number of registered users
func (r *StoreUserRepository) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

// Delete removes the user with id
func (r *StoreUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	kept := users[:0]
	for _, u := range users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(users) {
		return nil
	}
	if err := r.store.Set(ctx, constants.KeyUsers, kept); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	return nil
}

func (r *StoreUserRepository) find(ctx context.Context, match func(models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if match(users[i]) {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}
