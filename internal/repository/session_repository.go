package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/storage"
)

// StoreSessionRepository keeps the active session under the currentUser key.
type StoreSessionRepository struct {
	store storage.Store
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(store storage.Store) SessionRepository {
	return &StoreSessionRepository{store: store}
}

// Get returns the active session or ErrNoSession.
func (r *StoreSessionRepository) Get(ctx context.Context) (*models.Session, error) {
	var session models.Session
	found, err := r.store.Get(ctx, constants.KeyCurrentUser, &session)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !found || session.UserID == "" {
		return nil, ErrNoSession
	}
	return &session, nil
}

// Save replaces the active session.
func (r *StoreSessionRepository) Save(ctx context.Context, session *models.Session) error {
	if err := r.store.Set(ctx, constants.KeyCurrentUser, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the active session.
func (r *StoreSessionRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, constants.KeyCurrentUser); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
