package services

import (
	"context"
	"errors"
	"sync"

	"github.com/yukikurage/taskboard/internal/logger"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/notify"
	"github.com/yukikurage/taskboard/internal/repository"
	"go.uber.org/zap"
)

var ErrNoActiveBoard = errors.New("no active board")

// BoardManager owns the board of the single active session. Activating a
// board for a different user closes the previous one.
type BoardManager struct {
	tasks    repository.TaskRepository
	notifier notify.Notifier

	mu      sync.Mutex
	current *BoardController
}

// NewBoardManager creates a new BoardManager.
func NewBoardManager(tasks repository.TaskRepository, notifier notify.Notifier) *BoardManager {
	return &BoardManager{tasks: tasks, notifier: notifier}
}

// Activate returns the board for session, creating it if the active board
// belongs to someone else or there is none.
func (m *BoardManager) Activate(ctx context.Context, session *models.Session) (*BoardController, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		if m.current.UserID() == session.UserID {
			return m.current, nil
		}
		m.current.Close()
		m.current = nil
	}

	board, err := NewBoardController(ctx, m.tasks, session, m.notifier)
	if err != nil {
		return nil, err
	}
	m.current = board
	logger.Info("Board activated", zap.String("user_id", session.UserID))
	return board, nil
}

// Current returns the active board or ErrNoActiveBoard.
func (m *BoardManager) Current() (*BoardController, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoActiveBoard
	}
	return m.current, nil
}

// Deactivate closes the active board when it belongs to userID. A board
// activated meanwhile for someone else stays open.
func (m *BoardManager) Deactivate(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.UserID() == userID {
		m.current.Close()
		m.current = nil
	}
}
