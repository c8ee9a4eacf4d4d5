package repository

import (
	"context"

	"github.com/yukikurage/taskboard/internal/models"
)

// TaskRepository defines the interface for task data access. Every
// operation is scoped to the owning user: a task that belongs to someone
// else is reported as ErrTaskNotFound.
type TaskRepository interface {
	// List returns the user's tasks, newest first
	List(ctx context.Context, userID string) ([]models.Task, error)

	// Get returns a single task owned by userID
	Get(ctx context.Context, id, userID string) (*models.Task, error)

	// Create adds a new todo task for userID
	Create(ctx context.Context, userID string, input CreateTaskInput) (*models.Task, error)

	// Update merges the supplied fields into a task. Status is not editable here.
	Update(ctx context.Context, id, userID string, input UpdateTaskInput) (*models.Task, error)

	// Transition moves a task to status. changed is false when the task
	// already had that status, in which case nothing is written.
	Transition(ctx context.Context, id, userID string, status models.TaskStatus) (task *models.Task, changed bool, err error)

	// Delete removes a task and reports whether one was removed
	Delete(ctx context.Context, id, userID string) (bool, error)

	// Subscribe registers fn for every committed change and returns a
	// function that removes the subscription.
	Subscribe(fn func(TaskEvent)) (unsubscribe func())
}

// CreateTaskInput holds the fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     string
	Priority    models.TaskPriority
}

// UpdateTaskInput holds the fields to change. Nil fields are left as they
// are; an empty DueDate clears the due date.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *models.TaskPriority
}

// TaskEventKind identifies the mutation behind a TaskEvent.
type TaskEventKind string

const (
	TaskCreated      TaskEventKind = "created"
	TaskUpdated      TaskEventKind = "updated"
	TaskTransitioned TaskEventKind = "transitioned"
	TaskDeleted      TaskEventKind = "deleted"
)

// TaskEvent describes a change that has been persisted. For deletions Task
// holds the removed record; for transitions From holds the old status.
type TaskEvent struct {
	Kind   TaskEventKind
	UserID string
	Task   models.Task
	From   models.TaskStatus
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create stores a new user, rejecting a taken username or email
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail finds a user by email, ignoring case
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Count returns the number of registered users
	Count(ctx context.Context) (int, error)

	// Delete removes a user. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// SessionRepository holds the single active session.
type SessionRepository interface {
	Get(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Clear(ctx context.Context) error
}
