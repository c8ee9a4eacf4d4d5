package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/taskboard/internal/clock"
	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/logger"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/storage"
	"go.uber.org/zap"
)

var _ TaskRepository = (*StoreTaskRepository)(nil)

// StoreTaskRepository keeps an indexed copy of the tasks document in
// memory and writes the whole document back through the Store on every
// mutation. The index is only changed after the write succeeds, so a
// failed write leaves both the index and the stored document untouched.
type StoreTaskRepository struct {
	store  storage.Store
	clock  clock.Clock
	policy models.TransitionPolicy
	newID  func() string

	mu     sync.RWMutex
	tasks  map[string]*models.Task
	order  []string
	byUser map[string][]string

	subMu   sync.Mutex
	subs    map[int]func(TaskEvent)
	nextSub int
}

// NewTaskRepository loads the tasks document from store and returns a
// repository over it.
func NewTaskRepository(ctx context.Context, store storage.Store, clk clock.Clock) (*StoreTaskRepository, error) {
	r := &StoreTaskRepository{
		store:  store,
		clock:  clk,
		policy: models.DefaultTransitionPolicy,
		newID:  uuid.NewString,
		tasks:  make(map[string]*models.Task),
		byUser: make(map[string][]string),
		subs:   make(map[int]func(TaskEvent)),
	}
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *StoreTaskRepository) load(ctx context.Context) error {
	var stored []models.Task
	if _, err := r.store.Get(ctx, constants.KeyTasks, &stored); err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	for i := range stored {
		task := stored[i]
		switch {
		case task.ID == "" || task.UserID == "":
			logger.Warn("Skipping stored task without id or owner", zap.Int("index", i))
			continue
		case !task.Status.Valid():
			logger.Warn("Skipping stored task with unknown status",
				zap.String("task_id", task.ID), zap.String("status", string(task.Status)))
			continue
		}
		if _, dup := r.tasks[task.ID]; dup {
			logger.Warn("Skipping stored task with duplicate id", zap.String("task_id", task.ID))
			continue
		}
		if !task.Priority.Valid() {
			task.Priority = models.TaskPriorityMedium
		}
		r.index(&task)
	}

	logger.Debug("Tasks loaded", zap.Int("count", len(r.order)))
	return nil
}

func (r *StoreTaskRepository) index(task *models.Task) {
	r.tasks[task.ID] = task
	r.order = append(r.order, task.ID)
	r.byUser[task.UserID] = append(r.byUser[task.UserID], task.ID)
}

// List returns copies of the user's tasks ordered by createdAt, newest
// first. Tasks created at the same instant are ordered newest insertion first.
func (r *StoreTaskRepository) List(ctx context.Context, userID string) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	ids := r.byUser[userID]
	result := make([]models.Task, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		result = append(result, *r.tasks[ids[i]])
	}
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Get returns a copy of the task id when it belongs to userID.
func (r *StoreTaskRepository) Get(ctx context.Context, id, userID string) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	task, err := r.owned(id, userID)
	if err != nil {
		return nil, err
	}
	out := *task
	return &out, nil
}

// Create validates input and appends a new todo task.
func (r *StoreTaskRepository) Create(ctx context.Context, userID string, input CreateTaskInput) (*models.Task, error) {
	if userID == "" {
		return nil, ErrUserNotFound
	}
	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	priority, err := normalizePriority(input.Priority)
	if err != nil {
		return nil, err
	}
	dueDate, err := normalizeDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	now := r.clock.Now()
	task := &models.Task{
		ID:          r.uniqueID(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		DueDate:     dueDate,
		Priority:    priority,
		Status:      models.TaskStatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	doc := append(r.document(nil, ""), *task)
	if err := r.persist(ctx, doc); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.index(task)
	out := *task
	r.mu.Unlock()

	logger.Info("Task created", zap.String("task_id", out.ID), zap.String("user_id", userID))
	r.publish(TaskEvent{Kind: TaskCreated, UserID: userID, Task: out})
	return &out, nil
}

// Update merges title, description, due date and priority.
func (r *StoreTaskRepository) Update(ctx context.Context, id, userID string, input UpdateTaskInput) (*models.Task, error) {
	r.mu.Lock()
	current, err := r.owned(id, userID)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	updated := *current
	if err := applyUpdate(&updated, input); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	updated.UpdatedAt = r.touch(current)

	if err := r.persist(ctx, r.document(&updated, "")); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.tasks[id] = &updated
	out := updated
	r.mu.Unlock()

	logger.Info("Task updated", zap.String("task_id", id), zap.String("user_id", userID))
	r.publish(TaskEvent{Kind: TaskUpdated, UserID: userID, Task: out})
	return &out, nil
}

// Transition moves the task to status when the transition policy allows
// it. Moving a task to the status it already has writes nothing.
func (r *StoreTaskRepository) Transition(ctx context.Context, id, userID string, status models.TaskStatus) (*models.Task, bool, error) {
	if !status.Valid() {
		return nil, false, ErrInvalidStatus
	}

	r.mu.Lock()
	current, err := r.owned(id, userID)
	if err != nil {
		r.mu.Unlock()
		return nil, false, err
	}
	if current.Status == status {
		out := *current
		r.mu.Unlock()
		return &out, false, nil
	}

	from := current.Status
	if !r.policy.Allows(from, status) {
		r.mu.Unlock()
		return nil, false, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, status)
	}

	updated := *current
	updated.Status = status
	updated.UpdatedAt = r.touch(current)

	if err := r.persist(ctx, r.document(&updated, "")); err != nil {
		r.mu.Unlock()
		return nil, false, err
	}
	r.tasks[id] = &updated
	out := updated
	r.mu.Unlock()

	logger.Info("Task transitioned",
		zap.String("task_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(status)))
	r.publish(TaskEvent{Kind: TaskTransitioned, UserID: userID, Task: out, From: from})
	return &out, true, nil
}

// Delete removes the task. It returns false with ErrTaskNotFound when the
// user owns no task with that id.
func (r *StoreTaskRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	r.mu.Lock()
	current, err := r.owned(id, userID)
	if err != nil {
		r.mu.Unlock()
		return false, err
	}

	if err := r.persist(ctx, r.document(nil, id)); err != nil {
		r.mu.Unlock()
		return false, err
	}
	removed := *current
	delete(r.tasks, id)
	r.order = without(r.order, id)
	r.byUser[userID] = without(r.byUser[userID], id)
	if len(r.byUser[userID]) == 0 {
		delete(r.byUser, userID)
	}
	r.mu.Unlock()

	logger.Info("Task deleted", zap.String("task_id", id), zap.String("user_id", userID))
	r.publish(TaskEvent{Kind: TaskDeleted, UserID: userID, Task: removed})
	return true, nil
}

// Subscribe registers fn for committed changes. fn runs on the goroutine
// that made the change, after the repository lock has been released.
func (r *StoreTaskRepository) Subscribe(fn func(TaskEvent)) func() {
	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.subMu.Unlock()

	return func() {
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
	}
}

func (r *StoreTaskRepository) publish(event TaskEvent) {
	r.subMu.Lock()
	fns := make([]func(TaskEvent), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

// owned must be called with r.mu held.
func (r *StoreTaskRepository) owned(id, userID string) (*models.Task, error) {
	task, ok := r.tasks[id]
	if !ok || task.UserID != userID {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// document renders the full collection in insertion order, substituting
// replace for the task with the same id and leaving out skip.
func (r *StoreTaskRepository) document(replace *models.Task, skip string) []models.Task {
	doc := make([]models.Task, 0, len(r.order)+1)
	for _, id := range r.order {
		if id == skip {
			continue
		}
		if replace != nil && id == replace.ID {
			doc = append(doc, *replace)
			continue
		}
		doc = append(doc, *r.tasks[id])
	}
	return doc
}

func (r *StoreTaskRepository) persist(ctx context.Context, doc []models.Task) error {
	if err := r.store.Set(ctx, constants.KeyTasks, doc); err != nil {
		logger.Error("Failed to persist tasks", err, zap.Int("count", len(doc)))
		return fmt.Errorf("failed to persist tasks: %w", err)
	}
	return nil
}

// touch returns the new updatedAt for task, never earlier than its createdAt.
func (r *StoreTaskRepository) touch(task *models.Task) time.Time {
	now := r.clock.Now()
	if now.Before(task.CreatedAt) {
		return task.CreatedAt
	}
	return now
}

func (r *StoreTaskRepository) uniqueID() string {
	for {
		id := r.newID()
		if _, taken := r.tasks[id]; !taken {
			return id
		}
	}
}

func applyUpdate(task *models.Task, input UpdateTaskInput) error {
	if input.Title != nil {
		title, err := normalizeTitle(*input.Title)
		if err != nil {
			return err
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.DueDate != nil {
		dueDate, err := normalizeDueDate(*input.DueDate)
		if err != nil {
			return err
		}
		task.DueDate = dueDate
	}
	if input.Priority != nil {
		priority, err := normalizePriority(*input.Priority)
		if err != nil {
			return err
		}
		task.Priority = priority
	}
	return nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	return title, nil
}

func normalizePriority(p models.TaskPriority) (models.TaskPriority, error) {
	if p == "" {
		return models.TaskPriorityMedium, nil
	}
	if !p.Valid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

func normalizeDueDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", nil
	}
	if _, err := time.Parse(constants.DueDateLayout, date); err != nil {
		return "", ErrInvalidDueDate
	}
	return date, nil
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
