package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/logger"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/notify"
	"github.com/yukikurage/taskboard/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrNotEditing      = errors.New("no task is being edited")
	ErrNoPendingDelete = errors.New("no task is awaiting deletion")
	ErrBoardClosed     = errors.New("board is closed")
)

// Filter selects which snapshot tasks are shown. Status and Priority use
// "all" to match everything.
type Filter struct {
	Search   string `json:"search"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// DefaultFilter matches every task.
func DefaultFilter() Filter {
	return Filter{Status: constants.FilterAll, Priority: constants.FilterAll}
}

// Match reports whether task passes the filter. Search is a
// case-insensitive substring of the title or the description.
func (f Filter) Match(task models.Task) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(task.Title), term) &&
			!strings.Contains(strings.ToLower(task.Description), term) {
			return false
		}
	}
	if f.Status != "" && f.Status != constants.FilterAll && string(task.Status) != f.Status {
		return false
	}
	if f.Priority != "" && f.Priority != constants.FilterAll && string(task.Priority) != f.Priority {
		return false
	}
	return true
}

// Stats are the board counters.
type Stats struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"inprogress"`
	Completed  int `json:"completed"`
}

func computeStats(tasks []models.Task) Stats {
	stats := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.TaskStatusTodo:
			stats.Todo++
		case models.TaskStatusInProgress:
			stats.InProgress++
		case models.TaskStatusCompleted:
			stats.Completed++
		}
	}
	return stats
}

// EditSession holds the fields of the task currently open for editing.
type EditSession struct {
	TaskID      string              `json:"taskId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	DueDate     string              `json:"dueDate"`
	Priority    models.TaskPriority `json:"priority"`
}

// BoardController is the in-memory view of one user's board. It keeps a
// snapshot of the user's tasks that is re-derived whenever the repository
// reports a change for that user.
type BoardController struct {
	tasks    repository.TaskRepository
	userID   string
	username string
	notifier notify.Notifier

	// opMu serializes board operations. It may be held across repository
	// calls; mu must not be, because repository events re-enter through
	// handleEvent.
	opMu sync.Mutex

	// refreshMu orders snapshot reloads so an older read never replaces
	// a newer one.
	refreshMu sync.Mutex

	mu            sync.Mutex
	snapshot      []models.Task
	stats         Stats
	filter        Filter
	editing       *EditSession
	pendingDelete string
	unsubscribe   func()
	closed        bool
}

// NewBoardController loads the board for session and subscribes to task
// changes. Call Close when the session ends.
func NewBoardController(ctx context.Context, tasks repository.TaskRepository, session *models.Session, notifier notify.Notifier) (*BoardController, error) {
	c := &BoardController{
		tasks:    tasks,
		userID:   session.UserID,
		username: session.Username,
		notifier: notifier,
		filter:   DefaultFilter(),
	}
	c.unsubscribe = tasks.Subscribe(c.handleEvent)
	if err := c.Refresh(ctx); err != nil {
		c.Close()
		return nil, err
	}

	notify.Publish(ctx, c.notifier, notify.Success(fmt.Sprintf("Welcome back, %s!", session.Username)))
	return c, nil
}

// UserID returns the owner of the board.
func (c *BoardController) UserID() string {
	return c.userID
}

// Close stops listening for repository changes.
func (c *BoardController) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.closed = true
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *BoardController) handleEvent(e repository.TaskEvent) {
	if e.UserID != c.userID {
		return
	}
	if err := c.Refresh(context.Background()); err != nil {
		logger.Error("Failed to refresh board", err, zap.String("user_id", c.userID))
	}
}

// Refresh reloads the snapshot from the repository and recomputes the
// stats. Edit and delete state pointing at a task that no longer exists
// is dropped.
func (c *BoardController) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	tasks, err := c.tasks.List(ctx, c.userID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = tasks
	c.stats = computeStats(tasks)
	if c.editing != nil && c.find(c.editing.TaskID) == nil {
		c.editing = nil
	}
	if c.pendingDelete != "" && c.find(c.pendingDelete) == nil {
		c.pendingDelete = ""
	}
	return nil
}

// find must be called with c.mu held.
func (c *BoardController) find(id string) *models.Task {
	for i := range c.snapshot {
		if c.snapshot[i].ID == id {
			return &c.snapshot[i]
		}
	}
	return nil
}

// Task returns one task from the snapshot, ignoring the filter.
func (c *BoardController) Task(id string) (models.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	task := c.find(id)
	if task == nil {
		return models.Task{}, repository.ErrTaskNotFound
	}
	return *task, nil
}

// Tasks returns the snapshot filtered by the current filter.
func (c *BoardController) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(c.filter)
}

// ApplyFilter makes f the current filter and returns the matching tasks.
// The snapshot itself is never modified.
func (c *BoardController) ApplyFilter(f Filter) []models.Task {
	if f.Status == "" {
		f.Status = constants.FilterAll
	}
	if f.Priority == "" {
		f.Priority = constants.FilterAll
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
	return c.view(f)
}

// ClearFilter resets the filter and returns every task.
func (c *BoardController) ClearFilter(ctx context.Context) []models.Task {
	tasks := c.ApplyFilter(DefaultFilter())
	notify.Publish(ctx, c.notifier, notify.Info("Filters cleared"))
	return tasks
}

// Filter returns the current filter.
func (c *BoardController) Filter() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *BoardController) view(f Filter) []models.Task {
	out := make([]models.Task, 0, len(c.snapshot))
	for _, t := range c.snapshot {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Stats returns the counters over the whole snapshot, ignoring the filter.
func (c *BoardController) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// AddTask creates a task for the board owner.
func (c *BoardController) AddTask(ctx context.Context, input repository.CreateTaskInput) (*models.Task, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.opMu.Unlock()

	task, err := c.tasks.Create(ctx, c.userID, input)
	if err != nil {
		c.fail(ctx, err)
		return nil, err
	}
	notify.Publish(ctx, c.notifier, notify.Success("Task added successfully!"))
	return task, nil
}

// UpdateTask changes the fields of a task without going through an edit session.
func (c *BoardController) UpdateTask(ctx context.Context, id string, input repository.UpdateTaskInput) (*models.Task, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.opMu.Unlock()

	task, err := c.tasks.Update(ctx, id, c.userID, input)
	if err != nil {
		c.fail(ctx, err)
		return nil, err
	}
	notify.Publish(ctx, c.notifier, notify.Success("Task updated successfully!"))
	return task, nil
}

// BeginEdit opens the task for editing, replacing any edit in progress.
func (c *BoardController) BeginEdit(ctx context.Context, id string) (EditSession, error) {
	c.mu.Lock()
	task := c.find(id)
	if task == nil {
		c.mu.Unlock()
		return EditSession{}, repository.ErrTaskNotFound
	}
	session := EditSession{
		TaskID:      task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Priority:    task.Priority,
	}
	c.editing = &session
	c.mu.Unlock()

	notify.Publish(ctx, c.notifier, notify.Info("Editing task: "+session.Title))
	return session, nil
}

// Editing returns the edit in progress, if any.
func (c *BoardController) Editing() (EditSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return EditSession{}, false
	}
	return *c.editing, true
}

// SubmitEdit saves draft over the task being edited and leaves edit mode.
// A validation failure keeps the edit open so the input can be corrected.
func (c *BoardController) SubmitEdit(ctx context.Context, draft EditSession) (*models.Task, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.editing == nil {
		c.mu.Unlock()
		return nil, ErrNotEditing
	}
	id := c.editing.TaskID
	c.mu.Unlock()

	task, err := c.tasks.Update(ctx, id, c.userID, repository.UpdateTaskInput{
		Title:       &draft.Title,
		Description: &draft.Description,
		DueDate:     &draft.DueDate,
		Priority:    &draft.Priority,
	})
	if err != nil {
		if !errors.Is(err, repository.ErrValidation) {
			c.clearEdit(id)
		}
		c.fail(ctx, err)
		return nil, err
	}

	c.clearEdit(id)
	notify.Publish(ctx, c.notifier, notify.Success("Task updated successfully!"))
	return task, nil
}

// CancelEdit leaves edit mode without saving.
func (c *BoardController) CancelEdit(ctx context.Context) error {
	c.mu.Lock()
	if c.editing == nil {
		c.mu.Unlock()
		return ErrNotEditing
	}
	c.editing = nil
	c.mu.Unlock()

	notify.Publish(ctx, c.notifier, notify.Info("Edit cancelled"))
	return nil
}

func (c *BoardController) clearEdit(id string) {
	c.mu.Lock()
	if c.editing != nil && c.editing.TaskID == id {
		c.editing = nil
	}
	c.mu.Unlock()
}

// statusAction is a named button on a task card.
type statusAction struct {
	to      models.TaskStatus
	from    []models.TaskStatus
	message string
}

var (
	actionStart    = statusAction{models.TaskStatusInProgress, []models.TaskStatus{models.TaskStatusTodo}, "Task moved to In Progress!"}
	actionRevert   = statusAction{models.TaskStatusTodo, []models.TaskStatus{models.TaskStatusInProgress}, "Task moved back to To Do!"}
	actionComplete = statusAction{models.TaskStatusCompleted, []models.TaskStatus{models.TaskStatusTodo, models.TaskStatusInProgress}, "Task marked as complete!"}
	actionReopen   = statusAction{models.TaskStatusTodo, []models.TaskStatus{models.TaskStatusCompleted}, "Task reopened!"}
)

// Start moves a todo task to in progress.
func (c *BoardController) Start(ctx context.Context, id string) (*models.Task, bool, error) {
	return c.runAction(ctx, id, actionStart)
}

// Revert moves an in-progress task back to todo.
func (c *BoardController) Revert(ctx context.Context, id string) (*models.Task, bool, error) {
	return c.runAction(ctx, id, actionRevert)
}

// Complete marks a todo or in-progress task as completed.
func (c *BoardController) Complete(ctx context.Context, id string) (*models.Task, bool, error) {
	return c.runAction(ctx, id, actionComplete)
}

// Reopen moves a completed task back to todo.
func (c *BoardController) Reopen(ctx context.Context, id string) (*models.Task, bool, error) {
	return c.runAction(ctx, id, actionReopen)
}

func (c *BoardController) runAction(ctx context.Context, id string, action statusAction) (*models.Task, bool, error) {
	if err := c.begin(); err != nil {
		return nil, false, err
	}
	defer c.opMu.Unlock()

	current, err := c.tasks.Get(ctx, id, c.userID)
	if err != nil {
		c.fail(ctx, err)
		return nil, false, err
	}
	if current.Status == action.to {
		return current, false, nil
	}
	if !containsStatus(action.from, current.Status) {
		err := fmt.Errorf("%w: %s to %s", repository.ErrInvalidTransition, current.Status, action.to)
		c.fail(ctx, err)
		return nil, false, err
	}

	return c.transition(ctx, id, action.to, action.message)
}

// Move handles a card dropped on a column. Any transition the repository
// policy allows is accepted.
func (c *BoardController) Move(ctx context.Context, id string, status models.TaskStatus) (*models.Task, bool, error) {
	if err := c.begin(); err != nil {
		return nil, false, err
	}
	defer c.opMu.Unlock()

	return c.transition(ctx, id, status, dropMessage(status))
}

func (c *BoardController) transition(ctx context.Context, id string, status models.TaskStatus, message string) (*models.Task, bool, error) {
	task, changed, err := c.tasks.Transition(ctx, id, c.userID, status)
	if err != nil {
		c.fail(ctx, err)
		return nil, false, err
	}
	if changed {
		notify.Publish(ctx, c.notifier, notify.Success(message))
	}
	return task, changed, nil
}

func dropMessage(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusTodo:
		return "Task moved to To Do"
	case models.TaskStatusInProgress:
		return "Task moved to In Progress"
	default:
		return "Task marked as complete"
	}
}

// RequestDelete records id as awaiting confirmation. Nothing is deleted yet.
func (c *BoardController) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.find(id) == nil {
		return repository.ErrTaskNotFound
	}
	c.pendingDelete = id
	return nil
}

// PendingDelete returns the id awaiting confirmation, if any.
func (c *BoardController) PendingDelete() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingDelete, c.pendingDelete != ""
}

// ConfirmDelete deletes the pending task and clears the request.
func (c *BoardController) ConfirmDelete(ctx context.Context) (bool, error) {
	if err := c.begin(); err != nil {
		return false, err
	}
	defer c.opMu.Unlock()

	c.mu.Lock()
	id := c.pendingDelete
	c.mu.Unlock()
	if id == "" {
		return false, ErrNoPendingDelete
	}

	removed, err := c.tasks.Delete(ctx, id, c.userID)
	if err != nil && !errors.Is(err, repository.ErrTaskNotFound) {
		c.fail(ctx, err)
		return false, err
	}

	c.mu.Lock()
	if c.pendingDelete == id {
		c.pendingDelete = ""
	}
	c.mu.Unlock()

	if err != nil {
		c.fail(ctx, err)
		return false, err
	}
	notify.Publish(ctx, c.notifier, notify.Success("Task deleted successfully"))
	return removed, nil
}

// CancelDelete forgets the pending request.
func (c *BoardController) CancelDelete() {
	c.mu.Lock()
	c.pendingDelete = ""
	c.mu.Unlock()
}

// begin acquires opMu unless the board has been closed.
func (c *BoardController) begin() error {
	c.opMu.Lock()
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		c.opMu.Unlock()
		return ErrBoardClosed
	}
	return nil
}

// fail reports err on the notification surface.
func (c *BoardController) fail(ctx context.Context, err error) {
	var verr *repository.ValidationError
	switch {
	case errors.As(err, &verr):
		notify.Publish(ctx, c.notifier, notify.Error(verr.Reason))
	case errors.Is(err, repository.ErrTaskNotFound):
		notify.Publish(ctx, c.notifier, notify.Error("Task not found"))
	case errors.Is(err, repository.ErrInvalidTransition):
		notify.Publish(ctx, c.notifier, notify.Error("That move is not allowed"))
	default:
		notify.Publish(ctx, c.notifier, notify.Error("Something went wrong, please try again"))
	}
}

func containsStatus(list []models.TaskStatus, s models.TaskStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
