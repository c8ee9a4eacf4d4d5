package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/dto"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
	"github.com/yukikurage/taskboard/internal/middleware"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/notify"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/services"
)

// TaskHandler serves the board of the signed-in user.
type TaskHandler struct {
	boards *services.BoardManager
}

func NewTaskHandler(boards *services.BoardManager) *TaskHandler {
	return &TaskHandler{
		boards: boards,
	}
}

type taskRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	DueDate     string              `json:"dueDate"`
	Priority    models.TaskPriority `json:"priority"`
}

// board returns the active board for the request's session together with
// a context that collects the notifications this request produces.
func (h *TaskHandler) board(c *gin.Context) (*services.BoardController, context.Context, *notify.Recorder, bool) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return nil, nil, nil, false
	}

	ctx, inbox := notify.Collect(c.Request.Context())
	board, err := h.boards.Activate(ctx, session)
	if err != nil {
		respondBoardError(c, err)
		return nil, nil, nil, false
	}
	return board, ctx, inbox, true
}

func (h *TaskHandler) respondBoard(c *gin.Context, board *services.BoardController, tasks []models.Task, inbox *notify.Recorder) {
	c.JSON(http.StatusOK, dto.BoardResponse{
		Tasks:        tasks,
		Stats:        board.Stats(),
		Filter:       board.Filter(),
		Notification: dto.LastNotification(inbox),
	})
}

func respondTask(c *gin.Context, status int, task *models.Task, changed *bool, inbox *notify.Recorder) {
	c.JSON(status, dto.TaskResponse{
		Task:         task,
		Changed:      changed,
		Notification: dto.LastNotification(inbox),
	})
}

// ListTasks applies the filter given in the query and returns the matching tasks.
// Missing parameters match everything.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	board, _, inbox, ok := h.board(c)
	if !ok {
		return
	}

	tasks := board.ApplyFilter(services.Filter{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	})
	h.respondBoard(c, board, tasks, inbox)
}

// ClearFilter resets the board filter.
func (h *TaskHandler) ClearFilter(c *gin.Context) {
	board, ctx, inbox, ok := h.board(c)
	if !ok {
		return
	}

	tasks := board.ClearFilter(ctx)
	h.respondBoard(c, board, tasks, inbox)
}

// GetStats returns the board counters over every task of the user.
func (h *TaskHandler) GetStats(c *gin.Context) {
	board, _, _, ok := h.board(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, board.Stats())
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	board, _, _, ok := h.board(c)
	if !ok {
		return
	}

	task, err := board.Task(c.Param("id"))
	if err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask adds a todo task to the board.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, ctx, inbox, ok := h.board(c)
	if !ok {
		return
	}

	task, err := board.AddTask(ctx, repository.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}
	respondTask(c, http.StatusCreated, task, nil, inbox)
}

// UpdateTask changes the supplied fields of a task.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		DueDate     *string              `json:"dueDate"`
		Priority    *models.TaskPriority `json:"priority"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, ctx, inbox, ok := h.board(c)
	if !ok {
		return
	}

	task, err := board.UpdateTask(ctx, c.Param("id"), repository.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}
	respondTask(c, http.StatusOK, task, nil, inbox)
}

// MoveTask places a task in the column named by the request.
func (h *TaskHandler) MoveTask(c *gin.Context) {
	type MoveTaskRequest struct {
		Status models.TaskStatus `json:"status" binding:"required"`
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, ctx, inbox, ok := h.board(c)
	if !ok {
		return
	}

	task, changed, err := board.Move(ctx, c.Param("id"), req.Status)
	if err != nil {
		respondBoardError(c, err)
		return
	}
	respondTask(c, http.StatusOK, task, &changed, inbox)
}

type statusFunc func(*services.BoardController, context.Context, string) (*models.Task, bool, error)

func (h *TaskHandler) runStatusAction(c *gin.Context, action statusFunc) {
	board, ctx, inbox, ok := h.board(c)
	if !ok {
		return
	}

	task, changed, err := action(board, ctx, c.Param("id"))
	if err != nil {
		respondBoardError(c, err)
		return
	}
	respondTask(c, http.StatusOK, task, &changed, inbox)
}

// StartTask moves a todo task to in progress.
func (h *TaskHandler) StartTask(c *gin.Context) {
	h.runStatusAction(c, (*services.BoardController).Start)
}

// RevertTask moves an in-progress task back to todo.
func (h *TaskHandler) RevertTask(c *gin.Context) {
	h.runStatusAction(c, (*services.BoardController).Revert)
}

// CompleteTask marks a task as completed.
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	h.runStatusAction(c, (*services.BoardController).Complete)
}

// ReopenTask moves a completed task back to todo.
func (h *TaskHandler) ReopenTask(c *gin.Context) {
	h.runStatusAction(c, (*services.BoardController).Reopen)
}

// BeginEdit opens a task for editing.
func (h *TaskHandler) BeginEdit(c *gin.Context) {
	board, ctx, inbox, ok := h.board(c)
	if !ok {
		return
	}

	edit, err := board.BeginEdit(ctx, c.Param("id"))
	if err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EditResponse{Edit: edit, Notification: dto.LastNotification(inbox)})
}

// GetEdit returns the edit in progress.
func (h *TaskHandler) GetEdit(c *gin.Context) {
	board, _, _, ok := h.board(c)
	if !ok {
		return
	}

	edit, editing := board.Editing()
	if !editing {
		apierrors.NotFound(c, "No task is being edited")
		return
	}
	c.JSON(http.StatusOK, dto.EditResponse{Edit: edit})
}

// SubmitEdit saves the edit in progress.
func (h *TaskHandler) SubmitEdit(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, ctx, inbox, ok := h.board(c)
	if !ok {
		return
	}

	task, err := board.SubmitEdit(ctx, services.EditSession{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}
	respondTask(c, http.StatusOK, task, nil, inbox)
}

// CancelEdit leaves edit mode without saving.
func (h *TaskHandler) CancelEdit(c *gin.Context) {
	board, ctx, inbox, ok := h.board(c)
	if !ok {
		return
	}

	if err := board.CancelEdit(ctx); err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Edit cancelled", Notification: dto.LastNotification(inbox)})
}

// DeleteTask asks for confirmation before a task is removed.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	board, _, _, ok := h.board(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := board.RequestDelete(id); err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.PendingDeleteResponse{TaskID: id})
}

// GetPendingDelete returns the task awaiting delete confirmation.
func (h *TaskHandler) GetPendingDelete(c *gin.Context) {
	board, _, _, ok := h.board(c)
	if !ok {
		return
	}

	id, pending := board.PendingDelete()
	if !pending {
		apierrors.NotFound(c, "No task is awaiting deletion")
		return
	}
	c.JSON(http.StatusOK, dto.PendingDeleteResponse{TaskID: id})
}

// ConfirmDelete removes the task awaiting confirmation.
func (h *TaskHandler) ConfirmDelete(c *gin.Context) {
	board, ctx, inbox, ok := h.board(c)
	if !ok {
		return
	}

	if _, err := board.ConfirmDelete(ctx); err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Task deleted successfully", Notification: dto.LastNotification(inbox)})
}

// CancelDelete forgets the pending delete request.
func (h *TaskHandler) CancelDelete(c *gin.Context) {
	board, _, _, ok := h.board(c)
	if !ok {
		return
	}

	board.CancelDelete()
	c.JSON(http.StatusOK, gin.H{
		"message": "Delete cancelled",
	})
}
