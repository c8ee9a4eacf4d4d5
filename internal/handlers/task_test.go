package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/taskboard/internal/dto"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/notify"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/services"
	"github.com/yukikurage/taskboard/internal/storage"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	env     authTestEnv
	cookies []*http.Cookie
	userID  string
}

// SetupTest registers a user and keeps their session cookie
func (suite *TaskHandlerTestSuite) SetupTest() {
	suite.env = newTestRouter(suite.T(), storage.NewMemoryStore())

	w := perform(suite.T(), suite.env.router, http.MethodPost, "/api/auth/register", registerPayload("student", "student@example.com"), nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.cookies = w.Result().Cookies()
	suite.userID = decode[dto.AuthResponse](suite.T(), w).Session.UserID
}

func (suite *TaskHandlerTestSuite) do(method, path string, payload any) (int, []byte) {
	w := perform(suite.T(), suite.env.router, method, path, payload, suite.cookies)
	return w.Code, w.Body.Bytes()
}

func (suite *TaskHandlerTestSuite) createTask(title string) models.Task {
	w := perform(suite.T(), suite.env.router, http.MethodPost, "/api/tasks", map[string]string{"title": title}, suite.cookies)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	response := decode[dto.TaskResponse](suite.T(), w)
	suite.Require().NotNil(response.Task)
	return *response.Task
}

func (suite *TaskHandlerTestSuite) board(path string) dto.BoardResponse {
	w := perform(suite.T(), suite.env.router, http.MethodGet, path, nil, suite.cookies)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return decode[dto.BoardResponse](suite.T(), w)
}

func (suite *TaskHandlerTestSuite) taskResponse(method, path string, payload any, status int) dto.TaskResponse {
	w := perform(suite.T(), suite.env.router, method, path, payload, suite.cookies)
	suite.Require().Equal(status, w.Code, w.Body.String())
	return decode[dto.TaskResponse](suite.T(), w)
}

func (suite *TaskHandlerTestSuite) apiError(method, path string, payload any, status int) apierrors.APIError {
	w := perform(suite.T(), suite.env.router, method, path, payload, suite.cookies)
	suite.Require().Equal(status, w.Code, w.Body.String())
	return decode[apierrors.APIError](suite.T(), w)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Success() {
	board := suite.board("/api/tasks")

	suite.Len(board.Tasks, 2)
	suite.Equal(services.Stats{Total: 2, Todo: 1, InProgress: 1}, board.Stats)
	suite.Equal(services.DefaultFilter(), board.Filter)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Unauthorized() {
	w := perform(suite.T(), suite.env.router, http.MethodGet, "/api/tasks", nil, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Filter() {
	suite.createTask("Buy milk")

	board := suite.board("/api/tasks?search=MILK")
	suite.Require().Len(board.Tasks, 1)
	suite.Equal("Buy milk", board.Tasks[0].Title)
	suite.Equal(services.Filter{Search: "MILK", Status: "all", Priority: "all"}, board.Filter)
	suite.Equal(3, board.Stats.Total, "stats ignore the filter")

	board = suite.board("/api/tasks?status=inprogress&priority=low")
	suite.Require().Len(board.Tasks, 1)
	suite.Equal("Explore the Features", board.Tasks[0].Title)

	code, body := suite.do(http.MethodDelete, "/api/board/filter", nil)
	suite.Require().Equal(http.StatusOK, code)
	cleared := decode[dto.BoardResponse](suite.T(), perform(suite.T(), suite.env.router, http.MethodGet, "/api/tasks", nil, suite.cookies))
	suite.Len(cleared.Tasks, 3)
	suite.Contains(string(body), "Filters cleared")
}

func (suite *TaskHandlerTestSuite) TestGetStats() {
	suite.createTask("Another")

	w := perform(suite.T(), suite.env.router, http.MethodGet, "/api/tasks/stats", nil, suite.cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(services.Stats{Total: 3, Todo: 2, InProgress: 1}, decode[services.Stats](suite.T(), w))
}

func (suite *TaskHandlerTestSuite) TestGetTask() {
	task := suite.createTask("Lookup")

	w := perform(suite.T(), suite.env.router, http.MethodGet, "/api/tasks/"+task.ID, nil, suite.cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(task, decode[models.Task](suite.T(), w))

	apiErr := suite.apiError(http.MethodGet, "/api/tasks/missing", nil, http.StatusNotFound)
	suite.Equal("Task not found", apiErr.Message)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Success() {
	response := suite.taskResponse(http.MethodPost, "/api/tasks", map[string]string{
		"title":       "  Write report ",
		"description": "quarterly",
		"dueDate":     "2025-06-01",
		"priority":    "high",
	}, http.StatusCreated)

	suite.Require().NotNil(response.Task)
	suite.Equal("Write report", response.Task.Title)
	suite.Equal(suite.userID, response.Task.UserID)
	suite.Equal(models.TaskStatusTodo, response.Task.Status)
	suite.Equal(models.TaskPriorityHigh, response.Task.Priority)
	suite.Equal("2025-06-01", response.Task.DueDate)
	suite.Equal(&notify.Notification{Message: "Task added successfully!", Severity: notify.SeveritySuccess}, response.Notification)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidRequest() {
	apiErr := suite.apiError(http.MethodPost, "/api/tasks", map[string]string{"title": "   "}, http.StatusBadRequest)
	suite.Equal(apierrors.ErrCodeValidationFailed, apiErr.Code)
	suite.Equal("Task title is required!", apiErr.Message)

	apiErr = suite.apiError(http.MethodPost, "/api/tasks", map[string]string{"title": "x", "priority": "urgent"}, http.StatusBadRequest)
	suite.Equal(map[string]any{"field": "priority"}, apiErr.Details)

	suite.apiError(http.MethodPost, "/api/tasks", "{", http.StatusBadRequest)

	suite.Equal(2, suite.board("/api/tasks").Stats.Total)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_Success() {
	task := suite.createTask("Draft")

	response := suite.taskResponse(http.MethodPatch, "/api/tasks/"+task.ID, map[string]string{
		"description": "now with details",
	}, http.StatusOK)

	suite.Equal("Draft", response.Task.Title)
	suite.Equal("now with details", response.Task.Description)
	suite.Equal(task.CreatedAt, response.Task.CreatedAt)
	suite.Equal("Task updated successfully!", response.Notification.Message)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_NotFound() {
	suite.apiError(http.MethodPatch, "/api/tasks/missing", map[string]string{"title": "x"}, http.StatusNotFound)
}

func (suite *TaskHandlerTestSuite) TestStatusActions() {
	task := suite.createTask("Flow")
	path := "/api/tasks/" + task.ID

	started := suite.taskResponse(http.MethodPost, path+"/start", nil, http.StatusOK)
	suite.Equal(models.TaskStatusInProgress, started.Task.Status)
	suite.Require().NotNil(started.Changed)
	suite.True(*started.Changed)
	suite.Equal("Task moved to In Progress!", started.Notification.Message)

	again := suite.taskResponse(http.MethodPost, path+"/start", nil, http.StatusOK)
	suite.False(*again.Changed)
	suite.Nil(again.Notification)

	apiErr := suite.apiError(http.MethodPost, path+"/reopen", nil, http.StatusConflict)
	suite.Equal(apierrors.ErrCodeInvalidTransition, apiErr.Code)

	reverted := suite.taskResponse(http.MethodPost, path+"/revert", nil, http.StatusOK)
	suite.Equal(models.TaskStatusTodo, reverted.Task.Status)
	suite.Equal("Task moved back to To Do!", reverted.Notification.Message)

	completed := suite.taskResponse(http.MethodPost, path+"/complete", nil, http.StatusOK)
	suite.Equal(models.TaskStatusCompleted, completed.Task.Status)
	suite.Equal("Task marked as complete!", completed.Notification.Message)

	reopened := suite.taskResponse(http.MethodPost, path+"/reopen", nil, http.StatusOK)
	suite.Equal(models.TaskStatusTodo, reopened.Task.Status)
	suite.Equal("Task reopened!", reopened.Notification.Message)

	suite.apiError(http.MethodPost, "/api/tasks/missing/start", nil, http.StatusNotFound)
}

func (suite *TaskHandlerTestSuite) TestMoveTask() {
	task := suite.createTask("Drag me")
	path := "/api/tasks/" + task.ID + "/move"

	moved := suite.taskResponse(http.MethodPost, path, map[string]string{"status": "completed"}, http.StatusOK)
	suite.Equal(models.TaskStatusCompleted, moved.Task.Status)
	suite.Equal("Task marked as complete", moved.Notification.Message)

	apiErr := suite.apiError(http.MethodPost, path, map[string]string{"status": "inprogress"}, http.StatusConflict)
	suite.Equal("That move is not allowed", apiErr.Message)

	suite.apiError(http.MethodPost, path, map[string]string{"status": "bogus"}, http.StatusBadRequest)
	suite.apiError(http.MethodPost, path, map[string]string{}, http.StatusBadRequest)

	stats := suite.board("/api/tasks").Stats
	suite.Equal(services.Stats{Total: 3, Todo: 1, InProgress: 1, Completed: 1}, stats)
}

func (suite *TaskHandlerTestSuite) TestEditSession() {
	task := suite.createTask("Old title")

	suite.apiError(http.MethodGet, "/api/board/edit", nil, http.StatusNotFound)

	w := perform(suite.T(), suite.env.router, http.MethodPost, "/api/tasks/"+task.ID+"/edit", nil, suite.cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	begun := decode[dto.EditResponse](suite.T(), w)
	suite.Equal(task.ID, begun.Edit.TaskID)
	suite.Equal("Old title", begun.Edit.Title)
	suite.Equal("Editing task: Old title", begun.Notification.Message)

	apiErr := suite.apiError(http.MethodPut, "/api/board/edit", map[string]string{"title": ""}, http.StatusBadRequest)
	suite.Equal("Task title is required!", apiErr.Message)

	code, _ := suite.do(http.MethodGet, "/api/board/edit", nil)
	suite.Equal(http.StatusOK, code, "a rejected edit stays open")

	saved := suite.taskResponse(http.MethodPut, "/api/board/edit", map[string]string{
		"title":    "New title",
		"priority": "low",
	}, http.StatusOK)
	suite.Equal("New title", saved.Task.Title)
	suite.Equal(models.TaskPriorityLow, saved.Task.Priority)

	suite.apiError(http.MethodGet, "/api/board/edit", nil, http.StatusNotFound)
	suite.apiError(http.MethodPut, "/api/board/edit", map[string]string{"title": "x"}, http.StatusConflict)
}

func (suite *TaskHandlerTestSuite) TestCancelEdit() {
	task := suite.createTask("Keep me")

	code, _ := suite.do(http.MethodPost, "/api/tasks/"+task.ID+"/edit", nil)
	suite.Require().Equal(http.StatusOK, code)

	code, body := suite.do(http.MethodDelete, "/api/board/edit", nil)
	suite.Require().Equal(http.StatusOK, code)
	suite.Contains(string(body), "Edit cancelled")

	suite.apiError(http.MethodDelete, "/api/board/edit", nil, http.StatusConflict)

	got, err := suite.env.tasks.Get(context.Background(), task.ID, suite.userID)
	suite.Require().NoError(err)
	suite.Equal("Keep me", got.Title)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask_TwoPhase() {
	task := suite.createTask("Doomed")

	w := perform(suite.T(), suite.env.router, http.MethodDelete, "/api/tasks/"+task.ID, nil, suite.cookies)
	suite.Require().Equal(http.StatusAccepted, w.Code)
	suite.Equal(task.ID, decode[dto.PendingDeleteResponse](suite.T(), w).TaskID)

	_, err := suite.env.tasks.Get(context.Background(), task.ID, suite.userID)
	suite.NoError(err, "nothing is deleted before confirmation")

	w = perform(suite.T(), suite.env.router, http.MethodGet, "/api/board/delete", nil, suite.cookies)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(task.ID, decode[dto.PendingDeleteResponse](suite.T(), w).TaskID)

	code, body := suite.do(http.MethodPost, "/api/board/delete/confirm", nil)
	suite.Require().Equal(http.StatusOK, code)
	suite.Contains(string(body), "Task deleted successfully")

	_, err = suite.env.tasks.Get(context.Background(), task.ID, suite.userID)
	suite.ErrorIs(err, repository.ErrTaskNotFound)

	suite.apiError(http.MethodGet, "/api/tasks/"+task.ID, nil, http.StatusNotFound)
	suite.apiError(http.MethodPost, "/api/board/delete/confirm", nil, http.StatusConflict)
	suite.apiError(http.MethodGet, "/api/board/delete", nil, http.StatusNotFound)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask_Cancel() {
	task := suite.createTask("Spared")

	code, _ := suite.do(http.MethodDelete, "/api/tasks/"+task.ID, nil)
	suite.Require().Equal(http.StatusAccepted, code)

	code, _ = suite.do(http.MethodDelete, "/api/board/delete", nil)
	suite.Require().Equal(http.StatusOK, code)

	suite.apiError(http.MethodPost, "/api/board/delete/confirm", nil, http.StatusConflict)
	suite.Equal(3, suite.board("/api/tasks").Stats.Total)

	suite.apiError(http.MethodDelete, "/api/tasks/missing", nil, http.StatusNotFound)
}

func (suite *TaskHandlerTestSuite) TestOtherUsersTasksAreHidden() {
	other, err := suite.env.tasks.Create(context.Background(), "someone-else", repository.CreateTaskInput{Title: "Private"})
	suite.Require().NoError(err)

	suite.apiError(http.MethodGet, "/api/tasks/"+other.ID, nil, http.StatusNotFound)
	suite.apiError(http.MethodPost, "/api/tasks/"+other.ID+"/start", nil, http.StatusNotFound)
	suite.Equal(2, suite.board("/api/tasks").Stats.Total)
}

func (suite *TaskHandlerTestSuite) TestBoardFollowsRepositoryChanges() {
	suite.board("/api/tasks")

	_, err := suite.env.tasks.Create(context.Background(), suite.userID, repository.CreateTaskInput{Title: "From elsewhere"})
	suite.Require().NoError(err)

	board := suite.board("/api/tasks")
	suite.Equal(3, board.Stats.Total)
	suite.Equal("From elsewhere", board.Tasks[0].Title)
}

// Run the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
