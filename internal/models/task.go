package models

import "time"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "inprogress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskStatuses lists every status in board column order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task is a single board card owned by one user. DueDate is a YYYY-MM-DD
// calendar date or empty.
type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DueDate     string       `json:"dueDate,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TransitionPolicy maps a status to the statuses a task may move to from it.
type TransitionPolicy map[TaskStatus][]TaskStatus

// DefaultTransitionPolicy permits start, revert, complete and reopen.
// A completed task has to be reopened before it can be started again.
var DefaultTransitionPolicy = TransitionPolicy{
	TaskStatusTodo:       {TaskStatusInProgress, TaskStatusCompleted},
	TaskStatusInProgress: {TaskStatusTodo, TaskStatusCompleted},
	TaskStatusCompleted:  {TaskStatusTodo},
}

// Allows reports whether a task in from may move to to.
func (p TransitionPolicy) Allows(from, to TaskStatus) bool {
	for _, s := range p[from] {
		if s == to {
			return true
		}
	}
	return false
}
