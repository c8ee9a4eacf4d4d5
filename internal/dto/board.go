package dto

import (
	"time"

	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/notify"
	"github.com/yukikurage/taskboard/internal/services"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionDTO represents the active session in API responses
type SessionDTO struct {
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	LoggedInAt time.Time `json:"loggedInAt"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User         *UserDTO             `json:"user,omitempty"`
	Session      SessionDTO           `json:"session"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// BoardResponse is the filtered board view together with its counters
type BoardResponse struct {
	Tasks        []models.Task        `json:"tasks"`
	Stats        services.Stats       `json:"stats"`
	Filter       services.Filter      `json:"filter"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// TaskResponse is the result of an operation on a single task
type TaskResponse struct {
	Task         *models.Task         `json:"task,omitempty"`
	Changed      *bool                `json:"changed,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// EditResponse describes the edit in progress
type EditResponse struct {
	Edit         services.EditSession `json:"edit"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// PendingDeleteResponse names the task awaiting delete confirmation
type PendingDeleteResponse struct {
	TaskID       string               `json:"taskId"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// MessageResponse carries only a notification
type MessageResponse struct {
	Message      string               `json:"message"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO. The password hash never leaves the server.
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// ToSessionDTO converts a Session model to SessionDTO
func ToSessionDTO(session models.Session) SessionDTO {
	return SessionDTO{
		UserID:     session.UserID,
		Username:   session.Username,
		Email:      session.Email,
		LoggedInAt: session.LoggedInAt,
	}
}

// LastNotification returns the newest message in inbox, or nil
func LastNotification(inbox *notify.Recorder) *notify.Notification {
	if inbox == nil {
		return nil
	}
	n, ok := inbox.Last()
	if !ok {
		return nil
	}
	return &n
}
