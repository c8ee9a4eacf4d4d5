package repository

import "errors"

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrNoSession         = errors.New("no active session")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrValidation        = errors.New("validation failed")
)

// ValidationError rejects user input. Field names the offending input
// and is empty when the error concerns the form as a whole.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Unwrap lets errors.Is(err, ErrValidation) match every ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Task input errors
var (
	ErrTitleRequired   = &ValidationError{Field: "title", Reason: "Task title is required!"}
	ErrInvalidPriority = &ValidationError{Field: "priority", Reason: "Priority must be low, medium or high"}
	ErrInvalidStatus   = &ValidationError{Field: "status", Reason: "Status must be todo, inprogress or completed"}
	ErrInvalidDueDate  = &ValidationError{Field: "dueDate", Reason: "Due date must use the YYYY-MM-DD format"}
)

// Account input errors
var (
	ErrMissingFields    = &ValidationError{Reason: "Please fill in all fields"}
	ErrUsernameTooShort = &ValidationError{Field: "username", Reason: "Username must be at least 3 characters long"}
	ErrInvalidEmail     = &ValidationError{Field: "email", Reason: "Please enter a valid email address"}
	ErrPasswordTooShort = &ValidationError{Field: "password", Reason: "Password must be at least 6 characters long"}
	ErrPasswordMismatch = &ValidationError{Field: "confirmPassword", Reason: "Passwords do not match"}
	ErrUsernameTaken    = &ValidationError{Field: "username", Reason: "Username already exists"}
	ErrEmailTaken       = &ValidationError{Field: "email", Reason: "Email already registered"}
)
