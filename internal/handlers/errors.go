package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
	"github.com/yukikurage/taskboard/internal/logger"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/services"
)

func respondAuthError(c *gin.Context, err error) {
	var verr *repository.ValidationError
	switch {
	case errors.Is(err, repository.ErrUsernameTaken), errors.Is(err, repository.ErrEmailTaken):
		errors.As(err, &verr)
		apierrors.AlreadyExists(c, verr.Field, verr.Reason)
	case errors.As(err, &verr):
		apierrors.ValidationFailed(c, verr.Field, verr.Reason)
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, repository.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, repository.ErrNoSession):
		apierrors.Unauthorized(c, "")
	default:
		logger.Error("Auth request failed", err)
		apierrors.InternalError(c, "Internal server error")
	}
}

func respondBoardError(c *gin.Context, err error) {
	var verr *repository.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.ValidationFailed(c, verr.Field, verr.Reason)
	case errors.Is(err, repository.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, repository.ErrInvalidTransition):
		apierrors.InvalidTransition(c, "That move is not allowed")
	case errors.Is(err, services.ErrNotEditing),
		errors.Is(err, services.ErrNoPendingDelete):
		apierrors.InvalidOperation(c, err.Error())
	case errors.Is(err, services.ErrBoardClosed),
		errors.Is(err, services.ErrNoActiveBoard),
		errors.Is(err, repository.ErrNoSession):
		apierrors.Unauthorized(c, "Session expired, please log in again")
	default:
		logger.Error("Board request failed", err)
		apierrors.InternalError(c, "Something went wrong, please try again")
	}
}
