package middleware

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/constants"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
	"github.com/yukikurage/taskboard/internal/logger"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/services"
)

// RequireAuth checks that the request's cookie session belongs to the
// user of the active session.
func RequireAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookieUserID, ok := sessions.Default(c).Get(constants.ContextKeyUserID).(string)
		if !ok || cookieUserID == "" {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		active, err := authService.CurrentSession(c.Request.Context())
		if err != nil {
			if errors.Is(err, repository.ErrNoSession) {
				apierrors.Unauthorized(c, "Session expired, please log in again")
			} else {
				logger.Error("Failed to load session", err)
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}
		if active.UserID != cookieUserID {
			apierrors.Unauthorized(c, "Session expired, please log in again")
			c.Abort()
			return
		}

		// Store the session in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, active.UserID)
		c.Set(constants.ContextKeySession, active)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

// GetSession retrieves the active session from context
func GetSession(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(constants.ContextKeySession)
	if !exists {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok
}
