package handlers

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/dto"
	apierrors "github.com/yukikurage/taskboard/internal/errors"
	"github.com/yukikurage/taskboard/internal/logger"
	"github.com/yukikurage/taskboard/internal/middleware"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/notify"
	"github.com/yukikurage/taskboard/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	boards      *services.BoardManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, boards *services.BoardManager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		boards:      boards,
	}
}

// Register creates an account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ctx, inbox := notify.Collect(c.Request.Context())
	user, session, err := h.authService.Register(ctx, services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	if !h.signIn(ctx, c, session) {
		return
	}
	notify.Publish(ctx, nil, notify.Success("Registration successful!"))

	userDTO := dto.ToUserDTO(*user)
	c.JSON(http.StatusCreated, dto.AuthResponse{
		User:         &userDTO,
		Session:      dto.ToSessionDTO(*session),
		Notification: dto.LastNotification(inbox),
	})
}

// Login authenticates a user and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ctx, inbox := notify.Collect(c.Request.Context())
	session, err := h.authService.Login(ctx, services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}
	if !h.signIn(ctx, c, session) {
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Session:      dto.ToSessionDTO(*session),
		Notification: dto.LastNotification(inbox),
	})
}

// signIn stores the user in the cookie session and opens their board.
// It writes the error response itself and reports whether to continue.
func (h *AuthHandler) signIn(ctx context.Context, c *gin.Context, session *models.Session) bool {
	cookie := sessions.Default(c)
	cookie.Set(constants.ContextKeyUserID, session.UserID)
	if err := cookie.Save(); err != nil {
		logger.Error("Failed to save session cookie", err)
		apierrors.InternalError(c, "Failed to save session")
		return false
	}

	if _, err := h.boards.Activate(ctx, session); err != nil {
		respondBoardError(c, err)
		return false
	}
	return true
}

// Logout clears the caller's cookie. The active session and its board end
// only when the cookie belongs to the signed-in user.
func (h *AuthHandler) Logout(c *gin.Context) {
	cookie := sessions.Default(c)
	if userID, ok := cookie.Get(constants.ContextKeyUserID).(string); ok && userID != "" {
		ended, err := h.authService.Logout(c.Request.Context(), userID)
		if err != nil {
			respondAuthError(c, err)
			return
		}
		if ended {
			h.boards.Deactivate(userID)
		}
	}

	cookie.Clear()
	if err := cookie.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	userDTO := dto.ToUserDTO(*user)
	c.JSON(http.StatusOK, userDTO)
}
