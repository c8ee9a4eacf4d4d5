package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yukikurage/taskboard/internal/clock"
	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/logger"
	"github.com/yukikurage/taskboard/internal/models"
	"github.com/yukikurage/taskboard/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrFailedToHashPassword = errors.New("failed to hash password")

	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = &repository.ValidationError{Field: "password", Reason: "Password must be at most 72 bytes long"}
)

// emailPattern requires a dot in the domain part, which the validator's
// RFC 5322 check does not.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Demo account created by EnsureDemoUser
const (
	DemoUsername = "student123"
	DemoEmail    = "student@example.com"
	DemoPassword = "password123"
)

// AuthService handles registration, login and the active session.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tasks    repository.TaskRepository
	clock    clock.Clock
	validate *validator.Validate
	cost     int

	// sessionMu orders writes of the active session against the
	// ownership check in Logout.
	sessionMu sync.Mutex

	// dummyHash is compared against when the username is unknown, so
	// that both failure paths cost one bcrypt comparison.
	dummyHash []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, tasks repository.TaskRepository, clk clock.Clock) *AuthService {
	return newAuthService(users, sessions, tasks, clk, bcrypt.DefaultCost)
}

func newAuthService(users repository.UserRepository, sessions repository.SessionRepository, tasks repository.TaskRepository, clk clock.Clock, cost int) *AuthService {
	dummy, err := bcrypt.GenerateFromPassword([]byte("taskboard-dummy-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("services: generate dummy hash: %v", err))
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tasks:     tasks,
		clock:     clk,
		validate:  validator.New(),
		cost:      cost,
		dummyHash: dummy,
	}
}

// RegisterInput represents the registration form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register validates input, creates the user, signs them in and seeds
// their starter tasks. It returns the session it started. When signing in
// fails the user is removed again so the registration can be retried.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, *models.Session, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	password := strings.TrimSpace(input.Password)
	confirm := strings.TrimSpace(input.ConfirmPassword)

	if err := s.validateRegistration(username, email, password, confirm); err != nil {
		return nil, nil, err
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, nil, repository.ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, nil, repository.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, nil, ErrPasswordTooLong
		}
		return nil, nil, ErrFailedToHashPassword
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}
	logger.Info("User registered", zap.String("user_id", user.ID), zap.String("username", user.Username))

	session, err := s.startSession(ctx, user)
	if err != nil {
		s.rollbackRegistration(ctx, user.ID)
		return nil, nil, err
	}
	return user, session, nil
}

// rollbackRegistration undoes a registration whose sign-in failed.
func (s *AuthService) rollbackRegistration(ctx context.Context, userID string) {
	if _, err := s.endSession(ctx, userID); err != nil {
		logger.Error("Failed to clear session of rolled back user", err, zap.String("user_id", userID))
	}

	tasks, err := s.tasks.List(ctx, userID)
	if err != nil {
		logger.Error("Failed to list tasks of rolled back user", err, zap.String("user_id", userID))
	}
	for _, task := range tasks {
		if _, err := s.tasks.Delete(ctx, task.ID, userID); err != nil {
			logger.Error("Failed to delete task of rolled back user", err, zap.String("task_id", task.ID))
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		logger.Error("Failed to delete rolled back user", err, zap.String("user_id", userID))
		return
	}
	logger.Warn("Registration rolled back", zap.String("user_id", userID))
}

func (s *AuthService) validateRegistration(username, email, password, confirm string) error {
	if username == "" || email == "" || password == "" || confirm == "" {
		return repository.ErrMissingFields
	}
	if utf8.RuneCountInString(username) < constants.MinUsernameLength {
		return repository.ErrUsernameTooShort
	}
	if err := s.validate.Var(email, "required,email"); err != nil || !emailPattern.MatchString(email) {
		return repository.ErrInvalidEmail
	}
	if utf8.RuneCountInString(password) < constants.MinPasswordLength {
		return repository.ErrPasswordTooShort
	}
	if password != confirm {
		return repository.ErrPasswordMismatch
	}
	return nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and makes the user the active session. Unknown
// usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.Session, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, repository.ErrMissingFields
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			logger.Info("Login failed", zap.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Info("Login failed", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

// Logout ends the active session when it belongs to userID and reports
// whether it did. A session of another user is left alone, and logging out
// without a session is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) (bool, error) {
	ended, err := s.endSession(ctx, userID)
	if err != nil {
		return false, err
	}
	if ended {
		logger.Info("Session cleared", zap.String("user_id", userID))
	}
	return ended, nil
}

func (s *AuthService) endSession(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	active, err := s.sessions.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoSession) {
			return false, nil
		}
		return false, err
	}
	if active.UserID != userID {
		return false, nil
	}
	if err := s.sessions.Clear(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// CurrentSession returns the active session or repository.ErrNoSession.
func (s *AuthService) CurrentSession(ctx context.Context) (*models.Session, error) {
	return s.sessions.Get(ctx)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// EnsureDemoUser registers the demo account when no users exist. It does
// not start a session.
func (s *AuthService) EnsureDemoUser(ctx context.Context) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), s.cost)
	if err != nil {
		return ErrFailedToHashPassword
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     DemoUsername,
		Email:        DemoEmail,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}
	logger.Info("Demo user created", zap.String("username", DemoUsername))
	return nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*models.Session, error) {
	session := &models.Session{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		LoggedInAt: s.clock.Now(),
	}
	s.sessionMu.Lock()
	err := s.sessions.Save(ctx, session)
	s.sessionMu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := s.seedStarterTasks(ctx, user.ID); err != nil {
		return nil, err
	}
	logger.Info("Session started", zap.String("user_id", user.ID))
	return session, nil
}

// seedStarterTasks gives a user who owns no tasks a todo and an
// in-progress example card.
func (s *AuthService) seedStarterTasks(ctx context.Context, userID string) error {
	existing, err := s.tasks.List(ctx, userID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	today := s.clock.Now()
	welcome, err := s.tasks.Create(ctx, userID, repository.CreateTaskInput{
		Title:       "Welcome to TaskMaster!",
		Description: "This is your first task. Edit or delete it to get started.",
		DueDate:     today.Add(7 * 24 * time.Hour).Format(constants.DueDateLayout),
		Priority:    models.TaskPriorityMedium,
	})
	if err != nil {
		return fmt.Errorf("failed to seed starter tasks: %w", err)
	}

	explore, err := s.tasks.Create(ctx, userID, repository.CreateTaskInput{
		Title:       "Explore the Features",
		Description: "Try adding, editing, and organizing your tasks.",
		DueDate:     today.Add(3 * 24 * time.Hour).Format(constants.DueDateLayout),
		Priority:    models.TaskPriorityLow,
	})
	if err != nil {
		return fmt.Errorf("failed to seed starter tasks: %w", err)
	}
	if _, _, err := s.tasks.Transition(ctx, explore.ID, userID, models.TaskStatusInProgress); err != nil {
		return fmt.Errorf("failed to seed starter tasks: %w", err)
	}

	logger.Debug("Starter tasks created", zap.String("user_id", userID), zap.String("task_id", welcome.ID))
	return nil
}
