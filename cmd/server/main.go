package main

import (
	"context"
	"errors"
	"io/fs"
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/yukikurage/taskboard/internal/clock"
	"github.com/yukikurage/taskboard/internal/config"
	"github.com/yukikurage/taskboard/internal/constants"
	"github.com/yukikurage/taskboard/internal/database"
	"github.com/yukikurage/taskboard/internal/handlers"
	"github.com/yukikurage/taskboard/internal/logger"
	"github.com/yukikurage/taskboard/internal/middleware"
	"github.com/yukikurage/taskboard/internal/notify"
	"github.com/yukikurage/taskboard/internal/repository"
	"github.com/yukikurage/taskboard/internal/services"
	"go.uber.org/zap"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Open storage
	store, err := database.OpenStore(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer database.Close()

	ctx := context.Background()
	tasks, err := repository.NewTaskRepository(ctx, store, clock.Real())
	if err != nil {
		logger.Logger.Fatal("Failed to load tasks", zap.Error(err))
	}
	users := repository.NewUserRepository(store)
	sessionRepo := repository.NewSessionRepository(store)

	authService := services.NewAuthService(users, sessionRepo, tasks, clock.Real())
	if cfg.SeedDemoUser {
		if err := authService.EnsureDemoUser(ctx); err != nil {
			logger.Logger.Fatal("Failed to create demo user", zap.Error(err))
		}
	}
	boards := services.NewBoardManager(tasks, notify.LogNotifier{})

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	sessionStore, err := newSessionStore(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to create session store", zap.Error(err))
	}
	// Configure session options based on environment
	isProduction := cfg.Server.GinMode == gin.ReleaseMode
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction, // true in production (HTTPS), false in development
		SameSite: 2,            // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	handlers.RegisterRoutes(r, authService, boards)

	// Start server
	logger.Info("Server starting", zap.String("addr", cfg.Server.Addr))
	if err := r.Run(cfg.Server.Addr); err != nil {
		logger.Logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	if cfg.Session.Store != config.SessionStoreRedis {
		return cookie.NewStore([]byte(cfg.Session.Secret)), nil
	}
	return redisStore.NewStore(
		10,              // Redis pool size
		"tcp",           // network type
		cfg.RedisAddr(), // Redis address from config
		"",              // password (empty = no password)
		[]byte(cfg.Session.Secret),
	)
}
