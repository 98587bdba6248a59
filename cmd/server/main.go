package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"forumhub/docs" // swagger docs
	"forumhub/internal/auth"
	"forumhub/internal/cache"
	"forumhub/internal/config"
	"forumhub/internal/db"
	"forumhub/internal/events"
	"forumhub/internal/handler"
	"forumhub/internal/logger"
	"forumhub/internal/metrics"
	"forumhub/internal/repository"
	"forumhub/internal/router"
	"forumhub/internal/service"
)

// @title ForumHub API
// @version 1.0
// @description Course discussion forum with posts, comments, likes and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	gormDB, err := db.NewMySQL(cfg.MySQLDSN, log)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if err := db.Migrate(gormDB, cfg.ResetDB, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, principal cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cancel()

	metrics.Register()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		amqpPublisher := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.EventsQueue, log)
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	} else {
		log.Info("RABBITMQ_URL not set, domain events are discarded")
	}

	// Initialize auth components
	tokens, err := auth.NewTokenService(cfg.JWTSecret,
		auth.WithIssuer(cfg.JWTIssuer),
		auth.WithTTL(cfg.TokenTTL),
	)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	hasher := auth.NewBcryptHasher()

	store := repository.NewStore(gormDB)
	resolver := auth.NewPrincipalResolver(store.Users(), cacheClient, cfg.UserCacheTTL, log)

	// Initialize services
	authService := service.NewAuthService(store.Users(), tokens, hasher, log)
	userService := service.NewUserService(store, resolver, publisher, log)
	courseService := service.NewCourseService(store, log)
	postService := service.NewPostService(store, publisher, log)
	commentService := service.NewCommentService(store, log)
	likeService := service.NewLikeService(store, publisher, log)

	e := echo.New()
	router.Register(e, log, tokens, resolver, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Users:    handler.NewUserHandler(userService),
		Courses:  handler.NewCourseHandler(courseService),
		Posts:    handler.NewPostHandler(postService),
		Comments: handler.NewCommentHandler(commentService),
		Likes:    handler.NewLikeHandler(likeService),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	addr := ":" + cfg.ServerPort
	log.Info("server starting",
		zap.String("addr", addr),
		zap.String("swagger", fmt.Sprintf("http://%s/swagger/index.html", docs.SwaggerInfo.Host)))

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return e.Shutdown(shutdownCtx)
}
