package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"forumhub/internal/auth"
	"forumhub/internal/config"
	"forumhub/internal/db"
	"forumhub/internal/logger"
	"forumhub/internal/model"
	"forumhub/internal/repository"
)

// defaultCourses are created on first run so posts have somewhere to go.
var defaultCourses = []string{
	"Go Fundamentals",
	"Databases and SQL",
	"Web APIs with Echo",
	"Distributed Systems",
}

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

	log.Info("Starting seed script")

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB, false, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	store := repository.NewStore(gormDB)
	ctx := context.Background()

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin user")
	} else {
		created, err := seedAdmin(ctx, store.Users(), auth.NewBcryptHasher(), cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatal("Failed to seed admin", zap.Error(err))
		}
		log.Info("Admin user processed", zap.String("email", cfg.AdminEmail), zap.Bool("created", created))
	}

	seeded, skipped, err := seedCourses(ctx, store.Courses(), defaultCourses)
	if err != nil {
		log.Fatal("Failed to seed courses", zap.Error(err))
	}
	log.Info("Seed completed successfully", zap.Int("courses_created", seeded), zap.Int("courses_skipped", skipped))
}

// seedAdmin creates the bootstrap admin unless a user with that email already exists.
func seedAdmin(ctx context.Context, users repository.UserRepository, hasher auth.PasswordHasher, email, password string) (bool, error) {
	email = strings.TrimSpace(email)
	_, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return false, fmt.Errorf("error checking user %s: %w", email, err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	admin := &model.User{Email: email, PasswordHash: hash, Role: model.RoleAdmin, Active: true}
	if err := users.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("error creating user %s: %w", email, err)
	}
	return true, nil
}

// seedCourses creates every named course that does not exist yet.
func seedCourses(ctx context.Context, courses repository.CourseRepository, names []string) (seeded int, skipped int, err error) {
	for _, name := range names {
		_, err := courses.FindByName(ctx, name)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return seeded, skipped, fmt.Errorf("error checking course %s: %w", name, err)
		}

		if err := courses.Create(ctx, &model.Course{Name: name}); err != nil {
			return seeded, skipped, fmt.Errorf("error creating course %s: %w", name, err)
		}
		seeded++
	}
	return seeded, skipped, nil
}
