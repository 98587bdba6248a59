package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"forumhub/internal/authz"
	apperrors "forumhub/internal/errors"
	"forumhub/internal/model"
	"forumhub/internal/repository"
)

// CourseService manages courses. Writes are admin-only.
type CourseService interface {
	List(ctx context.Context) ([]model.Course, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Course, error)
	Create(ctx context.Context, actor *model.User, name string) (*model.Course, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, name string) (*model.Course, error)
}

type courseService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewCourseService builds a CourseService.
func NewCourseService(store repository.Store, logger *zap.Logger) CourseService {
	return &courseService{store: store, logger: logger.Named("CourseService")}
}

func (s *courseService) List(ctx context.Context) ([]model.Course, error) {
	courses, err := s.store.Courses().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) Get(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	course, err := s.store.Courses().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "find course", "Course", id)
	}
	return course, nil
}

func (s *courseService) Create(ctx context.Context, actor *model.User, name string) (*model.Course, error) {
	if err := authorize(s.logger, actor, authz.ActionCreateCourse, authz.Course(uuid.Nil)); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	if err := s.ensureNameFree(ctx, s.store.Courses(), name, uuid.Nil); err != nil {
		return nil, err
	}

	course := &model.Course{Name: name}
	if err := s.store.Courses().Create(ctx, course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.AlreadyExists("Course", "name", name)
		}
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

func (s *courseService) Update(ctx context.Context, actor *model.User, id uuid.UUID, name string) (*model.Course, error) {
	if err := authorize(s.logger, actor, authz.ActionUpdateCourse, authz.Course(id)); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	var updated *model.Course
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		course, err := tx.Courses().FindByID(ctx, id)
		if err != nil {
			return notFound(err, "find course", "Course", id)
		}
		if err := s.ensureNameFree(ctx, tx.Courses(), name, id); err != nil {
			return err
		}
		course.Name = name
		if err := tx.Courses().Update(ctx, course); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.AlreadyExists("Course", "name", name)
			}
			return fmt.Errorf("update course: %w", err)
		}
		updated = course
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ensureNameFree fails when a course other than self already uses name.
func (s *courseService) ensureNameFree(ctx context.Context, courses repository.CourseRepository, name string, self uuid.UUID) error {
	existing, err := courses.FindByName(ctx, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check course name: %w", err)
	case existing.ID != self:
		return apperrors.AlreadyExists("Course", "name", name)
	default:
		return nil
	}
}
