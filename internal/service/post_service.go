package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"forumhub/internal/authz"
	apperrors "forumhub/internal/errors"
	"forumhub/internal/events"
	"forumhub/internal/metrics"
	"forumhub/internal/model"
	"forumhub/internal/repository"
)

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title    string
	Content  string
	CourseID uuid.UUID
}

// PostService exposes the post lifecycle. Every read returns ACTIVE posts only.
type PostService interface {
	Create(ctx context.Context, actor *model.User, in PostInput) (*PostSummary, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, in PostInput) (*PostSummary, error)
	Deactivate(ctx context.Context, actor *model.User, id uuid.UUID) error
	GetActive(ctx context.Context, id uuid.UUID) (*PostDetails, error)
	ListActive(ctx context.Context, page repository.Page) (*PostPage, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page repository.Page) (*PostPage, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID, page repository.Page) (*PostPage, error)
	Search(ctx context.Context, title, content string, page repository.Page) (*PostPage, error)
}

type postService struct {
	store  repository.Store
	events events.Publisher
	logger *zap.Logger
}

// NewPostService builds a PostService.
func NewPostService(store repository.Store, publisher events.Publisher, logger *zap.Logger) PostService {
	return &postService{store: store, events: publisher, logger: logger.Named("PostService")}
}

func (s *postService) Create(ctx context.Context, actor *model.User, in PostInput) (*PostSummary, error) {
	if actor == nil {
		return nil, apperrors.ErrNoAuthenticatedPrincipal
	}
	if err := s.ensureCourse(ctx, s.store.Courses(), in.CourseID); err != nil {
		return nil, err
	}

	post := &model.Post{
		UserID:   actor.ID,
		CourseID: in.CourseID,
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		Active:   true,
	}
	if err := s.store.Posts().Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	publish(ctx, s.logger, s.events, events.New(events.PostCreated, actor.ID, post.ID))
	return s.summary(ctx, post)
}

// Update edits an ACTIVE post. The owner never changes.
func (s *postService) Update(ctx context.Context, actor *model.User, id uuid.UUID, in PostInput) (*PostSummary, error) {
	if actor == nil {
		return nil, apperrors.ErrNoAuthenticatedPrincipal
	}

	var updated *model.Post
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		post, err := tx.Posts().FindByIDForUpdate(ctx, id, repository.VisibilityActive)
		if err != nil {
			return notFound(err, "find post", "Post", id)
		}
		if err := authorize(s.logger, actor, authz.ActionUpdatePost, authz.Post(post)); err != nil {
			return err
		}
		if err := s.ensureCourse(ctx, tx.Courses(), in.CourseID); err != nil {
			return err
		}

		post.Title = strings.TrimSpace(in.Title)
		post.Content = in.Content
		post.CourseID = in.CourseID
		if err := tx.Posts().Update(ctx, post); err != nil {
			return fmt.Errorf("update post: %w", err)
		}
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.summary(ctx, updated)
}

// Deactivate moves an ACTIVE post to INACTIVE. Absent and already inactive posts
// both fail with ResourceNotFound.
func (s *postService) Deactivate(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if actor == nil {
		return apperrors.ErrNoAuthenticatedPrincipal
	}

	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		post, err := tx.Posts().FindByIDForUpdate(ctx, id, repository.VisibilityActive)
		if err != nil {
			return notFound(err, "find post", "Post", id)
		}
		if err := authorize(s.logger, actor, authz.ActionDeletePost, authz.Post(post)); err != nil {
			return err
		}

		changed, err := tx.Posts().Deactivate(ctx, post.ID)
		if err != nil {
			return fmt.Errorf("deactivate post: %w", err)
		}
		if !changed {
			return apperrors.NotFound("Post", "id", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.IncPostDeactivated()
	s.logger.Info("post deactivated", zap.String("post_id", id.String()), zap.String("by", actor.Email))
	publish(ctx, s.logger, s.events, events.New(events.PostDeactivated, actor.ID, id))
	return nil
}

func (s *postService) GetActive(ctx context.Context, id uuid.UUID) (*PostDetails, error) {
	post, err := s.store.Posts().FindByID(ctx, id, repository.VisibilityActive)
	if err != nil {
		return nil, notFound(err, "find post", "Post", id)
	}

	summary, err := s.summary(ctx, post)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.Comments().ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	views, err := viewComments(ctx, s.store.Users(), comments)
	if err != nil {
		return nil, err
	}
	return &PostDetails{PostSummary: *summary, Comments: views}, nil
}

func (s *postService) ListActive(ctx context.Context, page repository.Page) (*PostPage, error) {
	return s.list(ctx, repository.PostQuery{Visibility: repository.VisibilityActive, Page: page})
}

func (s *postService) ListByUser(ctx context.Context, userID uuid.UUID, page repository.Page) (*PostPage, error) {
	exists, err := s.store.Users().ExistsByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound("User", "id", userID)
	}
	return s.list(ctx, repository.PostQuery{Visibility: repository.VisibilityActive, UserID: &userID, Page: page})
}

func (s *postService) ListByCourse(ctx context.Context, courseID uuid.UUID, page repository.Page) (*PostPage, error) {
	if err := s.ensureCourse(ctx, s.store.Courses(), courseID); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.PostQuery{Visibility: repository.VisibilityActive, CourseID: &courseID, Page: page})
}

// Search matches case-insensitive substrings of title or content. At least one
// term is required; when both are given a post matching either qualifies.
func (s *postService) Search(ctx context.Context, title, content string, page repository.Page) (*PostPage, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" && content == "" {
		return nil, apperrors.NewValidationError(
			apperrors.FieldError{Field: "title", Rule: "required_without", Message: "title or content must be provided"},
			apperrors.FieldError{Field: "content", Rule: "required_without", Message: "title or content must be provided"},
		)
	}
	return s.list(ctx, repository.PostQuery{
		Visibility: repository.VisibilityActive,
		Title:      title,
		Content:    content,
		Page:       page,
	})
}

func (s *postService) list(ctx context.Context, q repository.PostQuery) (*PostPage, error) {
	q.Page = repository.NewPage(q.Page.Number, q.Page.Size)
	posts, total, err := s.store.Posts().List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	items, err := summarizePosts(ctx, s.store, posts)
	if err != nil {
		return nil, err
	}
	return &PostPage{Items: items, Page: q.Page.Number, Size: q.Page.Size, Total: total}, nil
}

func (s *postService) summary(ctx context.Context, post *model.Post) (*PostSummary, error) {
	summaries, err := summarizePosts(ctx, s.store, []model.Post{*post})
	if err != nil {
		return nil, err
	}
	return &summaries[0], nil
}

func (s *postService) ensureCourse(ctx context.Context, courses repository.CourseRepository, id uuid.UUID) error {
	exists, err := courses.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("check course: %w", err)
	}
	if !exists {
		return apperrors.NotFound("Course", "id", id)
	}
	return nil
}
