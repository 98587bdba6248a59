package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"forumhub/internal/authz"
	apperrors "forumhub/internal/errors"
	"forumhub/internal/model"
	"forumhub/internal/repository"
)

// CommentService manages comments on active posts. Update and delete are checked
// against the comment's own author.
type CommentService interface {
	ListByPost(ctx context.Context, postID uuid.UUID) ([]CommentView, error)
	Add(ctx context.Context, actor *model.User, postID uuid.UUID, content string) (*CommentView, error)
	Update(ctx context.Context, actor *model.User, postID, commentID uuid.UUID, content string) (*CommentView, error)
	Delete(ctx context.Context, actor *model.User, postID, commentID uuid.UUID) error
}

type commentService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewCommentService builds a CommentService.
func NewCommentService(store repository.Store, logger *zap.Logger) CommentService {
	return &commentService{store: store, logger: logger.Named("CommentService")}
}

func (s *commentService) ListByPost(ctx context.Context, postID uuid.UUID) ([]CommentView, error) {
	if err := s.ensurePost(ctx, s.store, postID); err != nil {
		return nil, err
	}
	comments, err := s.store.Comments().ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return viewComments(ctx, s.store.Users(), comments)
}

func (s *commentService) Add(ctx context.Context, actor *model.User, postID uuid.UUID, content string) (*CommentView, error) {
	if actor == nil {
		return nil, apperrors.ErrNoAuthenticatedPrincipal
	}
	if err := s.ensurePost(ctx, s.store, postID); err != nil {
		return nil, err
	}

	comment := &model.Comment{PostID: postID, UserID: actor.ID, Content: content}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return s.view(ctx, comment)
}

func (s *commentService) Update(ctx context.Context, actor *model.User, postID, commentID uuid.UUID, content string) (*CommentView, error) {
	if actor == nil {
		return nil, apperrors.ErrNoAuthenticatedPrincipal
	}

	var updated *model.Comment
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		comment, err := s.find(ctx, tx, postID, commentID)
		if err != nil {
			return err
		}
		if err := authorize(s.logger, actor, authz.ActionUpdateComment, authz.Comment(comment)); err != nil {
			return err
		}
		comment.Content = content
		if err := tx.Comments().Update(ctx, comment); err != nil {
			return fmt.Errorf("update comment: %w", err)
		}
		updated = comment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, updated)
}

// Delete removes the comment row.
func (s *commentService) Delete(ctx context.Context, actor *model.User, postID, commentID uuid.UUID) error {
	if actor == nil {
		return apperrors.ErrNoAuthenticatedPrincipal
	}

	return s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		comment, err := s.find(ctx, tx, postID, commentID)
		if err != nil {
			return err
		}
		if err := authorize(s.logger, actor, authz.ActionDeleteComment, authz.Comment(comment)); err != nil {
			return err
		}
		if err := tx.Comments().Delete(ctx, comment.ID); err != nil {
			return notFound(err, "delete comment", "Comment", commentID)
		}
		return nil
	})
}

// find loads a comment of an active post.
func (s *commentService) find(ctx context.Context, store repository.Store, postID, commentID uuid.UUID) (*model.Comment, error) {
	if err := s.ensurePost(ctx, store, postID); err != nil {
		return nil, err
	}
	comment, err := store.Comments().FindByIDAndPostID(ctx, commentID, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Comment", "id", commentID)
	}
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return comment, nil
}

func (s *commentService) ensurePost(ctx context.Context, store repository.Store, postID uuid.UUID) error {
	if _, err := store.Posts().FindByID(ctx, postID, repository.VisibilityActive); err != nil {
		return notFound(err, "find post", "Post", postID)
	}
	return nil
}

func (s *commentService) view(ctx context.Context, comment *model.Comment) (*CommentView, error) {
	views, err := viewComments(ctx, s.store.Users(), []model.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
