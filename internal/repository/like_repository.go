package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"forumhub/internal/model"
)

// LikeRepository defines like persistence operations. Counts are always derived
// from the rows.
type LikeRepository interface {
	// Create returns ErrDuplicate when the (user, post) pair already exists.
	Create(ctx context.Context, like *model.Like) error
	// Delete returns ErrNotFound when the pair does not exist.
	Delete(ctx context.Context, userID, postID uuid.UUID) error
	Exists(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	CountByPost(ctx context.Context, postID uuid.UUID) (int64, error)
	CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Create(ctx context.Context, like *model.Like) error {
	return translate(r.db.WithContext(ctx).Create(like).Error)
}

func (r *likeRepository) Delete(ctx context.Context, userID, postID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&model.Like{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *likeRepository) Exists(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *likeRepository) CountByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}

type postLikeCount struct {
	PostID uuid.UUID
	Total  int64
}

func (r *likeRepository) CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []postLikeCount
	if err := r.db.WithContext(ctx).Model(&model.Like{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	for _, row := range rows {
		counts[row.PostID] = row.Total
	}
	return counts, nil
}
