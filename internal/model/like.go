package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Like records that a user liked a post. The composite unique index allows at most
// one row per (user, post).
type Like struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);not null;uniqueIndex:idx_likes_user_post"`
	PostID    uuid.UUID `json:"post_id" gorm:"type:char(36);not null;uniqueIndex:idx_likes_user_post;index"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
