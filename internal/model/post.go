package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostState is the lifecycle state of a post.
type PostState string

const (
	PostStateActive   PostState = "ACTIVE"
	PostStateInactive PostState = "INACTIVE"
)

// Post is a forum thread opener. Deletion only flips Active to false.
type Post struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index"`
	CourseID  uuid.UUID `json:"course_id" gorm:"type:char(36);not null;index"`
	Title     string    `json:"title" gorm:"size:100;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Active    bool      `json:"active" gorm:"not null;default:true;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State maps the active flag to the lifecycle state.
func (p *Post) State() PostState {
	if p.Active {
		return PostStateActive
	}
	return PostStateInactive
}

// BeforeCreate sets UUID before creating the record.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
