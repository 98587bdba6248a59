package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"forumhub/internal/model"
)

// Visibility states which post lifecycle states a read may return. The zero value
// is rejected so every read has to choose.
type Visibility int

const (
	VisibilityUnspecified Visibility = iota
	// VisibilityActive returns only ACTIVE posts.
	VisibilityActive
	// VisibilityAll returns posts in any state.
	VisibilityAll
)

// Allows reports whether a post in state s is visible under v.
func (v Visibility) Allows(s model.PostState) bool {
	switch v {
	case VisibilityActive:
		return s == model.PostStateActive
	case VisibilityAll:
		return true
	default:
		return false
	}
}

func (v Visibility) scope(db *gorm.DB) (*gorm.DB, error) {
	switch v {
	case VisibilityActive:
		return db.Where("active = ?", true), nil
	case VisibilityAll:
		return db, nil
	default:
		return nil, ErrVisibilityUnspecified
	}
}

// PostQuery filters post listings. Visibility is mandatory; the owner and course
// filters are applied when set and combined with AND.
type PostQuery struct {
	Visibility Visibility
	UserID     *uuid.UUID
	CourseID   *uuid.UUID
	// Title and Content match case-insensitive substrings. When both are set a post
	// matching either one qualifies.
	Title   string
	Content string
	Page    Page
}

// PostRepository defines post persistence operations.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id uuid.UUID, vis Visibility) (*model.Post, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID, vis Visibility) (*model.Post, error)
	// Deactivate flips an ACTIVE post to INACTIVE. It reports false when no active
	// post with that id exists.
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, q PostQuery) ([]model.Post, int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return translate(r.db.WithContext(ctx).Create(post).Error)
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	return translate(r.db.WithContext(ctx).Model(post).
		Select("title", "content", "course_id", "updated_at").
		Updates(post).Error)
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID, vis Visibility) (*model.Post, error) {
	return r.findByID(r.db.WithContext(ctx), id, vis)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *postRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID, vis Visibility) (*model.Post, error) {
	return r.findByID(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id, vis)
}

func (r *postRepository) findByID(db *gorm.DB, id uuid.UUID, vis Visibility) (*model.Post, error) {
	scoped, err := vis.scope(db)
	if err != nil {
		return nil, err
	}
	var post model.Post
	if err := scoped.Where("id = ?", id).First(&post).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *postRepository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *postRepository) List(ctx context.Context, q PostQuery) ([]model.Post, int64, error) {
	scoped, err := filterPosts(r.db.WithContext(ctx).Model(&model.Post{}), q)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := scoped.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	page := NewPage(q.Page.Number, q.Page.Size)
	var posts []model.Post
	if err := scoped.Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Size).
		Find(&posts).Error; err != nil {
		return nil, 0, translate(err)
	}
	return posts, total, nil
}

// filterPosts applies q's conditions to db. The search terms form one parenthesized OR
// group so the visibility and owner conditions hold for every match.
func filterPosts(db *gorm.DB, q PostQuery) (*gorm.DB, error) {
	scoped, err := q.Visibility.scope(db)
	if err != nil {
		return nil, err
	}
	if q.UserID != nil {
		scoped = scoped.Where("user_id = ?", *q.UserID)
	}
	if q.CourseID != nil {
		scoped = scoped.Where("course_id = ?", *q.CourseID)
	}

	if q.Title != "" || q.Content != "" {
		search := db.Session(&gorm.Session{NewDB: true})
		switch {
		case q.Title != "" && q.Content != "":
			search = search.Where("LOWER(title) LIKE ?", containsPattern(q.Title)).
				Or("LOWER(content) LIKE ?", containsPattern(q.Content))
		case q.Title != "":
			search = search.Where("LOWER(title) LIKE ?", containsPattern(q.Title))
		default:
			search = search.Where("LOWER(content) LIKE ?", containsPattern(q.Content))
		}
		scoped = scoped.Where(search)
	}
	return scoped.Session(&gorm.Session{}), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
