package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"forumhub/internal/model"
	"forumhub/internal/repository"
)

// PostSummary is a post with its owner, course and current like count resolved.
type PostSummary struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Active     bool      `json:"active"`
	UserID     uuid.UUID `json:"user_id"`
	UserEmail  string    `json:"user_email"`
	CourseID   uuid.UUID `json:"course_id"`
	CourseName string    `json:"course_name"`
	LikesCount int64     `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PostDetails adds the comment thread to a PostSummary.
type PostDetails struct {
	PostSummary
	Comments []CommentView `json:"comments"`
}

// PostPage is one page of post summaries.
type PostPage struct {
	Items []PostSummary `json:"items"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
	Total int64         `json:"total"`
}

// CommentView is a comment with its author's email.
type CommentView struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func emailsByID(ctx context.Context, users repository.UserRepository, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	found, err := users.FindByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	emails := make(map[uuid.UUID]string, len(found))
	for _, u := range found {
		emails[u.ID] = u.Email
	}
	return emails, nil
}

func summarizePosts(ctx context.Context, store repository.Store, posts []model.Post) ([]PostSummary, error) {
	summaries := make([]PostSummary, 0, len(posts))
	if len(posts) == 0 {
		return summaries, nil
	}

	postIDs := make([]uuid.UUID, len(posts))
	userIDs := make([]uuid.UUID, len(posts))
	courseIDs := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		postIDs[i], userIDs[i], courseIDs[i] = p.ID, p.UserID, p.CourseID
	}

	emails, err := emailsByID(ctx, store.Users(), userIDs)
	if err != nil {
		return nil, err
	}
	courses, err := store.Courses().FindByIDs(ctx, uniqueIDs(courseIDs))
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	courseNames := make(map[uuid.UUID]string, len(courses))
	for _, c := range courses {
		courseNames[c.ID] = c.Name
	}
	likes, err := store.Likes().CountByPosts(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}

	for _, p := range posts {
		summaries = append(summaries, PostSummary{
			ID:         p.ID,
			Title:      p.Title,
			Content:    p.Content,
			Active:     p.Active,
			UserID:     p.UserID,
			UserEmail:  emails[p.UserID],
			CourseID:   p.CourseID,
			CourseName: courseNames[p.CourseID],
			LikesCount: likes[p.ID],
			CreatedAt:  p.CreatedAt,
			UpdatedAt:  p.UpdatedAt,
		})
	}
	return summaries, nil
}

func viewComments(ctx context.Context, users repository.UserRepository, comments []model.Comment) ([]CommentView, error) {
	views := make([]CommentView, 0, len(comments))
	if len(comments) == 0 {
		return views, nil
	}

	ids := make([]uuid.UUID, len(comments))
	for i, c := range comments {
		ids[i] = c.UserID
	}
	emails, err := emailsByID(ctx, users, ids)
	if err != nil {
		return nil, err
	}

	for _, c := range comments {
		views = append(views, CommentView{
			ID:        c.ID,
			PostID:    c.PostID,
			UserID:    c.UserID,
			UserEmail: emails[c.UserID],
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return views, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
