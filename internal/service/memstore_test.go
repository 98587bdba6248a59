package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"forumhub/internal/model"
	"forumhub/internal/repository"
)

// memStore is an in-memory repository.Store. It enforces the email, course name
// and (user, post) like uniqueness constraints the database provides.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]model.User
	courses  map[uuid.UUID]model.Course
	posts    map[uuid.UUID]model.Post
	comments map[uuid.UUID]model.Comment
	likes    map[[2]uuid.UUID]model.Like
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]model.User{},
		courses:  map[uuid.UUID]model.Course{},
		posts:    map[uuid.UUID]model.Post{},
		comments: map[uuid.UUID]model.Comment{},
		likes:    map[[2]uuid.UUID]model.Like{},
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) Users() repository.UserRepository       { return memUsers{s} }
func (s *memStore) Courses() repository.CourseRepository   { return memCourses{s} }
func (s *memStore) Posts() repository.PostRepository       { return memPosts{s} }
func (s *memStore) Comments() repository.CommentRepository { return memComments{s} }
func (s *memStore) Likes() repository.LikeRepository       { return memLikes{s} }

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return fn(ctx, s)
}

func (s *memStore) addUser(email string, role model.Role) *model.User {
	u := &model.User{Email: email, PasswordHash: "hash:" + email, Role: role, Active: true}
	_ = s.Users().Create(context.Background(), u)
	return u
}

func (s *memStore) addCourse(name string) *model.Course {
	c := &model.Course{Name: name}
	_ = s.Courses().Create(context.Background(), c)
	return c
}

func (s *memStore) addPost(owner *model.User, course *model.Course, title string) *model.Post {
	p := &model.Post{UserID: owner.ID, CourseID: course.ID, Title: title, Content: "content of " + title, Active: true}
	_ = s.Posts().Create(context.Background(), p)
	return p
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := r.s.tick()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) Update(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = r.s.tick()
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.FindByID(ctx, id)
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUsers) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.users[id]
	return ok, nil
}

type memCourses struct{ s *memStore }

func (r memCourses) Create(_ context.Context, c *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.courses {
		if existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := r.s.tick()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.courses[c.ID] = *c
	return nil
}

func (r memCourses) Update(_ context.Context, c *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.courses {
		if existing.Name == c.Name && existing.ID != c.ID {
			return repository.ErrDuplicate
		}
	}
	c.UpdatedAt = r.s.tick()
	r.s.courses[c.ID] = *c
	return nil
}

func (r memCourses) FindByID(_ context.Context, id uuid.UUID) (*model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r memCourses) FindByName(_ context.Context, name string) (*model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.courses {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memCourses) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Course
	for _, id := range ids {
		if c, ok := r.s.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCourses) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.courses[id]
	return ok, nil
}

func (r memCourses) List(_ context.Context) ([]model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Course, 0, len(r.s.courses))
	for _, c := range r.s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memPosts struct{ s *memStore }

func (r memPosts) Create(_ context.Context, p *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := r.s.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.posts[p.ID] = *p
	return nil
}

func (r memPosts) Update(_ context.Context, p *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.posts[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Title, stored.Content, stored.CourseID = p.Title, p.Content, p.CourseID
	stored.UpdatedAt = r.s.tick()
	r.s.posts[p.ID] = stored
	*p = stored
	return nil
}

func (r memPosts) FindByID(_ context.Context, id uuid.UUID, vis repository.Visibility) (*model.Post, error) {
	if vis == repository.VisibilityUnspecified {
		return nil, repository.ErrVisibilityUnspecified
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok || !vis.Allows(p.State()) {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r memPosts) FindByIDForUpdate(ctx context.Context, id uuid.UUID, vis repository.Visibility) (*model.Post, error) {
	return r.FindByID(ctx, id, vis)
}

func (r memPosts) Deactivate(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok || !p.Active {
		return false, nil
	}
	p.Active = false
	r.s.posts[id] = p
	return true, nil
}

func (r memPosts) List(_ context.Context, q repository.PostQuery) ([]model.Post, int64, error) {
	if q.Visibility == repository.VisibilityUnspecified {
		return nil, 0, repository.ErrVisibilityUnspecified
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []model.Post
	for _, p := range r.s.posts {
		switch {
		case !q.Visibility.Allows(p.State()):
		case q.UserID != nil && p.UserID != *q.UserID:
		case q.CourseID != nil && p.CourseID != *q.CourseID:
		case !matchesSearch(p, q.Title, q.Content):
		default:
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	page := repository.NewPage(q.Page.Number, q.Page.Size)
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type memComments struct{ s *memStore }

func (r memComments) Create(_ context.Context, c *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := r.s.tick()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.comments[c.ID] = *c
	return nil
}

func (r memComments) Update(_ context.Context, c *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[c.ID]; !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = r.s.tick()
	r.s.comments[c.ID] = *c
	return nil
}

func (r memComments) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

func (r memComments) FindByIDAndPostID(_ context.Context, id, postID uuid.UUID) (*model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok || c.PostID != postID {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r memComments) ListByPostID(_ context.Context, postID uuid.UUID) ([]model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Comment
	for _, c := range r.s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memLikes struct{ s *memStore }

func (r memLikes) Create(_ context.Context, l *model.Like) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := [2]uuid.UUID{l.UserID, l.PostID}
	if _, ok := r.s.likes[key]; ok {
		return repository.ErrDuplicate
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = r.s.tick()
	r.s.likes[key] = *l
	return nil
}

func (r memLikes) Delete(_ context.Context, userID, postID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := [2]uuid.UUID{userID, postID}
	if _, ok := r.s.likes[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.likes, key)
	return nil
}

func (r memLikes) Exists(_ context.Context, userID, postID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.likes[[2]uuid.UUID{userID, postID}]
	return ok, nil
}

func (r memLikes) CountByPost(_ context.Context, postID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for key := range r.s.likes {
		if key[1] == postID {
			n++
		}
	}
	return n, nil
}

func (r memLikes) CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(postIDs))
	for _, id := range postIDs {
		n, _ := r.CountByPost(ctx, id)
		if n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

var _ repository.Store = (*memStore)(nil)

// matchesSearch mirrors the repository's grouped OR over title and content.
func matchesSearch(p model.Post, title, content string) bool {
	if title == "" && content == "" {
		return true
	}
	contains := func(field, term string) bool {
		return term != "" && strings.Contains(strings.ToLower(field), strings.ToLower(term))
	}
	return contains(p.Title, title) || contains(p.Content, content)
}
