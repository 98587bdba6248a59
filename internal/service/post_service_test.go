package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "forumhub/internal/errors"
	"forumhub/internal/events"
	"forumhub/internal/model"
	"forumhub/internal/repository"
)

type postFixture struct {
	store  *memStore
	events *recordingPublisher
	svc    PostService
	alice  *model.User
	bob    *model.User
	admin  *model.User
	course *model.Course
}

func newPostFixture() *postFixture {
	store := newMemStore()
	publisher := &recordingPublisher{}
	return &postFixture{
		store:  store,
		events: publisher,
		svc:    NewPostService(store, publisher, zap.NewNop()),
		alice:  store.addUser("alice@example.com", model.RoleUser),
		bob:    store.addUser("bob@example.com", model.RoleUser),
		admin:  store.addUser("carol@example.com", model.RoleAdmin),
		course: store.addCourse("Distributed Systems"),
	}
}

func TestPostService_DeactivateScenario(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.alice, PostInput{Title: "Consensus", Content: "Raft or Paxos?", CourseID: f.course.ID})
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, created.UserID)

	err = f.svc.Deactivate(ctx, f.bob, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorizedAction)

	stored, err := f.store.Posts().FindByID(ctx, created.ID, repository.VisibilityAll)
	require.NoError(t, err)
	assert.True(t, stored.Active)

	require.NoError(t, f.svc.Deactivate(ctx, f.admin, created.ID))

	stored, err = f.store.Posts().FindByID(ctx, created.ID, repository.VisibilityAll)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.Equal(t, model.PostStateInactive, stored.State())

	_, err = f.store.Posts().FindByID(ctx, created.ID, repository.VisibilityActive)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.GetActive(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	assert.Equal(t, []events.Type{events.PostCreated, events.PostDeactivated}, f.events.types())
}

func TestPostService_Deactivate(t *testing.T) {
	tests := []struct {
		name          string
		actor         func(*postFixture) *model.User
		prepare       func(*postFixture, *model.Post)
		missing       bool
		expectedError error
	}{
		{
			name:  "owner deactivates",
			actor: func(f *postFixture) *model.User { return f.alice },
		},
		{
			name:  "admin deactivates",
			actor: func(f *postFixture) *model.User { return f.admin },
		},
		{
			name:          "stranger denied",
			actor:         func(f *postFixture) *model.User { return f.bob },
			expectedError: apperrors.ErrUnauthorizedAction,
		},
		{
			name:  "already inactive",
			actor: func(f *postFixture) *model.User { return f.admin },
			prepare: func(f *postFixture, p *model.Post) {
				_, _ = f.store.Posts().Deactivate(context.Background(), p.ID)
			},
			expectedError: apperrors.ErrResourceNotFound,
		},
		{
			name:          "absent post",
			actor:         func(f *postFixture) *model.User { return f.admin },
			missing:       true,
			expectedError: apperrors.ErrResourceNotFound,
		},
		{
			name:          "no principal",
			actor:         func(f *postFixture) *model.User { return nil },
			expectedError: apperrors.ErrNoAuthenticatedPrincipal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPostFixture()
			post := f.store.addPost(f.alice, f.course, "Lamport clocks")
			if tt.prepare != nil {
				tt.prepare(f, post)
			}
			id := post.ID
			if tt.missing {
				id = uuid.New()
			}

			err := f.svc.Deactivate(context.Background(), tt.actor(f), id)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostService_DeactivateTwiceIsNotFound(t *testing.T) {
	f := newPostFixture()
	post := f.store.addPost(f.alice, f.course, "Vector clocks")

	require.NoError(t, f.svc.Deactivate(context.Background(), f.alice, post.ID))
	err := f.svc.Deactivate(context.Background(), f.alice, post.ID)

	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestPostService_Create(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.alice, PostInput{Title: "Orphan post", Content: "no course here", CourseID: uuid.New()})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	_, err = f.svc.Create(ctx, nil, PostInput{Title: "Anonymous", Content: "no author", CourseID: f.course.ID})
	assert.ErrorIs(t, err, apperrors.ErrNoAuthenticatedPrincipal)

	summary, err := f.svc.Create(ctx, f.alice, PostInput{Title: "  Gossip  ", Content: "epidemic protocols", CourseID: f.course.ID})
	require.NoError(t, err)
	assert.Equal(t, "Gossip", summary.Title)
	assert.Equal(t, "alice@example.com", summary.UserEmail)
	assert.Equal(t, "Distributed Systems", summary.CourseName)
	assert.True(t, summary.Active)
	assert.Zero(t, summary.LikesCount)
}

func TestPostService_Update(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	other := f.store.addCourse("Operating Systems")
	post := f.store.addPost(f.alice, f.course, "Schedulers")

	_, err := f.svc.Update(ctx, f.bob, post.ID, PostInput{Title: "Hijacked", Content: "not mine to edit", CourseID: f.course.ID})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorizedAction)

	_, err = f.svc.Update(ctx, f.alice, post.ID, PostInput{Title: "Schedulers", Content: "bad course id", CourseID: uuid.New()})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	updated, err := f.svc.Update(ctx, f.admin, post.ID, PostInput{Title: "CFS internals", Content: "red-black trees", CourseID: other.ID})
	require.NoError(t, err)
	assert.Equal(t, "CFS internals", updated.Title)
	assert.Equal(t, other.ID, updated.CourseID)
	assert.Equal(t, f.alice.ID, updated.UserID, "owner never changes")

	_, _ = f.store.Posts().Deactivate(ctx, post.ID)
	_, err = f.svc.Update(ctx, f.alice, post.ID, PostInput{Title: "Too late", Content: "post is gone", CourseID: f.course.ID})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestPostService_ActiveReadsExcludeInactive(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	first := f.store.addPost(f.alice, f.course, "Kafka partitions")
	second := f.store.addPost(f.bob, f.course, "Kafka consumers")
	_, _ = f.store.Posts().Deactivate(ctx, first.ID)

	page, err := f.svc.ListActive(ctx, repository.Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, repository.DefaultPageSize, page.Size)

	byUser, err := f.svc.ListByUser(ctx, f.alice.ID, repository.Page{})
	require.NoError(t, err)
	assert.Empty(t, byUser.Items)

	byCourse, err := f.svc.ListByCourse(ctx, f.course.ID, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, byCourse.Items, 1)

	found, err := f.svc.Search(ctx, "kafka", "", repository.Page{})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, second.ID, found.Items[0].ID)
}

func TestPostService_ListOrderingAndPaging(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	var ids []uuid.UUID
	for _, title := range []string{"first post", "second post", "third post"} {
		ids = append(ids, f.store.addPost(f.alice, f.course, title).ID)
	}

	page, err := f.svc.ListActive(ctx, repository.Page{Number: 0, Size: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID, "newest first")
	assert.Equal(t, int64(3), page.Total)

	page, err = f.svc.ListActive(ctx, repository.Page{Number: 1, Size: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)
}

func TestPostService_ListPrecheckOwnersAndCourses(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	_, err := f.svc.ListByUser(ctx, uuid.New(), repository.Page{})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	_, err = f.svc.ListByCourse(ctx, uuid.New(), repository.Page{})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestPostService_SearchRequiresATerm(t *testing.T) {
	f := newPostFixture()

	_, err := f.svc.Search(context.Background(), "  ", "", repository.Page{})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	httpErr := apperrors.MapErrorToHTTP(err)
	assert.Len(t, httpErr.Fields, 2)
}

func TestPostService_SearchMatchesEitherTerm(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	byTitle := f.store.addPost(f.alice, f.course, "Paxos made simple")
	byContent := f.store.addPost(f.alice, f.course, "Consensus notes")
	byContent.Content = "a walk through RAFT leader election"
	require.NoError(t, f.store.Posts().Update(ctx, byContent))
	f.store.addPost(f.alice, f.course, "Vector clocks")
	hidden := f.store.addPost(f.alice, f.course, "Paxos made live")
	_, err := f.store.Posts().Deactivate(ctx, hidden.ID)
	require.NoError(t, err)

	page, err := f.svc.Search(ctx, "PAXOS", "raft", repository.Page{})
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(page.Items))
	for _, item := range page.Items {
		ids = append(ids, item.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{byTitle.ID, byContent.ID}, ids)
	assert.Equal(t, int64(2), page.Total)
}

func TestPostService_GetActiveIncludesCommentsAndLikes(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	post := f.store.addPost(f.alice, f.course, "CRDTs")
	require.NoError(t, f.store.Comments().Create(ctx, &model.Comment{PostID: post.ID, UserID: f.bob.ID, Content: "great read"}))
	require.NoError(t, f.store.Likes().Create(ctx, &model.Like{UserID: f.bob.ID, PostID: post.ID}))

	details, err := f.svc.GetActive(ctx, post.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), details.LikesCount)
	require.Len(t, details.Comments, 1)
	assert.Equal(t, "bob@example.com", details.Comments[0].UserEmail)
}
