package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"forumhub/internal/auth"
	apperrors "forumhub/internal/errors"
	"forumhub/internal/middleware"
	"forumhub/internal/model"
	"forumhub/internal/repository"
	"forumhub/internal/service"
	"forumhub/internal/validation"
)

// MockPostService is a mock implementation of service.PostService.
type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) Create(ctx context.Context, actor *model.User, in service.PostInput) (*service.PostSummary, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PostSummary), args.Error(1)
}

func (m *MockPostService) Update(ctx context.Context, actor *model.User, id uuid.UUID, in service.PostInput) (*service.PostSummary, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PostSummary), args.Error(1)
}

func (m *MockPostService) Deactivate(ctx context.Context, actor *model.User, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockPostService) GetActive(ctx context.Context, id uuid.UUID) (*service.PostDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PostDetails), args.Error(1)
}

func (m *MockPostService) ListActive(ctx context.Context, page repository.Page) (*service.PostPage, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PostPage), args.Error(1)
}

func (m *MockPostService) ListByUser(ctx context.Context, userID uuid.UUID, page repository.Page) (*service.PostPage, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PostPage), args.Error(1)
}

func (m *MockPostService) ListByCourse(ctx context.Context, courseID uuid.UUID, page repository.Page) (*service.PostPage, error) {
	args := m.Called(ctx, courseID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PostPage), args.Error(1)
}

func (m *MockPostService) Search(ctx context.Context, title, content string, page repository.Page) (*service.PostPage, error) {
	args := m.Called(ctx, title, content, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PostPage), args.Error(1)
}

// MockLikeService is a mock implementation of service.LikeService.
type MockLikeService struct {
	mock.Mock
}

func (m *MockLikeService) Like(ctx context.Context, userID, postID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, postID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLikeService) Unlike(ctx context.Context, userID, postID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, postID)
	return args.Get(0).(int64), args.Error(1)
}

type usersByEmail map[string]*model.User

func (u usersByEmail) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if user, ok := u[email]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

var alice = &model.User{ID: uuid.New(), Email: "alice@example.com", Role: model.RoleUser, Active: true}

func newServer(t *testing.T, posts service.PostService, likes service.LikeService) (*echo.Echo, string) {
	t.Helper()
	tokens, err := auth.NewTokenService("handler-test-secret")
	require.NoError(t, err)
	token, err := tokens.Issue(alice.Email, alice.Role)
	require.NoError(t, err)
	resolver := auth.NewPrincipalResolver(usersByEmail{alice.Email: alice}, nil, 0, zap.NewNop())

	e := echo.New()
	e.Validator = validation.New()

	ph := NewPostHandler(posts)
	lh := NewLikeHandler(likes)
	e.GET("/posts/:id", ph.GetPost)
	e.GET("/posts", ph.ListPosts)
	secured := e.Group("", middleware.Authenticate(tokens, resolver)...)
	secured.POST("/posts", ph.CreatePost)
	secured.POST("/posts/:id/like", lh.Like)
	return e, token
}

func serve(e *echo.Echo, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetPost_InvalidUUID(t *testing.T) {
	posts := new(MockPostService)
	e, _ := newServer(t, posts, new(MockLikeService))

	rec := serve(e, http.MethodGet, "/posts/not-a-uuid", "", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", body.Code)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "id", body.Fields[0].Field)
	posts.AssertNotCalled(t, "GetActive", mock.Anything, mock.Anything)
}

func TestGetPost_InactiveIsNotFound(t *testing.T) {
	posts := new(MockPostService)
	id := uuid.New()
	posts.On("GetActive", mock.Anything, id).Return(nil, apperrors.NotFound("Post", "id", id))
	e, _ := newServer(t, posts, new(MockLikeService))

	rec := serve(e, http.MethodGet, "/posts/"+id.String(), "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", decodeError(t, rec).Code)
}

func TestListPosts_PageParams(t *testing.T) {
	posts := new(MockPostService)
	posts.On("ListActive", mock.Anything, repository.Page{Number: 2, Size: 5}).
		Return(&service.PostPage{Items: []service.PostSummary{}, Page: 2, Size: 5}, nil)
	e, _ := newServer(t, posts, new(MockLikeService))

	rec := serve(e, http.MethodGet, "/posts?page=2&size=5", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	posts.AssertExpectations(t)
}

func TestCreatePost(t *testing.T) {
	courseID := uuid.New()

	tests := []struct {
		name           string
		token          bool
		body           string
		setup          func(*MockPostService)
		expectedStatus int
		expectedCode   string
		expectedFields []string
	}{
		{
			name:           "anonymous",
			body:           `{}`,
			setup:          func(*MockPostService) {},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "ACCESS_DENIED",
		},
		{
			name:           "all fields failing are reported",
			token:          true,
			body:           `{"title":"hi","content":"short"}`,
			setup:          func(*MockPostService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_FAILED",
			expectedFields: []string{"title", "content", "course_id"},
		},
		{
			name:           "malformed body",
			token:          true,
			body:           `{"title":`,
			setup:          func(*MockPostService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:  "created",
			token: true,
			body:  `{"title":"Goroutines","content":"How do I stop one?","course_id":"` + courseID.String() + `"}`,
			setup: func(m *MockPostService) {
				in := service.PostInput{Title: "Goroutines", Content: "How do I stop one?", CourseID: courseID}
				m.On("Create", mock.Anything, alice, in).
					Return(&service.PostSummary{ID: uuid.New(), Title: in.Title, Active: true}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:  "unknown course",
			token: true,
			body:  `{"title":"Goroutines","content":"How do I stop one?","course_id":"` + courseID.String() + `"}`,
			setup: func(m *MockPostService) {
				m.On("Create", mock.Anything, alice, mock.Anything).
					Return(nil, apperrors.NotFound("Course", "id", courseID))
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "RESOURCE_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts := new(MockPostService)
			tt.setup(posts)
			e, token := newServer(t, posts, new(MockLikeService))
			if !tt.token {
				token = ""
			}

			rec := serve(e, http.MethodPost, "/posts", token, tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedCode != "" {
				body := decodeError(t, rec)
				assert.Equal(t, tt.expectedCode, body.Code)
				fields := make([]string, 0, len(body.Fields))
				for _, f := range body.Fields {
					fields = append(fields, f.Field)
				}
				if tt.expectedFields != nil {
					assert.ElementsMatch(t, tt.expectedFields, fields)
				}
			}
			posts.AssertExpectations(t)
		})
	}
}

func TestLike(t *testing.T) {
	postID := uuid.New()

	t.Run("returns the new count", func(t *testing.T) {
		likes := new(MockLikeService)
		likes.On("Like", mock.Anything, alice.ID, postID).Return(int64(3), nil)
		e, token := newServer(t, new(MockPostService), likes)

		rec := serve(e, http.MethodPost, "/posts/"+postID.String()+"/like", token, "")

		require.Equal(t, http.StatusOK, rec.Code)
		var body LikeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, int64(3), body.LikesCount)
	})

	t.Run("second like conflicts", func(t *testing.T) {
		likes := new(MockLikeService)
		likes.On("Like", mock.Anything, alice.ID, postID).Return(int64(0), apperrors.ErrAlreadyLiked)
		e, token := newServer(t, new(MockPostService), likes)

		rec := serve(e, http.MethodPost, "/posts/"+postID.String()+"/like", token, "")

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "ALREADY_LIKED", decodeError(t, rec).Code)
	})
}
