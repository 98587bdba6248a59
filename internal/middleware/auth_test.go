package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"forumhub/internal/auth"
	apperrors "forumhub/internal/errors"
	"forumhub/internal/model"
	"forumhub/internal/repository"
)

type usersByEmail map[string]*model.User

func (u usersByEmail) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if user, ok := u[email]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func newTestServer(t *testing.T, tokens *auth.TokenService, users usersByEmail) *echo.Echo {
	t.Helper()
	resolver := auth.NewPrincipalResolver(users, nil, 0, zap.NewNop())

	e := echo.New()
	e.Use(ZapLogger(zap.NewNop()))
	secured := e.Group("", Authenticate(tokens, resolver)...)
	secured.GET("/me", func(c echo.Context) error {
		user, err := Principal(c)
		if err != nil {
			return apperrors.ToEcho(err)
		}
		return c.JSON(http.StatusOK, user)
	})
	return e
}

func doRequest(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestAuthenticate(t *testing.T) {
	alice := &model.User{ID: uuid.New(), Email: "alice@example.com", Role: model.RoleUser, Active: true}
	users := usersByEmail{alice.Email: alice}

	tokens, err := auth.NewTokenService("secret")
	require.NoError(t, err)
	stale, err := auth.NewTokenService("secret", auth.WithClock(func() time.Time {
		return time.Now().Add(-48 * time.Hour)
	}))
	require.NoError(t, err)
	forger, err := auth.NewTokenService("not-the-secret")
	require.NoError(t, err)

	valid, _ := tokens.Issue(alice.Email, model.RoleUser)
	expired, _ := stale.Issue(alice.Email, model.RoleUser)
	forged, _ := forger.Issue(alice.Email, model.RoleAdmin)
	ghost, _ := tokens.Issue("ghost@example.com", model.RoleUser)
	anonymous, _ := tokens.Issue(auth.AnonymousPrincipal, model.RoleUser)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
		expectedCode   string
	}{
		{"valid token", valid, http.StatusOK, ""},
		{"missing token", "", http.StatusForbidden, "ACCESS_DENIED"},
		{"expired token", expired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"forged token", forged, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"malformed token", "abc.def", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"unknown subject", ghost, http.StatusUnauthorized, "AUTHENTICATION_FAILED"},
		{"anonymous subject", anonymous, http.StatusForbidden, "ACCESS_DENIED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(newTestServer(t, tokens, users), tt.token)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeCode(t, rec))
			} else {
				var got model.User
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, alice.ID, got.ID)
			}
		})
	}
}

func TestPrincipal_Missing(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := Principal(c)

	assert.ErrorIs(t, err, apperrors.ErrNoAuthenticatedPrincipal)
}
