package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "forumhub/internal/errors"
	"forumhub/internal/model"
)

func TestCourseService(t *testing.T) {
	store := newMemStore()
	admin := store.addUser("admin@example.com", model.RoleAdmin)
	user := store.addUser("user@example.com", model.RoleUser)
	svc := NewCourseService(store, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, user, "Machine Learning")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorizedAction)

	ml, err := svc.Create(ctx, admin, "Machine Learning")
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, "Machine Learning")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	algo, err := svc.Create(ctx, admin, "Algorithms")
	require.NoError(t, err)

	_, err = svc.Update(ctx, admin, algo.ID, "Machine Learning")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	same, err := svc.Update(ctx, admin, ml.ID, "Machine Learning")
	require.NoError(t, err)
	assert.Equal(t, ml.ID, same.ID)

	_, err = svc.Update(ctx, user, algo.ID, "Advanced Algorithms")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorizedAction)

	_, err = svc.Update(ctx, admin, uuid.New(), "Ghost Course")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	courses, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Algorithms", courses[0].Name)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}
