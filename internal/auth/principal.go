package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"forumhub/internal/cache"
	apperrors "forumhub/internal/errors"
	"forumhub/internal/model"
	"forumhub/internal/repository"
)

// AnonymousPrincipal is the placeholder subject of an unauthenticated caller.
const AnonymousPrincipal = "anonymousUser"

// Authentication is the identity asserted by a verified token.
type Authentication struct {
	Subject       string
	Role          model.Role
	Authenticated bool
}

// FromClaims builds an Authentication from verified claims.
func FromClaims(claims *Claims) *Authentication {
	if claims == nil {
		return nil
	}
	return &Authentication{
		Subject:       claims.Subject,
		Role:          claims.Role,
		Authenticated: true,
	}
}

// UserFinder is the part of the credential store the resolver needs.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// PrincipalCache is the fail-safe key/value store the resolver caches users in.
// *cache.Client satisfies it.
type PrincipalCache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration)
	GetInt(ctx context.Context, key string) int64
	Incr(ctx context.Context, key string)
	Delete(ctx context.Context, keys ...string)
}

// PrincipalResolver maps an Authentication to the stored user it names.
type PrincipalResolver struct {
	users    UserFinder
	cache    PrincipalCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewPrincipalResolver creates a resolver. A nil cache disables caching.
func NewPrincipalResolver(users UserFinder, c PrincipalCache, cacheTTL time.Duration, logger *zap.Logger) *PrincipalResolver {
	if c == nil {
		c = (*cache.Client)(nil)
	}
	return &PrincipalResolver{
		users:    users,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger.Named("PrincipalResolver"),
	}
}

// PrincipalCacheKey is the cache key of a resolved user at a given version.
func PrincipalCacheKey(email string, version int64) string {
	return fmt.Sprintf("principal:%s:%d", strings.ToLower(email), version)
}

func principalVersionKey(email string) string {
	return "principal:version:" + strings.ToLower(email)
}

// Resolve fails closed. Missing, unauthenticated or anonymous identities give
// ErrNoAuthenticatedPrincipal; a subject unknown to the store gives
// ErrPrincipalInconsistency.
//
// The cache version is read before the store, so a row read ahead of a concurrent
// Invalidate is stored under a version nobody reads again.
func (r *PrincipalResolver) Resolve(ctx context.Context, authn *Authentication) (*model.User, error) {
	if authn == nil || !authn.Authenticated || authn.Subject == "" || authn.Subject == AnonymousPrincipal {
		return nil, apperrors.ErrNoAuthenticatedPrincipal
	}

	version := r.cache.GetInt(ctx, principalVersionKey(authn.Subject))
	key := PrincipalCacheKey(authn.Subject, version)
	var cached model.User
	if r.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	user, err := r.users.FindByEmail(ctx, authn.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		r.logger.Error("authenticated subject missing from credential store",
			zap.String("subject", authn.Subject))
		return nil, fmt.Errorf("%w: subject %q", apperrors.ErrPrincipalInconsistency, authn.Subject)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve principal: %w", err)
	}

	r.cache.SetJSON(ctx, key, user, r.cacheTTL)
	return user, nil
}

// Invalidate retires every cached entry for email by bumping its version.
func (r *PrincipalResolver) Invalidate(ctx context.Context, email string) {
	versionKey := principalVersionKey(email)
	current := r.cache.GetInt(ctx, versionKey)
	r.cache.Incr(ctx, versionKey)
	r.cache.Delete(ctx, PrincipalCacheKey(email, current))
}
