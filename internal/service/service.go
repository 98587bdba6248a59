package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"forumhub/internal/authz"
	apperrors "forumhub/internal/errors"
	"forumhub/internal/events"
	"forumhub/internal/metrics"
	"forumhub/internal/model"
	"forumhub/internal/repository"
)

// authorize runs the authorization engine for actor and records the decision.
func authorize(logger *zap.Logger, actor *model.User, action authz.Action, res authz.Resource) error {
	if actor == nil {
		return apperrors.ErrNoAuthenticatedPrincipal
	}
	err := authz.Require(authz.ActorOf(actor), action, res)
	metrics.ObserveAuthorization(string(action), err == nil)
	if err != nil {
		logger.Warn("authorization denied",
			zap.String("action", string(action)),
			zap.String("actor", actor.Email),
			zap.String("resource_type", string(res.Type)),
			zap.String("resource_id", res.ID.String()),
			zap.Error(err))
	}
	return err
}

// publish sends event through p. Failures are logged and discarded.
func publish(ctx context.Context, logger *zap.Logger, p events.Publisher, event events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

// notFound converts repository.ErrNotFound into a typed not-found error and wraps
// everything else with op.
func notFound(err error, op, resource string, id any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, "id", id)
	}
	return fmt.Errorf("%s: %w", op, err)
}
