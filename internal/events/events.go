// Package events publishes forum domain events to RabbitMQ. Publishing is best
// effort: failures are logged and never fail the request that caused them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names a domain event and doubles as its routing key.
type Type string

const (
	PostCreated     Type = "post.created"
	PostDeactivated Type = "post.deactivated"
	PostLiked       Type = "post.liked"
	PostUnliked     Type = "post.unliked"
	UserUpdated     Type = "user.updated"
)

// Event is the JSON payload written to the queue.
type Event struct {
	Type       Type      `json:"type"`
	ActorID    uuid.UUID `json:"actor_id"`
	ResourceID uuid.UUID `json:"resource_id"`
	// LikeCount is set for like events.
	LikeCount  *int64    `json:"like_count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with the current time.
func New(t Type, actorID, resourceID uuid.UUID) Event {
	return Event{Type: t, ActorID: actorID, ResourceID: resourceID, OccurredAt: time.Now().UTC()}
}

// WithLikeCount attaches the like total after the operation.
func (e Event) WithLikeCount(n int64) Event {
	e.LikeCount = &n
	return e
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
