package service

import (
	"context"
	"sync"

	"forumhub/internal/events"
)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// recordingInvalidator keeps every invalidated email.
type recordingInvalidator struct {
	emails []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, email string) {
	r.emails = append(r.emails, email)
}
