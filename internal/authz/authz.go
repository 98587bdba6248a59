// Package authz decides whether an actor may perform a mutating action on a
// resource. Decisions are pure: the caller supplies fully resolved identities and
// the package performs no I/O.
package authz

import (
	"github.com/google/uuid"

	apperrors "forumhub/internal/errors"
	"forumhub/internal/model"
)

// Action names a guarded operation.
type Action string

const (
	ActionUpdatePost    Action = "UPDATE_POST"
	ActionDeletePost    Action = "DELETE_POST"
	ActionUpdateComment Action = "UPDATE_COMMENT"
	ActionDeleteComment Action = "DELETE_COMMENT"
	ActionCreateCourse  Action = "CREATE_COURSE"
	ActionUpdateCourse  Action = "UPDATE_COURSE"
	ActionUpdateUser    Action = "UPDATE_USER"
)

// ResourceType names the kind of resource an action targets.
type ResourceType string

const (
	ResourcePost    ResourceType = "post"
	ResourceComment ResourceType = "comment"
	ResourceCourse  ResourceType = "course"
	ResourceUser    ResourceType = "user"
)

type rule int

const (
	ownerOrAdmin rule = iota + 1
	adminOnly
)

type policy struct {
	resource ResourceType
	rule     rule
}

var policies = map[Action]policy{
	ActionUpdatePost:    {ResourcePost, ownerOrAdmin},
	ActionDeletePost:    {ResourcePost, ownerOrAdmin},
	ActionUpdateComment: {ResourceComment, ownerOrAdmin},
	ActionDeleteComment: {ResourceComment, ownerOrAdmin},
	ActionCreateCourse:  {ResourceCourse, adminOnly},
	ActionUpdateCourse:  {ResourceCourse, adminOnly},
	ActionUpdateUser:    {ResourceUser, adminOnly},
}

// Actor is the resolved principal performing an action.
type Actor struct {
	ID    uuid.UUID
	Email string
	Role  model.Role
}

// ActorOf converts a resolved user into an Actor.
func ActorOf(u *model.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Resource identifies the target of an action. OwnerID is uuid.Nil for resources
// without an owner.
type Resource struct {
	Type    ResourceType
	ID      uuid.UUID
	OwnerID uuid.UUID
}

// Post describes p as a resource owned by its author.
func Post(p *model.Post) Resource {
	return Resource{Type: ResourcePost, ID: p.ID, OwnerID: p.UserID}
}

// Comment describes c as a resource owned by its author.
func Comment(c *model.Comment) Resource {
	return Resource{Type: ResourceComment, ID: c.ID, OwnerID: c.UserID}
}

// Course describes a course. id is uuid.Nil for a course being created.
func Course(id uuid.UUID) Resource {
	return Resource{Type: ResourceCourse, ID: id}
}

// User describes a user profile. Profiles are never owner-editable.
func User(id uuid.UUID) Resource {
	return Resource{Type: ResourceUser, ID: id}
}

// Decision is the outcome of Authorize. Reason is set when Allowed is false.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision              { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize applies the hard-coded policy for action.
func Authorize(actor Actor, action Action, res Resource) Decision {
	p, ok := policies[action]
	if !ok {
		return deny("unknown action")
	}
	if res.Type != p.resource {
		return deny("action does not apply to " + string(res.Type))
	}
	if actor.ID == uuid.Nil {
		return deny("actor is not identified")
	}

	isAdmin := actor.Role == model.RoleAdmin
	switch p.rule {
	case ownerOrAdmin:
		if isAdmin {
			return allow()
		}
		if res.OwnerID != uuid.Nil && res.OwnerID == actor.ID {
			return allow()
		}
		return deny("actor is neither the owner nor an admin")
	case adminOnly:
		if isAdmin {
			return allow()
		}
		return deny("action requires the admin role")
	default:
		return deny("no rule for action")
	}
}

// Require returns nil when Authorize allows the action and an
// *errors.UnauthorizedActionError otherwise.
func Require(actor Actor, action Action, res Resource) error {
	d := Authorize(actor, action, res)
	if d.Allowed {
		return nil
	}
	return &apperrors.UnauthorizedActionError{
		Action:       string(action),
		ActorEmail:   actor.Email,
		ResourceType: string(res.Type),
		ResourceID:   res.ID.String(),
		Reason:       d.Reason,
	}
}
