// Package policy decides whether an actor may perform an action on a
// resource and which output shape the response uses. It has no I/O.
package policy

import (
	"fmt"
	"strings"

	"profilegraph/internal/models"
)

// Actor is the identity a request runs as. The zero value is anonymous.
type Actor struct {
	UserID   uint
	Username string
	IsStaff  bool
}

// Authenticated reports whether the actor carries an identity.
func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// Owns reports whether the actor is the given owner.
func (a Actor) Owns(ownerID uint) bool {
	return a.Authenticated() && a.UserID == ownerID
}

// Resource names an API resource.
type Resource string

const (
	ResourceProfile Resource = "profile"
	ResourcePost    Resource = "post"
	ResourceLike    Resource = "like"
	ResourceComment Resource = "comment"
	ResourceTag     Resource = "tag"
)

// Action names an operation on a resource.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
	ActionFollow        Action = "follow"
	ActionUnfollow      Action = "unfollow"
	ActionAddLike       Action = "add_like"
	ActionRemoveLike    Action = "remove_like"
	ActionAddComment    Action = "add_comment"
	ActionAddTag        Action = "add_tag"
)

// Outcome is the authorization verdict.
type Outcome int

const (
	Allowed Outcome = iota
	Unauthenticated
	Forbidden
	RequiresStaff
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case RequiresStaff:
		return "requires_staff"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Shape selects the serialized form of a response.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeProfileList
	ShapeProfileEditable
	ShapeProfileReadOnly
	ShapePostList
	ShapePostFull
	ShapePostReadOnly
)

// Request is one authorization question. OwnerID is only meaningful when
// HasOwner is set; ownerless resources (tags) leave it false.
type Request struct {
	Actor    Actor
	Resource Resource
	Action   Action
	OwnerID  uint
	HasOwner bool
}

// Decision is the answer to a Request.
type Decision struct {
	Outcome Outcome
	Shape   Shape
}

// Err converts a denial into the matching application error. It returns nil
// for Allowed.
func (d Decision) Err() error {
	switch d.Outcome {
	case Allowed:
		return nil
	case Unauthenticated:
		return models.NewUnauthenticatedError("Authentication credentials were not provided")
	case RequiresStaff:
		return models.NewRequiresStaffError("Only staff may modify this resource")
	default:
		return models.NewForbiddenError("You do not have permission to perform this action")
	}
}

// Policy holds the set of (resource, action) pairs open to anonymous actors.
type Policy struct {
	public map[string]struct{}
}

// New builds a Policy from a comma-separated "resource.action" list.
func New(publicActions string) *Policy {
	p := &Policy{public: make(map[string]struct{})}
	for _, item := range strings.Split(publicActions, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			p.public[item] = struct{}{}
		}
	}
	return p
}

// IsPublic reports whether anonymous actors may reach resource.action.
func (p *Policy) IsPublic(resource Resource, action Action) bool {
	_, ok := p.public[string(resource)+"."+string(action)]
	return ok
}

func isWrite(resource Resource, action Action) bool {
	switch action {
	case ActionUpdate, ActionPartialUpdate, ActionDestroy:
		return true
	case ActionAddTag:
		return resource == ResourcePost
	}
	return false
}

// Decide evaluates req. Staff pass every check; writes need the owner;
// everything else needs an identity unless the pair is public.
func (p *Policy) Decide(req Request) Decision {
	shape := shapeFor(req)

	if req.Actor.IsStaff && req.Actor.Authenticated() {
		return Decision{Outcome: Allowed, Shape: shape}
	}

	if isWrite(req.Resource, req.Action) {
		switch {
		case !req.Actor.Authenticated():
			return Decision{Outcome: Unauthenticated}
		case !req.HasOwner:
			return Decision{Outcome: RequiresStaff}
		case !req.Actor.Owns(req.OwnerID):
			return Decision{Outcome: Forbidden}
		}
		return Decision{Outcome: Allowed, Shape: shape}
	}

	if !req.Actor.Authenticated() && !p.IsPublic(req.Resource, req.Action) {
		return Decision{Outcome: Unauthenticated}
	}
	return Decision{Outcome: Allowed, Shape: shape}
}

// Admits reports whether actor can reach resource.action at all, before the
// target is loaded. It agrees with Decide for every possible owner.
func (p *Policy) Admits(actor Actor, resource Resource, action Action) bool {
	if actor.Authenticated() {
		return true
	}
	return !isWrite(resource, action) && p.IsPublic(resource, action)
}

// Authorize is Decide followed by Decision.Err.
func (p *Policy) Authorize(req Request) (Shape, error) {
	d := p.Decide(req)
	if err := d.Err(); err != nil {
		return ShapeNone, err
	}
	return d.Shape, nil
}

type shapeKey struct {
	resource Resource
	action   Action
	owner    bool
}

// shapes is the closed viewer/action to shape table. Pairs not listed
// produce ShapeNone.
var shapes = map[shapeKey]Shape{
	{ResourceProfile, ActionList, true}:           ShapeProfileList,
	{ResourceProfile, ActionList, false}:          ShapeProfileList,
	{ResourceProfile, ActionRetrieve, true}:       ShapeProfileEditable,
	{ResourceProfile, ActionRetrieve, false}:      ShapeProfileReadOnly,
	{ResourceProfile, ActionCreate, true}:         ShapeProfileEditable,
	{ResourceProfile, ActionUpdate, true}:         ShapeProfileEditable,
	{ResourceProfile, ActionUpdate, false}:        ShapeProfileEditable,
	{ResourceProfile, ActionPartialUpdate, true}:  ShapeProfileEditable,
	{ResourceProfile, ActionPartialUpdate, false}: ShapeProfileEditable,
	{ResourceProfile, ActionFollow, false}:        ShapeProfileReadOnly,
	{ResourceProfile, ActionFollow, true}:         ShapeProfileReadOnly,
	{ResourceProfile, ActionUnfollow, false}:      ShapeProfileReadOnly,
	{ResourceProfile, ActionUnfollow, true}:       ShapeProfileReadOnly,
	{ResourcePost, ActionList, true}:              ShapePostList,
	{ResourcePost, ActionList, false}:             ShapePostList,
	{ResourcePost, ActionRetrieve, true}:          ShapePostFull,
	{ResourcePost, ActionRetrieve, false}:         ShapePostReadOnly,
	{ResourcePost, ActionCreate, true}:            ShapePostFull,
	{ResourcePost, ActionUpdate, true}:            ShapePostFull,
	{ResourcePost, ActionUpdate, false}:           ShapePostFull,
	{ResourcePost, ActionPartialUpdate, true}:     ShapePostFull,
	{ResourcePost, ActionPartialUpdate, false}:    ShapePostFull,
	{ResourcePost, ActionAddTag, true}:            ShapePostFull,
	{ResourcePost, ActionAddTag, false}:           ShapePostFull,
}

// shapeFor looks up the response shape. Creates have no owner yet and are
// rendered for their creator.
func shapeFor(req Request) Shape {
	owner := req.Action == ActionCreate || (req.HasOwner && req.Actor.Owns(req.OwnerID))
	return shapes[shapeKey{req.Resource, req.Action, owner}]
}
