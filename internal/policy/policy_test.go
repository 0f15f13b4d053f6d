package policy

import (
	"testing"

	"profilegraph/internal/models"

	"github.com/stretchr/testify/assert"
)

const defaultPublic = "profile.create,profile.list,post.create,post.list,post.add_like,post.remove_like"

var (
	alice = Actor{UserID: 1, Username: "alice"}
	bob   = Actor{UserID: 2, Username: "bob"}
	staff = Actor{UserID: 3, Username: "root", IsStaff: true}
	anon  = Actor{}
)

func TestDecide_Writes(t *testing.T) {
	p := New(defaultPublic)

	tests := []struct {
		name    string
		req     Request
		outcome Outcome
	}{
		{"owner updates profile", Request{alice, ResourceProfile, ActionUpdate, 1, true}, Allowed},
		{"other updates profile", Request{bob, ResourceProfile, ActionUpdate, 1, true}, Forbidden},
		{"anonymous updates profile", Request{anon, ResourceProfile, ActionPartialUpdate, 1, true}, Unauthenticated},
		{"staff deletes someone's post", Request{staff, ResourcePost, ActionDestroy, 1, true}, Allowed},
		{"other tags post", Request{bob, ResourcePost, ActionAddTag, 1, true}, Forbidden},
		{"author tags post", Request{alice, ResourcePost, ActionAddTag, 1, true}, Allowed},
		{"user deletes tag", Request{alice, ResourceTag, ActionDestroy, 0, false}, RequiresStaff},
		{"staff deletes tag", Request{staff, ResourceTag, ActionDestroy, 0, false}, Allowed},
		{"other deletes like", Request{bob, ResourceLike, ActionDestroy, 1, true}, Forbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.outcome, p.Decide(tt.req).Outcome)
		})
	}
}

func TestDecide_NonWrites(t *testing.T) {
	p := New(defaultPublic)

	tests := []struct {
		name    string
		req     Request
		outcome Outcome
	}{
		{"anonymous lists profiles", Request{Actor: anon, Resource: ResourceProfile, Action: ActionList}, Allowed},
		{"anonymous retrieves profile", Request{Actor: anon, Resource: ResourceProfile, Action: ActionRetrieve, OwnerID: 1, HasOwner: true}, Unauthenticated},
		{"anonymous follows", Request{Actor: anon, Resource: ResourceProfile, Action: ActionFollow, OwnerID: 1, HasOwner: true}, Unauthenticated},
		{"anonymous likes", Request{Actor: anon, Resource: ResourcePost, Action: ActionAddLike, OwnerID: 1, HasOwner: true}, Allowed},
		{"anonymous comments", Request{Actor: anon, Resource: ResourcePost, Action: ActionAddComment, OwnerID: 1, HasOwner: true}, Unauthenticated},
		{"user follows", Request{Actor: bob, Resource: ResourceProfile, Action: ActionFollow, OwnerID: 1, HasOwner: true}, Allowed},
		{"user comments on other post", Request{Actor: bob, Resource: ResourcePost, Action: ActionAddComment, OwnerID: 1, HasOwner: true}, Allowed},
		{"user creates tag", Request{Actor: bob, Resource: ResourceTag, Action: ActionCreate}, Allowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.outcome, p.Decide(tt.req).Outcome)
		})
	}
}

func TestDecide_PublicActionsConfigurable(t *testing.T) {
	p := New(" Profile.List ")
	assert.True(t, p.IsPublic(ResourceProfile, ActionList))
	assert.False(t, p.IsPublic(ResourcePost, ActionList))
	assert.Equal(t, Unauthenticated, p.Decide(Request{Actor: anon, Resource: ResourcePost, Action: ActionList}).Outcome)

	closed := New("")
	assert.Equal(t, Unauthenticated, closed.Decide(Request{Actor: anon, Resource: ResourceProfile, Action: ActionList}).Outcome)
}

func TestDecide_Shapes(t *testing.T) {
	p := New(defaultPublic)

	tests := []struct {
		name  string
		req   Request
		shape Shape
	}{
		{"profile list", Request{Actor: anon, Resource: ResourceProfile, Action: ActionList}, ShapeProfileList},
		{"own profile", Request{Actor: alice, Resource: ResourceProfile, Action: ActionRetrieve, OwnerID: 1, HasOwner: true}, ShapeProfileEditable},
		{"other profile", Request{Actor: bob, Resource: ResourceProfile, Action: ActionRetrieve, OwnerID: 1, HasOwner: true}, ShapeProfileReadOnly},
		{"staff viewing other profile", Request{Actor: staff, Resource: ResourceProfile, Action: ActionRetrieve, OwnerID: 1, HasOwner: true}, ShapeProfileReadOnly},
		{"profile create", Request{Actor: alice, Resource: ResourceProfile, Action: ActionCreate}, ShapeProfileEditable},
		{"follow target", Request{Actor: bob, Resource: ResourceProfile, Action: ActionFollow, OwnerID: 1, HasOwner: true}, ShapeProfileReadOnly},
		{"post list", Request{Actor: bob, Resource: ResourcePost, Action: ActionList}, ShapePostList},
		{"own post", Request{Actor: alice, Resource: ResourcePost, Action: ActionRetrieve, OwnerID: 1, HasOwner: true}, ShapePostFull},
		{"other post", Request{Actor: bob, Resource: ResourcePost, Action: ActionRetrieve, OwnerID: 1, HasOwner: true}, ShapePostReadOnly},
		{"post update", Request{Actor: alice, Resource: ResourcePost, Action: ActionPartialUpdate, OwnerID: 1, HasOwner: true}, ShapePostFull},
		{"like add", Request{Actor: bob, Resource: ResourcePost, Action: ActionAddLike, OwnerID: 1, HasOwner: true}, ShapeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Decide(tt.req)
			assert.Equal(t, Allowed, d.Outcome)
			assert.Equal(t, tt.shape, d.Shape)
		})
	}
}

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, Decision{Outcome: Allowed}.Err())
	assert.True(t, models.HasCode(Decision{Outcome: Forbidden}.Err(), models.CodeForbidden))
	assert.True(t, models.HasCode(Decision{Outcome: RequiresStaff}.Err(), models.CodeRequiresStaff))
	assert.True(t, models.HasCode(Decision{Outcome: Unauthenticated}.Err(), models.CodeUnauthenticated))

	_, err := New("").Authorize(Request{Actor: bob, Resource: ResourcePost, Action: ActionDestroy, OwnerID: 1, HasOwner: true})
	assert.True(t, models.HasCode(err, models.CodeForbidden))
}

func TestAdmits_AgreesWithDecide(t *testing.T) {
	p := New(defaultPublic)
	resources := []Resource{ResourceProfile, ResourcePost, ResourceLike, ResourceComment, ResourceTag}
	actions := []Action{
		ActionList, ActionRetrieve, ActionCreate, ActionUpdate, ActionPartialUpdate, ActionDestroy,
		ActionFollow, ActionUnfollow, ActionAddLike, ActionRemoveLike, ActionAddComment, ActionAddTag,
	}

	for _, actor := range []Actor{anon, alice, staff} {
		for _, r := range resources {
			for _, a := range actions {
				admitted := p.Admits(actor, r, a)
				for _, owner := range []uint{1, 2} {
					d := p.Decide(Request{Actor: actor, Resource: r, Action: a, OwnerID: owner, HasOwner: true})
					if d.Outcome == Allowed {
						assert.True(t, admitted, "%v %s.%s owner %d allowed but not admitted", actor, r, a, owner)
					}
					if !admitted {
						assert.Equal(t, Unauthenticated, d.Outcome, "%v %s.%s", actor, r, a)
					}
				}
			}
		}
	}

	assert.False(t, p.Admits(anon, ResourcePost, ActionRetrieve))
	assert.True(t, p.Admits(anon, ResourcePost, ActionAddLike))
	assert.False(t, New("post.update").Admits(anon, ResourcePost, ActionUpdate))
}
