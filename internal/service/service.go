// Package service coordinates social actions: it resolves the entities a
// request touches, asks the policy for permission and output shape, and
// performs the store mutations.
package service

import (
	"context"
	"log/slog"

	"profilegraph/internal/featureflags"
	"profilegraph/internal/middleware"
	"profilegraph/internal/models"
	"profilegraph/internal/observability"
	"profilegraph/internal/policy"
	"profilegraph/internal/repository"
	"profilegraph/internal/storage"
	"profilegraph/internal/views"

	"go.opentelemetry.io/otel/attribute"
)

// ImageStore persists uploaded images and hands back a relative reference.
type ImageStore interface {
	Save(ctx context.Context, category storage.Category, username string, up storage.Upload) (string, error)
	Claim(category storage.Category, username, ref string) (string, error)
	Owns(category storage.Category, username, ref string) bool
	Remove(ref string) error
}

// authorizer wraps the policy with metrics and span attributes.
type authorizer struct {
	policy *policy.Policy
	flags  *featureflags.Manager
}

func (a authorizer) authorize(ctx context.Context, span *observability.Span, req policy.Request) (policy.Shape, error) {
	d := a.policy.Decide(req)
	observability.PolicyDecisions.WithLabelValues(string(req.Resource), d.Outcome.String()).Inc()
	span.AddAttributes(
		attribute.String("policy.action", string(req.Action)),
		attribute.String("policy.outcome", d.Outcome.String()),
	)
	if err := d.Err(); err != nil {
		return policy.ShapeNone, err
	}
	return d.Shape, nil
}

// admit rejects anonymous actors that no owner could let through. Owned
// lookups call it first so unknown and existing ids answer alike.
func (a authorizer) admit(ctx context.Context, span *observability.Span, actor policy.Actor, resource policy.Resource, action policy.Action) error {
	if a.policy.Admits(actor, resource, action) {
		return nil
	}
	_, err := a.authorize(ctx, span, policy.Request{Actor: actor, Resource: resource, Action: action})
	return err
}

func (a authorizer) options(actor policy.Actor) views.Options {
	return views.Options{CollapseLikes: a.flags.Enabled(featureflags.LikeSummary, actor.UserID)}
}

// requireIdentity rejects anonymous actors on actions that write a row
// owned by the actor, even when the policy lets anonymous callers reach them.
func requireIdentity(actor policy.Actor) error {
	if !actor.Authenticated() {
		return models.NewUnauthenticatedError("Authentication credentials were not provided")
	}
	return nil
}

// actorProfile loads the actor's own profile, reporting PROFILE_REQUIRED
// when they have none.
func actorProfile(ctx context.Context, profiles repository.ProfileRepository, actor policy.Actor) (*models.Profile, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	p, err := profiles.GetByUserID(ctx, actor.UserID)
	if models.HasCode(err, models.CodeNotFound) {
		return nil, models.NewProfileRequiredError()
	}
	return p, err
}

func actorAttrs(actor policy.Actor) attribute.KeyValue {
	return attribute.Int64("actor.user_id", int64(actor.UserID))
}

// discardImage removes a stored image whose row is gone or was never
// written. Refs not generated for owner are left alone. Failures are
// logged only.
func discardImage(ctx context.Context, images ImageStore, category storage.Category, owner, ref string) {
	if ref == "" || images == nil || !images.Owns(category, owner, ref) {
		return
	}
	if err := images.Remove(ref); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove image",
			slog.String("ref", ref), slog.String("error", err.Error()))
	}
}

func ownedRequest(actor policy.Actor, resource policy.Resource, action policy.Action, ownerID uint) policy.Request {
	return policy.Request{
		Actor:    actor,
		Resource: resource,
		Action:   action,
		OwnerID:  ownerID,
		HasOwner: true,
	}
}
