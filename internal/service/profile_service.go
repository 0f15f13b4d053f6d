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

// ProfileService provides profile and follow-graph business logic.
type ProfileService struct {
	authorizer
	profiles repository.ProfileRepository
	images   ImageStore
}

// CreateProfileInput is the payload for a new profile.
type CreateProfileInput struct {
	Bio     string
	Picture *storage.Upload
}

// UpdateProfileInput carries the fields of an update. A nil field is left
// as it is on partial updates and cleared on full updates, except Picture
// which is only replaced when a new upload is given.
type UpdateProfileInput struct {
	Bio     *string
	Picture *storage.Upload
}

// NewProfileService returns a new ProfileService.
func NewProfileService(
	profiles repository.ProfileRepository,
	images ImageStore,
	pol *policy.Policy,
	flags *featureflags.Manager,
) *ProfileService {
	return &ProfileService{
		authorizer: authorizer{policy: pol, flags: flags},
		profiles:   profiles,
		images:     images,
	}
}

// ListProfiles returns profiles whose username contains filter.Username.
func (s *ProfileService) ListProfiles(ctx context.Context, actor policy.Actor, filter repository.ListProfilesFilter) ([]views.ProfileListItem, error) {
	ctx, span := observability.StartSpan(ctx, "profile", "list", actorAttrs(actor))
	defer span.End()

	if _, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourceProfile, Action: policy.ActionList}); err != nil {
		return nil, err
	}
	profiles, err := s.profiles.List(ctx, filter)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return views.ProfileList(profiles), nil
}

// GetProfile renders profile id for actor: editable for its owner,
// read-only otherwise.
func (s *ProfileService) GetProfile(ctx context.Context, actor policy.Actor, id uint) (interface{}, error) {
	ctx, span := observability.StartSpan(ctx, "profile", "retrieve", actorAttrs(actor))
	defer span.End()

	if err := s.admit(ctx, span, actor, policy.ResourceProfile, policy.ActionRetrieve); err != nil {
		return nil, err
	}
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	shape, err := s.authorize(ctx, span, ownedRequest(actor, policy.ResourceProfile, policy.ActionRetrieve, p.UserID))
	if err != nil {
		return nil, err
	}
	return views.Profile(p, shape, s.options(actor)), nil
}

// CreateProfile creates the actor's profile. A user holds at most one.
func (s *ProfileService) CreateProfile(ctx context.Context, actor policy.Actor, in CreateProfileInput) (result interface{}, err error) {
	ctx, span := observability.StartSpan(ctx, "profile", "create", actorAttrs(actor))
	defer func() {
		span.Finish(err)
		observability.RecordAction("profile.create", err)
	}()

	shape, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourceProfile, Action: policy.ActionCreate})
	if err != nil {
		return nil, err
	}
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}

	profile := &models.Profile{UserID: actor.UserID, Bio: cleanText(in.Bio)}
	if in.Picture != nil {
		ref, err := s.images.Save(ctx, storage.CategoryProfilePictures, actor.Username, *in.Picture)
		if err != nil {
			return nil, err
		}
		profile.ProfilePicture = ref
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		discardImage(ctx, s.images, storage.CategoryProfilePictures, actor.Username, profile.ProfilePicture)
		return nil, err
	}

	created, err := s.profiles.GetByID(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "profile created",
		slog.Uint64("profile_id", uint64(created.ID)),
		slog.Uint64("user_id", uint64(actor.UserID)))
	return views.Profile(created, shape, s.options(actor)), nil
}

// UpdateProfile applies a full (partial=false) or partial update.
func (s *ProfileService) UpdateProfile(ctx context.Context, actor policy.Actor, id uint, in UpdateProfileInput, partial bool) (result interface{}, err error) {
	action := policy.ActionUpdate
	if partial {
		action = policy.ActionPartialUpdate
	}
	ctx, span := observability.StartSpan(ctx, "profile", string(action), actorAttrs(actor))
	defer func() {
		span.Finish(err)
		observability.RecordAction("profile."+string(action), err)
	}()

	if err := s.admit(ctx, span, actor, policy.ResourceProfile, action); err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	shape, err := s.authorize(ctx, span, ownedRequest(actor, policy.ResourceProfile, action, profile.UserID))
	if err != nil {
		return nil, err
	}

	switch {
	case in.Bio != nil:
		profile.Bio = cleanText(*in.Bio)
	case !partial:
		profile.Bio = ""
	}

	oldPicture := profile.ProfilePicture
	if in.Picture != nil {
		ref, err := s.images.Save(ctx, storage.CategoryProfilePictures, profile.Username(), *in.Picture)
		if err != nil {
			return nil, err
		}
		profile.ProfilePicture = ref
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		if profile.ProfilePicture != oldPicture {
			discardImage(ctx, s.images, storage.CategoryProfilePictures, profile.Username(), profile.ProfilePicture)
		}
		return nil, err
	}
	if profile.ProfilePicture != oldPicture {
		discardImage(ctx, s.images, storage.CategoryProfilePictures, profile.Username(), oldPicture)
	}

	updated, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return views.Profile(updated, shape, s.options(actor)), nil
}

// DeleteProfile removes the profile with its posts and every follow edge
// touching its user.
func (s *ProfileService) DeleteProfile(ctx context.Context, actor policy.Actor, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "profile", "destroy", actorAttrs(actor))
	defer func() {
		span.Finish(err)
		observability.RecordAction("profile.destroy", err)
	}()

	if err := s.admit(ctx, span, actor, policy.ResourceProfile, policy.ActionDestroy); err != nil {
		return err
	}
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, span, ownedRequest(actor, policy.ResourceProfile, policy.ActionDestroy, profile.UserID)); err != nil {
		return err
	}
	if err := s.profiles.Delete(ctx, id); err != nil {
		return err
	}

	owner := profile.Username()
	discardImage(ctx, s.images, storage.CategoryProfilePictures, owner, profile.ProfilePicture)
	for _, p := range profile.Posts {
		discardImage(ctx, s.images, storage.CategoryPostImages, owner, p.Image)
	}
	middleware.Logger.InfoContext(ctx, "profile deleted",
		slog.Uint64("profile_id", uint64(id)),
		slog.Uint64("actor_id", uint64(actor.UserID)))
	return nil
}

// Follow makes the actor's profile follow target. Following twice is a
// no-op; following oneself fails SELF_FOLLOW without touching the graph.
func (s *ProfileService) Follow(ctx context.Context, actor policy.Actor, targetID uint) (result *views.FollowResult, err error) {
	ctx, span := observability.StartSpan(ctx, "profile", "follow",
		actorAttrs(actor), attribute.Int64("profile.target_id", int64(targetID)))
	defer func() {
		span.Finish(err)
		observability.RecordAction("profile.follow", err)
	}()

	source, target, shape, err := s.resolveEdge(ctx, span, actor, targetID, policy.ActionFollow)
	if err != nil {
		return nil, err
	}
	if source.UserID == target.UserID {
		return nil, models.NewConflictError(models.CodeSelfFollow, "You cannot follow your own profile")
	}

	if err := s.profiles.Follow(ctx, source, target); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "profile followed",
		slog.Uint64("source_profile_id", uint64(source.ID)),
		slog.Uint64("target_profile_id", uint64(target.ID)))
	return s.followResult(ctx, actor, source.ID, target.ID, shape)
}

// Unfollow removes the actor's follow of target. Absent edges, including
// the actor's own profile, are a no-op.
func (s *ProfileService) Unfollow(ctx context.Context, actor policy.Actor, targetID uint) (result *views.FollowResult, err error) {
	ctx, span := observability.StartSpan(ctx, "profile", "unfollow",
		actorAttrs(actor), attribute.Int64("profile.target_id", int64(targetID)))
	defer func() {
		span.Finish(err)
		observability.RecordAction("profile.unfollow", err)
	}()

	source, target, shape, err := s.resolveEdge(ctx, span, actor, targetID, policy.ActionUnfollow)
	if err != nil {
		return nil, err
	}
	if source.UserID != target.UserID {
		if err := s.profiles.Unfollow(ctx, source, target); err != nil {
			return nil, err
		}
		middleware.Logger.InfoContext(ctx, "profile unfollowed",
			slog.Uint64("source_profile_id", uint64(source.ID)),
			slog.Uint64("target_profile_id", uint64(target.ID)))
	}
	return s.followResult(ctx, actor, source.ID, target.ID, shape)
}

func (s *ProfileService) resolveEdge(ctx context.Context, span *observability.Span, actor policy.Actor, targetID uint, action policy.Action) (*models.Profile, *models.Profile, policy.Shape, error) {
	if err := s.admit(ctx, span, actor, policy.ResourceProfile, action); err != nil {
		return nil, nil, policy.ShapeNone, err
	}
	target, err := s.profiles.GetByID(ctx, targetID)
	if err != nil {
		return nil, nil, policy.ShapeNone, err
	}
	shape, err := s.authorize(ctx, span, ownedRequest(actor, policy.ResourceProfile, action, target.UserID))
	if err != nil {
		return nil, nil, policy.ShapeNone, err
	}
	source, err := actorProfile(ctx, s.profiles, actor)
	if err != nil {
		return nil, nil, policy.ShapeNone, err
	}
	return source, target, shape, nil
}

func (s *ProfileService) followResult(ctx context.Context, actor policy.Actor, sourceID, targetID uint, shape policy.Shape) (*views.FollowResult, error) {
	target, err := s.profiles.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	source, err := s.profiles.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	opts := s.options(actor)
	return &views.FollowResult{
		Profile:     views.Profile(target, shape, opts),
		UserProfile: views.ProfileDetailOf(source, false, opts),
	}, nil
}
