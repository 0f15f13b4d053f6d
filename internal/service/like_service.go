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
	"profilegraph/internal/views"
)

// LikeService serves the standalone like resource.
type LikeService struct {
	authorizer
	posts repository.PostRepository
	likes repository.LikeRepository
}

// NewLikeService returns a new LikeService.
func NewLikeService(posts repository.PostRepository, likes repository.LikeRepository, pol *policy.Policy, flags *featureflags.Manager) *LikeService {
	return &LikeService{
		authorizer: authorizer{policy: pol, flags: flags},
		posts:      posts,
		likes:      likes,
	}
}

// CreateLike likes the post named in the body. An unknown post is a
// validation failure of the body, not a missing resource.
func (s *LikeService) CreateLike(ctx context.Context, actor policy.Actor, postID uint) (result *views.LikeView, err error) {
	ctx, span := observability.StartSpan(ctx, "like", "create", actorAttrs(actor))
	defer func() {
		span.Finish(err)
		observability.RecordAction("like.create", err)
	}()

	if _, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourceLike, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}
	if err := postExists(ctx, s.posts, postID); err != nil {
		return nil, err
	}
	like, err := createLike(ctx, s.likes, actor, postID)
	if err != nil {
		return nil, err
	}
	view := views.Like(like)
	return &view, nil
}

// DeleteLike removes like id. Only its owner or staff may.
func (s *LikeService) DeleteLike(ctx context.Context, actor policy.Actor, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "like", "destroy", actorAttrs(actor))
	defer func() {
		span.Finish(err)
		observability.RecordAction("like.destroy", err)
	}()

	if err := s.admit(ctx, span, actor, policy.ResourceLike, policy.ActionDestroy); err != nil {
		return err
	}
	like, err := s.likes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, span, ownedRequest(actor, policy.ResourceLike, policy.ActionDestroy, like.UserID)); err != nil {
		return err
	}
	return s.likes.Delete(ctx, id)
}

// postExists checks a post id taken from a request body.
func postExists(ctx context.Context, posts repository.PostRepository, postID uint) error {
	if postID == 0 {
		return models.NewValidationError("post_id is required")
	}
	if _, err := posts.GetByID(ctx, postID); err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return models.NewValidationError("Invalid post_id: post does not exist")
		}
		return err
	}
	return nil
}

func createLike(ctx context.Context, likes repository.LikeRepository, actor policy.Actor, postID uint) (*models.Like, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	like := &models.Like{UserID: actor.UserID, PostID: postID}
	if err := likes.Create(ctx, like); err != nil {
		return nil, err
	}
	like.User = models.User{ID: actor.UserID, Username: actor.Username}
	middleware.Logger.InfoContext(ctx, "post liked",
		slog.Uint64("post_id", uint64(postID)),
		slog.Uint64("user_id", uint64(actor.UserID)))
	return like, nil
}
