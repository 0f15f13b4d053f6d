package service

import (
	"context"
	"log/slog"
	"strings"

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

// PostService provides post, tag-link, like and comment business logic.
type PostService struct {
	authorizer
	posts    repository.PostRepository
	profiles repository.ProfileRepository
	likes    repository.LikeRepository
	comments repository.CommentRepository
	images   ImageStore
}

// CreatePostInput is the payload for a new post. Image takes precedence
// over ImageRef when both are set. ImageRef must name one of the actor's
// own stored images.
type CreatePostInput struct {
	Description string
	Tags        []string
	Image       *storage.Upload
	ImageRef    string
}

// UpdatePostInput carries the fields of an update. Description is required
// on full updates. The image is only replaced when one is given.
type UpdatePostInput struct {
	Description *string
	Image       *storage.Upload
	ImageRef    *string
}

// ListPostsInput filters a post listing.
type ListPostsInput struct {
	Tags      []string
	ProfileID uint
	Limit     int
	Offset    int
}

// NewPostService returns a new PostService.
func NewPostService(
	posts repository.PostRepository,
	profiles repository.ProfileRepository,
	likes repository.LikeRepository,
	comments repository.CommentRepository,
	images ImageStore,
	pol *policy.Policy,
	flags *featureflags.Manager,
) *PostService {
	return &PostService{
		authorizer: authorizer{policy: pol, flags: flags},
		posts:      posts,
		profiles:   profiles,
		likes:      likes,
		comments:   comments,
		images:     images,
	}
}

// ListPosts returns posts newest first in the compact list shape.
func (s *PostService) ListPosts(ctx context.Context, actor policy.Actor, in ListPostsInput) ([]views.PostListItem, error) {
	ctx, span := observability.StartSpan(ctx, "post", "list", actorAttrs(actor))
	defer span.End()

	if _, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourcePost, Action: policy.ActionList}); err != nil {
		return nil, err
	}
	posts, err := s.posts.List(ctx, repository.ListPostsFilter{
		Tags:      in.Tags,
		ProfileID: in.ProfileID,
		Limit:     in.Limit,
		Offset:    in.Offset,
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return views.PostList(posts, s.options(actor)), nil
}

// GetPost renders post id: the full shape for its author, read-only for
// everyone else.
func (s *PostService) GetPost(ctx context.Context, actor policy.Actor, id uint) (interface{}, error) {
	ctx, span := observability.StartSpan(ctx, "post", "retrieve", actorAttrs(actor))
	defer span.End()

	if err := s.admit(ctx, span, actor, policy.ResourcePost, policy.ActionRetrieve); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	shape, err := s.authorize(ctx, span, ownedRequest(actor, policy.ResourcePost, policy.ActionRetrieve, post.UserID))
	if err != nil {
		return nil, err
	}
	return views.Post(post, shape, s.options(actor)), nil
}

// CreatePost files a post under the actor's profile and links its tags.
func (s *PostService) CreatePost(ctx context.Context, actor policy.Actor, in CreatePostInput) (result interface{}, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "create", actorAttrs(actor))
	defer func() {
		span.Finish(err)
		observability.RecordAction("post.create", err)
	}()

	shape, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourcePost, Action: policy.ActionCreate})
	if err != nil {
		return nil, err
	}
	profile, err := actorProfile(ctx, s.profiles, actor)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:      actor.UserID,
		ProfileID:   profile.ID,
		Description: cleanText(in.Description),
	}
	saved := false
	switch {
	case in.Image != nil:
		ref, err := s.images.Save(ctx, storage.CategoryPostImages, actor.Username, *in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = ref
		saved = true
	case strings.TrimSpace(in.ImageRef) != "":
		ref, err := s.claimImage(actor.Username, in.ImageRef)
		if err != nil {
			return nil, err
		}
		post.Image = ref
	default:
		return nil, models.NewValidationError("Image is required")
	}

	if err := s.posts.Create(ctx, post, cleanTags(in.Tags)); err != nil {
		if saved {
			discardImage(ctx, s.images, storage.CategoryPostImages, actor.Username, post.Image)
		}
		return nil, err
	}

	created, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "post created",
		slog.Uint64("post_id", uint64(created.ID)),
		slog.Uint64("profile_id", uint64(profile.ID)))
	return views.Post(created, shape, s.options(actor)), nil
}

// UpdatePost applies a full (partial=false) or partial update. Only the
// author or staff may update.
func (s *PostService) UpdatePost(ctx context.Context, actor policy.Actor, id uint, in UpdatePostInput, partial bool) (result interface{}, err error) {
	action := policy.ActionUpdate
	if partial {
		action = policy.ActionPartialUpdate
	}
	ctx, span := observability.StartSpan(ctx, "post", string(action), actorAttrs(actor))
	defer func() {
		span.Finish(err)
		observability.RecordAction("post."+string(action), err)
	}()

	if err := s.admit(ctx, span, actor, policy.ResourcePost, action); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	shape, err := s.authorize(ctx, span, ownedRequest(actor, policy.ResourcePost, action, post.UserID))
	if err != nil {
		return nil, err
	}

	if in.Description == nil && !partial {
		return nil, models.NewValidationError("Description is required")
	}
	if in.Description != nil {
		post.Description = cleanText(*in.Description)
	}

	oldImage := post.Image
	switch {
	case in.Image != nil:
		ref, err := s.images.Save(ctx, storage.CategoryPostImages, post.User.Username, *in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = ref
	case in.ImageRef != nil && strings.TrimSpace(*in.ImageRef) != "":
		ref, err := s.claimImage(post.User.Username, *in.ImageRef)
		if err != nil {
			return nil, err
		}
		post.Image = ref
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if in.Image != nil {
			discardImage(ctx, s.images, storage.CategoryPostImages, post.User.Username, post.Image)
		}
		return nil, err
	}
	if post.Image != oldImage {
		s.releaseImage(ctx, post.User.Username, oldImage)
	}

	updated, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return views.Post(updated, shape, s.options(actor)), nil
}

// DeletePost removes the post with its likes, comments and tag links.
func (s *PostService) DeletePost(ctx context.Context, actor policy.Actor, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "post", "destroy", actorAttrs(actor))
	defer func() {
		span.Finish(err)
		observability.RecordAction("post.destroy", err)
	}()

	if err := s.admit(ctx, span, actor, policy.ResourcePost, policy.ActionDestroy); err != nil {
		return err
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, span, ownedRequest(actor, policy.ResourcePost, policy.ActionDestroy, post.UserID)); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.releaseImage(ctx, post.User.Username, post.Image)
	return nil
}

// claimImage accepts an existing image ref for a post by owner.
func (s *PostService) claimImage(owner, ref string) (string, error) {
	if s.images == nil {
		return "", models.NewValidationError("Image uploads are not available")
	}
	return s.images.Claim(storage.CategoryPostImages, owner, ref)
}

// releaseImage removes a post image once no post points at it.
func (s *PostService) releaseImage(ctx context.Context, owner, ref string) {
	if ref == "" {
		return
	}
	inUse, err := s.posts.ImageInUse(ctx, ref)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to check image references",
			slog.String("ref", ref), slog.String("error", err.Error()))
		return
	}
	if !inUse {
		discardImage(ctx, s.images, storage.CategoryPostImages, owner, ref)
	}
}

// AddTag gets or creates the tag named name and links it to the post.
func (s *PostService) AddTag(ctx context.Context, actor policy.Actor, postID uint, name string) (result interface{}, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "add_tag",
		actorAttrs(actor), attribute.Int64("post.id", int64(postID)))
	defer func() {
		span.Finish(err)
		observability.RecordAction("post.add_tag", err)
	}()

	if err := s.admit(ctx, span, actor, policy.ResourcePost, policy.ActionAddTag); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	shape, err := s.authorize(ctx, span, ownedRequest(actor, policy.ResourcePost, policy.ActionAddTag, post.UserID))
	if err != nil {
		return nil, err
	}

	name = cleanText(name)
	if name == "" {
		return nil, models.NewValidationError("Tag name is required")
	}
	if _, err := s.posts.AttachTag(ctx, postID, name); err != nil {
		return nil, err
	}

	updated, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return views.Post(updated, shape, s.options(actor)), nil
}

// Like records the actor's like on post id. A second like fails
// ALREADY_LIKED.
func (s *PostService) Like(ctx context.Context, actor policy.Actor, postID uint) (result *views.ActionResult, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "add_like",
		actorAttrs(actor), attribute.Int64("post.id", int64(postID)))
	defer func() {
		span.Finish(err)
		observability.RecordAction("post.add_like", err)
	}()

	if _, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourcePost, Action: policy.ActionAddLike}); err != nil {
		return nil, err
	}
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	like, err := createLike(ctx, s.likes, actor, postID)
	if err != nil {
		return nil, err
	}
	view := views.Like(like)
	return &views.ActionResult{Detail: "You liked this post", Like: &view}, nil
}

// Unlike removes the actor's like on post id. Removing an absent like
// fails NOT_LIKED.
func (s *PostService) Unlike(ctx context.Context, actor policy.Actor, postID uint) (result *views.ActionResult, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "remove_like",
		actorAttrs(actor), attribute.Int64("post.id", int64(postID)))
	defer func() {
		span.Finish(err)
		observability.RecordAction("post.remove_like", err)
	}()

	if _, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourcePost, Action: policy.ActionRemoveLike}); err != nil {
		return nil, err
	}
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	n, err := s.likes.DeleteByUserAndPost(ctx, actor.UserID, postID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, models.NewNotLikedError()
	}
	middleware.Logger.InfoContext(ctx, "post unliked",
		slog.Uint64("post_id", uint64(postID)),
		slog.Uint64("user_id", uint64(actor.UserID)))
	return &views.ActionResult{Detail: "You unliked this post"}, nil
}

// AddComment leaves a comment on post id. Trimmed content must not be
// empty.
func (s *PostService) AddComment(ctx context.Context, actor policy.Actor, postID uint, content string) (result *views.ActionResult, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "add_comment",
		actorAttrs(actor), attribute.Int64("post.id", int64(postID)))
	defer func() {
		span.Finish(err)
		observability.RecordAction("post.add_comment", err)
	}()

	if _, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourcePost, Action: policy.ActionAddComment}); err != nil {
		return nil, err
	}
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comment, err := createComment(ctx, s.comments, actor, postID, content)
	if err != nil {
		return nil, err
	}
	view := views.Comment(comment)
	return &views.ActionResult{Detail: "You left a comment on this post", Comment: &view}, nil
}
