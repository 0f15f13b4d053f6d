package service

import (
	"context"

	"profilegraph/internal/featureflags"
	"profilegraph/internal/models"
	"profilegraph/internal/observability"
	"profilegraph/internal/policy"
	"profilegraph/internal/repository"
	"profilegraph/internal/views"
)

// CommentService serves the standalone comment resource.
type CommentService struct {
	authorizer
	posts    repository.PostRepository
	comments repository.CommentRepository
}

// NewCommentService returns a new CommentService.
func NewCommentService(posts repository.PostRepository, comments repository.CommentRepository, pol *policy.Policy, flags *featureflags.Manager) *CommentService {
	return &CommentService{
		authorizer: authorizer{policy: pol, flags: flags},
		posts:      posts,
		comments:   comments,
	}
}

// CreateComment comments on the post named in the body.
func (s *CommentService) CreateComment(ctx context.Context, actor policy.Actor, postID uint, content string) (result *views.CommentView, err error) {
	ctx, span := observability.StartSpan(ctx, "comment", "create", actorAttrs(actor))
	defer func() {
		span.Finish(err)
		observability.RecordAction("comment.create", err)
	}()

	if _, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourceComment, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}
	if err := postExists(ctx, s.posts, postID); err != nil {
		return nil, err
	}
	comment, err := createComment(ctx, s.comments, actor, postID, content)
	if err != nil {
		return nil, err
	}
	view := views.Comment(comment)
	return &view, nil
}

// ListComments returns the comments on post id, oldest first.
func (s *CommentService) ListComments(ctx context.Context, actor policy.Actor, postID uint) ([]views.CommentView, error) {
	ctx, span := observability.StartSpan(ctx, "comment", "list", actorAttrs(actor))
	defer span.End()

	if _, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourceComment, Action: policy.ActionList}); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	out := make([]views.CommentView, 0, len(comments))
	for i := range comments {
		out = append(out, views.Comment(&comments[i]))
	}
	return out, nil
}

func createComment(ctx context.Context, comments repository.CommentRepository, actor policy.Actor, postID uint, content string) (*models.Comment, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	content = cleanText(content)
	if content == "" {
		return nil, models.NewValidationError("Comment content cannot be empty")
	}
	comment := &models.Comment{UserID: actor.UserID, PostID: postID, Content: content}
	if err := comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.User = models.User{ID: actor.UserID, Username: actor.Username}
	return comment, nil
}
