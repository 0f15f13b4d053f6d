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

// TagService serves the tag resource. Tag names are not unique.
type TagService struct {
	authorizer
	tags repository.TagRepository
}

// NewTagService returns a new TagService.
func NewTagService(tags repository.TagRepository, pol *policy.Policy, flags *featureflags.Manager) *TagService {
	return &TagService{
		authorizer: authorizer{policy: pol, flags: flags},
		tags:       tags,
	}
}

func (s *TagService) ListTags(ctx context.Context, actor policy.Actor) ([]views.TagView, error) {
	ctx, span := observability.StartSpan(ctx, "tag", "list", actorAttrs(actor))
	defer span.End()

	if _, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourceTag, Action: policy.ActionList}); err != nil {
		return nil, err
	}
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, err
	}
	return views.Tags(tags), nil
}

// CreateTag always inserts a new tag, even when one with the same name
// exists.
func (s *TagService) CreateTag(ctx context.Context, actor policy.Actor, name string) (result *views.TagView, err error) {
	ctx, span := observability.StartSpan(ctx, "tag", "create", actorAttrs(actor))
	defer func() {
		span.Finish(err)
		observability.RecordAction("tag.create", err)
	}()

	if _, err := s.authorize(ctx, span, policy.Request{Actor: actor, Resource: policy.ResourceTag, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}
	name = cleanText(name)
	if name == "" {
		return nil, models.NewValidationError("Tag name is required")
	}
	tag := &models.Tag{Name: name}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, err
	}
	return &views.TagView{ID: tag.ID, Name: tag.Name}, nil
}
