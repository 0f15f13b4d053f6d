package repository

import (
	"context"

	"profilegraph/internal/cache"
	"profilegraph/internal/models"

	"gorm.io/gorm"
)

// TagRepository stores tags. Names are not unique: Create always inserts,
// GetOrCreate reuses the oldest tag with the exact name.
type TagRepository interface {
	List(ctx context.Context) ([]models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	GetOrCreate(ctx context.Context, name string) (*models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := cache.Aside(ctx, cache.TagsListKey, &tags, cache.TagsTTL, func() error {
		return internal(r.db.WithContext(ctx).Order("id").Find(&tags).Error)
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return internal(err)
	}
	cache.InvalidateTags(ctx)
	return nil
}

func (r *tagRepository) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	tag, err := getOrCreateTag(r.db.WithContext(ctx), name)
	if err != nil {
		return nil, err
	}
	cache.InvalidateTags(ctx)
	return tag, nil
}
