package repository

import (
	"context"
	"strings"

	"profilegraph/internal/cache"
	"profilegraph/internal/database"
	"profilegraph/internal/models"
	"profilegraph/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListPostsFilter narrows a post listing. A post matches Tags when any of
// its tag names contains any of the given strings, case-insensitively.
type ListPostsFilter struct {
	Tags      []string
	ProfileID uint
	Limit     int
	Offset    int
}

// PostRepository is the content store for posts and their tag links.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tagNames []string) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter ListPostsFilter) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	AttachTag(ctx context.Context, postID uint, name string) (*models.Tag, error)
	ImageInUse(ctx context.Context, ref string) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts post and links its tags in one transaction. The post's
// author must be the owner of the profile it is filed under.
func (r *postRepository) Create(ctx context.Context, post *models.Post, tagNames []string) error {
	defer observability.TrackQuery("create", "posts")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		if err := tx.Select("id", "user_id").First(&profile, post.ProfileID).Error; err != nil {
			return notFoundOr(err, "Profile", post.ProfileID)
		}
		if profile.UserID != post.UserID {
			return models.NewForbiddenError("Posts can only be filed under the author's own profile")
		}

		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return internal(err)
		}

		for _, name := range uniqueNames(tagNames) {
			if _, err := linkTag(tx, post.ID, name); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil && len(tagNames) > 0 {
		cache.InvalidateTags(ctx)
	}
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("get", "posts")()

	var post models.Post
	err := preloadPostDetail(r.db.WithContext(ctx), "", true).
		Select(postColumns).
		First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter ListPostsFilter) ([]models.Post, error) {
	defer observability.TrackQuery("list", "posts")()

	limit, offset := clampPage(filter.Limit, filter.Offset)
	q := preloadPostDetail(r.db.WithContext(ctx), "", false).Select(postColumns)

	if filter.ProfileID != 0 {
		q = q.Where("posts.profile_id = ?", filter.ProfileID)
	}

	var (
		conds []string
		args  []interface{}
	)
	for _, tag := range filter.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			conds = append(conds, `LOWER(tags.name) LIKE ? ESCAPE '\'`)
			args = append(args, containsPattern(tag))
		}
	}
	if len(conds) > 0 {
		matching := r.db.Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where(strings.Join(conds, " OR "), args...)
		q = q.Where("posts.id IN (?)", matching)
	}

	var posts []models.Post
	err := q.Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, internal(err)
	}
	return posts, nil
}

// Update writes description and image. created_at is write-once at the
// model level.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", post.ID).
		Select("description", "image").
		Updates(map[string]interface{}{
			"description": post.Description,
			"image":       post.Image,
		})
	if res.Error != nil {
		return internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

// Delete removes the post with its likes, comments and tag links.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return internal(err)
		}
		if count == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return internal(deletePosts(tx, []uint{id}))
	})
}

// ImageInUse reports whether any post still points at ref.
func (r *postRepository) ImageInUse(ctx context.Context, ref string) (bool, error) {
	defer observability.TrackQuery("count", "posts")()

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("image = ?", ref).Count(&count).Error; err != nil {
		return false, internal(err)
	}
	return count > 0, nil
}

// AttachTag gets or creates the tag named name and links it to the post.
// Linking an already linked tag is a no-op.
func (r *postRepository) AttachTag(ctx context.Context, postID uint, name string) (*models.Tag, error) {
	var tag *models.Tag
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tag, err = linkTag(tx, postID, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateTags(ctx)
	return tag, nil
}

func linkTag(tx *gorm.DB, postID uint, name string) (*models.Tag, error) {
	tag, err := getOrCreateTag(tx, name)
	if err != nil {
		return nil, err
	}
	err = tx.Table("post_tags").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]interface{}{"post_id": postID, "tag_id": tag.ID}).Error
	if err != nil && !database.IsUniqueViolation(err) {
		return nil, internal(err)
	}
	return tag, nil
}

// getOrCreateTag returns the oldest tag with exactly this name, creating
// one when none exists.
func getOrCreateTag(tx *gorm.DB, name string) (*models.Tag, error) {
	var tag models.Tag
	err := tx.Where("name = ?", name).Order("id").First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !database.IsNotFound(err) {
		return nil, internal(err)
	}
	tag = models.Tag{Name: name}
	if err := tx.Create(&tag).Error; err != nil {
		return nil, internal(err)
	}
	return &tag, nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
