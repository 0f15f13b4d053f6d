package repository

import (
	"context"

	"profilegraph/internal/database"
	"profilegraph/internal/models"
	"profilegraph/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository stores likes. At most one like exists per (user, post).
type LikeRepository interface {
	Create(ctx context.Context, like *models.Like) error
	GetByID(ctx context.Context, id uint) (*models.Like, error)
	GetByUserAndPost(ctx context.Context, userID, postID uint) (*models.Like, error)
	Delete(ctx context.Context, id uint) error
	DeleteByUserAndPost(ctx context.Context, userID, postID uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Create inserts like. A second like by the same user fails ALREADY_LIKED;
// the unique index makes this hold under concurrent inserts too.
func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	defer observability.TrackQuery("create", "likes")()

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(like).Error
	if database.IsUniqueViolation(err) {
		return models.NewConflictError(models.CodeAlreadyLiked, "You have already liked this post")
	}
	return internal(err)
}

func (r *likeRepository) GetByID(ctx context.Context, id uint) (*models.Like, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).Preload("User").First(&like, id).Error; err != nil {
		return nil, notFoundOr(err, "Like", id)
	}
	return &like, nil
}

func (r *likeRepository) GetByUserAndPost(ctx context.Context, userID, postID uint) (*models.Like, error) {
	var like models.Like
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&like).Error
	if err != nil {
		return nil, notFoundOr(err, "Like", postID)
	}
	return &like, nil
}

func (r *likeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Like{}, id)
	if res.Error != nil {
		return internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Like", id)
	}
	return nil
}

// DeleteByUserAndPost removes the user's like on the post and reports how
// many rows went away (0 or 1).
func (r *likeRepository) DeleteByUserAndPost(ctx context.Context, userID, postID uint) (int64, error) {
	defer observability.TrackQuery("delete", "likes")()

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if res.Error != nil {
		return 0, internal(res.Error)
	}
	return res.RowsAffected, nil
}
