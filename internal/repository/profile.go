package repository

import (
	"context"

	"profilegraph/internal/database"
	"profilegraph/internal/models"
	"profilegraph/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListProfilesFilter narrows a profile listing. Username matches
// case-insensitively anywhere in the owner's username.
type ListProfilesFilter struct {
	Username string
	Limit    int
	Offset   int
}

// ProfileRepository is the social graph store.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	List(ctx context.Context, filter ListProfilesFilter) ([]models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, id uint) error
	Follow(ctx context.Context, source, target *models.Profile) error
	Unfollow(ctx context.Context, source, target *models.Profile) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Create inserts profile. The unique index on user_id decides duplicates,
// so concurrent creates for one user leave exactly one row.
func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	defer observability.TrackQuery("create", "profiles")()

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(profile).Error
	if database.IsUniqueViolation(err) {
		return models.NewConflictError(models.CodeDuplicateProfile, "A profile already exists for this user")
	}
	return internal(err)
}

func (r *profileRepository) detail(ctx context.Context) *gorm.DB {
	return preloadPostDetail(
		r.db.WithContext(ctx).
			Preload("User").
			Preload("Followers", orderByID).
			Preload("Following", orderByID).
			Preload("Posts", func(db *gorm.DB) *gorm.DB {
				return db.Select(postColumns).Order("posts.created_at DESC, posts.id DESC")
			}),
		"Posts.", false,
	)
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	defer observability.TrackQuery("get", "profiles")()

	var profile models.Profile
	if err := r.detail(ctx).First(&profile, id).Error; err != nil {
		return nil, notFoundOr(err, "Profile", id)
	}
	return &profile, nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.detail(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFoundOr(err, "Profile for user", userID)
	}
	return &profile, nil
}

func (r *profileRepository) List(ctx context.Context, filter ListProfilesFilter) ([]models.Profile, error) {
	defer observability.TrackQuery("list", "profiles")()

	limit, offset := clampPage(filter.Limit, filter.Offset)
	q := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Select("profiles.*").
		Joins("JOIN users ON users.id = profiles.user_id")
	if filter.Username != "" {
		q = q.Where(`LOWER(users.username) LIKE ? ESCAPE '\'`, containsPattern(filter.Username))
	}

	var profiles []models.Profile
	err := q.Preload("User").
		Preload("Followers").
		Preload("Following").
		Order("profiles.id").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error
	if err != nil {
		return nil, internal(err)
	}
	return profiles, nil
}

// Update writes bio and profile_picture. The owning user is never changed.
func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	res := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profile.ID).
		Select("bio", "profile_picture").
		Updates(map[string]interface{}{
			"bio":             profile.Bio,
			"profile_picture": profile.ProfilePicture,
		})
	if res.Error != nil {
		return internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", profile.ID)
	}
	return nil
}

// Delete removes the profile, its posts (with their likes, comments and tag
// links), its own follow rows, and every edge other profiles hold to its
// user, in one transaction.
func (r *profileRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "profiles")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.Profile
		if err := tx.Select("id", "user_id").First(&profile, id).Error; err != nil {
			return notFoundOr(err, "Profile", id)
		}

		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("profile_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return internal(err)
		}
		if err := deletePosts(tx, postIDs); err != nil {
			return internal(err)
		}

		for _, table := range []string{"profile_followers", "profile_following"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE profile_id = ? OR user_id = ?", id, profile.UserID).Error; err != nil {
				return internal(err)
			}
		}

		return internal(tx.Delete(&models.Profile{}, id).Error)
	})
}

func insertEdge(tx *gorm.DB, table string, profileID, userID uint) error {
	return tx.Table(table).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]interface{}{"profile_id": profileID, "user_id": userID}).Error
}

// Follow records source -> target on both sides of the graph: target's user
// joins source.following and source's user joins target.followers. Existing
// edges are left as they are.
func (r *profileRepository) Follow(ctx context.Context, source, target *models.Profile) error {
	defer observability.TrackQuery("follow", "profiles")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertEdge(tx, "profile_following", source.ID, target.UserID); err != nil {
			return internal(err)
		}
		return internal(insertEdge(tx, "profile_followers", target.ID, source.UserID))
	})
}

// Unfollow removes both sides of source -> target. Missing edges are not an
// error.
func (r *profileRepository) Unfollow(ctx context.Context, source, target *models.Profile) error {
	defer observability.TrackQuery("unfollow", "profiles")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM profile_following WHERE profile_id = ? AND user_id = ?", source.ID, target.UserID).Error; err != nil {
			return internal(err)
		}
		return internal(tx.Exec("DELETE FROM profile_followers WHERE profile_id = ? AND user_id = ?", target.ID, source.UserID).Error)
	})
}
