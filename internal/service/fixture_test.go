package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"profilegraph/internal/config"
	"profilegraph/internal/featureflags"
	"profilegraph/internal/models"
	"profilegraph/internal/policy"
	"profilegraph/internal/repository"
	"profilegraph/internal/storage"
	"profilegraph/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	images   *storage.ImageStore
	profiles *ProfileService
	posts    *PostService
	likes    *LikeService
	comments *CommentService
	tags     *TagService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	images := storage.NewImageStore(&config.Config{MediaRoot: t.TempDir(), ImageMaxUploadSizeMB: 1})
	pol := policy.New(config.DefaultPublicActions)
	flags := featureflags.NewManager("like_summary=on")

	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	return &fixture{
		db:       db,
		images:   images,
		profiles: NewProfileService(profileRepo, images, pol, flags),
		posts:    NewPostService(postRepo, profileRepo, likeRepo, commentRepo, images, pol, flags),
		likes:    NewLikeService(postRepo, likeRepo, pol, flags),
		comments: NewCommentService(postRepo, commentRepo, pol, flags),
		tags:     NewTagService(repository.NewTagRepository(db), pol, flags),
	}
}

// member creates a user with a profile and returns the user's actor.
func (f *fixture) member(t *testing.T, username string) (policy.Actor, *models.Profile) {
	t.Helper()
	u := testutil.CreateUser(t, f.db, username, false)
	p := testutil.CreateProfile(t, f.db, u, username+"'s bio")
	return actorOf(u), p
}

func actorOf(u *models.User) policy.Actor {
	return policy.Actor{UserID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}

// storedImage saves a PNG for username and returns its post image ref.
func (f *fixture) storedImage(t *testing.T, username string) string {
	t.Helper()
	ref, err := f.images.Save(context.Background(), storage.CategoryPostImages, username, *pngUpload(t))
	require.NoError(t, err)
	return ref
}

func pngUpload(t *testing.T) *storage.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &storage.Upload{Filename: "pic.png", Content: buf.Bytes()}
}
