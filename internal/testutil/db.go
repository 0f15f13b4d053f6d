// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"profilegraph/internal/database"
	"profilegraph/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated sqlite database in a temp dir. One open
// connection keeps concurrent test writers serialized the way a single
// sqlite file needs.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profilegraph_test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a gateway user row.
func CreateUser(t testing.TB, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, IsStaff: staff}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateProfile inserts a profile for user.
func CreateProfile(t testing.TB, db *gorm.DB, user *models.User, bio string) *models.Profile {
	t.Helper()
	p := &models.Profile{UserID: user.ID, Bio: bio}
	require.NoError(t, db.Omit("User", "Followers", "Following", "Posts").Create(p).Error)
	p.User = *user
	return p
}

// CreatePost inserts a post under profile with no tags.
func CreatePost(t testing.TB, db *gorm.DB, profile *models.Profile, description string) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:      profile.UserID,
		ProfileID:   profile.ID,
		Image:       "post_images/test.png",
		Description: description,
	}
	require.NoError(t, db.Omit("User", "Tags", "Likes", "Comments").Create(p).Error)
	return p
}
