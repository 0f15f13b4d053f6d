// Package repository implements the data access layer for the application.
package repository

import (
	"strings"

	"profilegraph/internal/database"
	"profilegraph/internal/models"

	"gorm.io/gorm"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// postColumns selects a post with its comment count.
const postColumns = "posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count"

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// containsPattern builds a LIKE pattern matching s anywhere, lower-cased,
// with LIKE wildcards in s escaped.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// internal wraps an unexpected store error, passing AppErrors through.
func internal(err error) error {
	if err == nil {
		return nil
	}
	if models.CodeOf(err) != "" {
		return err
	}
	return models.NewInternalError(err)
}

func notFoundOr(err error, resource string, id interface{}) error {
	if database.IsNotFound(err) {
		return models.NewNotFoundError(resource, id)
	}
	return internal(err)
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// preloadPostDetail loads everything a post view renders. Comments are
// only loaded when withComments is set.
func preloadPostDetail(db *gorm.DB, prefix string, withComments bool) *gorm.DB {
	db = db.Preload(prefix+"User").
		Preload(prefix+"Tags", orderByID).
		Preload(prefix+"Likes", orderByID).
		Preload(prefix + "Likes.User")
	if withComments {
		db = db.Preload(prefix+"Comments", orderByID).Preload(prefix + "Comments.User")
	}
	return db
}

// deletePosts removes posts and their likes, comments and tag links.
func deletePosts(tx *gorm.DB, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	steps := []func() error{
		func() error { return tx.Where("post_id IN ?", postIDs).Delete(&models.Like{}).Error },
		func() error { return tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error },
		func() error { return tx.Exec("DELETE FROM post_tags WHERE post_id IN ?", postIDs).Error },
		func() error { return tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
