// Package storage writes uploaded images under the media root and hands
// back the relative reference stored on profiles and posts.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"profilegraph/internal/config"
	"profilegraph/internal/models"
	"profilegraph/internal/observability"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Category is the top-level directory an image is filed under.
type Category string

const (
	CategoryProfilePictures Category = "profile_pictures"
	CategoryPostImages      Category = "post_images"
)

const (
	DefaultMediaRoot            = "media"
	DefaultImageMaxUploadSizeMB = 10
)

var extensionsByFormat = map[string]string{
	"jpeg": "jpg",
	"png":  "png",
	"gif":  "gif",
	"webp": "webp",
}

var (
	unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)
	refSuffix  = `-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.(jpg|png|gif|webp)$`
)

// Upload is an image received from a client.
type Upload struct {
	Filename string
	Content  []byte
}

// ImageStore saves images on the local filesystem.
type ImageStore struct {
	root         string
	maxSizeBytes int64
}

// NewImageStore builds a store rooted at cfg.MediaRoot.
func NewImageStore(cfg *config.Config) *ImageStore {
	root := DefaultMediaRoot
	maxMB := DefaultImageMaxUploadSizeMB
	if cfg != nil {
		if cfg.MediaRoot != "" {
			root = cfg.MediaRoot
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxMB = cfg.ImageMaxUploadSizeMB
		}
	}
	return &ImageStore{root: root, maxSizeBytes: int64(maxMB) * 1024 * 1024}
}

// Root returns the directory images are written under.
func (s *ImageStore) Root() string {
	return s.root
}

// Save validates up and writes it as <category>/<username>-<uuid>.<ext>,
// returning that relative reference.
func (s *ImageStore) Save(ctx context.Context, category Category, username string, up Upload) (string, error) {
	if len(up.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(up.Content)) > s.maxSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxSizeBytes/(1024*1024)))
	}

	ext, err := detectExtension(up.Content)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s.%s", safeUsername(username), uuid.NewString(), ext)
	ref := path.Join(string(category), name)

	dir := filepath.Join(s.root, string(category))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), up.Content, 0o644); err != nil {
		return "", models.NewInternalError(err)
	}

	observability.ImageUploadBytes.WithLabelValues(string(category)).Observe(float64(len(up.Content)))
	return ref, nil
}

// Owns reports whether ref has the shape Save generates for username under
// category.
func (s *ImageStore) Owns(category Category, username, ref string) bool {
	pattern := "^" + regexp.QuoteMeta(string(category)+"/"+safeUsername(username)) + refSuffix
	ok, _ := regexp.MatchString(pattern, ref)
	return ok
}

// Claim accepts an existing reference for a new row. The reference must
// have been generated for username under category and still be on disk.
func (s *ImageStore) Claim(category Category, username, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if !s.Owns(category, username, ref) {
		return "", models.NewValidationError("Image must be one of your uploaded images")
	}
	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(ref)))
	if err != nil || !info.Mode().IsRegular() {
		return "", models.NewValidationError("Image not found")
	}
	return ref, nil
}

// Remove deletes a previously saved reference. Missing files are ignored.
func (s *ImageStore) Remove(ref string) error {
	if ref == "" || strings.Contains(ref, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(ref)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func detectExtension(content []byte) (string, error) {
	if !strings.HasPrefix(http.DetectContentType(content), "image/") {
		return "", models.NewValidationError("Invalid image type")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	ext, ok := extensionsByFormat[format]
	if !ok {
		return "", models.NewValidationError("Unsupported image format")
	}
	return ext, nil
}

func safeUsername(username string) string {
	cleaned := unsafeName.ReplaceAllString(username, "_")
	if cleaned == "" {
		return "user"
	}
	return cleaned
}
