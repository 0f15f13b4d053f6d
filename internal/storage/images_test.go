package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"profilegraph/internal/config"
	"profilegraph/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageStore_Save(t *testing.T) {
	root := t.TempDir()
	store := NewImageStore(&config.Config{MediaRoot: root, ImageMaxUploadSizeMB: 1})

	ref, err := store.Save(context.Background(), CategoryPostImages, "alice", Upload{Filename: "trip.png", Content: pngBytes(t)})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^post_images/alice-[0-9a-f-]{36}\.png$`), ref)
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(ref)))
	assert.NoError(t, err)

	require.NoError(t, store.Remove(ref))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(ref)))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Remove(ref))
}

func TestImageStore_SaveRejects(t *testing.T) {
	store := NewImageStore(&config.Config{MediaRoot: t.TempDir(), ImageMaxUploadSizeMB: 1})

	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"text", []byte("definitely not an image")},
		{"too large", bytes.Repeat([]byte{0}, 2*1024*1024)},
		{"truncated png", pngBytes(t)[:16]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(context.Background(), CategoryProfilePictures, "bob", Upload{Content: tt.content})
			assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
		})
	}
}

func TestImageStore_OwnsAndClaim(t *testing.T) {
	store := NewImageStore(&config.Config{MediaRoot: t.TempDir(), ImageMaxUploadSizeMB: 1})
	ref, err := store.Save(context.Background(), CategoryPostImages, "alice", Upload{Content: pngBytes(t)})
	require.NoError(t, err)

	assert.True(t, store.Owns(CategoryPostImages, "alice", ref))
	assert.False(t, store.Owns(CategoryPostImages, "bob", ref))
	assert.False(t, store.Owns(CategoryProfilePictures, "alice", ref))
	assert.False(t, store.Owns(CategoryPostImages, "ali", ref))

	claimed, err := store.Claim(CategoryPostImages, "alice", " "+ref+" ")
	require.NoError(t, err)
	assert.Equal(t, ref, claimed)

	tests := []struct {
		name     string
		username string
		ref      string
	}{
		{"other user", "bob", ref},
		{"free form path", "alice", "post_images/a.png"},
		{"traversal", "alice", "post_images/alice-../../etc/passwd"},
		{"missing file", "alice", "post_images/alice-00000000-0000-0000-0000-000000000000.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Claim(CategoryPostImages, tt.username, tt.ref)
			assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
		})
	}
}

func TestSafeUsername(t *testing.T) {
	assert.Equal(t, "alice", safeUsername("alice"))
	assert.Equal(t, "a_b", safeUsername("a/b"))
	assert.Equal(t, "user", safeUsername(""))
}
