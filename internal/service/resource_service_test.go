package service

import (
	"context"
	"testing"

	"profilegraph/internal/models"
	"profilegraph/internal/policy"
	"profilegraph/internal/testutil"
	"profilegraph/internal/views"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.member(t, "alice")
	bob, _ := f.member(t, "bob")
	staff := actorOf(testutil.CreateUser(t, f.db, "admin", true))

	created, err := f.posts.CreatePost(ctx, alice, CreatePostInput{ImageRef: f.storedImage(t, "alice")})
	require.NoError(t, err)
	postID := created.(views.PostDetail).ID

	_, err = f.likes.CreateLike(ctx, bob, 0)
	assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
	_, err = f.likes.CreateLike(ctx, bob, 999)
	assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
	_, err = f.likes.CreateLike(ctx, policy.Actor{}, postID)
	assert.True(t, models.HasCode(err, models.CodeUnauthenticated), "got %v", err)

	like, err := f.likes.CreateLike(ctx, bob, postID)
	require.NoError(t, err)
	assert.Equal(t, postID, like.PostID)

	_, err = f.posts.Like(ctx, bob, postID)
	assert.True(t, models.HasCode(err, models.CodeAlreadyLiked))

	assert.True(t, models.HasCode(f.likes.DeleteLike(ctx, alice, like.ID), models.CodeForbidden))
	assert.True(t, models.HasCode(f.likes.DeleteLike(ctx, bob, 999), models.CodeNotFound))
	require.NoError(t, f.likes.DeleteLike(ctx, bob, like.ID))

	again, err := f.likes.CreateLike(ctx, bob, postID)
	require.NoError(t, err)
	require.NoError(t, f.likes.DeleteLike(ctx, staff, again.ID))
}

func TestCommentService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.member(t, "alice")

	created, err := f.posts.CreatePost(ctx, alice, CreatePostInput{ImageRef: f.storedImage(t, "alice")})
	require.NoError(t, err)
	postID := created.(views.PostDetail).ID

	_, err = f.comments.CreateComment(ctx, alice, 999, "hi")
	assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
	_, err = f.comments.CreateComment(ctx, alice, postID, "")
	assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
	_, err = f.comments.CreateComment(ctx, policy.Actor{}, postID, "hi")
	assert.True(t, models.HasCode(err, models.CodeUnauthenticated), "got %v", err)

	for _, c := range []string{"one", "two"} {
		comment, err := f.comments.CreateComment(ctx, alice, postID, c)
		require.NoError(t, err)
		assert.Equal(t, "alice", comment.Author)
	}

	list, err := f.comments.ListComments(ctx, alice, postID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].Content)

	_, err = f.comments.ListComments(ctx, alice, 999)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestTagService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := f.member(t, "alice")

	_, err := f.tags.CreateTag(ctx, policy.Actor{}, "art")
	assert.True(t, models.HasCode(err, models.CodeUnauthenticated), "got %v", err)
	_, err = f.tags.CreateTag(ctx, alice, " \t ")
	assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)

	first, err := f.tags.CreateTag(ctx, alice, "art")
	require.NoError(t, err)
	second, err := f.tags.CreateTag(ctx, alice, "art")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	tags, err := f.tags.ListTags(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []views.TagView{*first, *second}, tags)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain  ", "plain"},
		{"if a<b then c", "if a<b then c"},
		{"x<y", "x<y"},
		{"use <tag> names", "use <tag> names"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;", "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{"Tom & Jerry", "Tom & Jerry"},
		{"nul\x00byte", "nulbyte"},
		{"bad\xffutf8", "badutf8"},
		{" \t\n", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanText(tt.in), "input %q", tt.in)
	}

	assert.Equal(t, []string{"a", "<i>b</i>", "a"}, cleanTags([]string{" a", "", "<i>b</i>", "a", "  "}))
}
