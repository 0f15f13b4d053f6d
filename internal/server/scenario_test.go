package server

import (
	"fmt"
	"net/http"
	"testing"

	"profilegraph/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliceAndBobScenario(t *testing.T) {
	ts := newTestServer(t)
	alice := testutil.CreateUser(t, ts.db, "alice", false)
	bob := testutil.CreateUser(t, ts.db, "bob", false)
	aliceTok, bobTok := ts.token(t, alice), ts.token(t, bob)

	// Profiles
	resp := ts.do(t, http.MethodPost, "/api/profile", aliceTok, map[string]string{"bio": "  hi <3 from alice "})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	aliceProfile := decodeMap(t, resp)
	assert.Equal(t, "hi <3 from alice", aliceProfile["bio"])
	assert.Equal(t, true, aliceProfile["editable"])
	aliceProfileID := uint(aliceProfile["id"].(float64))

	resp = ts.do(t, http.MethodPost, "/api/profile", bobTok, map[string]string{"bio": "bob here"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bobProfileID := uint(decodeMap(t, resp)["id"].(float64))

	resp = ts.do(t, http.MethodPost, "/api/profile", bobTok, map[string]string{"bio": "again"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_PROFILE", errorCode(t, resp))

	// Alice posts an image with two tags.
	req := multipartPost(t, "/api/post", map[string][]string{
		"description": {"First light"},
		"tags":        {"go", "Golang"},
	}, "image", pngBytes(t))
	resp = ts.send(t, req, aliceTok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := decodeMap(t, resp)
	postID := uint(post["id"].(float64))
	assert.Equal(t, "First light", post["description"])
	assert.ElementsMatch(t, []interface{}{"go", "Golang"}, post["tags"])
	assert.Regexp(t, `^post_images/alice-[0-9a-f-]{36}\.png$`, post["image"])

	resp = ts.do(t, http.MethodGet, "/media/"+post["image"].(string), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Tag filter is a case-insensitive substring match on any tag.
	resp = ts.do(t, http.MethodGet, "/api/post?tags=GO", bobTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeList(t, resp), 1)

	resp = ts.do(t, http.MethodGet, "/api/post?tags=rust", bobTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeList(t, resp))

	postPath := fmt.Sprintf("/api/post/%d", postID)

	// Likes
	resp = ts.do(t, http.MethodPost, postPath+"/add_like", bobTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "You liked this post", decodeMap(t, resp)["detail"])

	resp = ts.do(t, http.MethodPost, postPath+"/add_like", bobTok, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "ALREADY_LIKED", errorCode(t, resp))

	// Comments
	resp = ts.do(t, http.MethodPost, postPath+"/add_comment", bobTok, map[string]string{"content": "Nice shot"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "You left a comment on this post", decodeMap(t, resp)["detail"])

	resp = ts.do(t, http.MethodGet, postPath+"/comments", aliceTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := decodeList(t, resp)
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0]["author"])

	// Only the author edits.
	resp = ts.do(t, http.MethodPut, postPath, bobTok, map[string]string{"description": "hijacked"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, resp))

	resp = ts.do(t, http.MethodPatch, postPath, aliceTok, map[string]string{"description": "First light, edited"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decodeMap(t, resp)
	assert.Equal(t, "First light, edited", edited["description"])
	assert.Equal(t, post["created_at"], edited["created_at"])

	resp = ts.do(t, http.MethodGet, postPath, aliceTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeMap(t, resp)
	assert.Equal(t, true, detail["editable"])
	assert.Len(t, detail["comments"], 1)

	resp = ts.do(t, http.MethodGet, postPath, bobTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, decodeMap(t, resp), "editable")

	// Follow graph
	alicePath := fmt.Sprintf("/api/profile/%d", aliceProfileID)
	resp = ts.do(t, http.MethodPost, alicePath+"/follow", bobTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	follow := decodeMap(t, resp)
	target := follow["profile"].(map[string]interface{})
	self := follow["user_profile"].(map[string]interface{})
	assert.Equal(t, []interface{}{"bob"}, target["followers"])
	assert.Equal(t, []interface{}{"alice"}, self["following"])
	assert.Equal(t, float64(bobProfileID), self["id"])

	resp = ts.do(t, http.MethodPost, alicePath+"/follow", aliceTok, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "SELF_FOLLOW", errorCode(t, resp))

	for i := 0; i < 2; i++ {
		resp = ts.do(t, http.MethodPost, alicePath+"/unfollow", bobTok, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decodeMap(t, resp)["profile"].(map[string]interface{})["followers"])
	}

	// Unlike is not idempotent.
	resp = ts.do(t, http.MethodPost, postPath+"/remove_like", bobTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "You unliked this post", decodeMap(t, resp)["detail"])

	resp = ts.do(t, http.MethodPost, postPath+"/remove_like", bobTok, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "NOT_LIKED", errorCode(t, resp))

	// Profile visibility
	resp = ts.do(t, http.MethodGet, alicePath, aliceTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeMap(t, resp)["editable"])

	resp = ts.do(t, http.MethodGet, alicePath, bobTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bobView := decodeMap(t, resp)
	assert.NotContains(t, bobView, "editable")
	assert.Equal(t, float64(1), bobView["posts_count"])

	// Delete cascades to the post.
	resp = ts.do(t, http.MethodDelete, postPath, bobTok, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, postPath, aliceTok, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, postPath, aliceTok, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, resp))
}
