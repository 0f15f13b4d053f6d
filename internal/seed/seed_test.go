package seed

import (
	"context"
	"testing"

	"profilegraph/internal/models"
	"profilegraph/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoScenarioApplies(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	scn, err := DemoScenario()
	require.NoError(t, err)

	res, err := NewSeeder(db).Apply(context.Background(), scn)
	require.NoError(t, err)

	assert.Len(t, res.Users, 4)
	assert.Len(t, res.Profiles, 3)
	assert.Len(t, res.Posts, 3)
	assert.True(t, res.Users["moderator"].IsStaff)

	var alice models.Profile
	require.NoError(t, db.Preload("Followers").First(&alice, res.Profiles["alice"].ID).Error)
	assert.Len(t, alice.Followers, 2)

	var likes int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", res.Posts["alice-harbour"].ID).Count(&likes).Error)
	assert.Equal(t, int64(2), likes)
}

func TestParseScenarioRejectsDanglingReferences(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "posts without profile", doc: "users:\n  - username: a\n    posts:\n      - key: p\n"},
		{name: "duplicate user", doc: "users:\n  - username: a\n  - username: a\n"},
		{name: "follow without profile", doc: "users:\n  - username: a\n    bio: x\n  - username: b\nfollows:\n  - {from: a, to: b}\n"},
		{name: "like unknown post", doc: "users:\n  - username: a\nlikes:\n  - {user: a, post: nope}\n"},
		{name: "not yaml", doc: "users: [::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestRandomScenarioIsConsistent(t *testing.T) {
	scn := Random(6, 12, 42)
	require.NoError(t, scn.Validate())
	assert.Len(t, scn.Users, 6)

	posts := 0
	for _, u := range scn.Users {
		posts += len(u.Posts)
	}
	assert.Equal(t, 12, posts)

	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db)
	_, err := s.Apply(context.Background(), scn)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll())
	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
