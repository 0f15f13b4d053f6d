package repository

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"profilegraph/internal/models"
	"profilegraph/internal/testutil"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeRepository_CreateTwiceIsAlreadyLiked(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	aliceUser := testutil.CreateUser(t, db, "alice", false)
	post := testutil.CreatePost(t, db, testutil.CreateProfile(t, db, aliceUser, ""), "")

	require.NoError(t, repo.Create(ctx, &models.Like{UserID: aliceUser.ID, PostID: post.ID}))

	err := repo.Create(ctx, &models.Like{UserID: aliceUser.ID, PostID: post.ID})
	assert.True(t, models.HasCode(err, models.CodeAlreadyLiked), "got %v", err)
	assert.Equal(t, int64(1), countRows(t, db, "likes"))
}

func TestLikeRepository_CreateConcurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLikeRepository(db)
	aliceUser := testutil.CreateUser(t, db, "alice", false)
	post := testutil.CreatePost(t, db, testutil.CreateProfile(t, db, aliceUser, ""), "")

	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		conflict int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(context.Background(), &models.Like{UserID: aliceUser.ID, PostID: post.ID})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if models.HasCode(err, models.CodeAlreadyLiked) {
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflict)
	assert.Equal(t, int64(1), countRows(t, db, "likes"))
}

func TestLikeRepository_DeleteByUserAndPost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	aliceUser := testutil.CreateUser(t, db, "alice", false)
	post := testutil.CreatePost(t, db, testutil.CreateProfile(t, db, aliceUser, ""), "")

	like := &models.Like{UserID: aliceUser.ID, PostID: post.ID}
	require.NoError(t, repo.Create(ctx, like))

	got, err := repo.GetByUserAndPost(ctx, aliceUser.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, like.ID, got.ID)
	assert.Equal(t, "alice", got.User.Username)

	n, err := repo.DeleteByUserAndPost(ctx, aliceUser.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByUserAndPost(ctx, aliceUser.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = repo.GetByID(ctx, like.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.True(t, models.HasCode(repo.Delete(ctx, like.ID), models.CodeNotFound))
}

func TestLikeRepository_CreatePostgresUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "likes"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_likes_user_post"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Like{UserID: 1, PostID: 2})
	assert.True(t, models.HasCode(err, models.CodeAlreadyLiked), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
