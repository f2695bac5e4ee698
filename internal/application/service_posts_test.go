package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viralforge/trender/internal/domain"
)

func TestCreatePostAssignsNextIDPerCreator(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := Actor{SubjectID: creator}

	first, err := f.service.CreatePost(ctx, alice, CreatePostInput{Title: "gm", Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.PostID)
	assert.Equal(t, f.now, first.PublishedAt)

	f.openPool(t, 1_000_000)
	f.now = f.now.Add(time.Minute)
	second, err := f.service.CreatePost(ctx, alice, CreatePostInput{Title: "gn", Content: "second"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.PostID)

	other, err := f.service.CreatePost(ctx, Actor{SubjectID: trader}, CreatePostInput{Title: "hi", Content: "bob"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), other.PostID)

	_, err = f.service.CreatePost(ctx, alice, CreatePostInput{Title: "no body"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.service.CreatePost(ctx, Actor{}, CreatePostInput{Title: "t", Content: "c"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestListPostsNewestFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	for _, actor := range []string{creator, trader, creator} {
		_, err := f.service.CreatePost(ctx, Actor{SubjectID: actor}, CreatePostInput{Title: "t", Content: actor})
		require.NoError(t, err)
		f.now = f.now.Add(time.Minute)
	}

	all, err := f.service.ListPosts(ctx, ListPostsInput{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.PostKey{Creator: creator, PostID: 2}, all[0].Key())
	assert.Equal(t, domain.PostKey{Creator: trader, PostID: 1}, all[1].Key())
	assert.Equal(t, domain.PostKey{Creator: creator, PostID: 1}, all[2].Key())

	mine, err := f.service.ListPosts(ctx, ListPostsInput{Creator: " " + creator + " "})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, uint64(2), mine[0].PostID)

	paged, err := f.service.ListPosts(ctx, ListPostsInput{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, trader, paged[0].Creator)
}

func TestCreatePoolPublishesPost(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := Actor{SubjectID: creator}

	pool, err := f.service.CreatePool(ctx, alice, CreatePoolInput{PostID: 3, Deposit: domain.NewAmount(1_000_000), Title: "drop", Content: "pool post"})
	require.NoError(t, err)
	bare := f.openPool(t, 1_000_000)

	views, err := f.service.PoolViews(ctx, []domain.Pool{pool, bare})
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.NotNil(t, views[0].Post)
	assert.Equal(t, "drop", views[0].Post.Title)
	assert.Equal(t, pool.PoolID, views[0].Post.PoolID())
	assert.Nil(t, views[1].Post)

	_, err = f.service.CreatePool(ctx, alice, CreatePoolInput{PostID: 4, Deposit: domain.NewAmount(1_000_000), Title: "no content"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.service.GetPool(ctx, domain.PoolAddress(creator, 4))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreatePoolWithTakenPostIsAtomic(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	alice := Actor{SubjectID: creator}
	post, err := f.service.CreatePost(ctx, alice, CreatePostInput{Title: "gm", Content: "first"})
	require.NoError(t, err)

	_, err = f.service.CreatePool(ctx, alice, CreatePoolInput{PostID: post.PostID, Deposit: domain.NewAmount(1_000_000), Title: "again", Content: "dup"})
	require.ErrorIs(t, err, domain.ErrConflict)
	_, err = f.service.GetPool(ctx, domain.PoolAddress(creator, post.PostID))
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, uint64(funding), f.balance(t, domain.UserAccount(creator)))

	pool, err := f.service.CreatePool(ctx, alice, CreatePoolInput{PostID: post.PostID, Deposit: domain.NewAmount(1_000_000)})
	require.NoError(t, err)
	views, err := f.service.PoolViews(ctx, []domain.Pool{pool})
	require.NoError(t, err)
	require.NotNil(t, views[0].Post)
	assert.Equal(t, "gm", views[0].Post.Title)
}
