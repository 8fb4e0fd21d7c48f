package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/repositories"
	"github.com/cppla/pubfeed/views"
)

func TestFollowIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "a")
	b := e.user(t, "b")

	require.NoError(t, e.dir.Follow(ctx, a.ID, b.ID))
	require.NoError(t, e.dir.Follow(ctx, a.ID, b.ID))

	var n int64
	require.NoError(t, e.db.Model(&models.Follow{}).Where("follower_id = ?", a.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	ok, err := e.dir.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, e.dir.Unfollow(ctx, a.ID, b.ID))
	require.NoError(t, e.dir.Unfollow(ctx, a.ID, b.ID), "unfollowing a non-member is a no-op")
	ok, err = e.dir.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowErrors(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "a")

	assert.True(t, apperr.Is(e.dir.Follow(ctx, a.ID, a.ID), apperr.Validation))
	assert.True(t, apperr.Is(e.dir.Follow(ctx, a.ID, 999), apperr.NotFound))

	_, err := e.dir.FollowByUsername(ctx, a.ID, "ghost")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestFollowByUsername(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "a")
	b := e.user(t, "b")

	target, err := e.dir.FollowByUsername(ctx, a.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, b.ID, target.ID)

	_, err = e.dir.UnfollowByUsername(ctx, a.ID, "b")
	require.NoError(t, err)
	ok, err := e.dir.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFavoriteReconcilesAndProjects(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	carol := e.user(t, "carol")
	p := e.post(t, alice, "Hello World")

	got, err := e.dir.Favorite(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.FavoritesCount)

	got, err = e.dir.Favorite(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.FavoritesCount, "favoriting twice keeps one membership")

	for _, tc := range []struct {
		name   string
		viewer uint
		want   bool
	}{
		{"favoriter", bob.ID, true},
		{"other", carol.ID, false},
		{"anonymous", 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rel, err := e.dir.PostRelations(ctx, tc.viewer, *got)
			require.NoError(t, err)
			v, err := views.Post(got, rel)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Favorited)
		})
	}

	got, err = e.dir.Unfavorite(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FavoritesCount)
	got, err = e.dir.Unfavorite(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FavoritesCount)
}

func TestFavoriteMissingPost(t *testing.T) {
	e := newEnv(t)
	bob := e.user(t, "bob")
	_, err := e.dir.Favorite(context.Background(), bob.ID, 42)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	_, err = e.dir.FavoriteBySlug(context.Background(), bob.ID, "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestConcurrentFavoritesCountExactly(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	author := e.user(t, "author")
	p := e.post(t, author, "Busy post")

	const n = 12
	fans := make([]*models.User, n)
	for i := range fans {
		fans[i] = e.user(t, fmt.Sprintf("fan%d", i))
	}

	var wg sync.WaitGroup
	for _, fan := range fans {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := e.dir.Favorite(ctx, id, p.ID)
			assert.NoError(t, err)
		}(fan.ID)
	}
	wg.Wait()

	stored, err := e.posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, stored.FavoritesCount)
}

func TestReconcileRepairsDrift(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.user(t, "a")
	p := e.post(t, a, "Drifting")
	_, err := e.dir.Favorite(ctx, a.ID, p.ID)
	require.NoError(t, err)
	require.NoError(t, e.db.Model(&models.Post{}).Where("id = ?", p.ID).Update("favorites_count", 7).Error)

	got, err := e.rec.Reconcile(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.FavoritesCount)
}

func TestRelationsAnonymous(t *testing.T) {
	e := newEnv(t)
	rel, err := e.dir.Relations(context.Background(), 0, []uint{1}, []uint{1})
	require.NoError(t, err)
	assert.Equal(t, views.Anonymous, rel)
}

// gatedRelations parks AddFavorite until release is closed.
type gatedRelations struct {
	repositories.RelationRepository
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRelations) AddFavorite(ctx context.Context, userID, postID uint) error {
	close(g.entered)
	<-g.release
	return g.RelationRepository.AddFavorite(ctx, userID, postID)
}

func TestDeletePostWaitsForFavorite(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	p := e.post(t, alice, "Short lived")

	gate := &gatedRelations{
		RelationRepository: repositories.NewRelationRepository(e.db),
		entered:            make(chan struct{}),
		release:            make(chan struct{}),
	}
	dir := NewDirectory(e.users, e.posts, gate, e.rec)

	favDone := make(chan error, 1)
	go func() {
		_, err := dir.Favorite(ctx, bob.ID, p.ID)
		favDone <- err
	}()
	<-gate.entered

	delDone := make(chan error, 1)
	go func() { delDone <- e.content.DeletePost(ctx, alice.ID, p.Slug) }()

	select {
	case err := <-delDone:
		t.Fatalf("delete finished while a favorite held the post: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	require.NoError(t, <-favDone)
	require.NoError(t, <-delDone)

	var rows int64
	require.NoError(t, e.db.Model(&models.Favorite{}).Where("post_id = ?", p.ID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestFavoriteAfterDeleteLeavesNoRow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	p := e.post(t, alice, "Short lived")
	require.NoError(t, e.content.DeletePost(ctx, alice.ID, p.Slug))

	_, err := e.dir.Favorite(ctx, bob.ID, p.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	_, err = e.content.CreateComment(ctx, bob.ID, p.ID, "too late")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	var favorites, comments int64
	require.NoError(t, e.db.Model(&models.Favorite{}).Where("post_id = ?", p.ID).Count(&favorites).Error)
	require.NoError(t, e.db.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments).Error)
	assert.Zero(t, favorites)
	assert.Zero(t, comments)
}
