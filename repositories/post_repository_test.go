package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/repositories/repotest"
)

func createPost(t *testing.T, db *gorm.DB, author *models.User, slug string, at time.Time, tags ...string) *models.Post {
	t.Helper()
	p := &models.Post{Slug: slug, UserID: author.ID, Title: "title " + slug, Body: "body of " + slug, CreatedAt: at}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p, tags))
	return p
}

func slugs(posts []models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Slug)
	}
	return out
}

func TestPostCreateKeepsTagOrderAndDuplicates(t *testing.T) {
	db := repotest.Open(t)
	repo := NewPostRepository(db)
	alice := repotest.User(t, db, "alice")

	p := createPost(t, db, alice, "go-1", time.Now(), "go", "db", "go")
	got, err := repo.FindBySlug(context.Background(), p.Slug)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "db", "go"}, got.TagList())
	assert.Equal(t, "alice", got.User.Username)
	assert.Zero(t, got.FavoritesCount)
}

func TestPostCreateDuplicateSlugConflicts(t *testing.T) {
	db := repotest.Open(t)
	repo := NewPostRepository(db)
	alice := repotest.User(t, db, "alice")
	createPost(t, db, alice, "same", time.Now())

	err := repo.Create(context.Background(), &models.Post{Slug: "same", UserID: alice.ID, Title: "t", Body: "b"}, []string{"x"})
	assert.True(t, apperr.Is(err, apperr.Conflict), "got %v", err)

	var n int64
	require.NoError(t, db.Model(&models.PostTag{}).Where("tag = ?", "x").Count(&n).Error)
	assert.Zero(t, n)
}

func TestPostFindMissing(t *testing.T) {
	db := repotest.Open(t)
	_, err := NewPostRepository(db).FindBySlug(context.Background(), "nope")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestPostListFilters(t *testing.T) {
	ctx := context.Background()
	db := repotest.Open(t)
	repo := NewPostRepository(db)
	rel := NewRelationRepository(db)
	alice := repotest.User(t, db, "alice")
	bob := repotest.User(t, db, "bob")
	carol := repotest.User(t, db, "carol")

	base := time.Now().Add(-time.Hour)
	a1 := createPost(t, db, alice, "a1", base.Add(1*time.Minute), "go")
	b1 := createPost(t, db, bob, "b1", base.Add(2*time.Minute), "go", "db")
	createPost(t, db, alice, "a2", base.Add(3*time.Minute), "db")
	createPost(t, db, carol, "c1", base.Add(4*time.Minute))

	require.NoError(t, rel.AddFavorite(ctx, carol.ID, a1.ID))
	require.NoError(t, rel.AddFavorite(ctx, carol.ID, b1.ID))
	require.NoError(t, rel.AddFollow(ctx, carol.ID, alice.ID))

	cases := []struct {
		name   string
		filter PostFilter
		want   []string
		total  int64
	}{
		{"all newest first", PostFilter{Limit: 10}, []string{"c1", "a2", "b1", "a1"}, 4},
		{"tag", PostFilter{Tag: "go", Limit: 10}, []string{"b1", "a1"}, 2},
		{"author", PostFilter{AuthorID: &alice.ID, Limit: 10}, []string{"a2", "a1"}, 2},
		{"favorited", PostFilter{FavoritedBy: &carol.ID, Limit: 10}, []string{"b1", "a1"}, 2},
		{"tag and author", PostFilter{Tag: "db", AuthorID: &alice.ID, Limit: 10}, []string{"a2"}, 1},
		{"followed", PostFilter{FollowedBy: &carol.ID, Limit: 10}, []string{"a2", "a1"}, 2},
		{"window", PostFilter{Limit: 2, Offset: 1}, []string{"a2", "b1"}, 4},
		{"zero limit", PostFilter{Limit: 0}, []string{}, 4},
		{"offset past end", PostFilter{Limit: 5, Offset: 10}, []string{}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			posts, total, err := repo.List(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, slugs(posts))
			assert.Equal(t, tc.total, total)
		})
	}
}

func TestPostListTiesBreakOnID(t *testing.T) {
	db := repotest.Open(t)
	alice := repotest.User(t, db, "alice")
	at := time.Now().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		createPost(t, db, alice, fmt.Sprintf("p%d", i), at)
	}
	posts, _, err := NewPostRepository(db).List(context.Background(), PostFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1", "p0"}, slugs(posts))
}

func TestPostUpdateReplacesTags(t *testing.T) {
	ctx := context.Background()
	db := repotest.Open(t)
	repo := NewPostRepository(db)
	alice := repotest.User(t, db, "alice")
	p := createPost(t, db, alice, "s", time.Now(), "old")

	title := "new title"
	tags := []string{"b", "a"}
	got, err := repo.Update(ctx, p.ID, PostPatch{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, p.Body, got.Body)
	assert.Equal(t, "s", got.Slug)
	assert.Equal(t, []string{"b", "a"}, got.TagList())
}

func TestPostDeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := repotest.Open(t)
	repo := NewPostRepository(db)
	alice := repotest.User(t, db, "alice")
	p := createPost(t, db, alice, "s", time.Now(), "t")
	require.NoError(t, NewRelationRepository(db).AddFavorite(ctx, alice.ID, p.ID))
	require.NoError(t, NewCommentRepository(db).Create(ctx, &models.Comment{PostID: p.ID, UserID: alice.ID, Body: "hi"}))

	require.NoError(t, repo.Delete(ctx, p.ID))

	for _, m := range []interface{}{&models.Post{}, &models.PostTag{}, &models.Favorite{}, &models.Comment{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}
	assert.True(t, apperr.Is(repo.Delete(ctx, p.ID), apperr.NotFound))
}

func TestDistinctTagsSorted(t *testing.T) {
	db := repotest.Open(t)
	alice := repotest.User(t, db, "alice")
	createPost(t, db, alice, "1", time.Now(), "zeta", "alpha")
	createPost(t, db, alice, "2", time.Now(), "alpha", "mid", "mid")

	tags, err := NewPostRepository(db).DistinctTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, tags)
}

func TestRecomputeFavorites(t *testing.T) {
	ctx := context.Background()
	db := repotest.Open(t)
	repo := NewPostRepository(db)
	rel := NewRelationRepository(db)
	alice := repotest.User(t, db, "alice")
	bob := repotest.User(t, db, "bob")
	p := createPost(t, db, alice, "s", time.Now())

	require.NoError(t, rel.AddFavorite(ctx, alice.ID, p.ID))
	require.NoError(t, rel.AddFavorite(ctx, bob.ID, p.ID))
	// stale cache value gets overwritten
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", p.ID).Update("favorites_count", 99).Error)

	got, err := repo.RecomputeFavorites(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.FavoritesCount)
	assert.Equal(t, "alice", got.User.Username)

	_, err = repo.RecomputeFavorites(ctx, p.ID+100)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}
