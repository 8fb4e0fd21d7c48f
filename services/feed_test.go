package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/views"
)

func titles(items []views.PostView) []string {
	out := make([]string, 0, len(items))
	for _, v := range items {
		out = append(out, v.Title)
	}
	return out
}

func TestFeedOnlyFollowedAuthors(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	v := e.user(t, "viewer")
	b := e.user(t, "bee")
	c := e.user(t, "cee")

	e.backdate(t, e.post(t, b, "Bee old"), 3*time.Hour)
	e.backdate(t, e.post(t, c, "Cee post"), 2*time.Hour)
	e.backdate(t, e.post(t, b, "Bee new"), time.Hour)
	require.NoError(t, e.dir.Follow(ctx, v.ID, b.ID))

	page, err := e.feed.Feed(ctx, v.ID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bee new", "Bee old"}, titles(page.Items))
	assert.EqualValues(t, 2, page.TotalCount)
	assert.True(t, page.Items[0].Author.Following)

	page, err = e.feed.Feed(ctx, v.ID, 1, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.EqualValues(t, 2, page.TotalCount, "total ignores the window")
}

func TestFeedRequiresViewer(t *testing.T) {
	e := newEnv(t)
	_, err := e.feed.Feed(context.Background(), 0, 20, 0)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	p1 := e.post(t, alice, "Alice go", "go")
	e.backdate(t, p1, 3*time.Hour)
	p2 := e.post(t, bob, "Bob go", "go")
	e.backdate(t, p2, 2*time.Hour)
	e.backdate(t, e.post(t, alice, "Alice db", "db"), time.Hour)
	_, err := e.dir.Favorite(ctx, bob.ID, p1.ID)
	require.NoError(t, err)

	cases := []struct {
		name  string
		q     ListQuery
		want  []string
		total int64
	}{
		{"everything", ListQuery{Limit: 20}, []string{"Alice db", "Bob go", "Alice go"}, 3},
		{"tag", ListQuery{Limit: 20, Tag: "go"}, []string{"Bob go", "Alice go"}, 2},
		{"author", ListQuery{Limit: 20, Author: "alice"}, []string{"Alice db", "Alice go"}, 2},
		{"tag and author", ListQuery{Limit: 20, Tag: "go", Author: "alice"}, []string{"Alice go"}, 1},
		{"favorited by", ListQuery{Limit: 20, FavoritedBy: "bob"}, []string{"Alice go"}, 1},
		{"unknown favoriter", ListQuery{Limit: 20, FavoritedBy: "nonexistent_handle"}, []string{}, 0},
		{"unknown author", ListQuery{Limit: 20, Author: "nobody"}, []string{"Alice db", "Bob go", "Alice go"}, 3},
		{"unknown author with tag", ListQuery{Limit: 20, Author: "nobody", Tag: "db"}, []string{"Alice db"}, 1},
		{"unknown author and favoriter", ListQuery{Limit: 20, Author: "nobody", FavoritedBy: "bob"}, []string{"Alice go"}, 1},
		{"negative limit", ListQuery{Limit: -5}, []string{}, 3},
		{"negative offset", ListQuery{Limit: 1, Offset: -3}, []string{"Alice db"}, 3},
		{"window", ListQuery{Limit: 1, Offset: 1}, []string{"Bob go"}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := e.feed.List(ctx, tc.q)
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(page.Items))
			assert.Equal(t, tc.total, page.TotalCount)
			assert.NotNil(t, page.Items)
		})
	}
}

func TestListFavoritedFlagPerViewer(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	p := e.post(t, alice, "Liked post")
	_, err := e.dir.Favorite(ctx, bob.ID, p.ID)
	require.NoError(t, err)

	page, err := e.feed.List(ctx, ListQuery{Limit: 20, ViewerID: bob.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].Favorited)
	assert.EqualValues(t, 1, page.Items[0].FavoritesCount)

	page, err = e.feed.List(ctx, ListQuery{Limit: 20})
	require.NoError(t, err)
	assert.False(t, page.Items[0].Favorited)
}

func TestClamp(t *testing.T) {
	f := &FeedEngine{limits: DefaultLimits()}
	cases := []struct{ limit, offset, wantLimit, wantOffset int }{
		{20, 0, 20, 0},
		{-1, -1, 0, 0},
		{1000, 5, 100, 5},
	}
	for _, tc := range cases {
		l, o := f.Clamp(tc.limit, tc.offset)
		assert.Equal(t, tc.wantLimit, l)
		assert.Equal(t, tc.wantOffset, o)
	}
}
