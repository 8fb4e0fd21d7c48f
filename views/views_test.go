package views

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/pubfeed/models"
)

func fixture() *models.Post {
	alice := models.User{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: "secret-hash", Bio: "hi"}
	return &models.Post{
		ID: 10, Slug: "hello-world-00abcz", UserID: 1, Title: "Hello World", Body: "body",
		FavoritesCount: 1, User: alice,
		Tags: []models.PostTag{{ID: 1, Tag: "go"}, {ID: 2, Tag: "go"}},
	}
}

func TestPostFavoritedPerViewer(t *testing.T) {
	p := fixture()
	bob := Snapshot{Favorited: map[uint]bool{10: true}}
	carol := Snapshot{}

	cases := []struct {
		name string
		rel  Relations
		want bool
	}{
		{"favoriter", bob, true},
		{"other viewer", carol, false},
		{"anonymous", Anonymous, false},
		{"nil relations", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Post(p, tc.rel)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Favorited)
			assert.EqualValues(t, 1, v.FavoritesCount)
			assert.Equal(t, []string{"go", "go"}, v.TagList)
		})
	}
}

func TestAnonymousFieldsAlwaysPresent(t *testing.T) {
	v, err := Post(fixture(), Anonymous)
	require.NoError(t, err)
	b, err := json.Marshal(v)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, false, raw["favorited"])
	author := raw["author"].(map[string]interface{})
	assert.Equal(t, false, author["following"])
	assert.NotContains(t, author, "email")
	assert.NotContains(t, string(b), "secret-hash")
}

func TestProfileFollowing(t *testing.T) {
	u := &fixture().User
	v, err := Profile(u, Snapshot{Following: map[uint]bool{1: true}})
	require.NoError(t, err)
	assert.True(t, v.Following)
	assert.Equal(t, "alice", v.Username)
}

func TestUnresolvedAuthor(t *testing.T) {
	p := fixture()
	p.User = models.User{}
	_, err := Post(p, Anonymous)
	assert.ErrorIs(t, err, ErrUnresolvedAuthor)

	c := &models.Comment{ID: 1, UserID: 7, User: models.User{ID: 8, Username: "x"}}
	_, err = Comment(c, Anonymous)
	assert.ErrorIs(t, err, ErrUnresolvedAuthor)

	_, err = Profile(nil, Anonymous)
	assert.ErrorIs(t, err, ErrUnresolvedAuthor)
}

func TestProjectionDoesNotMutate(t *testing.T) {
	p := fixture()
	before := *p
	_, err := Post(p, Snapshot{Favorited: map[uint]bool{10: true}})
	require.NoError(t, err)
	assert.Equal(t, before, *p)
}

func TestComments(t *testing.T) {
	u := fixture().User
	cs := []models.Comment{
		{ID: 1, UserID: 1, Body: "first", User: u},
		{ID: 2, UserID: 1, Body: "second", User: u},
	}
	vs, err := Comments(cs, Snapshot{Following: map[uint]bool{1: true}})
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, "first", vs[0].Body)
	assert.True(t, vs[1].Author.Following)
}
