// Package views turns stored entities into the viewer-scoped shapes returned
// by the API. Every function here is pure: relations are looked up from a
// snapshot taken by the caller and nothing is written back.
package views

import (
	"errors"
	"time"

	"github.com/cppla/pubfeed/models"
)

// ErrUnresolvedAuthor is returned when an entity's author was not loaded.
var ErrUnresolvedAuthor = errors.New("author not resolved")

// Relations answers membership questions for one viewer.
type Relations interface {
	IsFavorited(postID uint) bool
	IsFollowing(userID uint) bool
}

// Snapshot is a Relations backed by precomputed id sets.
type Snapshot struct {
	Favorited map[uint]bool
	Following map[uint]bool
}

func (s Snapshot) IsFavorited(postID uint) bool { return s.Favorited[postID] }
func (s Snapshot) IsFollowing(userID uint) bool { return s.Following[userID] }

// Anonymous is the relation set of a viewer who is not signed in.
var Anonymous Relations = Snapshot{}

type ProfileView struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

type PostView struct {
	Slug           string      `json:"slug"`
	Title          string      `json:"title"`
	Body           string      `json:"body"`
	TagList        []string    `json:"tagList"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	Favorited      bool        `json:"favorited"`
	FavoritesCount int64       `json:"favoritesCount"`
	Author         ProfileView `json:"author"`
}

type CommentView struct {
	ID        uint        `json:"id"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Author    ProfileView `json:"author"`
}

func relOrAnonymous(rel Relations) Relations {
	if rel == nil {
		return Anonymous
	}
	return rel
}

// Profile projects a user as seen by the viewer behind rel.
func Profile(u *models.User, rel Relations) (ProfileView, error) {
	if u == nil || u.ID == 0 {
		return ProfileView{}, ErrUnresolvedAuthor
	}
	return ProfileView{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: relOrAnonymous(rel).IsFollowing(u.ID),
	}, nil
}

func author(u *models.User, ownerID uint, rel Relations) (ProfileView, error) {
	if u.ID != ownerID {
		return ProfileView{}, ErrUnresolvedAuthor
	}
	return Profile(u, rel)
}

// Post projects a post. The author must have been preloaded.
func Post(p *models.Post, rel Relations) (PostView, error) {
	rel = relOrAnonymous(rel)
	a, err := author(&p.User, p.UserID, rel)
	if err != nil {
		return PostView{}, err
	}
	return PostView{
		Slug:           p.Slug,
		Title:          p.Title,
		Body:           p.Body,
		TagList:        p.TagList(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Favorited:      rel.IsFavorited(p.ID),
		FavoritesCount: p.FavoritesCount,
		Author:         a,
	}, nil
}

// Posts projects a list, failing on the first unresolved author.
func Posts(ps []models.Post, rel Relations) ([]PostView, error) {
	out := make([]PostView, 0, len(ps))
	for i := range ps {
		v, err := Post(&ps[i], rel)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func Comment(c *models.Comment, rel Relations) (CommentView, error) {
	a, err := author(&c.User, c.UserID, rel)
	if err != nil {
		return CommentView{}, err
	}
	return CommentView{
		ID:        c.ID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Author:    a,
	}, nil
}

func Comments(cs []models.Comment, rel Relations) ([]CommentView, error) {
	out := make([]CommentView, 0, len(cs))
	for i := range cs {
		v, err := Comment(&cs[i], rel)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
