package services

import (
	"context"
	"errors"
	"time"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/monitoring"
	"github.com/cppla/pubfeed/repositories"
	"github.com/cppla/pubfeed/views"
)

// ListQuery selects posts for the global listing. Empty handles and tag mean
// no filter; a zero ViewerID is an anonymous viewer. Limit is capped at the
// configured maximum (100 by default), so a page may hold fewer items than
// asked for while TotalCount still counts every matching post.
type ListQuery struct {
	Limit       int
	Offset      int
	Tag         string
	Author      string
	FavoritedBy string
	ViewerID    uint
}

// Page is one window of projected posts and the size of the whole result.
type Page struct {
	Items      []views.PostView `json:"items"`
	TotalCount int64            `json:"totalCount"`
}

func emptyPage() Page {
	return Page{Items: []views.PostView{}}
}

// FeedEngine answers post listings and personal feeds.
type FeedEngine struct {
	users     repositories.UserRepository
	posts     repositories.PostRepository
	directory *Directory
	limits    Limits
}

func NewFeedEngine(users repositories.UserRepository, posts repositories.PostRepository,
	directory *Directory, limits Limits) *FeedEngine {
	return &FeedEngine{users: users, posts: posts, directory: directory, limits: limits}
}

// Clamp bounds a requested window: negative limit and offset become zero
// and limit is capped at the configured maximum.
func (f *FeedEngine) Clamp(limit, offset int) (int, int) {
	if limit < 0 {
		limit = 0
	}
	if f.limits.MaxLimit > 0 && limit > f.limits.MaxLimit {
		limit = f.limits.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// resolveHandle returns the id behind a handle, or ok=false when no user has it.
func (f *FeedEngine) resolveHandle(ctx context.Context, handle string) (uint, bool, error) {
	u, err := f.users.FindByUsername(ctx, handle)
	if apperr.Is(err, apperr.NotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return u.ID, true, nil
}

// List returns the global listing. Filters are AND-combined. An author handle
// that matches no user is ignored; a favoritedBy handle that matches no user
// yields an empty page.
func (f *FeedEngine) List(ctx context.Context, q ListQuery) (Page, error) {
	defer monitoring.ObserveFeed("list", time.Now())

	filter := repositories.PostFilter{Tag: q.Tag}
	filter.Limit, filter.Offset = f.Clamp(q.Limit, q.Offset)

	if q.Author != "" {
		id, ok, err := f.resolveHandle(ctx, q.Author)
		if err != nil {
			return Page{}, err
		}
		if ok {
			filter.AuthorID = &id
		}
	}
	if q.FavoritedBy != "" {
		id, ok, err := f.resolveHandle(ctx, q.FavoritedBy)
		if err != nil {
			return Page{}, err
		}
		if !ok {
			return emptyPage(), nil
		}
		filter.FavoritedBy = &id
	}
	return f.page(ctx, q.ViewerID, filter)
}

// Feed lists posts by authors the viewer follows.
func (f *FeedEngine) Feed(ctx context.Context, viewerID uint, limit, offset int) (Page, error) {
	if viewerID == 0 {
		return Page{}, apperr.New(apperr.Unauthorized, "feed requires a signed-in viewer")
	}
	defer monitoring.ObserveFeed("feed", time.Now())

	filter := repositories.PostFilter{FollowedBy: &viewerID}
	filter.Limit, filter.Offset = f.Clamp(limit, offset)
	return f.page(ctx, viewerID, filter)
}

func (f *FeedEngine) page(ctx context.Context, viewerID uint, filter repositories.PostFilter) (Page, error) {
	posts, total, err := f.posts.List(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	items, err := f.project(ctx, viewerID, posts)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, TotalCount: total}, nil
}

func (f *FeedEngine) project(ctx context.Context, viewerID uint, posts []models.Post) ([]views.PostView, error) {
	rel, err := f.directory.PostRelations(ctx, viewerID, posts...)
	if err != nil {
		return nil, err
	}
	items, err := views.Posts(posts, rel)
	if errors.Is(err, views.ErrUnresolvedAuthor) {
		return nil, apperr.Wrap(apperr.Internal, "project posts", err)
	}
	return items, err
}
