package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/services"
	"github.com/cppla/pubfeed/utils"
)

// PostController manages posts, listings and favorites.
type PostController struct {
	projector
	content      *services.Content
	feed         *services.FeedEngine
	defaultLimit int
}

// NewPostController creates a new PostController instance.
func NewPostController(content *services.Content, feed *services.FeedEngine, directory *services.Directory, limits services.Limits) *PostController {
	return &PostController{
		projector:    projector{directory: directory},
		content:      content,
		feed:         feed,
		defaultLimit: limits.DefaultLimit,
	}
}

func (p *PostController) respond(ctx *gin.Context, post *models.Post) {
	v, err := p.post(ctx, post)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": v})
}

// ListPosts returns the global listing filtered by tag, author and favorited.
func (p *PostController) ListPosts(ctx *gin.Context) {
	limit, offset := parseWindow(ctx, p.defaultLimit)
	page, err := p.feed.List(ctx.Request.Context(), services.ListQuery{
		Limit:       limit,
		Offset:      offset,
		Tag:         ctx.Query("tag"),
		Author:      ctx.Query("author"),
		FavoritedBy: ctx.Query("favorited"),
		ViewerID:    viewerID(ctx),
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, page)
}

// Feed returns posts by authors the viewer follows.
func (p *PostController) Feed(ctx *gin.Context) {
	limit, offset := parseWindow(ctx, p.defaultLimit)
	page, err := p.feed.Feed(ctx.Request.Context(), viewerID(ctx), limit, offset)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, page)
}

type postRequest struct {
	Title   *string   `json:"title"`
	Body    *string   `json:"body"`
	TagList *[]string `json:"tagList"`
}

// CreatePost allows authenticated users to create new posts. A slug collision
// is retried once with a fresh suffix.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Title == nil || req.Body == nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	var tags []string
	if req.TagList != nil {
		tags = *req.TagList
	}

	c := ctx.Request.Context()
	post, err := p.content.CreatePost(c, viewerID(ctx), *req.Title, *req.Body, tags)
	if apperr.Is(err, apperr.Conflict) {
		post, err = p.content.CreatePost(c, viewerID(ctx), *req.Title, *req.Body, tags)
	}
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	p.respond(ctx, post)
}

// GetPost returns a single post by slug.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.content.GetPost(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	p.respond(ctx, post)
}

// UpdatePost lets the author change title, body or tags.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}
	post, err := p.content.UpdatePost(ctx.Request.Context(), viewerID(ctx), ctx.Param("slug"), services.PostUpdate{
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.TagList,
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	p.respond(ctx, post)
}

// DeletePost removes a post written by the viewer.
func (p *PostController) DeletePost(ctx *gin.Context) {
	if err := p.content.DeletePost(ctx.Request.Context(), viewerID(ctx), ctx.Param("slug")); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

func (p *PostController) Favorite(ctx *gin.Context) {
	post, err := p.directory.FavoriteBySlug(ctx.Request.Context(), viewerID(ctx), ctx.Param("slug"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	p.respond(ctx, post)
}

func (p *PostController) Unfavorite(ctx *gin.Context) {
	post, err := p.directory.UnfavoriteBySlug(ctx.Request.Context(), viewerID(ctx), ctx.Param("slug"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	p.respond(ctx, post)
}
