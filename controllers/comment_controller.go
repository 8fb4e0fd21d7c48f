package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/services"
	"github.com/cppla/pubfeed/utils"
)

// CommentController manages comments under /posts/:slug/comments.
type CommentController struct {
	projector
	content *services.Content
}

func NewCommentController(content *services.Content, directory *services.Directory) *CommentController {
	return &CommentController{projector: projector{directory: directory}, content: content}
}

func (c *CommentController) ListComments(ctx *gin.Context) {
	post, err := c.content.GetPost(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	comments, err := c.content.ListComments(ctx.Request.Context(), post.ID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	vs, err := c.comments(ctx, comments)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comments": vs})
}

func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Body string `json:"body"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}
	post, err := c.content.GetPost(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	comment, err := c.content.CreateComment(ctx.Request.Context(), viewerID(ctx), post.ID, req.Body)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	vs, err := c.comments(ctx, []models.Comment{*comment})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comment": vs[0]})
}

// DeleteComment removes a comment; only its author may do so.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid comment id")
		return
	}
	rc := ctx.Request.Context()
	post, err := c.content.GetPost(rc, ctx.Param("slug"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	comment, err := c.content.GetComment(rc, id)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	if comment.PostID != post.ID {
		utils.Fail(ctx, apperr.New(apperr.NotFound, "comment not found"))
		return
	}
	if err := c.content.DeleteComment(rc, viewerID(ctx), id); err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
