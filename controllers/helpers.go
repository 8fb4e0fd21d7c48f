package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/pubfeed/apperr"
	"github.com/cppla/pubfeed/middleware"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/services"
	"github.com/cppla/pubfeed/views"
)

// parseWindow reads limit and offset. Missing or non-numeric values fall
// back to the defaults; range clamping is left to the feed engine.
func parseWindow(ctx *gin.Context, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if l, err := strconv.Atoi(ctx.Query("limit")); err == nil {
		limit = l
	}
	if o, err := strconv.Atoi(ctx.Query("offset")); err == nil {
		offset = o
	}
	return limit, offset
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func viewerID(ctx *gin.Context) uint {
	return middleware.ViewerID(ctx)
}

func unresolved(err error) error {
	return apperr.Wrap(apperr.Internal, "project response", err)
}

// projector renders entities for the current viewer.
type projector struct {
	directory *services.Directory
}

func (p projector) post(ctx *gin.Context, post *models.Post) (views.PostView, error) {
	rel, err := p.directory.PostRelations(ctx.Request.Context(), viewerID(ctx), *post)
	if err != nil {
		return views.PostView{}, err
	}
	v, err := views.Post(post, rel)
	if err != nil {
		return views.PostView{}, unresolved(err)
	}
	return v, nil
}

func (p projector) profile(ctx *gin.Context, user *models.User) (views.ProfileView, error) {
	rel, err := p.directory.Relations(ctx.Request.Context(), viewerID(ctx), nil, []uint{user.ID})
	if err != nil {
		return views.ProfileView{}, err
	}
	v, err := views.Profile(user, rel)
	if err != nil {
		return views.ProfileView{}, unresolved(err)
	}
	return v, nil
}

func (p projector) comments(ctx *gin.Context, comments []models.Comment) ([]views.CommentView, error) {
	rel, err := p.directory.CommentRelations(ctx.Request.Context(), viewerID(ctx), comments)
	if err != nil {
		return nil, err
	}
	vs, err := views.Comments(comments, rel)
	if err != nil {
		return nil, unresolved(err)
	}
	return vs, nil
}
