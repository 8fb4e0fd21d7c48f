package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/services"
	"github.com/cppla/pubfeed/utils"
)

// ProfileController serves public profiles and follow changes.
type ProfileController struct {
	projector
	accounts *services.Accounts
	content  *services.Content
}

func NewProfileController(accounts *services.Accounts, directory *services.Directory, content *services.Content) *ProfileController {
	return &ProfileController{projector: projector{directory: directory}, accounts: accounts, content: content}
}

func (p *ProfileController) respond(ctx *gin.Context, user *models.User) {
	v, err := p.profile(ctx, user)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"profile": v})
}

// GetProfile returns the profile behind :username.
func (p *ProfileController) GetProfile(ctx *gin.Context) {
	user, err := p.accounts.ByUsername(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	p.respond(ctx, user)
}

func (p *ProfileController) Follow(ctx *gin.Context) {
	user, err := p.directory.FollowByUsername(ctx.Request.Context(), viewerID(ctx), ctx.Param("username"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	p.respond(ctx, user)
}

func (p *ProfileController) Unfollow(ctx *gin.Context) {
	user, err := p.directory.UnfollowByUsername(ctx.Request.Context(), viewerID(ctx), ctx.Param("username"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	p.respond(ctx, user)
}

// ListComments returns every comment written by :username, oldest first.
func (p *ProfileController) ListComments(ctx *gin.Context) {
	user, err := p.accounts.ByUsername(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	comments, err := p.content.ListUserComments(ctx.Request.Context(), user.ID)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	vs, err := p.comments(ctx, comments)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comments": vs})
}
