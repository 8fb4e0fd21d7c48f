package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/pubfeed/services"
	"github.com/cppla/pubfeed/utils"
)

type TagController struct {
	content *services.Content
}

func NewTagController(content *services.Content) *TagController {
	return &TagController{content: content}
}

// ListTags returns every tag in use, sorted.
func (t *TagController) ListTags(ctx *gin.Context) {
	tags, err := t.content.ListDistinctTags(ctx.Request.Context())
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"tags": tags})
}
