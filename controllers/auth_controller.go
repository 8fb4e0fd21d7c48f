package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/pubfeed/middleware"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/services"
	"github.com/cppla/pubfeed/utils"
)

// AuthController handles registration, login and the current user.
type AuthController struct {
	accounts *services.Accounts
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(accounts *services.Accounts) *AuthController {
	return &AuthController{accounts: accounts}
}

func userResponse(user *models.User, token string) gin.H {
	return gin.H{
		"username": user.Username,
		"email":    user.Email,
		"bio":      user.Bio,
		"image":    user.Image,
		"token":    token,
	}
}

func (a *AuthController) issue(ctx *gin.Context, user *models.User) {
	token, _, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{"user": userResponse(user, token)})
}

// Register creates an account and returns a token for it.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,max=64,handle"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	user, err := a.accounts.Register(ctx.Request.Context(), services.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	a.issue(ctx, user)
}

// Login exchanges email and password for a token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.accounts.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	a.issue(ctx, user)
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(72 * time.Hour)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the signed-in user with the token it authenticated with.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.accounts.User(ctx.Request.Context(), viewerID(ctx))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user": userResponse(user, ctx.GetString(middleware.ContextTokenKey))})
}
