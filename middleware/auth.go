package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/pubfeed/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey keeps the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
)

// bearer extracts the token, returning a response code and message on failure.
// An absent header yields code 0.
func bearer(ctx *gin.Context) (string, *utils.Claims, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", nil, 0, ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !(strings.EqualFold(parts[0], "Bearer") || strings.EqualFold(parts[0], "Token")) {
		return "", nil, 40102, "invalid authorization header format"
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", nil, 40103, "empty bearer token"
	}

	if utils.IsTokenBlacklisted(tokenString) {
		return "", nil, 40104, "token revoked"
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return "", nil, 40105, "invalid token"
	}
	return tokenString, claims, 0, ""
}

func setViewer(ctx *gin.Context, token string, claims *utils.Claims) {
	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextUsernameKey, claims.Username)
	ctx.Set(ContextTokenKey, token)
}

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, claims, code, msg := bearer(ctx)
		if claims == nil {
			if code == 0 {
				code, msg = 40101, "authorization header missing"
			}
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}
		setViewer(ctx, token, claims)
		ctx.Next()
	}
}

// AuthOptional identifies the viewer when a token is sent and lets anonymous
// requests through. A bad token is still rejected.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, claims, code, msg := bearer(ctx)
		if claims == nil && code != 0 {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}
		if claims != nil {
			setViewer(ctx, token, claims)
		}
		ctx.Next()
	}
}

// ViewerID returns the authenticated user id, or 0 for an anonymous request.
func ViewerID(ctx *gin.Context) uint {
	if v, ok := ctx.Get(ContextUserIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
