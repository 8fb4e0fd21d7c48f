package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cppla/pubfeed/config"
	"github.com/cppla/pubfeed/controllers"
	"github.com/cppla/pubfeed/middleware"
	"github.com/cppla/pubfeed/monitoring"
	"github.com/cppla/pubfeed/repositories"
	"github.com/cppla/pubfeed/services"
	"github.com/cppla/pubfeed/utils"
)

// SetupRouter wires routes, middlewares, and controllers. rc may be nil, in
// which case locks stay in-process and nothing is cached.
func SetupRouter(db *gorm.DB, rc *redis.Client) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("handle", services.ValidateHandle)
	}

	r := gin.New()
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}
	r.Use(monitoring.Instrument())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", monitoring.Handler())

	limits := services.LimitsFromConfig(cfg)
	users := repositories.NewUserRepository(db)
	posts := repositories.NewPostRepository(db)
	comments := repositories.NewCommentRepository(db)
	relations := repositories.NewRelationRepository(db)

	reconciler := services.NewReconciler(posts, utils.NewLocker(rc), limits.LockTimeout)
	directory := services.NewDirectory(users, posts, relations, reconciler)
	content := services.NewContent(users, posts, comments, reconciler, limits)
	feed := services.NewFeedEngine(users, posts, directory, limits)
	accounts := services.NewAccounts(users)

	authController := controllers.NewAuthController(accounts)
	profileController := controllers.NewProfileController(accounts, directory, content)
	postController := controllers.NewPostController(content, feed, directory, limits)
	commentController := controllers.NewCommentController(content, directory)
	tagController := controllers.NewTagController(content)

	required := []gin.HandlerFunc{middleware.AuthRequired(), middleware.RateLimitMiddleware()}
	optional := []gin.HandlerFunc{middleware.AuthOptional()}
	with := func(chain []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, chain...), h)
	}

	api := r.Group("/api/v1")

	usersGroup := api.Group("/users")
	usersGroup.Use(middleware.RateLimitMiddleware())
	usersGroup.POST("", authController.Register)
	usersGroup.POST("/login", authController.Login)
	usersGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	api.GET("/user", middleware.AuthRequired(), authController.Me)

	profiles := api.Group("/profiles/:username")
	profiles.GET("", with(optional, profileController.GetProfile)...)
	profiles.POST("/follow", with(required, profileController.Follow)...)
	profiles.DELETE("/follow", with(required, profileController.Unfollow)...)
	profiles.GET("/comments", with(optional, profileController.ListComments)...)

	postsGroup := api.Group("/posts")
	postsGroup.GET("", with(optional, postController.ListPosts)...)
	postsGroup.GET("/feed", with(required, postController.Feed)...)
	postsGroup.POST("", with(required, postController.CreatePost)...)
	postsGroup.GET("/:slug", with(optional, postController.GetPost)...)
	postsGroup.PUT("/:slug", with(required, postController.UpdatePost)...)
	postsGroup.DELETE("/:slug", with(required, postController.DeletePost)...)
	postsGroup.POST("/:slug/favorite", with(required, postController.Favorite)...)
	postsGroup.DELETE("/:slug/favorite", with(required, postController.Unfavorite)...)
	postsGroup.GET("/:slug/comments", with(optional, commentController.ListComments)...)
	postsGroup.POST("/:slug/comments", with(required, commentController.CreateComment)...)
	postsGroup.DELETE("/:slug/comments/:id", with(required, commentController.DeleteComment)...)

	api.GET("/tags", tagController.ListTags)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
