// File: /routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"inkwell-api/controllers"
	"inkwell-api/metrics"
	"inkwell-api/middleware"
	"inkwell-api/services"
)

// Services bundles what the handlers need.
type Services struct {
	Auth     *services.AuthService
	Posts    *services.PostService
	Comments *services.CommentService
	Contact  *services.ContactService
}

func SetupRoutes(r *gin.Engine, svc Services, publicURL string, secureCookie bool, gatherer prometheus.Gatherer) {
	// Controllers
	authController := controllers.NewAuthController(svc.Auth, secureCookie)
	postController := controllers.NewPostController(svc.Posts, svc.Comments, publicURL, secureCookie)
	commentController := controllers.NewCommentController(svc.Comments)
	contactController := controllers.NewContactController(svc.Contact)
	sitemapController := controllers.NewSitemapController(svc.Posts, publicURL)

	r.Use(middleware.LoadUser(svc.Auth))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))
	r.GET("/sitemap.xml", sitemapController.Sitemap)

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", authController.Logout)
		auth.POST("/forgot-password", authController.ForgotPassword)
		auth.GET("/reset-password/:token", authController.CheckResetToken)
		auth.POST("/reset-password/:token", authController.ResetPassword)
	}

	// Post routes
	posts := v1.Group("/posts")
	{
		posts.GET("", middleware.PaginationDefaults(), postController.GetPosts)
		posts.GET("/:id", postController.GetPost)
		posts.POST("/:id/like", middleware.RequireAuth(), postController.LikePost)
		posts.GET("/:id/comments", commentController.GetComments)
		posts.POST("/:id/comments", middleware.RequireAuth(), commentController.CreateComment)
	}

	v1.GET("/categories", postController.GetCategories)
	v1.GET("/search", middleware.PaginationDefaults(), postController.Search)
	v1.POST("/contact", contactController.Submit)

	// Admin routes
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminOnly())
	{
		admin.POST("/posts", postController.CreatePost)
		admin.PUT("/posts/:id", postController.UpdatePost)
		admin.DELETE("/posts/:id", postController.DeletePost)
		admin.GET("/drafts", postController.GetDrafts)
		admin.GET("/scheduled", postController.GetScheduled)
	}
}
