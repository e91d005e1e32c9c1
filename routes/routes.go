package routes

import (
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/controllers"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Workable candidate sync API is running",
				})
			})
		}

		// Protected routes (JWT or scheduler key)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Workable integration
			workable := protected.Group("/integrations/workable")
			{
				workable.POST("", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleRecruiter, middleware.RoleService), controllers.WorkableIntegrationAction)
				workable.GET("/runs", controllers.ListWorkableSyncRuns)
				workable.GET("/runs/:id", controllers.GetWorkableSyncRun)
			}

			// Synced candidates
			candidates := protected.Group("/candidates")
			{
				candidates.GET("", controllers.ListCandidates)
				candidates.GET("/export", controllers.ExportCandidates)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"success": false, "error": "route not found"})
	})
}
