package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/phillip/tour-booking-go/config"
	controllers "github.com/phillip/tour-booking-go/controllers"
	middleware "github.com/phillip/tour-booking-go/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	auth := middleware.AuthMiddleware(cfg)
	staff := middleware.RoleGuard("admin", "guide", "lead-guide")
	adminOnly := middleware.RoleGuard("admin")

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimiter(cfg))

	users := api.Group("/users")
	{
		users.POST("/signup", controllers.SignUp(cfg))
		users.POST("/login", controllers.LogIn(cfg))
		users.PATCH("/password/forget", controllers.ForgetPassword(cfg))
		users.PATCH("/password/reset/:token", controllers.ResetPassword(cfg))

		users.PATCH("", auth, controllers.UpdateMe(cfg))
		users.DELETE("", auth, controllers.DisableMe(cfg))
		users.GET("", auth, adminOnly, controllers.ListUsers(cfg))
	}

	tours := api.Group("/tours")
	{
		tours.GET("", controllers.GetTours(cfg))
		tours.GET("/top", controllers.SelectTop(), controllers.GetTours(cfg))
		tours.GET("/stats", controllers.GetStats(cfg))
		tours.GET("/tours-within/distance/:distance/location/:location/unit/:unit", controllers.GetToursWithin(cfg))
		tours.GET("/distances/:location/unit/:unit", controllers.GetTourDistances(cfg))
		tours.GET("/:id", controllers.GetTour(cfg))

		tours.GET("/plan/:year", auth, controllers.GetPlan(cfg))

		tours.POST("", auth, staff, controllers.AddTour(cfg))
		tours.PATCH("/:id", auth, staff, controllers.UpdateTour(cfg))
		tours.DELETE("/:id", auth, staff, controllers.DeleteTour(cfg))
		tours.POST("/:id/images", auth, staff, controllers.UploadTourImages(cfg))

		// nested reviews
		tours.GET("/:id/reviews", controllers.GetReviews(cfg))
		tours.POST("/:id/reviews", auth, controllers.CreateReview(cfg))
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("", controllers.GetReviews(cfg))
		reviews.POST("", auth, controllers.CreateReview(cfg))
		reviews.PATCH("/:id", auth, controllers.UpdateReview(cfg))
		reviews.DELETE("/:id", auth, adminOnly, controllers.DeleteReview(cfg))
	}
}
