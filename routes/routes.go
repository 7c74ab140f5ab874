package routes

import (
	"healthbot/controllers"
	"healthbot/middlewares"

	"github.com/gin-gonic/gin"
)

func SetupRouter(
	chat *controllers.ChatController,
	profile *controllers.ProfileController,
	climate *controllers.ClimateController,
	realtime *controllers.RealtimeController,
	device *controllers.DeviceController,
) *gin.Engine {
	r := gin.Default()

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}

	// Conversational assistant
	chatGroup := r.Group("/chat")
	chatGroup.Use(middlewares.AuthMiddleware())
	{
		chatGroup.POST("/command", chat.PostCommand)
		chatGroup.POST("/callback", chat.PostCallback)
		chatGroup.POST("/message", chat.PostMessage)
		chatGroup.POST("/photo", chat.PostPhoto)
		chatGroup.GET("/ws", realtime.ChatWS)
	}

	// Profile, goals, logs
	user := r.Group("/user")
	user.Use(middlewares.AuthMiddleware())
	{
		user.GET("/profile", profile.GetProfile)
		user.GET("/goal", profile.GetDailyGoal)
		user.GET("/water", profile.GetWaterLog)
		user.GET("/workouts/chart", profile.GetWorkoutChart)
		user.POST("/devices", device.Register)
	}

	// Climate dashboard
	cl := r.Group("/climate")
	cl.Use(middlewares.AuthMiddleware())
	{
		cl.POST("/upload", climate.Upload)
		cl.GET("/cities", climate.Cities)
		cl.GET("/compare", climate.Compare)
		cl.GET("/map", climate.WeatherMap)
		cl.GET("/:city/stats", climate.Stats)
		cl.GET("/:city/series", climate.Series)
		cl.GET("/:city/live", climate.Live)
		cl.GET("/:city/years", climate.Years)
		cl.GET("/:city/overlay", climate.Overlay)
	}

	return r
}
