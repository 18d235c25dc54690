package router

import (
	"github.com/Manuekle/gymratplus-sub004/channels"
	"github.com/Manuekle/gymratplus-sub004/controllers"
	"github.com/Manuekle/gymratplus-sub004/middlewares"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, pub *channels.Publisher) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db)
	notificationCtrl := controllers.NewNotificationController(db)
	chatCtrl := controllers.NewChatController(db, pub)
	trackingCtrl := controllers.NewTrackingController(db, pub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())

	auth.POST("/logout", userCtrl.Logout)
	auth.GET("/profile", userCtrl.GetProfile)

	// NOTIFICATIONS (inbox)
	auth.GET("/notifications", notificationCtrl.GetNotifications)
	auth.PATCH("/notifications/:notif_id", notificationCtrl.MarkAsRead) // "all" menandai semua
	auth.DELETE("/notifications/:notif_id", notificationCtrl.DeleteNotification)
	auth.DELETE("/notifications", notificationCtrl.DeleteAllNotifications)

	// CHATS
	auth.GET("/chats", chatCtrl.GetChats)
	auth.POST("/chats", chatCtrl.CreateChat)
	auth.GET("/chats/:chat_id", chatCtrl.GetMessages)
	auth.POST("/chats/:chat_id", chatCtrl.SendMessage)
	auth.PATCH("/chats/:chat_id/messages/:message_id", chatCtrl.EditMessage)
	auth.DELETE("/chats/:chat_id/messages/:message_id", chatCtrl.DeleteMessage)

	// TRACKING (producer event untuk channel)
	auth.POST("/tracking/water", trackingCtrl.LogWater)
	auth.POST("/tracking/workout/start", trackingCtrl.StartWorkout)
	auth.POST("/tracking/workout/:session_id/complete", trackingCtrl.CompleteWorkout)
	auth.POST("/tracking/workout/:session_id/cancel", trackingCtrl.CancelWorkout)

	// WebSocket stream per chat
	auth.GET("/ws/chats/:chat_id", controllers.ChatStreamHandler)

	return r
}
