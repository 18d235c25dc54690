package main

import (
	"log"
	"os"

	"github.com/Manuekle/gymratplus-sub004/channels"
	"github.com/Manuekle/gymratplus-sub004/config"
	"github.com/Manuekle/gymratplus-sub004/middlewares"
	"github.com/Manuekle/gymratplus-sub004/models"
	"github.com/Manuekle/gymratplus-sub004/realtime"
	"github.com/Manuekle/gymratplus-sub004/router"
	"github.com/Manuekle/gymratplus-sub004/services"
	"github.com/Manuekle/gymratplus-sub004/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func init() {
	// Load .env di awal sebelum apapun
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	// Simpan koneksi database untuk dipakai controller
	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	// Shared store tempat channel queue hidup
	redisClient := config.InitRedis()
	store := channels.NewRedisStore(redisClient)
	publisher := channels.NewPublisher(store)

	// Drainer: channel queue -> inbox notifikasi
	drainer := services.NewChannelDrainer(db, store)
	drainer.Start()
	defer drainer.Stop()

	// Bridge: channel chat -> client websocket
	bridge := realtime.NewChannelBridge(store)
	bridge.Start()
	defer bridge.Stop()

	r := router.SetupRouter(db, publisher)

	// Rate limiter global (50 request per detik per IP)
	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Chat{},
		&models.ChatMessage{},
		&models.Notification{},
		&models.WaterLog{},
		&models.WorkoutSession{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
