package main

import (
	"log"
	"os"

	"unipark/database"
	"unipark/models"
	"unipark/queue"
	"unipark/routes"
	"unipark/services"
	"unipark/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// 載入 .env 檔案
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using default environment variables: %v", err)
	}

	// 初始化 JWTSecret
	utils.InitJWTSecret()

	// 初始化資料庫
	database.InitDB()

	// 執行資料庫遷移
	database.DB.AutoMigrate(
		&models.Student{},
		&models.Vehicle{},
		&models.ParkingLot{},
		&models.SubscriptionPlan{},
		&models.StudentSubscription{},
		&models.Reservation{},
	)
	log.Println("Database migration completed")

	// 確保預設管理員存在
	ensureAdminExists()

	// 初始化 redis 限流
	routes.InitRateLimiter()

	// 啟動預約事件消費者
	if queue.Enabled() {
		go queue.StartReservationConsumer()
	} else {
		log.Println("AMQP_URL not set, reservation event queue disabled")
	}

	// 設置 Gin 模式
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "" {
		ginMode = gin.ReleaseMode
	}
	gin.SetMode(ginMode)
	log.Printf("Gin mode set to %s", ginMode)

	// 初始化 Gin 路由器
	r := gin.Default()

	// 創建一個 API 路由組
	api := r.Group("/api")
	{
		routes.Path(api)
	}

	// 啟動定時任務
	c := cron.New()

	// 預約狀態掃描（每 5 分鐘執行一次）：
	// pending/confirmed 進入時段 → active；時段結束 → completed/expired
	_, err := c.AddFunc("*/5 * * * *", func() {
		log.Println("Refreshing reservation statuses...")
		if err := services.RefreshReservationStatuses(); err != nil {
			log.Printf("Failed to refresh reservation statuses: %v", err)
		}
		services.RefreshSubscriptionStatuses()
	})
	if err != nil {
		log.Fatalf("Failed to schedule status refresh cron job: %v", err)
	}

	c.Start()
	log.Println("Cron jobs started")

	// 啟動伺服器
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting server on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureAdminExists 檢查並創建預設管理員
func ensureAdminExists() {
	var admin models.Student
	if err := database.DB.Where("role = ?", models.RoleAdmin).First(&admin).Error; err == nil {
		log.Printf("Admin already exists: email=%s", admin.Email)
		return
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@unipark.local"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Println("ADMIN_PASSWORD not set, skipping default admin creation")
		return
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	admin = models.Student{
		Name:          "Administrator",
		Email:         email,
		Password:      hashedPassword,
		Role:          models.RoleAdmin,
		EmailVerified: true,
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create default admin: %v", err)
	}

	log.Printf("Default admin created: email=%s", email)
}
