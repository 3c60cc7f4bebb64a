package database

import (
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// envInt 讀整數環境變數，缺省或不合法時用 fallback
func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("Invalid %s %q, using default %d", key, v, fallback)
	}
	return fallback
}

// InitDB 建立 MySQL 連線。容器環境裡 DB 可能比服務晚就緒，
// 用遞增間隔重試，全部失敗才退出
func InitDB() {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "unipark_user:unipark1234@tcp(127.0.0.1:3306)/unipark_db?charset=utf8mb4&parseTime=True&loc=UTC"
	}

	// 生產環境只留警告以上的 SQL log
	logLevel := logger.Info
	if os.Getenv("GIN_MODE") == "release" {
		logLevel = logger.Warn
	}

	var err error
	wait := 2 * time.Second
	const maxAttempts = 5
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logLevel),
		})
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database (attempt %d/%d): %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(wait)
			wait *= 2
		}
	}
	if err != nil {
		log.Fatalf("Failed to open database after %d attempts: %v", maxAttempts, err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("Failed to get sql.DB: %v", err)
	}

	// 連線池可由環境變數調整，預設值偏保守
	sqlDB.SetMaxOpenConns(envInt("DB_MAX_OPEN_CONNS", 50))
	sqlDB.SetMaxIdleConns(envInt("DB_MAX_IDLE_CONNS", 5))
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	var dbName string
	if err := DB.Raw("SELECT DATABASE()").Scan(&dbName).Error; err != nil {
		log.Fatalf("Failed to resolve current database: %v", err)
	}
	log.Printf("Database %s ready", dbName)
}
