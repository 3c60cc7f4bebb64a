package routes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"unipark/handlers"
	"unipark/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// AuthMiddleware 驗證 JWT token，並提取 student_id 和 role
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "缺少 Authorization 標頭",
				"error":   "Authorization header is required",
				"code":    "ERR_NO_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 Authorization 格式",
				"error":   "Authorization header must be in the format 'Bearer <token>'",
				"code":    "ERR_INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		// 明確要求檢查 exp 字段
		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return utils.JWTSecret, nil
		}, jwt.WithExpirationRequired())

		if err != nil {
			log.Printf("Token parsing error: %v", err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "token 已過期",
					"error":   "Token has expired",
					"code":    "ERR_TOKEN_EXPIRED",
				})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "無效的 token",
					"error":   err.Error(),
					"code":    "ERR_INVALID_TOKEN",
				})
			}
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 token 內容",
				"error":   "Invalid token claims or token is not valid",
				"code":    "ERR_INVALID_CLAIMS",
			})
			c.Abort()
			return
		}

		// 確認 student_id 字段
		studentID, ok := claims["student_id"].(float64)
		if !ok {
			log.Printf("Missing or invalid student_id in token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的學生 ID",
				"error":   "Invalid student_id in token",
				"code":    "ERR_INVALID_STUDENT_ID",
			})
			c.Abort()
			return
		}

		// 確認 role 字段
		role, ok := claims["role"].(string)
		if !ok || (role != "student" && role != "owner" && role != "admin") {
			log.Printf("Missing or invalid role in token: %v", role)
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的角色",
				"error":   "Invalid role in token",
				"code":    "ERR_INVALID_ROLE",
			})
			c.Abort()
			return
		}

		c.Set("student_id", int(studentID))
		c.Set("role", role) // 將 role 存入上下文
		c.Next()
	}
}

// RoleMiddleware 檢查帳號角色是否符合要求
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無法獲取角色資訊",
				"error":   "Role not found in context",
				"code":    "ERR_ROLE_NOT_FOUND",
			})
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的角色類型",
				"error":   "Invalid role type",
				"code":    "ERR_INVALID_ROLE_TYPE",
			})
			c.Abort()
			return
		}

		// 允許 admin 角色訪問所有端點
		if roleStr == "admin" {
			c.Next()
			return
		}

		for _, allowedRole := range allowedRoles {
			if roleStr == allowedRole {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"status":  false,
			"message": "權限不足",
			"error":   "Insufficient role permissions",
			"code":    "ERR_INSUFFICIENT_PERMISSIONS",
		})
		c.Abort()
	}
}

// rateLimitClient 未設定 REDIS_ADDR 時為 nil，限流直接放行
var rateLimitClient *redis.Client

// InitRateLimiter 初始化 redis 限流用的連線
func InitRateLimiter() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR not set, rate limiting disabled")
		return
	}
	rateLimitClient = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	log.Printf("Rate limiter connected to redis at %s", addr)
}

// RateLimitMiddleware 固定時間窗限流，同一學生每分鐘最多 limit 次。
// redis 不可用時放行，不讓限流把整個服務拖下水
func RateLimitMiddleware(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rateLimitClient == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%d", c.FullPath(), c.GetInt("student_id"))
		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		count, err := rateLimitClient.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("Rate limiter unavailable: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			rateLimitClient.Expire(ctx, key, window)
		}
		if count > int64(limit) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "請求過於頻繁，請稍後再試",
				"error":   "rate limit exceeded",
				"code":    "ERR_RATE_LIMITED",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func Path(router *gin.RouterGroup) {
	// 版本控制
	v1 := router.Group("/v1")
	{
		// 測試路由
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(200, gin.H{"message": "pong"})
		})

		// QR code 掃描報到：token 即憑證，閘門掃描器不帶 JWT
		v1.GET("/checkin/:token", handlers.CheckInByToken)

		// 學生帳號路由
		students := v1.Group("/students")
		{
			// 公開路由：不需要 token 驗證
			students.POST("/register", handlers.RegisterStudent)           // 註冊
			students.POST("/login", handlers.LoginStudent)                 // 登入並獲取 token
			students.POST("/verify-email", handlers.VerifyEmail)           // 信箱驗證
			students.POST("/resend-verification", handlers.ResendVerification) // 重發驗證碼

			// 受保護路由：需要 token 驗證
			studentsWithAuth := students.Group("")
			studentsWithAuth.Use(AuthMiddleware())
			{
				studentsWithAuth.GET("/profile", handlers.GetProfile)
				studentsWithAuth.PUT("/profile", handlers.UpdateProfile)
				// 管理員專屬路由
				studentsWithAuth.PUT("/:id/role", RoleMiddleware("admin"), handlers.UpdateStudentRole)
			}
		}

		// 車輛路由
		vehicles := v1.Group("/vehicles")
		vehicles.Use(AuthMiddleware())
		{
			vehicles.POST("", handlers.RegisterVehicle)
			vehicles.GET("", handlers.GetMyVehicles)
			vehicles.PUT("/:id", handlers.UpdateVehicle)
			vehicles.DELETE("/:id", handlers.DeleteVehicle)
		}

		// 停車場路由
		parkinglots := v1.Group("/parkinglots")
		{
			// 公開路由：查詢不需要登入
			parkinglots.GET("", handlers.GetParkingLots)
			parkinglots.GET("/nearby", handlers.GetNearbyParkingLots)
			parkinglots.GET("/:id", handlers.GetParkingLot)

			lotsWithAuth := parkinglots.Group("")
			lotsWithAuth.Use(AuthMiddleware())
			{
				// 建立、更新、停用：僅 owner 和 admin 可以操作
				lotsWithAuth.POST("", RoleMiddleware("owner", "admin"), handlers.CreateParkingLot)
				lotsWithAuth.PUT("/:id", RoleMiddleware("owner", "admin"), handlers.UpdateParkingLot)
				lotsWithAuth.DELETE("/:id", RoleMiddleware("owner", "admin"), handlers.DeactivateParkingLot)
				// 營運概況：僅 owner 和 admin 可以訪問
				lotsWithAuth.GET("/dashboard", RoleMiddleware("owner", "admin"), handlers.GetOwnerDashboard)
			}
		}

		// 預約路由
		reservations := v1.Group("/reservations")
		reservations.Use(AuthMiddleware())
		{
			// 建立預約加上限流，避免掃票式搶位
			reservations.POST("", RateLimitMiddleware(10, time.Minute), handlers.CreateReservation)
			reservations.GET("", handlers.GetMyReservations)
			reservations.GET("/:id", handlers.GetReservation)
			reservations.DELETE("/:id", handlers.CancelReservation)
			reservations.POST("/:id/checkin", handlers.CheckInReservation)
			reservations.GET("/:id/qrcode", handlers.GetReservationQRCode)
			reservations.GET("/:id/qrcode/base64", handlers.GetReservationQRCodeBase64)
		}

		// 月租訂閱路由
		subscriptions := v1.Group("/subscriptions")
		{
			// 方案列表公開
			subscriptions.GET("/plans", handlers.GetSubscriptionPlans)

			subsWithAuth := subscriptions.Group("")
			subsWithAuth.Use(AuthMiddleware())
			{
				subsWithAuth.POST("/plans", RoleMiddleware("admin"), handlers.CreateSubscriptionPlan)
				subsWithAuth.POST("", handlers.Subscribe)
				subsWithAuth.GET("/current", handlers.GetMySubscription)
				subsWithAuth.GET("/history", handlers.GetMySubscriptionHistory)
				subsWithAuth.DELETE("/:id", handlers.CancelSubscription)
			}
		}
	}
}
