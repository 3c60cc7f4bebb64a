package utils

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTSecret 簽發與驗證 token 共用的密鑰
var JWTSecret []byte

// InitJWTSecret 從環境變數載入 JWT 密鑰
func InitJWTSecret() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "unipark-dev-secret"
		log.Println("JWT_SECRET not set, using insecure development secret")
	}
	JWTSecret = []byte(secret)
}

// GenerateToken 簽發帶過期時間的 JWT，claims 內含 student_id 和 role
func GenerateToken(studentID int, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"student_id": studentID,
		"role":       role,
		"iat":        now.Unix(),
		"exp":        now.Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(JWTSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
