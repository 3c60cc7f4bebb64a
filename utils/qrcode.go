package utils

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// NewCheckInToken 產生報到用的不透明 token。
// token 與預約一對一綁定，重新產生 QR 圖片不會改變 token 本身。
func NewCheckInToken() string {
	return uuid.NewString()
}

// CheckInURL 組出 QR code 內嵌的報到網址
func CheckInURL(token string) string {
	base := os.Getenv("CHECKIN_BASE_URL")
	if base == "" {
		base = "http://127.0.0.1:8080/api/v1/checkin"
	}
	return fmt.Sprintf("%s/%s", base, token)
}

// GenerateQRCode 將報到網址編成 QR code，回傳 base64 PNG
func GenerateQRCode(token string) (string, error) {
	png, err := GenerateQRCodePNG(token)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// GenerateQRCodePNG 回傳原始 PNG bytes，給圖片端點直接輸出用。
// 空 token 會編出指向報到端點根路徑的無效 QR，直接拒絕
func GenerateQRCodePNG(token string) ([]byte, error) {
	if token == "" {
		return nil, fmt.Errorf("failed to encode qr code: empty check-in token")
	}
	png, err := qrcode.Encode(CheckInURL(token), qrcode.High, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
