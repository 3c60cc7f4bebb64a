package utils

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func TestNewCheckInTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := NewCheckInToken()
		if token == "" {
			t.Fatal("NewCheckInToken() returned empty token")
		}
		if seen[token] {
			t.Fatalf("NewCheckInToken() returned duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestCheckInURLContainsToken(t *testing.T) {
	token := NewCheckInToken()
	url := CheckInURL(token)
	if !strings.HasSuffix(url, "/"+token) {
		t.Fatalf("CheckInURL(%q) = %q, want suffix /%s", token, url, token)
	}
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestGenerateQRCodePNG(t *testing.T) {
	png, err := GenerateQRCodePNG(NewCheckInToken())
	if err != nil {
		t.Fatalf("GenerateQRCodePNG() error: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatal("GenerateQRCodePNG() did not return a PNG")
	}
}

// 空 token 會編出指向報到端點根路徑的無效 QR，兩個產圖入口都必須拒絕
func TestGenerateQRCodeRejectsEmptyToken(t *testing.T) {
	if _, err := GenerateQRCodePNG(""); err == nil {
		t.Fatal("GenerateQRCodePNG(\"\") must fail")
	}
	if _, err := GenerateQRCode(""); err == nil {
		t.Fatal("GenerateQRCode(\"\") must fail")
	}
}

func TestGenerateQRCodeBase64(t *testing.T) {
	encoded, err := GenerateQRCode(NewCheckInToken())
	if err != nil {
		t.Fatalf("GenerateQRCode() error: %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("GenerateQRCode() returned invalid base64: %v", err)
	}
	if !bytes.HasPrefix(decoded, pngMagic) {
		t.Fatal("decoded QR code is not a PNG")
	}
}

// 同一個 token 重複產生 QR code 應該得到同一張圖（token 穩定，QR 可重新渲染）
func TestGenerateQRCodeDeterministic(t *testing.T) {
	token := NewCheckInToken()
	first, err := GenerateQRCodePNG(token)
	if err != nil {
		t.Fatalf("GenerateQRCodePNG() error: %v", err)
	}
	second, err := GenerateQRCodePNG(token)
	if err != nil {
		t.Fatalf("GenerateQRCodePNG() error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("GenerateQRCodePNG() is not deterministic for the same token")
	}
}
