package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"unipark/models"
	"unipark/services"

	"github.com/gin-gonic/gin"
)

// ReservationInput 定義用於綁定請求的輸入結構體
type ReservationInput struct {
	VehicleID      int    `json:"vehicle_id" binding:"required"`
	ParkingLotID   int    `json:"parking_lot_id" binding:"required"`
	StartTime      string `json:"start_time" binding:"required"`
	EndTime        string `json:"end_time" binding:"required"`
	PaymentType    string `json:"payment_type" binding:"omitempty,oneof=one_time subscription"`
	SubscriptionID *int   `json:"subscription_id"`
}

// parseTimeUTC 解析時間字符串並轉換為 UTC。
// 帶時區的 RFC 3339 直接換算；不帶時區的格式視為 UTC
func parseTimeUTC(timeStr string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, timeStr)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse("2006-01-02T15:04:05", timeStr)
	if err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02 15:04:05", timeStr)
}

// CreateReservation 建立預約
func CreateReservation(c *gin.Context) {
	var input ReservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	startTime, err := parseTimeUTC(input.StartTime)
	if err != nil {
		log.Printf("Failed to parse start_time %s: %v", input.StartTime, err)
		ErrorResponse(c, http.StatusBadRequest, "無效的開始時間格式", err.Error())
		return
	}
	endTime, err := parseTimeUTC(input.EndTime)
	if err != nil {
		log.Printf("Failed to parse end_time %s: %v", input.EndTime, err)
		ErrorResponse(c, http.StatusBadRequest, "無效的結束時間格式", err.Error())
		return
	}

	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = models.PaymentOneTime
	}

	reservation, err := services.CreateReservation(services.CreateReservationInput{
		StudentID:      c.GetInt("student_id"),
		VehicleID:      input.VehicleID,
		ParkingLotID:   input.ParkingLotID,
		StartTime:      startTime,
		EndTime:        endTime,
		PaymentType:    paymentType,
		SubscriptionID: input.SubscriptionID,
	})
	if err != nil {
		log.Printf("Failed to create reservation for student %d: %v", c.GetInt("student_id"), err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "預約成功", reservation.ToResponse())
}

// GetMyReservations 查自己的預約，可用 ?status= 過濾
func GetMyReservations(c *gin.Context) {
	studentID := c.GetInt("student_id")
	status := c.Query("status")

	reservations, err := services.ListReservations(studentID, status)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	responses := make([]models.ReservationResponse, len(reservations))
	for i, reservation := range reservations {
		responses[i] = reservation.ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetReservation 查特定預約
func GetReservation(c *gin.Context) {
	reservationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的預約 ID", err.Error())
		return
	}

	reservation, err := services.GetReservation(reservationID, c.GetInt("student_id"))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", reservation.ToResponse())
}

// CancelReservation 取消預約
func CancelReservation(c *gin.Context) {
	reservationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的預約 ID", err.Error())
		return
	}

	if err := services.CancelReservation(reservationID, c.GetInt("student_id")); err != nil {
		log.Printf("Failed to cancel reservation %d: %v", reservationID, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "預約已取消", nil)
}

// CheckInReservation 本人報到（app 內按鈕）
func CheckInReservation(c *gin.Context) {
	reservationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的預約 ID", err.Error())
		return
	}

	alreadyCheckedIn, err := services.CheckInReservation(reservationID, c.GetInt("student_id"))
	if err != nil {
		log.Printf("Failed to check in reservation %d: %v", reservationID, err)
		ServiceErrorResponse(c, err)
		return
	}

	message := "報到成功"
	if alreadyCheckedIn {
		message = "已報到過，無需重複報到"
	}
	SuccessResponse(c, http.StatusOK, message, gin.H{"already_checked_in": alreadyCheckedIn})
}

// CheckInByToken 掃描 QR code 報到（公開端點，token 即憑證）
func CheckInByToken(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		ErrorResponse(c, http.StatusBadRequest, "缺少報到 token", "missing token")
		return
	}

	reservation, alreadyCheckedIn, err := services.CheckInByToken(token)
	if err != nil {
		log.Printf("Failed to check in by token: %v", err)
		ServiceErrorResponse(c, err)
		return
	}

	message := "報到成功"
	if alreadyCheckedIn {
		message = "已報到過，無需重複報到"
	}
	SuccessResponse(c, http.StatusOK, message, gin.H{
		"reservation_id":     reservation.ReservationID,
		"already_checked_in": alreadyCheckedIn,
	})
}

// GetReservationQRCode 取得預約的報到 QR code（PNG）
func GetReservationQRCode(c *gin.Context) {
	reservationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的預約 ID", err.Error())
		return
	}

	png, err := services.GetReservationQRCode(reservationID, c.GetInt("student_id"))
	if err != nil {
		log.Printf("Failed to render QR code for reservation %d: %v", reservationID, err)
		ServiceErrorResponse(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// GetReservationQRCodeBase64 取得 base64 編碼的 QR code，方便 app 直接內嵌
func GetReservationQRCodeBase64(c *gin.Context) {
	reservationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的預約 ID", err.Error())
		return
	}

	encoded, err := services.GetReservationQRCodeBase64(reservationID, c.GetInt("student_id"))
	if err != nil {
		log.Printf("Failed to encode QR code for reservation %d: %v", reservationID, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", gin.H{"qr_code": encoded})
}
