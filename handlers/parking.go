package handlers

import (
	"log"
	"net/http"
	"strconv"

	"unipark/models"
	"unipark/services"

	"github.com/gin-gonic/gin"
)

// CreateParkingLot 建立停車場（owner/admin）
func CreateParkingLot(c *gin.Context) {
	var lot models.ParkingLot
	if err := c.ShouldBindJSON(&lot); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	// owner 建立的停車場掛在自己名下；admin 可代建並留空
	role := c.GetString("role")
	if role == models.RoleOwner {
		ownerID := c.GetInt("student_id")
		lot.OwnerID = &ownerID
	}

	if err := services.CreateParkingLot(&lot); err != nil {
		log.Printf("Failed to create parking lot: %v", err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "停車場建立成功", lot.ToResponse())
}

// GetParkingLots 查所有啟用中的停車場
func GetParkingLots(c *gin.Context) {
	lots, err := services.GetActiveParkingLots()
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	responses := make([]models.ParkingLotResponse, len(lots))
	for i, lot := range lots {
		responses[i] = lot.ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetParkingLot 查特定停車場
func GetParkingLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場 ID", err.Error())
		return
	}

	lot, err := services.GetParkingLotByID(id)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", lot.ToResponse())
}

// GetNearbyParkingLots 查附近的停車場
// GET /parkinglots/nearby?latitude=25.03&longitude=121.56&radius=3
func GetNearbyParkingLots(c *gin.Context) {
	latitude, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil || latitude < -90 || latitude > 90 {
		ErrorResponse(c, http.StatusBadRequest, "請提供有效的 latitude", "invalid latitude")
		return
	}
	longitude, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil || longitude < -180 || longitude > 180 {
		ErrorResponse(c, http.StatusBadRequest, "請提供有效的 longitude", "invalid longitude")
		return
	}
	radius := 3.0
	if raw := c.Query("radius"); raw != "" {
		if radius, err = strconv.ParseFloat(raw, 64); err != nil || radius <= 0 {
			ErrorResponse(c, http.StatusBadRequest, "請提供有效的 radius（公里）", "invalid radius")
			return
		}
	}

	lots, err := services.GetNearbyParkingLots(latitude, longitude, radius)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	responses := make([]models.ParkingLotResponse, len(lots))
	for i, lot := range lots {
		responses[i] = lot.ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// UpdateParkingLot 更新停車場（限擁有者本人或 admin）
func UpdateParkingLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場 ID", err.Error())
		return
	}

	if !canManageLot(c, id) {
		ErrorResponse(c, http.StatusForbidden, "沒有權限管理該停車場", "forbidden")
		return
	}

	var req models.UpdateParkingLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	lot, err := services.UpdateParkingLot(id, &req)
	if err != nil {
		log.Printf("Failed to update parking lot %d: %v", id, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "停車場更新成功", lot.ToResponse())
}

// DeactivateParkingLot 停用停車場（限擁有者本人或 admin）
func DeactivateParkingLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場 ID", err.Error())
		return
	}

	if !canManageLot(c, id) {
		ErrorResponse(c, http.StatusForbidden, "沒有權限管理該停車場", "forbidden")
		return
	}

	if err := services.DeactivateParkingLot(id); err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "停車場已停用", nil)
}

// GetOwnerDashboard 擁有者的當日營運概況
func GetOwnerDashboard(c *gin.Context) {
	ownerID := c.GetInt("student_id")

	dashboard, err := services.GetOwnerDashboard(ownerID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", dashboard)
}

// canManageLot admin 可以管理所有停車場，owner 只能管理自己名下的
func canManageLot(c *gin.Context, lotID int) bool {
	if c.GetString("role") == models.RoleAdmin {
		return true
	}
	lot, err := services.GetParkingLotByID(lotID)
	if err != nil {
		return false
	}
	return lot.OwnerID != nil && *lot.OwnerID == c.GetInt("student_id")
}
