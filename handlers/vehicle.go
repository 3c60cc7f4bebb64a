package handlers

import (
	"log"
	"net/http"
	"strconv"

	"unipark/models"
	"unipark/services"

	"github.com/gin-gonic/gin"
)

// RegisterVehicle 登記車輛
func RegisterVehicle(c *gin.Context) {
	var vehicle models.Vehicle
	if err := c.ShouldBindJSON(&vehicle); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	// 車主一律是登入者本人，不吃 body 裡的 student_id
	vehicle.StudentID = c.GetInt("student_id")

	if err := services.RegisterVehicle(&vehicle); err != nil {
		log.Printf("Failed to register vehicle for student %d: %v", vehicle.StudentID, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "車輛登記成功", vehicle.ToResponse())
}

// GetMyVehicles 查自己名下所有車輛
func GetMyVehicles(c *gin.Context) {
	studentID := c.GetInt("student_id")

	vehicles, err := services.GetStudentVehicles(studentID)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	responses := make([]models.VehicleResponse, len(vehicles))
	for i, vehicle := range vehicles {
		responses[i] = vehicle.ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// UpdateVehicle 更新車輛資料
func UpdateVehicle(c *gin.Context) {
	vehicleID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的車輛 ID", err.Error())
		return
	}

	var req services.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	vehicle, err := services.UpdateVehicle(vehicleID, c.GetInt("student_id"), &req)
	if err != nil {
		log.Printf("Failed to update vehicle %d: %v", vehicleID, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "車輛更新成功", vehicle.ToResponse())
}

// DeleteVehicle 刪除車輛
func DeleteVehicle(c *gin.Context) {
	vehicleID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的車輛 ID", err.Error())
		return
	}

	if err := services.DeleteVehicle(vehicleID, c.GetInt("student_id")); err != nil {
		log.Printf("Failed to delete vehicle %d: %v", vehicleID, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "車輛刪除成功", nil)
}
