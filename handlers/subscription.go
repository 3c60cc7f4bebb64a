package handlers

import (
	"log"
	"net/http"
	"strconv"

	"unipark/models"
	"unipark/services"

	"github.com/gin-gonic/gin"
)

// GetSubscriptionPlans 查所有上架中的月租方案（公開）
func GetSubscriptionPlans(c *gin.Context) {
	plans, err := services.GetActivePlans()
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", plans)
}

// CreateSubscriptionPlan 新增月租方案（admin）
func CreateSubscriptionPlan(c *gin.Context) {
	var plan models.SubscriptionPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	if err := services.CreatePlan(&plan); err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "方案建立成功", plan)
}

// Subscribe 訂閱月租方案
func Subscribe(c *gin.Context) {
	var req struct {
		PlanID int `json:"plan_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	subscription, err := services.Subscribe(c.GetInt("student_id"), req.PlanID)
	if err != nil {
		log.Printf("Failed to subscribe student %d to plan %d: %v", c.GetInt("student_id"), req.PlanID, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "訂閱成功", subscription.ToResponse())
}

// CancelSubscription 取消訂閱（已付期間仍可使用到期滿）
func CancelSubscription(c *gin.Context) {
	subscriptionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的訂閱 ID", err.Error())
		return
	}

	if err := services.CancelSubscription(subscriptionID, c.GetInt("student_id")); err != nil {
		log.Printf("Failed to cancel subscription %d: %v", subscriptionID, err)
		ServiceErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "訂閱已取消，已付期間仍可使用", nil)
}

// GetMySubscription 查目前有效的訂閱
func GetMySubscription(c *gin.Context) {
	subscription, err := services.GetCurrentSubscription(c.GetInt("student_id"))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", subscription.ToResponse())
}

// GetMySubscriptionHistory 查訂閱紀錄
func GetMySubscriptionHistory(c *gin.Context) {
	subscriptions, err := services.GetSubscriptionHistory(c.GetInt("student_id"))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	responses := make([]models.SubscriptionResponse, len(subscriptions))
	for i, subscription := range subscriptions {
		responses[i] = subscription.ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}
