package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"unipark/database"
	"unipark/models"

	"gorm.io/gorm"
)

const (
	subscriptionTermDays  = 30
	subscriptionGraceDays = 7
)

// GetActivePlans 查所有上架中的月租方案
func GetActivePlans() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := database.DB.Where("is_active = ?", true).Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to query subscription plans: %w", err)
	}
	return plans, nil
}

// CreatePlan 新增月租方案（限管理員）
func CreatePlan(plan *models.SubscriptionPlan) error {
	if plan.Price.IsNegative() {
		return ErrInvalidRate
	}
	plan.IsActive = true
	if err := database.DB.Create(plan).Error; err != nil {
		log.Printf("Failed to create subscription plan: %v", err)
		return fmt.Errorf("failed to create subscription plan: %w", err)
	}
	log.Printf("Successfully created subscription plan %d (%s)", plan.PlanID, plan.Name)
	return nil
}

// Subscribe 訂閱月租方案，期限 30 天。
// 同一學生只能有一筆有效訂閱，舊的 active/grace_period 訂閱
// 在同一筆交易內標記為 cancelled
func Subscribe(studentID, planID int) (*models.StudentSubscription, error) {
	var plan models.SubscriptionPlan
	if err := database.DB.Where("plan_id = ? AND is_active = ?", planID, true).
		First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to query plan %d: %w", planID, err)
	}

	now := time.Now().UTC()
	subscription := &models.StudentSubscription{
		StudentID: studentID,
		PlanID:    planID,
		Status:    models.SubscriptionActive,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, subscriptionTermDays),
		AutoRenew: true,
	}

	tx := database.DB.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", tx.Error)
	}

	if err := tx.Model(&models.StudentSubscription{}).
		Where("student_id = ? AND status IN ?", studentID,
			[]string{models.SubscriptionActive, models.SubscriptionGracePeriod}).
		Updates(map[string]interface{}{
			"status":       models.SubscriptionCancelled,
			"cancelled_at": now,
		}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to cancel previous subscriptions: %w", err)
	}

	if err := tx.Create(subscription).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to create subscription for student %d: %v", studentID, err)
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	subscription.Plan = plan
	log.Printf("Student %d subscribed to plan %d until %s", studentID, planID, subscription.EndDate.Format(time.RFC3339))
	return subscription, nil
}

// CancelSubscription 取消訂閱。已付的期間用到底：狀態改為 cancelled
// 並關掉自動續約，但 EndDate 不動
func CancelSubscription(subscriptionID, studentID int) error {
	now := time.Now().UTC()
	result := database.DB.Model(&models.StudentSubscription{}).
		Where("subscription_id = ? AND student_id = ? AND status IN ?",
			subscriptionID, studentID,
			[]string{models.SubscriptionActive, models.SubscriptionGracePeriod}).
		Updates(map[string]interface{}{
			"status":       models.SubscriptionCancelled,
			"cancelled_at": now,
			"auto_renew":   false,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to cancel subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	log.Printf("Subscription %d cancelled by student %d", subscriptionID, studentID)
	return nil
}

// GetCurrentSubscription 查學生目前有效的訂閱（active 或寬限期內）
func GetCurrentSubscription(studentID int) (*models.StudentSubscription, error) {
	RefreshSubscriptionStatuses()

	var subscription models.StudentSubscription
	if err := database.DB.Preload("Plan").
		Where("student_id = ? AND status IN ?", studentID,
			[]string{models.SubscriptionActive, models.SubscriptionGracePeriod}).
		Order("created_at DESC").
		First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return &subscription, nil
}

// GetSubscriptionHistory 查學生的完整訂閱紀錄，新的排前面
func GetSubscriptionHistory(studentID int) ([]models.StudentSubscription, error) {
	var subscriptions []models.StudentSubscription
	if err := database.DB.Preload("Plan").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&subscriptions).Error; err != nil {
		return nil, fmt.Errorf("failed to query subscription history: %w", err)
	}
	return subscriptions, nil
}

// RefreshSubscriptionStatuses 掃描到期訂閱：
// active 到期 → grace_period（寬限 7 天）；寬限期過了 → expired。
// 兩段都是冪等的條件式 UPDATE，cron 跟讀取路徑重複呼叫沒有副作用
func RefreshSubscriptionStatuses() {
	now := time.Now().UTC()

	result := database.DB.Model(&models.StudentSubscription{}).
		Where("status = ? AND end_date <= ?", models.SubscriptionActive, now).
		Updates(map[string]interface{}{
			"status":           models.SubscriptionGracePeriod,
			"grace_period_end": gorm.Expr("DATE_ADD(end_date, INTERVAL ? DAY)", subscriptionGraceDays),
		})
	if result.Error != nil {
		log.Printf("Failed to move subscriptions into grace period: %v", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("Moved %d subscriptions into grace period", result.RowsAffected)
	}

	result = database.DB.Model(&models.StudentSubscription{}).
		Where("status = ? AND grace_period_end <= ?", models.SubscriptionGracePeriod, now).
		Update("status", models.SubscriptionExpired)
	if result.Error != nil {
		log.Printf("Failed to expire subscriptions: %v", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("Expired %d subscriptions past grace period", result.RowsAffected)
	}
}
