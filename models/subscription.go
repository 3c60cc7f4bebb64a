package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 訂閱狀態常數
const (
	SubscriptionActive      = "active"
	SubscriptionGracePeriod = "grace_period"
	SubscriptionPaused      = "paused"
	SubscriptionCancelled   = "cancelled"
	SubscriptionExpired     = "expired"
)

// SubscriptionPlan 月租方案
type SubscriptionPlan struct {
	PlanID      int             `json:"plan_id" gorm:"primaryKey;autoIncrement;type:INT"`
	Name        string          `json:"name" gorm:"type:varchar(100);not null" binding:"required,max=100"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(8,2)"`
	Features    string          `json:"features" gorm:"type:text"`
	IsActive    bool            `json:"is_active" gorm:"type:tinyint(1);default:1"`
	CreatedAt   time.Time       `json:"created_at" gorm:"type:datetime"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"type:datetime"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plan"
}

// StudentSubscription 學生的月租訂閱
type StudentSubscription struct {
	SubscriptionID int        `json:"subscription_id" gorm:"primaryKey;autoIncrement;type:INT"`
	StudentID      int        `json:"student_id" gorm:"column:student_id;index;not null;type:INT"`
	PlanID         int        `json:"plan_id" gorm:"column:plan_id;not null;type:INT"`
	Status         string     `json:"status" gorm:"type:enum('active', 'grace_period', 'paused', 'cancelled', 'expired');default:'active';index"`
	StartDate      time.Time  `json:"start_date" gorm:"type:datetime;not null"`
	EndDate        time.Time  `json:"end_date" gorm:"type:datetime;not null"`
	AutoRenew      bool       `json:"auto_renew" gorm:"type:tinyint(1);default:1"`
	GracePeriodEnd *time.Time `json:"grace_period_end" gorm:"type:datetime"`
	CancelledAt    *time.Time `json:"cancelled_at" gorm:"type:datetime"`
	CreatedAt      time.Time  `json:"created_at" gorm:"type:datetime"`

	Student Student          `json:"-" gorm:"foreignKey:student_id;references:StudentID"`
	Plan    SubscriptionPlan `json:"-" gorm:"foreignKey:plan_id;references:PlanID"`
}

func (StudentSubscription) TableName() string {
	return "student_subscription"
}

// IsValid 訂閱是否可用於預約：
// active 且尚未到期，或 grace_period 且寬限期未結束
func (s *StudentSubscription) IsValid(now time.Time) bool {
	switch s.Status {
	case SubscriptionActive:
		return !now.After(s.EndDate)
	case SubscriptionGracePeriod:
		return s.GracePeriodEnd != nil && !now.After(*s.GracePeriodEnd)
	default:
		return false
	}
}

type SubscriptionResponse struct {
	SubscriptionID int        `json:"subscription_id"`
	PlanID         int        `json:"plan_id"`
	PlanName       string     `json:"plan_name,omitempty"`
	Status         string     `json:"status"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	AutoRenew      bool       `json:"auto_renew"`
	GracePeriodEnd *time.Time `json:"grace_period_end,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

func (s *StudentSubscription) ToResponse() SubscriptionResponse {
	return SubscriptionResponse{
		SubscriptionID: s.SubscriptionID,
		PlanID:         s.PlanID,
		PlanName:       s.Plan.Name,
		Status:         s.Status,
		StartDate:      s.StartDate,
		EndDate:        s.EndDate,
		AutoRenew:      s.AutoRenew,
		GracePeriodEnd: s.GracePeriodEnd,
		CancelledAt:    s.CancelledAt,
	}
}
