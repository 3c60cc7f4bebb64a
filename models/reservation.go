package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 預約狀態常數
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// 付款方式常數
const (
	PaymentOneTime      = "one_time"
	PaymentSubscription = "subscription"
)

// NonTerminalStatuses 尚未結束的預約狀態，查詢與掃描共用
var NonTerminalStatuses = []string{StatusPending, StatusConfirmed, StatusActive}

// AllowTransition 定義預約狀態機的允許流轉關係
var AllowTransition = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusActive, StatusCompleted, StatusExpired, StatusCancelled},
	StatusConfirmed: {StatusActive, StatusCompleted, StatusExpired, StatusCancelled},
	StatusActive:    {StatusCompleted, StatusExpired, StatusCancelled},
	// 終態：completed / expired / cancelled 不再流轉
	StatusCompleted: {},
	StatusExpired:   {},
	StatusCancelled: {},
}

// CanTransition 判斷 from -> to 是否是一個允許的狀態流轉。
// 流轉關係完全由 AllowTransition 定義，終態不允許任何流轉（含原地）
func CanTransition(from, to string) bool {
	for _, s := range AllowTransition[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus 判斷狀態是否為終態
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusExpired || status == StatusCancelled
}

type Reservation struct {
	ReservationID  int              `json:"reservation_id" gorm:"primaryKey;autoIncrement;type:INT"`
	StudentID      int              `json:"student_id" gorm:"column:student_id;index;not null;type:INT"`
	VehicleID      int              `json:"vehicle_id" gorm:"column:vehicle_id;index;not null;type:INT"`
	ParkingLotID   int              `json:"parking_lot_id" gorm:"column:parking_lot_id;index;not null;type:INT"`
	Status         string           `json:"status" gorm:"type:enum('pending', 'confirmed', 'active', 'completed', 'expired', 'cancelled');default:'pending';index"`
	StartTime      time.Time        `json:"start_time" gorm:"type:datetime;not null"`
	EndTime        time.Time        `json:"end_time" gorm:"type:datetime;not null"`
	TotalCost      decimal.Decimal  `json:"total_cost" gorm:"type:decimal(10,2)"`
	PaymentType    string           `json:"payment_type" gorm:"type:enum('one_time', 'subscription');default:'one_time'"`
	SubscriptionID *int             `json:"subscription_id" gorm:"column:subscription_id;type:INT"`
	QRToken        string           `json:"-" gorm:"column:qr_token;type:varchar(64);uniqueIndex"` // 不直接回傳，透過 qrcode 端點取得
	SpotReserved   bool             `json:"-" gorm:"column:spot_reserved;type:tinyint(1);default:1"` // 建立時是否實際扣了車位，取消時依此決定要不要歸還
	CheckedIn      bool             `json:"checked_in" gorm:"column:checked_in;type:tinyint(1);default:0"`
	CreatedAt      time.Time        `json:"created_at" gorm:"type:datetime"`

	Student      Student              `json:"-" gorm:"foreignKey:student_id;references:StudentID"`
	Vehicle      Vehicle              `json:"-" gorm:"foreignKey:vehicle_id;references:VehicleID"`
	ParkingLot   ParkingLot           `json:"-" gorm:"foreignKey:parking_lot_id;references:ParkingLotID"`
	Subscription *StudentSubscription `json:"-" gorm:"foreignKey:subscription_id;references:SubscriptionID"`
}

func (Reservation) TableName() string {
	return "reservation"
}

// DeriveStatus 依牆鐘時間推導預約的「真實」狀態（純函式，不寫DB）。
// 終態一律維持原狀；cancel 與 check_in 之外的流轉全部由時間窗推導，
// 避免 DB 內的狀態與實際時間脫節。
func (r *Reservation) DeriveStatus(now time.Time) string {
	if IsTerminalStatus(r.Status) {
		return r.Status
	}
	if !r.EndTime.After(now) { // end_time <= now：時間窗已結束
		if r.CheckedIn {
			return StatusCompleted
		}
		return StatusExpired
	}
	if !r.StartTime.After(now) { // start_time <= now < end_time
		return StatusActive
	}
	return r.Status
}

type SimpleReservationResponse struct {
	ReservationID int             `json:"reservation_id"`
	ParkingLotID  int             `json:"parking_lot_id"`
	VehicleID     int             `json:"vehicle_id"`
	Status        string          `json:"status"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	PaymentType   string          `json:"payment_type"`
	CheckedIn     bool            `json:"checked_in"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ReservationResponse struct {
	ReservationID int                `json:"reservation_id"`
	Status        string             `json:"status"`
	StartTime     time.Time          `json:"start_time"`
	EndTime       time.Time          `json:"end_time"`
	TotalCost     decimal.Decimal    `json:"total_cost"`
	PaymentType   string             `json:"payment_type"`
	CheckedIn     bool               `json:"checked_in"`
	CreatedAt     time.Time          `json:"created_at"`
	Vehicle       VehicleResponse    `json:"vehicle"`
	ParkingLot    ParkingLotResponse `json:"parking_lot"`
}

func (r *Reservation) ToSimpleResponse() SimpleReservationResponse {
	return SimpleReservationResponse{
		ReservationID: r.ReservationID,
		ParkingLotID:  r.ParkingLotID,
		VehicleID:     r.VehicleID,
		Status:        r.Status,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		TotalCost:     r.TotalCost,
		PaymentType:   r.PaymentType,
		CheckedIn:     r.CheckedIn,
		CreatedAt:     r.CreatedAt,
	}
}

func (r *Reservation) ToResponse() ReservationResponse {
	return ReservationResponse{
		ReservationID: r.ReservationID,
		Status:        r.Status,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		TotalCost:     r.TotalCost,
		PaymentType:   r.PaymentType,
		CheckedIn:     r.CheckedIn,
		CreatedAt:     r.CreatedAt,
		Vehicle:       r.Vehicle.ToResponse(),
		ParkingLot:    r.ParkingLot.ToResponse(),
	}
}
