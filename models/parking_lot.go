package models

import (
	"github.com/shopspring/decimal"
)

// ParkingLot 定義停車場模型
type ParkingLot struct {
	ParkingLotID   int             `json:"parking_lot_id" gorm:"primaryKey;autoIncrement;type:INT"`
	OwnerID        *int            `json:"owner_id" gorm:"column:owner_id;index;type:INT"` // 可為空：校方自營停車場沒有個別擁有者
	Name           string          `json:"name" gorm:"type:varchar(100);not null" binding:"required,max=100"`
	Address        string          `json:"address" gorm:"type:varchar(255)" binding:"omitempty,max=255"`
	Latitude       float64         `json:"latitude" gorm:"type:decimal(10,8)" binding:"omitempty,gte=-90,lte=90"`
	Longitude      float64         `json:"longitude" gorm:"type:decimal(11,8)" binding:"omitempty,gte=-180,lte=180"`
	HourlyRate     decimal.Decimal `json:"hourly_rate" gorm:"type:decimal(6,2)"`
	DailyRate      decimal.Decimal `json:"daily_rate" gorm:"type:decimal(6,2)"`
	MonthlyRate    decimal.Decimal `json:"monthly_rate" gorm:"type:decimal(8,2)"`
	TotalSpots     int             `json:"total_spots" gorm:"type:INT;not null"`
	AvailableSpots int             `json:"available_spots" gorm:"type:INT;not null"`
	OpeningTime    string          `json:"opening_time" gorm:"type:varchar(5)"` // "HH:MM"
	ClosingTime    string          `json:"closing_time" gorm:"type:varchar(5)"` // "HH:MM"，早於 opening_time 代表跨夜營業
	Features       string          `json:"features" gorm:"type:text"`
	IsActive       bool            `json:"is_active" gorm:"type:tinyint(1);default:1"`
	Reservations   []Reservation   `json:"-" gorm:"foreignKey:parking_lot_id;references:ParkingLotID"`
	Distance       float64         `json:"-" gorm:"-"` // transient，不存DB，用於附近搜尋排序
}

func (ParkingLot) TableName() string {
	return "parking_lot"
}

// ParkingLotResponse 定義停車場回應結構
type ParkingLotResponse struct {
	ParkingLotID   int             `json:"parking_lot_id"`
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Latitude       float64         `json:"latitude"`
	Longitude      float64         `json:"longitude"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	DailyRate      decimal.Decimal `json:"daily_rate"`
	MonthlyRate    decimal.Decimal `json:"monthly_rate"`
	TotalSpots     int             `json:"total_spots"`
	AvailableSpots int             `json:"available_spots"`
	OpeningTime    string          `json:"opening_time"`
	ClosingTime    string          `json:"closing_time"`
	Features       string          `json:"features,omitempty"`
	IsActive       bool            `json:"is_active"`
	Distance       float64         `json:"distance_km,omitempty"`
}

func (p *ParkingLot) ToResponse() ParkingLotResponse {
	return ParkingLotResponse{
		ParkingLotID:   p.ParkingLotID,
		Name:           p.Name,
		Address:        p.Address,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		HourlyRate:     p.HourlyRate,
		DailyRate:      p.DailyRate,
		MonthlyRate:    p.MonthlyRate,
		TotalSpots:     p.TotalSpots,
		AvailableSpots: p.AvailableSpots,
		OpeningTime:    p.OpeningTime,
		ClosingTime:    p.ClosingTime,
		Features:       p.Features,
		IsActive:       p.IsActive,
		Distance:       p.Distance,
	}
}

// UpdateParkingLotRequest 用於 PUT 更新
type UpdateParkingLotRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=100"`
	Address     *string  `json:"address" binding:"omitempty,max=255"`
	HourlyRate  *string  `json:"hourly_rate"`
	DailyRate   *string  `json:"daily_rate"`
	MonthlyRate *string  `json:"monthly_rate"`
	TotalSpots  *int     `json:"total_spots" binding:"omitempty,gt=0"`
	OpeningTime *string  `json:"opening_time"`
	ClosingTime *string  `json:"closing_time"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	Features    *string  `json:"features"`
	IsActive    *bool    `json:"is_active"`
}
