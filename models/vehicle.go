package models

import "time"

// Vehicle 車輛表：支援一人多車 + 預設車牌
type Vehicle struct {
	VehicleID    int    `json:"vehicle_id" gorm:"primaryKey;autoIncrement;type:INT"`
	StudentID    int    `json:"student_id" gorm:"column:student_id;index:idx_student;not null"`
	Make         string `json:"make" gorm:"size:50" binding:"required,max=50"`
	Model        string `json:"model" gorm:"size:50" binding:"required,max=50"`
	Year         int    `json:"year" gorm:"type:INT" binding:"required,gte=1990,lte=2026"`
	LicensePlate string `json:"license_plate" gorm:"size:20;uniqueIndex;column:license_plate" binding:"required"`
	Color        string `json:"color,omitempty" gorm:"size:30"`
	IsPrimary    bool   `json:"is_primary" gorm:"column:is_primary;default:false"`

	// 關聯：這台車屬於哪個學生（可選 Preload）
	Student Student `json:"-" gorm:"foreignKey:StudentID;references:StudentID"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName 指定表名（可選，預設就是 vehicle）
func (Vehicle) TableName() string {
	return "vehicle"
}

// 給前端用的回應結構
type VehicleResponse struct {
	VehicleID    int    `json:"vehicle_id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"license_plate"`
	Color        string `json:"color,omitempty"`
	IsPrimary    bool   `json:"is_primary"`
	CreatedAt    string `json:"created_at"`
}

func (v *Vehicle) ToResponse() VehicleResponse {
	return VehicleResponse{
		VehicleID:    v.VehicleID,
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		LicensePlate: v.LicensePlate,
		Color:        v.Color,
		IsPrimary:    v.IsPrimary,
		CreatedAt:    v.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
