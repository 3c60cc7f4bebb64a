package models

import "time"

// 帳號角色常數
const (
	RoleStudent = "student"
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
)

type Student struct {
	StudentID        int            `json:"student_id" gorm:"primaryKey;autoIncrement;type:INT"`
	Name             string         `json:"name" gorm:"type:varchar(50);not null" binding:"required,max=50"`
	Email            string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null" binding:"required,email"`
	Phone            string         `json:"phone" gorm:"type:varchar(20)"`
	Password         string         `json:"password" gorm:"type:varchar(100);not null" binding:"required,min=8"`
	Role             string         `json:"role" gorm:"type:enum('student', 'owner', 'admin');default:'student'"`
	EmailVerified    bool           `json:"email_verified" gorm:"type:tinyint(1);default:0"`
	VerificationCode string         `json:"-" gorm:"type:varchar(6)"`
	CreatedAt        time.Time      `json:"created_at" gorm:"type:datetime"`
	Vehicles         []Vehicle      `json:"-" gorm:"foreignKey:student_id;references:StudentID"`
	Reservations     []Reservation  `json:"-" gorm:"foreignKey:student_id;references:StudentID"`
}

func (Student) TableName() string {
	return "student"
}

type SimpleStudentResponse struct {
	StudentID     int    `json:"student_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

type StudentResponse struct {
	StudentID     int                   `json:"student_id"`
	Name          string                `json:"name"`
	Email         string                `json:"email"`
	Phone         string                `json:"phone"`
	Role          string                `json:"role"`
	EmailVerified bool                  `json:"email_verified"`
	Vehicles      []VehicleResponse     `json:"vehicles"`
	Reservations  []SimpleReservationResponse `json:"reservations"`
}

func (s *Student) ToSimpleResponse() SimpleStudentResponse {
	return SimpleStudentResponse{
		StudentID:     s.StudentID,
		Name:          s.Name,
		Email:         s.Email,
		Phone:         s.Phone,
		Role:          s.Role,
		EmailVerified: s.EmailVerified,
	}
}

func (s *Student) ToResponse() StudentResponse {
	vehicles := make([]VehicleResponse, len(s.Vehicles))
	for i, vehicle := range s.Vehicles {
		vehicles[i] = vehicle.ToResponse()
	}

	reservations := make([]SimpleReservationResponse, len(s.Reservations))
	for i, reservation := range s.Reservations {
		reservations[i] = reservation.ToSimpleResponse()
	}

	return StudentResponse{
		StudentID:     s.StudentID,
		Name:          s.Name,
		Email:         s.Email,
		Phone:         s.Phone,
		Role:          s.Role,
		EmailVerified: s.EmailVerified,
		Vehicles:      vehicles,
		Reservations:  reservations,
	}
}
