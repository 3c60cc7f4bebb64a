package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"unipark/database"
	"unipark/models"

	"gorm.io/gorm"
)

// 車牌規則：一個英文字母加 2~8 位數字，正規化後以單一空白分隔，例如 "B 123456"
var licensePlateRegex = regexp.MustCompile(`^([A-Z])([0-9]{2,8})$`)

// NormalizeLicensePlate 把使用者輸入整理成標準車牌格式。
// 先去除所有空白並轉大寫再比對，同一個車牌不會因為大小寫或空格
// 差異被重複註冊
func NormalizeLicensePlate(raw string) (string, error) {
	compact := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	matches := licensePlateRegex.FindStringSubmatch(compact)
	if matches == nil {
		return "", ErrInvalidLicensePlate
	}
	return matches[1] + " " + matches[2], nil
}

// RegisterVehicle 註冊車輛。第一台車自動設為主要車輛；
// 指定 is_primary 時把同學生其他車輛降為非主要
func RegisterVehicle(vehicle *models.Vehicle) error {
	plate, err := NormalizeLicensePlate(vehicle.LicensePlate)
	if err != nil {
		return err
	}
	vehicle.LicensePlate = plate

	var student models.Student
	if err := database.DB.First(&student, vehicle.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to verify student: %w", err)
	}

	var count int64
	if err := database.DB.Model(&models.Vehicle{}).
		Where("license_plate = ?", plate).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check license plate: %w", err)
	}
	if count > 0 {
		return ErrPlateTaken
	}

	var owned int64
	if err := database.DB.Model(&models.Vehicle{}).
		Where("student_id = ?", vehicle.StudentID).
		Count(&owned).Error; err != nil {
		return fmt.Errorf("failed to count vehicles: %w", err)
	}
	if owned == 0 {
		vehicle.IsPrimary = true
	}

	tx := database.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to start transaction: %w", tx.Error)
	}

	if vehicle.IsPrimary && owned > 0 {
		if err := tx.Model(&models.Vehicle{}).
			Where("student_id = ?", vehicle.StudentID).
			Update("is_primary", false).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to demote primary vehicle: %w", err)
		}
	}

	if err := tx.Create(vehicle).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to register vehicle for student %d: %v", vehicle.StudentID, err)
		return fmt.Errorf("failed to register vehicle: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Successfully registered vehicle %d (%s) for student %d", vehicle.VehicleID, plate, vehicle.StudentID)
	return nil
}

// GetStudentVehicles 查學生名下所有車輛，主要車輛排最前面
func GetStudentVehicles(studentID int) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := database.DB.
		Where("student_id = ?", studentID).
		Order("is_primary DESC, created_at ASC").
		Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	return vehicles, nil
}

// GetVehicleByID 查特定車輛並驗證所有權
func GetVehicleByID(vehicleID, studentID int) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := database.DB.
		Where("vehicle_id = ? AND student_id = ?", vehicleID, studentID).
		First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to get vehicle %d: %w", vehicleID, err)
	}
	return &vehicle, nil
}

// UpdateVehicleRequest 車輛更新請求
type UpdateVehicleRequest struct {
	Make         *string `json:"make" binding:"omitempty,max=50"`
	Model        *string `json:"model" binding:"omitempty,max=50"`
	Year         *int    `json:"year" binding:"omitempty,gte=1990,lte=2026"`
	LicensePlate *string `json:"license_plate"`
	Color        *string `json:"color" binding:"omitempty,max=30"`
	IsPrimary    *bool   `json:"is_primary"`
}

// UpdateVehicle 更新車輛資料，僅限車主本人
func UpdateVehicle(vehicleID, studentID int, req *UpdateVehicleRequest) (*models.Vehicle, error) {
	vehicle, err := GetVehicleByID(vehicleID, studentID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Make != nil {
		updates["make"] = *req.Make
	}
	if req.Model != nil {
		updates["model"] = *req.Model
	}
	if req.Year != nil {
		updates["year"] = *req.Year
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.LicensePlate != nil {
		plate, err := NormalizeLicensePlate(*req.LicensePlate)
		if err != nil {
			return nil, err
		}
		if plate != vehicle.LicensePlate {
			var count int64
			if err := database.DB.Model(&models.Vehicle{}).
				Where("license_plate = ? AND vehicle_id != ?", plate, vehicleID).
				Count(&count).Error; err != nil {
				return nil, fmt.Errorf("failed to check license plate: %w", err)
			}
			if count > 0 {
				return nil, ErrPlateTaken
			}
			updates["license_plate"] = plate
		}
	}

	tx := database.DB.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", tx.Error)
	}

	if req.IsPrimary != nil && *req.IsPrimary && !vehicle.IsPrimary {
		if err := tx.Model(&models.Vehicle{}).
			Where("student_id = ? AND vehicle_id != ?", studentID, vehicleID).
			Update("is_primary", false).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to demote primary vehicle: %w", err)
		}
		updates["is_primary"] = true
	}

	if len(updates) > 0 {
		if err := tx.Model(vehicle).Updates(updates).Error; err != nil {
			tx.Rollback()
			log.Printf("Failed to update vehicle %d: %v", vehicleID, err)
			return nil, fmt.Errorf("failed to update vehicle: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := database.DB.First(vehicle, vehicleID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload vehicle: %w", err)
	}
	return vehicle, nil
}

// DeleteVehicle 刪除車輛。還有未結束預約（pending/confirmed/active 且
// 尚未到期）的車輛不能刪，避免預約變成孤兒
func DeleteVehicle(vehicleID, studentID int) error {
	vehicle, err := GetVehicleByID(vehicleID, studentID)
	if err != nil {
		return err
	}

	var open int64
	if err := database.DB.Model(&models.Reservation{}).
		Where("vehicle_id = ? AND status IN ? AND end_time > ?",
			vehicleID, models.NonTerminalStatuses, time.Now().UTC()).
		Count(&open).Error; err != nil {
		return fmt.Errorf("failed to check open reservations: %w", err)
	}
	if open > 0 {
		return ErrVehicleHasReservations
	}

	if err := database.DB.Delete(vehicle).Error; err != nil {
		log.Printf("Failed to delete vehicle %d: %v", vehicleID, err)
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	log.Printf("Successfully deleted vehicle %d for student %d", vehicleID, studentID)
	return nil
}
