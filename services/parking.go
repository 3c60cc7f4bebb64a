package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"unipark/database"
	"unipark/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateParkingLot 建立停車場。available_spots 不得超過 total_spots；
// 未指定時預設全部開放
func CreateParkingLot(lot *models.ParkingLot) error {
	if lot.TotalSpots <= 0 {
		return ErrInvalidTotalSpots
	}
	if lot.AvailableSpots == 0 {
		lot.AvailableSpots = lot.TotalSpots
	}
	if lot.AvailableSpots < 0 || lot.AvailableSpots > lot.TotalSpots {
		return ErrInvalidCapacity
	}
	if lot.HourlyRate.IsNegative() || lot.DailyRate.IsNegative() || lot.MonthlyRate.IsNegative() {
		return ErrInvalidRate
	}

	// 營業時間格式先驗證再入庫
	for _, clock := range []string{lot.OpeningTime, lot.ClosingTime} {
		if clock == "" {
			continue
		}
		if _, err := parseClock(clock); err != nil {
			return err
		}
	}

	lot.IsActive = true
	if err := database.DB.Create(lot).Error; err != nil {
		log.Printf("Failed to create parking lot: %v", err)
		return fmt.Errorf("failed to create parking lot: %w", err)
	}

	log.Printf("Successfully created parking lot %d (%s) with %d spots", lot.ParkingLotID, lot.Name, lot.TotalSpots)
	return nil
}

// GetActiveParkingLots 查所有啟用中的停車場
func GetActiveParkingLots() ([]models.ParkingLot, error) {
	var lots []models.ParkingLot
	if err := database.DB.Where("is_active = ?", true).Find(&lots).Error; err != nil {
		return nil, fmt.Errorf("failed to query parking lots: %w", err)
	}
	return lots, nil
}

// GetParkingLotByID 查特定停車場
func GetParkingLotByID(id int) (*models.ParkingLot, error) {
	var lot models.ParkingLot
	if err := database.DB.First(&lot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, fmt.Errorf("failed to get parking lot by ID %d: %w", id, err)
	}
	return &lot, nil
}

// GetNearbyParkingLots 依經緯度與半徑（公里）查附近的停車場，近的排前面
func GetNearbyParkingLots(latitude, longitude, radius float64) ([]models.ParkingLot, error) {
	if radius <= 0 {
		radius = 3.0
	}
	if radius > 50 {
		radius = 50.0
	}

	distanceSQL := `
        6371 * acos(
            cos(radians(?)) * cos(radians(parking_lot.latitude)) *
            cos(radians(parking_lot.longitude) - radians(?)) +
            sin(radians(?)) * sin(radians(parking_lot.latitude))
        )
    `

	var lots []models.ParkingLot
	err := database.DB.
		Select("*, "+distanceSQL+" AS distance", latitude, longitude, latitude).
		Where("is_active = ?", true).
		Where("latitude != 0 AND longitude != 0").
		Where(distanceSQL+" <= ?", latitude, longitude, latitude, radius).
		Order("distance").
		Find(&lots).Error
	if err != nil {
		log.Printf("Failed to query nearby parking lots: %v", err)
		return nil, fmt.Errorf("failed to query nearby parking lots: %w", err)
	}

	log.Printf("Successfully retrieved %d parking lots within %.1f km", len(lots), radius)
	return lots, nil
}

// UpdateParkingLot 更新停車場資料。調整 total_spots 時同步夾住 available_spots，
// 維持 0 <= available <= total 不變量
func UpdateParkingLot(id int, req *models.UpdateParkingLotRequest) (*models.ParkingLot, error) {
	var lot models.ParkingLot
	if err := database.DB.First(&lot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, fmt.Errorf("failed to find parking lot with ID %d: %w", id, err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	for field, raw := range map[string]*string{
		"hourly_rate":  req.HourlyRate,
		"daily_rate":   req.DailyRate,
		"monthly_rate": req.MonthlyRate,
	} {
		if raw == nil {
			continue
		}
		rate, err := decimal.NewFromString(*raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", field, ErrInvalidRate)
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("invalid %s: %w", field, ErrInvalidRate)
		}
		updates[field] = rate
	}
	if req.TotalSpots != nil {
		if *req.TotalSpots <= 0 {
			return nil, ErrInvalidTotalSpots
		}
		updates["total_spots"] = *req.TotalSpots
		if lot.AvailableSpots > *req.TotalSpots {
			updates["available_spots"] = *req.TotalSpots
		}
	}
	for field, clock := range map[string]*string{
		"opening_time": req.OpeningTime,
		"closing_time": req.ClosingTime,
	} {
		if clock == nil {
			continue
		}
		if *clock != "" {
			if _, err := parseClock(*clock); err != nil {
				return nil, err
			}
		}
		updates[field] = *clock
	}
	if req.Latitude != nil {
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		updates["longitude"] = *req.Longitude
	}
	if req.Features != nil {
		updates["features"] = *req.Features
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return &lot, nil
	}

	if err := database.DB.Model(&lot).Updates(updates).Error; err != nil {
		log.Printf("Failed to update parking lot %d: %v", id, err)
		return nil, fmt.Errorf("failed to update parking lot: %w", err)
	}

	if err := database.DB.First(&lot, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload parking lot: %w", err)
	}
	log.Printf("Successfully updated parking lot %d", id)
	return &lot, nil
}

// DeactivateParkingLot 停用停車場（保留歷史預約，不做實體刪除）
func DeactivateParkingLot(id int) error {
	result := database.DB.Model(&models.ParkingLot{}).
		Where("parking_lot_id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate parking lot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLotNotFound
	}
	log.Printf("Parking lot %d deactivated", id)
	return nil
}

// ReserveSpotTx 佔用一個車位。單一條件式 UPDATE：available_spots > 0 才扣，
// 兩個請求同時搶最後一個車位時只有一個會成功，輸的拿到 ErrNoSpotsAvailable，
// 不會扣到負數也不會超賣
func ReserveSpotTx(tx *gorm.DB, lotID int) error {
	result := tx.Model(&models.ParkingLot{}).
		Where("parking_lot_id = ? AND available_spots > 0", lotID).
		Update("available_spots", gorm.Expr("available_spots - 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to reserve spot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoSpotsAvailable
	}
	return nil
}

// ReleaseSpotTx 釋放一個車位，上限為 total_spots。
// MySQL 在值沒變時回報 0 affected rows，所以這裡不把 0 列當錯誤
// （available 已達上限時 LEAST 會保持原值）
func ReleaseSpotTx(tx *gorm.DB, lotID int) error {
	result := tx.Model(&models.ParkingLot{}).
		Where("parking_lot_id = ?", lotID).
		Update("available_spots", gorm.Expr("LEAST(available_spots + 1, total_spots)"))
	if result.Error != nil {
		return fmt.Errorf("failed to release spot: %w", result.Error)
	}
	return nil
}

// OwnerDashboard 停車場擁有者的營運概況
type OwnerDashboard struct {
	TodayBookings int64           `json:"today_bookings"`
	TotalSpots    int64           `json:"total_spots"`
	OccupancyPct  int             `json:"occupancy_pct"`
	TodayRevenue  decimal.Decimal `json:"today_revenue"`
}

// GetOwnerDashboard 計算擁有者名下所有停車場的當日營運數據
func GetOwnerDashboard(ownerID int) (*OwnerDashboard, error) {
	var lotIDs []int
	if err := database.DB.Model(&models.ParkingLot{}).
		Where("owner_id = ?", ownerID).
		Pluck("parking_lot_id", &lotIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to query owned lots: %w", err)
	}
	if len(lotIDs) == 0 {
		return nil, ErrLotNotFound
	}

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	dashboard := &OwnerDashboard{}

	if err := database.DB.Model(&models.Reservation{}).
		Where("parking_lot_id IN ? AND created_at >= ?", lotIDs, startOfDay).
		Count(&dashboard.TodayBookings).Error; err != nil {
		return nil, fmt.Errorf("failed to count today's bookings: %w", err)
	}

	var totals struct {
		TotalSpots     int64
		AvailableSpots int64
	}
	if err := database.DB.Model(&models.ParkingLot{}).
		Select("COALESCE(SUM(total_spots), 0) AS total_spots, COALESCE(SUM(available_spots), 0) AS available_spots").
		Where("parking_lot_id IN ?", lotIDs).
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("failed to sum spot counts: %w", err)
	}
	dashboard.TotalSpots = totals.TotalSpots
	if totals.TotalSpots > 0 {
		dashboard.OccupancyPct = int((totals.TotalSpots - totals.AvailableSpots) * 100 / totals.TotalSpots)
	}

	var revenue decimal.Decimal
	if err := database.DB.Model(&models.Reservation{}).
		Where("parking_lot_id IN ? AND created_at >= ? AND status IN ?",
			lotIDs, startOfDay, []string{models.StatusConfirmed, models.StatusActive, models.StatusCompleted}).
		Select("COALESCE(SUM(total_cost), 0)").
		Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum today's revenue: %w", err)
	}
	dashboard.TodayRevenue = revenue

	return dashboard, nil
}
