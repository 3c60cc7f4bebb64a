package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"unipark/database"
	"unipark/models"
	"unipark/queue"
	"unipark/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxActiveReservations 每位學生同時可持有的未結束預約上限，預設 3
func maxActiveReservations() int {
	if v := os.Getenv("MAX_ACTIVE_RESERVATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("Invalid MAX_ACTIVE_RESERVATIONS %q, falling back to default", v)
	}
	return 3
}

// subscriptionBypassCapacity 月租訂閱是否不佔用車位額度（政策開關，預設關閉）
func subscriptionBypassCapacity() bool {
	return os.Getenv("SUBSCRIPTION_BYPASS_CAPACITY") == "true"
}

// reservesSpot 這種付款方式的預約是否實際佔用車位額度。
// 結果會持久化在 spot_reserved 欄位：取消時只看當初有沒有扣過，
// 不重讀政策開關，扣與還必定成對
func reservesSpot(paymentType string) bool {
	return !(paymentType == models.PaymentSubscription && subscriptionBypassCapacity())
}

// CalculateReservationCost 依時間窗與每小時費率計算費用，允許非整數小時，
// 全程使用 decimal，不做四捨五入（顯示時才處理）
func CalculateReservationCost(startTime, endTime time.Time, hourlyRate decimal.Decimal) (decimal.Decimal, error) {
	if !endTime.After(startTime) {
		return decimal.Zero, ErrEndBeforeStart
	}
	if hourlyRate.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid hourly_rate %s: must not be negative", hourlyRate)
	}

	seconds := decimal.NewFromInt(int64(endTime.Sub(startTime) / time.Second))
	hours := seconds.Div(decimal.NewFromInt(3600))
	return hours.Mul(hourlyRate), nil
}

// parseClock 解析 "HH:MM" 為當日分鐘數
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, ErrInvalidTimeOfDay
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// fitsOperatingHours 檢查預約時間窗是否落在停車場營業時間內。
// closing >= opening 為同日營業：起訖的當日時間都必須落在 [opening, closing]。
// closing < opening 為跨夜營業：只有起點早於開門「且」終點晚於關門才拒絕，
// 其餘（含跨午夜的預約）一律接受。
func fitsOperatingHours(lot *models.ParkingLot, startTime, endTime time.Time) error {
	if lot.OpeningTime == "" || lot.ClosingTime == "" {
		return nil // 未設定營業時間視為 24 小時開放
	}

	opening, err := parseClock(lot.OpeningTime)
	if err != nil {
		return err
	}
	closing, err := parseClock(lot.ClosingTime)
	if err != nil {
		return err
	}
	if opening == closing {
		return nil // 同值視為 24 小時開放
	}

	startTod := minutesOfDay(startTime)
	endTod := minutesOfDay(endTime)

	if closing > opening {
		if startTod < opening || startTod > closing || endTod < opening || endTod > closing {
			return ErrOutsideOperatingHours
		}
		return nil
	}

	// 跨夜窗
	if startTod < opening && endTod > closing {
		return ErrOutsideOperatingHours
	}
	return nil
}

// withinCancelWindow 開始前至少 1 小時才允許取消
func withinCancelWindow(now, startTime time.Time) bool {
	return startTime.Sub(now) >= time.Hour
}

// CreateReservationInput 建立預約所需的輸入
type CreateReservationInput struct {
	StudentID      int
	VehicleID      int
	ParkingLotID   int
	StartTime      time.Time
	EndTime        time.Time
	PaymentType    string
	SubscriptionID *int
}

// CreateReservation 預約車位。驗證依序進行，任何一項失敗都直接拒絕且不留狀態；
// 扣車位、寫入預約、綁定 QR token 在同一筆交易內完成
func CreateReservation(input CreateReservationInput) (*models.Reservation, error) {
	now := time.Now().UTC()

	// a. 時間窗本身必須合法
	if !input.EndTime.After(input.StartTime) {
		return nil, ErrEndBeforeStart
	}

	// 車輛必須屬於本人
	var vehicle models.Vehicle
	if err := database.DB.Where("vehicle_id = ? AND student_id = ?", input.VehicleID, input.StudentID).First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to verify vehicle: %w", err)
	}

	var lot models.ParkingLot
	if err := database.DB.First(&lot, input.ParkingLotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, fmt.Errorf("failed to load parking lot: %w", err)
	}
	if !lot.IsActive {
		return nil, ErrLotNotFound
	}

	// b. 營業時間
	if err := fitsOperatingHours(&lot, input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = models.PaymentOneTime
	}
	if paymentType != models.PaymentOneTime && paymentType != models.PaymentSubscription {
		return nil, fmt.Errorf("invalid payment_type: must be 'one_time' or 'subscription'")
	}

	spotReserved := reservesSpot(paymentType)

	// c. 容量快速檢查（真正的防超賣由交易內的條件式 UPDATE 把關）
	if spotReserved && lot.AvailableSpots <= 0 {
		return nil, ErrNoSpotsAvailable
	}

	// d. 未結束預約數上限
	var activeCount int64
	if err := database.DB.Model(&models.Reservation{}).
		Where("student_id = ? AND status IN ? AND end_time > ?", input.StudentID, models.NonTerminalStatuses, now).
		Count(&activeCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count active reservations: %w", err)
	}
	if activeCount >= int64(maxActiveReservations()) {
		return nil, ErrMaxActiveReservations
	}

	// e. 付款方式：月租訂閱費用為 0，否則按小時計費
	var totalCost decimal.Decimal
	if paymentType == models.PaymentSubscription {
		if input.SubscriptionID == nil {
			return nil, ErrSubscriptionRequired
		}
		var sub models.StudentSubscription
		if err := database.DB.Where("subscription_id = ? AND student_id = ?", *input.SubscriptionID, input.StudentID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSubscriptionNotFound
			}
			return nil, fmt.Errorf("failed to load subscription: %w", err)
		}
		if !sub.IsValid(now) {
			return nil, ErrSubscriptionInvalid
		}
		totalCost = decimal.Zero
	} else {
		cost, err := CalculateReservationCost(input.StartTime, input.EndTime, lot.HourlyRate)
		if err != nil {
			return nil, err
		}
		totalCost = cost
	}

	reservation := &models.Reservation{
		StudentID:      input.StudentID,
		VehicleID:      input.VehicleID,
		ParkingLotID:   lot.ParkingLotID,
		Status:         models.StatusConfirmed,
		StartTime:      input.StartTime,
		EndTime:        input.EndTime,
		TotalCost:      totalCost,
		PaymentType:    paymentType,
		SubscriptionID: input.SubscriptionID,
		SpotReserved:   spotReserved,
	}

	// 扣車位 + 建立預約 + 綁定 token：同一筆交易，失敗全部回滾
	tx := database.DB.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if spotReserved {
		if err := ReserveSpotTx(tx, lot.ParkingLotID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Create(reservation).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	// 預約 ID 產生後才簽發 token，token 與這筆預約一對一綁定
	token := utils.NewCheckInToken()
	if err := tx.Model(reservation).Update("qr_token", token).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to bind qr token: %w", err)
	}
	reservation.QRToken = token

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Reservation %d confirmed: student=%d lot=%d %s ~ %s cost=%s",
		reservation.ReservationID, reservation.StudentID, reservation.ParkingLotID,
		reservation.StartTime.Format(time.RFC3339), reservation.EndTime.Format(time.RFC3339), totalCost)

	queue.PublishReservationEvent(queue.ReservationEvent{
		Kind:          queue.EventReservationConfirmed,
		ReservationID: reservation.ReservationID,
		StudentID:     reservation.StudentID,
		ParkingLotID:  reservation.ParkingLotID,
		LotName:       lot.Name,
		StartTime:     reservation.StartTime.Format(time.RFC3339),
		EndTime:       reservation.EndTime.Format(time.RFC3339),
		TotalCost:     totalCost.StringFixed(2),
		OccurredAt:    now.Format(time.RFC3339),
	})

	return reservation, nil
}

// CancelReservation 取消預約。僅允許狀態機認可的流轉（未結束狀態）
// 且距開始 >= 1 小時；建立時有扣車位的預約才釋放車位（以 total_spots 為上限）。
// 狀態變更用條件式 UPDATE，與狀態掃描並發時不會互相覆寫
func CancelReservation(reservationID, studentID int) error {
	var reservation models.Reservation
	if err := database.DB.Preload("ParkingLot").
		Where("reservation_id = ? AND student_id = ?", reservationID, studentID).
		First(&reservation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		return fmt.Errorf("failed to load reservation: %w", err)
	}

	if !models.CanTransition(reservation.Status, models.StatusCancelled) {
		return ErrReservationNotCancellable
	}

	now := time.Now().UTC()
	if !withinCancelWindow(now, reservation.StartTime) {
		return ErrCancelWindowClosed
	}

	tx := database.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	result := tx.Model(&models.Reservation{}).
		Where("reservation_id = ? AND status IN ?", reservationID, models.NonTerminalStatuses).
		Update("status", models.StatusCancelled)
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to cancel reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// 並發的掃描或另一次取消先改成了終態
		tx.Rollback()
		return ErrReservationNotCancellable
	}

	// 建立時沒扣車位（訂閱免佔額度）的預約不歸還，扣與還必定成對
	if reservation.SpotReserved {
		if err := ReleaseSpotTx(tx, reservation.ParkingLotID); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Reservation %d cancelled by student %d, spot released back to lot %d",
		reservationID, studentID, reservation.ParkingLotID)

	queue.PublishReservationEvent(queue.ReservationEvent{
		Kind:          queue.EventReservationCancelled,
		ReservationID: reservationID,
		StudentID:     studentID,
		ParkingLotID:  reservation.ParkingLotID,
		LotName:       reservation.ParkingLot.Name,
		OccurredAt:    now.Format(time.RFC3339),
	})

	return nil
}

// CheckInReservation 報到。已報到時回傳 alreadyCheckedIn=true 而不是錯誤；
// 報到本身不改變 status，狀態仍由時間窗推導
func CheckInReservation(reservationID, studentID int) (alreadyCheckedIn bool, err error) {
	var reservation models.Reservation
	if err := database.DB.Where("reservation_id = ? AND student_id = ?", reservationID, studentID).
		First(&reservation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrReservationNotFound
		}
		return false, fmt.Errorf("failed to load reservation: %w", err)
	}
	return markCheckedIn(&reservation)
}

// CheckInByToken 以 QR token 報到（閘門掃描用）
func CheckInByToken(token string) (*models.Reservation, bool, error) {
	var reservation models.Reservation
	if err := database.DB.Where("qr_token = ?", token).First(&reservation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrReservationNotFound
		}
		return nil, false, fmt.Errorf("failed to load reservation by token: %w", err)
	}
	already, err := markCheckedIn(&reservation)
	return &reservation, already, err
}

func markCheckedIn(reservation *models.Reservation) (bool, error) {
	if reservation.CheckedIn {
		return true, nil
	}

	if err := database.DB.Model(reservation).Update("checked_in", true).Error; err != nil {
		return false, fmt.Errorf("failed to check in: %w", err)
	}
	reservation.CheckedIn = true

	log.Printf("Reservation %d checked in", reservation.ReservationID)
	queue.PublishReservationEvent(queue.ReservationEvent{
		Kind:          queue.EventReservationCheckedIn,
		ReservationID: reservation.ReservationID,
		StudentID:     reservation.StudentID,
		ParkingLotID:  reservation.ParkingLotID,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})
	return false, nil
}

// RefreshReservationStatuses 依牆鐘時間批次更新預約狀態。
// 三條帶條件的 UPDATE，天生冪等，任何讀取路徑或排程都可以放心重複呼叫；
// 終態的預約不符合任何條件，與並發的取消不會打架。
// 過期（未報到）的預約不釋放車位：時間窗已結束，車位本來就被佔用過了
func RefreshReservationStatuses() error {
	now := time.Now().UTC()
	promotable := []string{models.StatusPending, models.StatusConfirmed}

	// 1. 時間窗已開始 -> active
	if err := database.DB.Model(&models.Reservation{}).
		Where("status IN ? AND start_time <= ? AND end_time > ?", promotable, now, now).
		Update("status", models.StatusActive).Error; err != nil {
		return fmt.Errorf("failed to promote reservations to active: %w", err)
	}

	// 2. 時間窗已結束且有報到 -> completed
	if err := database.DB.Model(&models.Reservation{}).
		Where("status IN ? AND end_time <= ? AND checked_in = ?", models.NonTerminalStatuses, now, true).
		Update("status", models.StatusCompleted).Error; err != nil {
		return fmt.Errorf("failed to complete reservations: %w", err)
	}

	// 3. 時間窗已結束且未報到 -> expired
	if err := database.DB.Model(&models.Reservation{}).
		Where("status IN ? AND end_time <= ? AND checked_in = ?", models.NonTerminalStatuses, now, false).
		Update("status", models.StatusExpired).Error; err != nil {
		return fmt.Errorf("failed to expire reservations: %w", err)
	}

	return nil
}

// ListReservations 查學生自己的預約，可依狀態過濾；查詢前先跑一次狀態掃描
func ListReservations(studentID int, status string) ([]models.Reservation, error) {
	if err := RefreshReservationStatuses(); err != nil {
		log.Printf("Failed to refresh reservation statuses before listing: %v", err)
	}

	query := database.DB.Preload("Vehicle").Preload("ParkingLot").
		Where("student_id = ?", studentID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var reservations []models.Reservation
	if err := query.Order("created_at DESC").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	// 掃描與讀取之間仍有時間差，回傳前以牆鐘時間推導最終狀態
	now := time.Now().UTC()
	for i := range reservations {
		reservations[i].Status = reservations[i].DeriveStatus(now)
	}
	return reservations, nil
}

// GetReservation 查單筆預約（僅限本人）
func GetReservation(reservationID, studentID int) (*models.Reservation, error) {
	if err := RefreshReservationStatuses(); err != nil {
		log.Printf("Failed to refresh reservation statuses before get: %v", err)
	}

	var reservation models.Reservation
	if err := database.DB.Preload("Vehicle").Preload("ParkingLot").
		Where("reservation_id = ? AND student_id = ?", reservationID, studentID).
		First(&reservation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	reservation.Status = reservation.DeriveStatus(time.Now().UTC())
	return &reservation, nil
}

// loadReservationWithToken 載入本人的預約並確保 qr_token 存在。
// token 在建立時就綁定；舊資料補發一次，之後永遠沿用同一個
func loadReservationWithToken(reservationID, studentID int) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := database.DB.Where("reservation_id = ? AND student_id = ?", reservationID, studentID).
		First(&reservation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}

	if reservation.QRToken == "" {
		token := utils.NewCheckInToken()
		if err := database.DB.Model(&reservation).Update("qr_token", token).Error; err != nil {
			return nil, fmt.Errorf("failed to bind qr token: %w", err)
		}
		reservation.QRToken = token
	}
	return &reservation, nil
}

// GetReservationQRCode 取得預約的 QR code PNG，只重畫圖片，不會換掉 token
func GetReservationQRCode(reservationID, studentID int) ([]byte, error) {
	reservation, err := loadReservationWithToken(reservationID, studentID)
	if err != nil {
		return nil, err
	}
	return utils.GenerateQRCodePNG(reservation.QRToken)
}

// GetReservationQRCodeBase64 取得 base64 編碼的 QR code，給 app 直接內嵌
func GetReservationQRCodeBase64(reservationID, studentID int) (string, error) {
	reservation, err := loadReservationWithToken(reservationID, studentID)
	if err != nil {
		return "", err
	}
	return utils.GenerateQRCode(reservation.QRToken)
}
