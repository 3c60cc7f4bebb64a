// 服務層共用的哨兵錯誤。讓 handler 可以用 errors.Is 區分失敗原因、
// 對應到正確的 HTTP 狀態碼，而不是比對錯誤字串。
// 所有被拒絕的操作都不留下任何部分狀態。
package services

import "errors"

// 輸入驗證錯誤（400）
var (
	ErrEndBeforeStart      = errors.New("end_time must be after start_time")
	ErrInvalidLicensePlate = errors.New("invalid license plate format, expected a letter followed by 2-8 digits, e.g. B 123456")
	ErrInvalidTimeOfDay    = errors.New("invalid time of day, expected HH:MM")
	ErrInvalidCapacity     = errors.New("available_spots must be between 0 and total_spots")
	ErrInvalidTotalSpots   = errors.New("total_spots must be greater than 0")
	ErrInvalidRate         = errors.New("rates must be non-negative decimal numbers")
)

// 容量錯誤（409）：包含同時搶最後一個車位輸掉的情況，
// 條件式 UPDATE 影響 0 列時同樣回報此錯誤，不靜默重試
var ErrNoSpotsAvailable = errors.New("no available spots in this parking lot")

// 政策錯誤（422）
var (
	ErrOutsideOperatingHours     = errors.New("requested window is outside the lot's operating hours")
	ErrMaxActiveReservations     = errors.New("maximum number of active reservations reached")
	ErrCancelWindowClosed        = errors.New("too late to cancel, cancellations are only allowed up to 1 hour before start")
	ErrReservationNotCancellable = errors.New("reservation is already completed, expired or cancelled")
	ErrSubscriptionRequired      = errors.New("subscription_id is required for subscription-based reservations")
	ErrSubscriptionInvalid       = errors.New("subscription is not active or has expired")
	ErrEmailNotVerified          = errors.New("email is not verified")
	ErrVehicleHasReservations    = errors.New("vehicle still has open reservations")
)

// 認證錯誤（401）。查無帳號與密碼錯誤共用同一個錯誤，避免帳號枚舉
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrVerificationCodeInvalid = errors.New("invalid verification code")
)

// 查無資料／非本人資源（404）
var (
	ErrStudentNotFound      = errors.New("student not found")
	ErrVehicleNotFound      = errors.New("vehicle not found")
	ErrLotNotFound          = errors.New("parking lot not found")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// 重複資料（409）
var (
	ErrEmailTaken = errors.New("email is already in use")
	ErrPhoneTaken = errors.New("phone is already in use")
	ErrPlateTaken = errors.New("license plate is already registered")
)
