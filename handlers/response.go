package handlers

import (
	"errors"
	"net/http"

	"unipark/services"

	"github.com/gin-gonic/gin"
)

// APIResponse 定義統一的 API 回應結構
type APIResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"` // omitempty 表示如果為空則不顯示
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"` // 機器可讀的錯誤代碼
}

// SuccessResponse 返回成功的回應
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 返回失敗的回應
func ErrorResponse(c *gin.Context, statusCode int, message string, err string) {
	c.JSON(statusCode, APIResponse{
		Status:  false,
		Message: message,
		Error:   err,
	})
}

// errorMapping 哨兵錯誤對應的 HTTP 狀態碼、訊息與錯誤代碼
type errorMapping struct {
	status  int
	message string
	code    string
}

var errorMappings = []struct {
	err     error
	mapping errorMapping
}{
	// 輸入驗證（400）
	{services.ErrEndBeforeStart, errorMapping{http.StatusBadRequest, "結束時間必須晚於開始時間", "ERR_END_BEFORE_START"}},
	{services.ErrInvalidLicensePlate, errorMapping{http.StatusBadRequest, "車牌格式錯誤，應為一個字母加 2~8 位數字", "ERR_INVALID_PLATE"}},
	{services.ErrInvalidTimeOfDay, errorMapping{http.StatusBadRequest, "時間格式錯誤，應為 HH:MM", "ERR_INVALID_TIME"}},
	{services.ErrInvalidCapacity, errorMapping{http.StatusBadRequest, "可用車位數必須介於 0 與總車位數之間", "ERR_INVALID_CAPACITY"}},
	{services.ErrInvalidTotalSpots, errorMapping{http.StatusBadRequest, "總車位數必須大於 0", "ERR_INVALID_TOTAL_SPOTS"}},
	{services.ErrInvalidRate, errorMapping{http.StatusBadRequest, "費率必須是大於等於 0 的數字", "ERR_INVALID_RATE"}},

	// 容量（409）
	{services.ErrNoSpotsAvailable, errorMapping{http.StatusConflict, "該停車場目前沒有可用車位", "ERR_NO_SPOTS"}},

	// 政策（422）
	{services.ErrOutsideOperatingHours, errorMapping{http.StatusUnprocessableEntity, "預約時段超出停車場營業時間", "ERR_OUTSIDE_HOURS"}},
	{services.ErrMaxActiveReservations, errorMapping{http.StatusUnprocessableEntity, "已達同時預約上限", "ERR_MAX_ACTIVE"}},
	{services.ErrCancelWindowClosed, errorMapping{http.StatusUnprocessableEntity, "開始前一小時內不可取消預約", "ERR_CANCEL_WINDOW"}},
	{services.ErrReservationNotCancellable, errorMapping{http.StatusUnprocessableEntity, "該預約已結束或已取消", "ERR_NOT_CANCELLABLE"}},
	{services.ErrSubscriptionRequired, errorMapping{http.StatusUnprocessableEntity, "月租預約必須提供 subscription_id", "ERR_SUBSCRIPTION_REQUIRED"}},
	{services.ErrSubscriptionInvalid, errorMapping{http.StatusUnprocessableEntity, "訂閱已失效或過期", "ERR_SUBSCRIPTION_INVALID"}},
	{services.ErrEmailNotVerified, errorMapping{http.StatusForbidden, "電子郵件尚未驗證", "ERR_EMAIL_NOT_VERIFIED"}},
	{services.ErrVehicleHasReservations, errorMapping{http.StatusUnprocessableEntity, "該車輛仍有未結束的預約", "ERR_VEHICLE_IN_USE"}},

	// 認證（401/400）
	{services.ErrInvalidCredentials, errorMapping{http.StatusUnauthorized, "帳號或密碼錯誤", "ERR_INVALID_CREDENTIALS"}},
	{services.ErrVerificationCodeInvalid, errorMapping{http.StatusBadRequest, "驗證碼錯誤", "ERR_VERIFICATION_CODE"}},

	// 查無資料（404）
	{services.ErrStudentNotFound, errorMapping{http.StatusNotFound, "找不到該學生", "ERR_STUDENT_NOT_FOUND"}},
	{services.ErrVehicleNotFound, errorMapping{http.StatusNotFound, "找不到該車輛", "ERR_VEHICLE_NOT_FOUND"}},
	{services.ErrLotNotFound, errorMapping{http.StatusNotFound, "找不到該停車場", "ERR_LOT_NOT_FOUND"}},
	{services.ErrReservationNotFound, errorMapping{http.StatusNotFound, "找不到該預約", "ERR_RESERVATION_NOT_FOUND"}},
	{services.ErrPlanNotFound, errorMapping{http.StatusNotFound, "找不到該月租方案", "ERR_PLAN_NOT_FOUND"}},
	{services.ErrSubscriptionNotFound, errorMapping{http.StatusNotFound, "找不到有效的訂閱", "ERR_SUBSCRIPTION_NOT_FOUND"}},

	// 重複資料（409）
	{services.ErrEmailTaken, errorMapping{http.StatusConflict, "該電子郵件已被註冊", "ERR_EMAIL_TAKEN"}},
	{services.ErrPhoneTaken, errorMapping{http.StatusConflict, "該電話號碼已被註冊", "ERR_PHONE_TAKEN"}},
	{services.ErrPlateTaken, errorMapping{http.StatusConflict, "該車牌已被註冊", "ERR_PLATE_TAKEN"}},
}

// ServiceErrorResponse 把服務層的哨兵錯誤轉成對應的 HTTP 回應；
// 不認識的錯誤一律回 500，不把內部細節洩漏給呼叫端
func ServiceErrorResponse(c *gin.Context, err error) {
	for _, entry := range errorMappings {
		if errors.Is(err, entry.err) {
			c.JSON(entry.mapping.status, APIResponse{
				Status:  false,
				Message: entry.mapping.message,
				Error:   entry.err.Error(),
				Code:    entry.mapping.code,
			})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, APIResponse{
		Status:  false,
		Message: "伺服器內部錯誤",
		Error:   "internal server error",
		Code:    "ERR_INTERNAL",
	})
}
