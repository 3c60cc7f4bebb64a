// Package queue 定義透過訊息佇列交換的預約生命週期事件
package queue

// 事件種類
const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCheckedIn = "reservation.checked_in"
)

// ReservationEvent 預約生命週期事件的內容。
// 帶齊下游（通知、報表）需要的欄位，消費端不必回查主資料庫
type ReservationEvent struct {
	Kind          string `json:"kind"`
	ReservationID int    `json:"reservation_id"`
	StudentID     int    `json:"student_id"`
	ParkingLotID  int    `json:"parking_lot_id"`
	LotName       string `json:"lot_name,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
	EndTime       string `json:"end_time,omitempty"`
	TotalCost     string `json:"total_cost,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
