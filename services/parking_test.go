package services

import (
	"errors"
	"testing"

	"unipark/models"

	"github.com/shopspring/decimal"
)

// 建立停車場的輸入驗證都發生在碰資料庫之前，壞輸入必須對應到
// 正確的哨兵錯誤而不是籠統的伺服器錯誤
func TestCreateParkingLotValidation(t *testing.T) {
	cases := []struct {
		name string
		lot  models.ParkingLot
		want error
	}{
		{
			name: "zero total spots",
			lot:  models.ParkingLot{Name: "North Lot", TotalSpots: 0},
			want: ErrInvalidTotalSpots,
		},
		{
			name: "negative total spots",
			lot:  models.ParkingLot{Name: "North Lot", TotalSpots: -3},
			want: ErrInvalidTotalSpots,
		},
		{
			name: "available exceeds total",
			lot:  models.ParkingLot{Name: "North Lot", TotalSpots: 5, AvailableSpots: 9},
			want: ErrInvalidCapacity,
		},
		{
			name: "negative available",
			lot:  models.ParkingLot{Name: "North Lot", TotalSpots: 5, AvailableSpots: -1},
			want: ErrInvalidCapacity,
		},
		{
			name: "negative hourly rate",
			lot:  models.ParkingLot{Name: "North Lot", TotalSpots: 5, HourlyRate: decimal.NewFromInt(-2)},
			want: ErrInvalidRate,
		},
		{
			name: "malformed opening time",
			lot:  models.ParkingLot{Name: "North Lot", TotalSpots: 5, OpeningTime: "8am", ClosingTime: "20:00"},
			want: ErrInvalidTimeOfDay,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := CreateParkingLot(&tc.lot); !errors.Is(err, tc.want) {
				t.Fatalf("CreateParkingLot() = %v, want %v", err, tc.want)
			}
		})
	}
}
