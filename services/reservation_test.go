package services

import (
	"errors"
	"testing"
	"time"

	"unipark/models"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestCalculateReservationCost(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		rate  string
		want  string
	}{
		{"two hours at 3", base, base.Add(2 * time.Hour), "3", "6"},
		{"two and a half hours at 2", base, base.Add(150 * time.Minute), "2", "5"},
		{"quarter hour at 4", base, base.Add(15 * time.Minute), "4", "1"},
		{"free lot", base, base.Add(3 * time.Hour), "0", "0"},
		{"fractional rate", base, base.Add(time.Hour), "2.50", "2.50"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateReservationCost(tc.start, tc.end, mustDecimal(t, tc.rate))
			if err != nil {
				t.Fatalf("CalculateReservationCost() error: %v", err)
			}
			if !got.Equal(mustDecimal(t, tc.want)) {
				t.Fatalf("CalculateReservationCost() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestCalculateReservationCostRejectsBadWindow(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rate := mustDecimal(t, "3")

	if _, err := CalculateReservationCost(base, base, rate); !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("zero-length window: got %v, want ErrEndBeforeStart", err)
	}
	if _, err := CalculateReservationCost(base, base.Add(-time.Hour), rate); !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("negative window: got %v, want ErrEndBeforeStart", err)
	}
}

func TestParseClock(t *testing.T) {
	got, err := parseClock("08:30")
	if err != nil {
		t.Fatalf("parseClock(08:30) error: %v", err)
	}
	if got != 8*60+30 {
		t.Fatalf("parseClock(08:30) = %d, want %d", got, 8*60+30)
	}

	for _, bad := range []string{"8:3", "25:00", "08:61", "abc", ""} {
		if _, err := parseClock(bad); !errors.Is(err, ErrInvalidTimeOfDay) {
			t.Errorf("parseClock(%q): got %v, want ErrInvalidTimeOfDay", bad, err)
		}
	}
}

func TestFitsOperatingHours(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	at := func(hour, minute int) time.Time {
		return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	}

	cases := []struct {
		name    string
		opening string
		closing string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"no hours configured means always open", "", "", at(2, 0), at(4, 0), false},
		{"equal hours means always open", "00:00", "00:00", at(2, 0), at(4, 0), false},

		// 同日營業 08:00-20:00
		{"same-day window inside hours", "08:00", "20:00", at(9, 0), at(11, 0), false},
		{"same-day window at exact boundaries", "08:00", "20:00", at(8, 0), at(20, 0), false},
		{"same-day start too early", "08:00", "20:00", at(7, 0), at(10, 0), true},
		{"same-day end too late", "08:00", "20:00", at(18, 0), at(21, 0), true},

		// 跨夜營業 22:00-06:00
		{"overnight window after opening", "22:00", "06:00", at(23, 0), at(23, 30), false},
		{"overnight window before closing", "22:00", "06:00", at(1, 0), at(5, 0), false},
		{"overnight window crossing midnight", "22:00", "06:00", at(23, 0), day.Add(24*time.Hour + 2*time.Hour), false},
		{"overnight fully inside closed stretch", "22:00", "06:00", at(10, 0), at(12, 0), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lot := &models.ParkingLot{OpeningTime: tc.opening, ClosingTime: tc.closing}
			err := fitsOperatingHours(lot, tc.start, tc.end)
			if tc.wantErr && !errors.Is(err, ErrOutsideOperatingHours) {
				t.Fatalf("fitsOperatingHours() = %v, want ErrOutsideOperatingHours", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("fitsOperatingHours() = %v, want nil", err)
			}
		})
	}
}

func TestWithinCancelWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		start time.Time
		want  bool
	}{
		{"two hours before start", now.Add(2 * time.Hour), true},
		{"exactly one hour before start", now.Add(time.Hour), true},
		{"59 minutes before start", now.Add(59 * time.Minute), false},
		{"already started", now.Add(-time.Minute), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := withinCancelWindow(now, tc.start); got != tc.want {
				t.Fatalf("withinCancelWindow() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReservesSpot(t *testing.T) {
	// 預設政策：所有付款方式都佔用車位額度
	t.Setenv("SUBSCRIPTION_BYPASS_CAPACITY", "")
	if !reservesSpot(models.PaymentOneTime) {
		t.Fatal("one_time reservation must consume a spot")
	}
	if !reservesSpot(models.PaymentSubscription) {
		t.Fatal("subscription reservation must consume a spot by default")
	}

	// 免佔額度開關只影響訂閱付款：沒扣過的預約取消時也不能歸還，
	// spot_reserved 欄位記住建立當下的決定
	t.Setenv("SUBSCRIPTION_BYPASS_CAPACITY", "true")
	if reservesSpot(models.PaymentSubscription) {
		t.Fatal("subscription reservation must not consume a spot when bypass is enabled")
	}
	if !reservesSpot(models.PaymentOneTime) {
		t.Fatal("bypass must not affect one_time reservations")
	}
}

// 取消與狀態掃描用的狀態集合必須跟狀態機一致，改其中一邊不能悄悄漏掉另一邊
func TestStatusPredicatesMatchStateMachine(t *testing.T) {
	// 掃描的三條流轉
	for _, from := range []string{models.StatusPending, models.StatusConfirmed} {
		if !models.CanTransition(from, models.StatusActive) {
			t.Errorf("sweep promotes %s -> active but the state machine forbids it", from)
		}
	}
	for _, from := range models.NonTerminalStatuses {
		if !models.CanTransition(from, models.StatusCompleted) {
			t.Errorf("sweep completes %s but the state machine forbids it", from)
		}
		if !models.CanTransition(from, models.StatusExpired) {
			t.Errorf("sweep expires %s but the state machine forbids it", from)
		}
		// 取消守門
		if !models.CanTransition(from, models.StatusCancelled) {
			t.Errorf("cancel from %s must be allowed by the state machine", from)
		}
	}

	// 終態不可取消
	for _, from := range []string{models.StatusCompleted, models.StatusExpired, models.StatusCancelled} {
		if models.CanTransition(from, models.StatusCancelled) {
			t.Errorf("cancel from terminal status %s must be rejected", from)
		}
	}
}

func TestMaxActiveReservationsDefault(t *testing.T) {
	t.Setenv("MAX_ACTIVE_RESERVATIONS", "")
	if got := maxActiveReservations(); got != 3 {
		t.Fatalf("maxActiveReservations() = %d, want 3", got)
	}

	t.Setenv("MAX_ACTIVE_RESERVATIONS", "5")
	if got := maxActiveReservations(); got != 5 {
		t.Fatalf("maxActiveReservations() = %d, want 5", got)
	}

	// 不合法的值退回預設
	t.Setenv("MAX_ACTIVE_RESERVATIONS", "-1")
	if got := maxActiveReservations(); got != 3 {
		t.Fatalf("maxActiveReservations() = %d, want 3", got)
	}
}
