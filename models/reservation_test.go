package models

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusActive, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusActive, true},
		{StatusConfirmed, StatusExpired, true},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusCancelled, true},
		// 終態不能再轉移
		{StatusCompleted, StatusActive, false},
		{StatusExpired, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusPending, StatusPending, false},
		// 不能倒退
		{StatusActive, StatusPending, false},
		{StatusConfirmed, StatusPending, false},
		// 不認識的狀態
		{"unknown", StatusActive, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminalStatus(t *testing.T) {
	terminal := []string{StatusCompleted, StatusExpired, StatusCancelled}
	for _, status := range terminal {
		if !IsTerminalStatus(status) {
			t.Errorf("IsTerminalStatus(%q) = false, want true", status)
		}
	}
	for _, status := range NonTerminalStatuses {
		if IsTerminalStatus(status) {
			t.Errorf("IsTerminalStatus(%q) = true, want false", status)
		}
	}
}

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		status    string
		start     time.Time
		end       time.Time
		checkedIn bool
		want      string
	}{
		{
			name:   "pending before start stays pending",
			status: StatusPending,
			start:  now.Add(2 * time.Hour),
			end:    now.Add(4 * time.Hour),
			want:   StatusPending,
		},
		{
			name:   "confirmed inside window becomes active",
			status: StatusConfirmed,
			start:  now.Add(-30 * time.Minute),
			end:    now.Add(90 * time.Minute),
			want:   StatusActive,
		},
		{
			name:   "pending inside window becomes active",
			status: StatusPending,
			start:  now.Add(-time.Minute),
			end:    now.Add(time.Hour),
			want:   StatusActive,
		},
		{
			name:   "window ended without check-in becomes expired",
			status: StatusActive,
			start:  now.Add(-2 * time.Hour),
			end:    now.Add(-10 * time.Minute),
			want:   StatusExpired,
		},
		{
			name:      "window ended with check-in becomes completed",
			status:    StatusActive,
			start:     now.Add(-2 * time.Hour),
			end:       now.Add(-10 * time.Minute),
			checkedIn: true,
			want:      StatusCompleted,
		},
		{
			name:   "end exactly now counts as ended",
			status: StatusConfirmed,
			start:  now.Add(-time.Hour),
			end:    now,
			want:   StatusExpired,
		},
		{
			name:   "cancelled is terminal and never changes",
			status: StatusCancelled,
			start:  now.Add(-2 * time.Hour),
			end:    now.Add(-time.Hour),
			want:   StatusCancelled,
		},
		{
			name:      "completed stays completed",
			status:    StatusCompleted,
			start:     now.Add(-3 * time.Hour),
			end:       now.Add(-time.Hour),
			checkedIn: true,
			want:      StatusCompleted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Reservation{
				Status:    tc.status,
				StartTime: tc.start,
				EndTime:   tc.end,
				CheckedIn: tc.checkedIn,
			}
			if got := r.DeriveStatus(now); got != tc.want {
				t.Fatalf("DeriveStatus() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDeriveStatusIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r := Reservation{
		Status:    StatusConfirmed,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}

	first := r.DeriveStatus(now)
	r.Status = first
	second := r.DeriveStatus(now)
	if first != second {
		t.Fatalf("DeriveStatus not idempotent: first %q, second %q", first, second)
	}
}
