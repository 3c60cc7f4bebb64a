package models

import (
	"testing"
	"time"
)

func TestSubscriptionIsValid(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	graceEnd := now.Add(3 * 24 * time.Hour)
	pastGraceEnd := now.Add(-time.Hour)

	cases := []struct {
		name string
		sub  StudentSubscription
		want bool
	}{
		{
			name: "active before end date",
			sub:  StudentSubscription{Status: SubscriptionActive, EndDate: now.Add(10 * 24 * time.Hour)},
			want: true,
		},
		{
			name: "active exactly at end date",
			sub:  StudentSubscription{Status: SubscriptionActive, EndDate: now},
			want: true,
		},
		{
			name: "active past end date",
			sub:  StudentSubscription{Status: SubscriptionActive, EndDate: now.Add(-time.Minute)},
			want: false,
		},
		{
			name: "grace period before grace end",
			sub:  StudentSubscription{Status: SubscriptionGracePeriod, GracePeriodEnd: &graceEnd},
			want: true,
		},
		{
			name: "grace period past grace end",
			sub:  StudentSubscription{Status: SubscriptionGracePeriod, GracePeriodEnd: &pastGraceEnd},
			want: false,
		},
		{
			name: "grace period without grace end set",
			sub:  StudentSubscription{Status: SubscriptionGracePeriod},
			want: false,
		},
		{
			name: "cancelled is never valid",
			sub:  StudentSubscription{Status: SubscriptionCancelled, EndDate: now.Add(10 * 24 * time.Hour)},
			want: false,
		},
		{
			name: "expired is never valid",
			sub:  StudentSubscription{Status: SubscriptionExpired, EndDate: now.Add(10 * 24 * time.Hour)},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sub.IsValid(now); got != tc.want {
				t.Fatalf("IsValid() = %v, want %v", got, tc.want)
			}
		})
	}
}
