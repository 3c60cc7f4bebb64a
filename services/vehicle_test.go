package services

import (
	"errors"
	"testing"
)

func TestNormalizeLicensePlate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"B 123456", "B 123456"},
		{"b123456", "B 123456"},
		{"  a 99  ", "A 99"},
		{"C12345678", "C 12345678"},
		{"d\t1234", "D 1234"},
	}

	for _, tc := range cases {
		got, err := NormalizeLicensePlate(tc.in)
		if err != nil {
			t.Errorf("NormalizeLicensePlate(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeLicensePlate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeLicensePlateRejectsBadInput(t *testing.T) {
	bad := []string{
		"",
		"123456",     // 缺字母
		"AB 1234",    // 兩個字母
		"B 1",        // 數字太短
		"B 123456789", // 數字太長
		"B 12A4",     // 數字中夾字母
		"XY99",
	}

	for _, in := range bad {
		if _, err := NormalizeLicensePlate(in); !errors.Is(err, ErrInvalidLicensePlate) {
			t.Errorf("NormalizeLicensePlate(%q): got %v, want ErrInvalidLicensePlate", in, err)
		}
	}
}
