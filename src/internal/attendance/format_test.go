package attendance

import (
	"testing"
	"time"
)

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "0h 0m 0s"},
		{59, "0h 0m 59s"},
		{60, "0h 1m 0s"},
		{3599, "0h 59m 59s"},
		{3600, "1h 0m 0s"},
		{3660, "1h 1m 0s"},
		{3661, "1h 1m 1s"},
		{86399, "23h 59m 59s"},
		{90061, "25h 1m 1s"},
	}

	for _, tc := range cases {
		if got := FormatSeconds(tc.seconds); got != tc.want {
			t.Errorf("FormatSeconds(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatSecondsClampsNegative(t *testing.T) {
	if got := FormatSeconds(-5); got != "0h 0m 0s" {
		t.Errorf("FormatSeconds(-5) = %q, want %q", got, "0h 0m 0s")
	}
}

// Sub-second remainders must truncate, never carry into the seconds column.
func TestFormatDurationTruncates(t *testing.T) {
	d := 3599*time.Second + 900*time.Millisecond
	if got := FormatDuration(d); got != "0h 59m 59s" {
		t.Errorf("FormatDuration(%v) = %q, want %q", d, got, "0h 59m 59s")
	}
}
