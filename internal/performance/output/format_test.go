package output

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{500 * time.Millisecond, "500ms"},
		{1 * time.Second, "1.0s"},
		{1*time.Minute + 30*time.Second, "1m 30s"},
		{1*time.Hour + 2*time.Minute + 3*time.Second, "1h 02m 03s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatDuration(tt.duration)
			if result != tt.expected {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.duration, result, tt.expected)
			}
		})
	}
}

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0ms"},
		{500 * time.Microsecond, "500µs"},
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.50s"},
		{90 * time.Second, "1.5m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := formatDurationShort(tt.duration)
			if result != tt.expected {
				t.Errorf("formatDurationShort(%v) = %q, want %q", tt.duration, result, tt.expected)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		number   int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := FormatNumber(tt.number); result != tt.expected {
				t.Errorf("FormatNumber(%d) = %q, want %q", tt.number, result, tt.expected)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{3 * 1024 * 1024, "3.00 MB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := FormatBytes(tt.bytes); result != tt.expected {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, result, tt.expected)
			}
		})
	}
}

func TestPadding(t *testing.T) {
	colored := "\033[32mok\033[0m"

	if got := visibleLen(colored); got != 2 {
		t.Errorf("visibleLen() = %d, want 2", got)
	}
	if got := stripANSI(padRight(colored, 5)); got != "ok   " {
		t.Errorf("padRight() = %q, want %q", got, "ok   ")
	}
	if got := stripANSI(padLeft(colored, 5)); got != "   ok" {
		t.Errorf("padLeft() = %q, want %q", got, "   ok")
	}
	if got := padRight("toolong", 3); got != "toolong" {
		t.Errorf("padRight() truncated to %q", got)
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		progress float64
		expected string
	}{
		{0, "[░░░░]"},
		{0.5, "[██░░]"},
		{1, "[████]"},
		{-1, "[░░░░]"},
		{2, "[████]"},
	}

	for _, tt := range tests {
		if got := renderProgressBar(tt.progress, 4); got != tt.expected {
			t.Errorf("renderProgressBar(%v) = %q, want %q", tt.progress, got, tt.expected)
		}
	}
}
