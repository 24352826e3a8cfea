package calculator

import (
	"testing"
	"time"

	"DashSync/internal/model"
)

func TestUnrealizedPnL(t *testing.T) {
	tests := []struct {
		side                 model.Side
		entry, current, size float64
		want                 float64
	}{
		{model.SideLong, 10, 11, 10, 10},
		{model.SideLong, 10, 9, 10, -10},
		{model.SideShort, 10, 9, 10, 10},
		{model.SideShort, 10, 11, 10, -10},
		{model.SideLong, 0.1, 0.3, 3, 0.6},
	}
	for _, tt := range tests {
		if got := UnrealizedPnL(tt.side, tt.entry, tt.current, tt.size); got != tt.want {
			t.Errorf("%s entry=%v cur=%v size=%v: expected %v, got %v", tt.side, tt.entry, tt.current, tt.size, tt.want, got)
		}
	}
}

func TestPositionSize(t *testing.T) {
	if got, err := PositionSize(0, 100, 10); err != nil || got != 10 {
		t.Errorf("derived size: got %v, %v", got, err)
	}
	if got, err := PositionSize(4, 100, 10); err != nil || got != 4 {
		t.Errorf("reported size should win: got %v, %v", got, err)
	}
	if _, err := PositionSize(0, 100, 0); err == nil {
		t.Error("expected error for zero entry price")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m 0s"},
		{59 * time.Second, "0m 59s"},
		{61 * time.Second, "1m 1s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h 2m 3s"},
		{-5 * time.Second, "0m 0s"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.d); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.d, tt.want, got)
		}
	}
}

func TestFormatPriceAndSigned(t *testing.T) {
	if got := FormatPrice(0.001234); got != "$0.001234" {
		t.Errorf("small price: %q", got)
	}
	if got := FormatPrice(0.5); got != "$0.5000" {
		t.Errorf("sub-dollar price: %q", got)
	}
	if got := FormatPrice(1234.5); got != "$1234.50" {
		t.Errorf("price: %q", got)
	}
	if got := FormatSigned(1.5); got != "+$1.50" {
		t.Errorf("positive: %q", got)
	}
	if got := FormatSigned(-0.2); got != "-$0.20" {
		t.Errorf("negative: %q", got)
	}
	if got := FormatSigned(0); got != "+$0.00" {
		t.Errorf("zero: %q", got)
	}
}
