package calculator

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"DashSync/internal/model"
)

// PositionSize returns the base-asset size of a position: the reported base size when
// known, otherwise notional / entry price.
func PositionSize(sizeBase, notional, entryPrice float64) (float64, error) {
	if sizeBase > 0 {
		return sizeBase, nil
	}
	if entryPrice <= 0 {
		return 0, errors.New("entry price must be positive to derive size")
	}
	size, _ := decimal.NewFromFloat(notional).Div(decimal.NewFromFloat(entryPrice)).Float64()
	return size, nil
}

// UnrealizedPnL estimates P&L from a price difference. Only used when the service
// did not report unrealized_pnl.
func UnrealizedPnL(side model.Side, entry, current, size float64) float64 {
	e := decimal.NewFromFloat(entry)
	c := decimal.NewFromFloat(current)
	s := decimal.NewFromFloat(size)
	var pnl decimal.Decimal
	if side == model.SideShort {
		pnl = e.Sub(c).Mul(s)
	} else {
		pnl = c.Sub(e).Mul(s)
	}
	f, _ := pnl.Round(8).Float64()
	return f
}

// FormatElapsed renders a position age as "1h 2m 3s", or "2m 3s" under an hour.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}

// FormatPrice picks decimals by magnitude the way the dashboard shows pair prices.
func FormatPrice(p float64) string {
	switch {
	case p < 0.01:
		return "$" + decimal.NewFromFloat(p).StringFixed(6)
	case p < 1:
		return "$" + decimal.NewFromFloat(p).StringFixed(4)
	default:
		return "$" + decimal.NewFromFloat(p).StringFixed(2)
	}
}

// FormatSigned renders a money delta with an explicit sign ("+$1.50", "-$0.20").
func FormatSigned(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "+$" + d.StringFixed(2)
}
