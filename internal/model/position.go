package model

import (
	"fmt"
	"strings"
	"time"
)

// Side is the direction of an open position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Position is the open position as reported by one status snapshot.
type Position struct {
	ID            string
	Side          Side
	Symbol        string
	EntryPrice    float64
	Notional      float64
	SizeBase      float64
	CurrentPrice  *float64 // position pair price, when the service reports it
	UnrealizedPnL *float64 // authoritative when present
	OpenTimestamp int64    // exchange open time in ms, 0 when unknown
	EntryTime     string   // service entry time (ISO, UTC when no zone)
	Top1Display   string
}

// Identity returns the identifier distinguishing this position instance from the next.
// The service id is used when present; otherwise one is derived from fields that are
// fixed at open.
func (p *Position) Identity() string {
	if p.ID != "" {
		return p.ID
	}
	opened := p.EntryTime
	if p.OpenTimestamp > 0 {
		opened = fmt.Sprintf("%d", p.OpenTimestamp)
	}
	return fmt.Sprintf("%s|%s|%s|%g", p.Symbol, p.Side, opened, p.EntryPrice)
}

// OpenedAt returns the server-reported open time, if any.
func (p *Position) OpenedAt() (time.Time, bool) {
	if p.OpenTimestamp > 0 {
		return time.UnixMilli(p.OpenTimestamp), true
	}
	if p.EntryTime == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, p.EntryTime); err == nil {
		return t, true
	}
	// No zone designator means UTC.
	if t, err := time.Parse(time.RFC3339Nano, p.EntryTime+"Z"); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// BaseSymbol strips the quote suffix from an exchange pair ("BTC_USDT" -> "BTC").
func BaseSymbol(symbol string) string {
	base, _, _ := strings.Cut(symbol, "_")
	return base
}
