package model

import "time"

// Timeframe is a candle interval tag as used by the trading service ("1m", "5m", ...).
type Timeframe string

// Direction is the trend reported by the SAR indicator for one timeframe.
type Direction string

const (
	DirectionNone  Direction = ""
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// ParseDirection maps a raw wire value to a Direction. Anything unknown is DirectionNone.
func ParseDirection(s string) Direction {
	switch Direction(s) {
	case DirectionLong:
		return DirectionLong
	case DirectionShort:
		return DirectionShort
	default:
		return DirectionNone
	}
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Label  string // service-side "HH:MM" label
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// SARPoint is one parabolic SAR value aligned to a candle.
type SARPoint struct {
	Label string
	Value float64
	Trend string // "up" or "down"
	Color string
}

// Chart holds candle and SAR series for one timeframe.
type Chart struct {
	Timeframe Timeframe
	Candles   []OHLCV
	SAR       []SARPoint
	FetchedAt time.Time
}

// LastTrend returns the trend of the most recent SAR point, or "" if there is none.
func (c *Chart) LastTrend() string {
	if c == nil || len(c.SAR) == 0 {
		return ""
	}
	return c.SAR[len(c.SAR)-1].Trend
}

// Gainer is one row of the market leaderboard.
type Gainer struct {
	Symbol    string
	Price     float64
	ChangePct float64
	Rank      string // CoinGecko rank or "N/A"
}

// Leaderboard is the ranked market list; Gainers[0] is the reference top pair.
type Leaderboard struct {
	Gainers    []Gainer
	TotalPairs int
	Cached     bool
	FetchedAt  time.Time
}

// Top returns the reference top pair, or false if the list is empty.
func (l *Leaderboard) Top() (Gainer, bool) {
	if l == nil || len(l.Gainers) == 0 {
		return Gainer{}, false
	}
	return l.Gainers[0], true
}

// Presence is the online-users view of the service.
type Presence struct {
	Online int
	Users  []PresenceUser
}

// PresenceUser is one active dashboard session.
type PresenceUser struct {
	ID       string
	IP       string
	LastSeen string
}
