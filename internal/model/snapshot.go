package model

import "time"

// TradingMode is the account mode the service trades in.
type TradingMode string

const (
	ModeDemo TradingMode = "demo"
	ModeReal TradingMode = "real"
)

// Valid reports whether m is a mode the service accepts.
func (m TradingMode) Valid() bool {
	return m == ModeDemo || m == ModeReal
}

// Trade is a closed trade as recorded by the service. Never mutated locally.
type Trade struct {
	Side     Side
	Symbol   string
	PnL      float64
	Duration string
}

// Snapshot is one complete read of the service status. It is immutable once built.
type Snapshot struct {
	BotRunning    bool
	Balance       float64
	Available     float64
	CurrentPrice  float64
	Directions    map[Timeframe]Direction
	InPosition    bool
	Position      *Position
	Trades        []Trade // service order, oldest first
	TradingMode   TradingMode
	APIConnected  bool
	CurrentSymbol string
	Top1Display   string
	RealizedPnL   float64
	FetchedAt     time.Time
}

// StrategyLevels are the timeframe tags that open and close positions.
type StrategyLevels struct {
	Open  []string `json:"open_levels"`
	Close []string `json:"close_levels"`
}

// Toggle returns a copy of levels with tag added or removed.
func Toggle(levels []string, tag string) []string {
	out := make([]string, 0, len(levels)+1)
	found := false
	for _, l := range levels {
		if l == tag {
			found = true
			continue
		}
		out = append(out, l)
	}
	if !found {
		out = append(out, tag)
	}
	return out
}
