package collector

import (
	"bytes"
	"encoding/json"
	"strings"
)

// StatusPayload is the wire shape of GET /api/status. Required fields are pointers
// so a missing key can be told apart from a zero value.
type StatusPayload struct {
	BotRunning    *bool             `json:"bot_running"`
	Balance       *float64          `json:"balance"`
	Available     *float64          `json:"available"`
	CurrentPrice  float64           `json:"current_price"`
	SARDirections map[string]string `json:"sar_directions"`
	InPosition    *bool             `json:"in_position"`
	Position      *PositionPayload  `json:"position"`
	Trades        []TradePayload    `json:"trades"`
	APIConnected  bool              `json:"api_connected"`
	TradingMode   string            `json:"trading_mode"`
	CurrentSymbol string            `json:"current_symbol"`
	Top1Display   string            `json:"top1_display"`
	RealizedPnL   float64           `json:"realized_pnl"`
}

// PositionPayload is the position object embedded in the status response.
type PositionPayload struct {
	ID            FlexString `json:"id"`
	Side          string     `json:"side"`
	Symbol        string     `json:"symbol"`
	EntryPrice    float64    `json:"entry_price"`
	Notional      float64    `json:"notional"`
	SizeBase      float64    `json:"size_base"`
	CurrentPrice  *float64   `json:"current_price"`
	UnrealizedPnL *float64   `json:"unrealized_pnl"`
	OpenTimestamp float64    `json:"open_timestamp"`
	EntryTime     string     `json:"entry_time"`
	Top1Display   string     `json:"top1_display"`
}

// TradePayload is one closed trade.
type TradePayload struct {
	Side     string  `json:"side"`
	Symbol   string  `json:"symbol"`
	PnL      float64 `json:"pnl"`
	Duration string  `json:"duration"`
}

// ChartPayload is the wire shape of GET /api/chart_data.
type ChartPayload struct {
	Timeframe string            `json:"timeframe"`
	Candles   []CandlePayload   `json:"candles"`
	SARPoints []SARPointPayload `json:"sar_points"`
}

// CandlePayload is one OHLC bar; time is an "HH:MM" label.
type CandlePayload struct {
	Time  string  `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// SARPointPayload is one SAR value aligned to the candle at the same index.
type SARPointPayload struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
	Trend string  `json:"trend"`
}

// GainersPayload is the wire shape of GET /api/top_gainers.
type GainersPayload struct {
	Gainers    []GainerPayload `json:"gainers"`
	TotalPairs int             `json:"total_pairs"`
	Cached     bool            `json:"cached"`
}

// GainerPayload is one leaderboard row. gecko_rank is a number or "N/A".
type GainerPayload struct {
	Symbol    string     `json:"symbol"`
	Price     float64    `json:"price"`
	Change    float64    `json:"change"`
	GeckoRank FlexString `json:"gecko_rank"`
}

// PresencePayload is the wire shape of GET /api/online_users.
type PresencePayload struct {
	OnlineUsers int `json:"online_users"`
	Users       []struct {
		ID       string `json:"id"`
		IP       string `json:"ip"`
		LastSeen string `json:"last_seen"`
	} `json:"users"`
}

// FlexString accepts a JSON string or number and keeps its text form.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(strings.TrimSpace(n.String()))
	return nil
}

// Bool returns a pointer to v, for building payloads.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v, for building payloads.
func Float(v float64) *float64 { return &v }
