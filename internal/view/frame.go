// Package view projects dashboard state into a render frame. Projection is
// pure; it never changes the state it reads.
package view

import (
	"time"

	"DashSync/internal/model"
	"DashSync/internal/position"
	"DashSync/internal/strategy"
)

const (
	SignalLong  = "LONG SIGNAL"
	SignalShort = "SHORT SIGNAL"
	SignalNone  = "NO SIGNAL"
)

// Input is the state a frame is projected from.
type Input struct {
	Snapshot         *model.Snapshot
	Position         position.State
	Consensus        model.Direction
	Badges           []strategy.Badge
	Leaderboard      *model.Leaderboard
	Chart            *model.Chart
	Presence         *model.Presence
	Levels           model.StrategyLevels
	Leverage         int
	Rebalance        bool
	Mode             model.TradingMode
	ModeSwitching    bool
	APIConnected     bool
	ConnectivityLost bool
}

// Frame is everything a renderer needs for one paint.
type Frame struct {
	BotStatus        string         `json:"bot_status"`
	BotRunning       bool           `json:"bot_running"`
	Balance          string         `json:"balance"`
	Available        string         `json:"available"`
	RealizedPnL      string         `json:"realized_pnl"`
	Symbol           string         `json:"symbol"`
	SymbolLocked     bool           `json:"symbol_locked"`
	Position         *PositionPanel `json:"position,omitempty"`
	Signal           string         `json:"signal"`
	Badges           []BadgeView    `json:"badges"`
	Trades           []TradeRow     `json:"trades"`
	Leaderboard      []LeaderRow    `json:"leaderboard"`
	TotalPairs       int            `json:"total_pairs"`
	Chart            *ChartInfo     `json:"chart,omitempty"`
	Levels           StrategyLevels `json:"levels"`
	Leverage         int            `json:"leverage"`
	Rebalance        bool           `json:"rebalance"`
	Mode             string         `json:"mode"`
	ModeSwitching    bool           `json:"mode_switching"`
	APIConnected     bool           `json:"api_connected"`
	ConnectivityLost bool           `json:"connectivity_lost"`
	OnlineUsers      int            `json:"online_users"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// PositionPanel describes the open position.
type PositionPanel struct {
	ID           string `json:"id"`
	Side         string `json:"side"`
	Symbol       string `json:"symbol"`
	EntryPrice   string `json:"entry_price"`
	CurrentPrice string `json:"current_price"`
	Notional     string `json:"notional"`
	Elapsed      string `json:"elapsed"`
	PnL          string `json:"pnl"`
	PnLPositive  bool   `json:"pnl_positive"`
	PnLEstimated bool   `json:"pnl_estimated"`
}

type BadgeView struct {
	Timeframe string `json:"timeframe"`
	Direction string `json:"direction"`
}

type TradeRow struct {
	Side     string `json:"side"`
	Symbol   string `json:"symbol"`
	PnL      string `json:"pnl"`
	Positive bool   `json:"positive"`
	Duration string `json:"duration"`
}

// LeaderRow is one leaderboard entry. Locked marks the pair held by the open position.
type LeaderRow struct {
	Rank      string `json:"rank"`
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	ChangePct string `json:"change_pct"`
	Locked    bool   `json:"locked"`
}

type ChartInfo struct {
	Timeframe string `json:"timeframe"`
	Candles   int    `json:"candles"`
	LastTrend string `json:"last_trend"`
	LastClose string `json:"last_close"`
}

type StrategyLevels struct {
	Open  []string `json:"open"`
	Close []string `json:"close"`
}
