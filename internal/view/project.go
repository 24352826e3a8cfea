package view

import (
	"fmt"
	"time"

	"DashSync/internal/calculator"
	"DashSync/internal/model"
	"DashSync/internal/position"
)

// Project builds a frame from in at time now.
func Project(in Input, now time.Time) Frame {
	f := Frame{
		BotStatus:        "STOPPED",
		Signal:           signalLabel(in.Consensus),
		Leverage:         in.Leverage,
		Rebalance:        in.Rebalance,
		Mode:             string(in.Mode),
		ModeSwitching:    in.ModeSwitching,
		APIConnected:     in.APIConnected,
		ConnectivityLost: in.ConnectivityLost,
		GeneratedAt:      now,
		Levels: StrategyLevels{
			Open:  append([]string{}, in.Levels.Open...),
			Close: append([]string{}, in.Levels.Close...),
		},
	}

	var currentSymbol string
	if s := in.Snapshot; s != nil {
		f.BotRunning = s.BotRunning
		if s.BotRunning {
			f.BotStatus = "RUNNING"
		}
		f.Balance = calculator.FormatPrice(s.Balance)
		f.Available = calculator.FormatPrice(s.Available)
		f.RealizedPnL = calculator.FormatSigned(s.RealizedPnL)
		currentSymbol = s.CurrentSymbol
		f.Trades = trades(s.Trades)
	}

	var top string
	if in.Leaderboard != nil {
		if g, ok := in.Leaderboard.Top(); ok {
			top = g.Symbol
		}
		f.TotalPairs = in.Leaderboard.TotalPairs
	}
	f.Symbol = position.DisplaySymbol(in.Position, top, currentSymbol)
	f.SymbolLocked = in.Position.Locked()
	f.Leaderboard = leaders(in.Leaderboard, in.Position)

	if in.Position.Phase == position.Open {
		f.Position = panel(in.Position, now)
	}
	for _, b := range in.Badges {
		dir := string(b.Direction)
		if dir == "" {
			dir = "none"
		}
		f.Badges = append(f.Badges, BadgeView{Timeframe: string(b.Timeframe), Direction: dir})
	}
	if c := in.Chart; c != nil {
		info := &ChartInfo{Timeframe: string(c.Timeframe), Candles: len(c.Candles), LastTrend: c.LastTrend()}
		if n := len(c.Candles); n > 0 {
			info.LastClose = calculator.FormatPrice(c.Candles[n-1].Close)
		}
		f.Chart = info
	}
	if in.Presence != nil {
		f.OnlineUsers = in.Presence.Online
	}
	return f
}

func signalLabel(d model.Direction) string {
	switch d {
	case model.DirectionLong:
		return SignalLong
	case model.DirectionShort:
		return SignalShort
	}
	return SignalNone
}

func panel(s position.State, now time.Time) *PositionPanel {
	p := &PositionPanel{
		ID:           s.ID,
		Side:         sideLabel(s.Side),
		Symbol:       s.LockedSymbol,
		EntryPrice:   calculator.FormatPrice(s.EntryPrice),
		CurrentPrice: calculator.FormatPrice(s.CurrentPrice),
		Notional:     calculator.FormatPrice(s.Notional),
		Elapsed:      calculator.FormatElapsed(s.Elapsed(now)),
		PnL:          calculator.FormatSigned(s.UnrealizedPnL),
		PnLPositive:  s.UnrealizedPnL >= 0,
		PnLEstimated: s.PnLEstimated,
	}
	if s.Top1Display != "" {
		p.Symbol = s.Top1Display
	}
	return p
}

func sideLabel(s model.Side) string {
	switch s {
	case model.SideLong:
		return "LONG"
	case model.SideShort:
		return "SHORT"
	}
	return string(s)
}

// trades returns the rows most-recent first. The input slice is left in service order.
func trades(in []model.Trade) []TradeRow {
	out := make([]TradeRow, 0, len(in))
	for i := len(in) - 1; i >= 0; i-- {
		t := in[i]
		out = append(out, TradeRow{
			Side:     sideLabel(t.Side),
			Symbol:   model.BaseSymbol(t.Symbol),
			PnL:      calculator.FormatSigned(t.PnL),
			Positive: t.PnL >= 0,
			Duration: t.Duration,
		})
	}
	return out
}

func leaders(lb *model.Leaderboard, pos position.State) []LeaderRow {
	if lb == nil {
		return nil
	}
	out := make([]LeaderRow, 0, len(lb.Gainers))
	for _, g := range lb.Gainers {
		base := model.BaseSymbol(g.Symbol)
		out = append(out, LeaderRow{
			Rank:      g.Rank,
			Symbol:    base,
			Price:     calculator.FormatPrice(g.Price),
			ChangePct: fmt.Sprintf("%+.2f%%", g.ChangePct),
			Locked:    pos.Locked() && base == pos.LockedSymbol,
		})
	}
	return out
}
