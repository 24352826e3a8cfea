package collector

import (
	"context"
	"fmt"
	"time"

	"DashSync/internal/model"
)

// Collector turns raw service responses into typed snapshots. It never touches
// dashboard state; callers decide what to apply.
type Collector struct {
	Fetcher Fetcher
	Now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher, Now: time.Now}
}

// Snapshot fetches and validates one status snapshot.
func (c *Collector) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	raw, err := c.Fetcher.Status(ctx)
	if err != nil {
		return nil, err
	}
	return ToSnapshot(raw, c.Now())
}

// ToSnapshot converts a status payload. Missing required fields yield ErrProtocolMismatch.
func ToSnapshot(raw *StatusPayload, fetchedAt time.Time) (*model.Snapshot, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty status", ErrProtocolMismatch)
	}
	switch {
	case raw.BotRunning == nil:
		return nil, fmt.Errorf("%w: status missing bot_running", ErrProtocolMismatch)
	case raw.Balance == nil:
		return nil, fmt.Errorf("%w: status missing balance", ErrProtocolMismatch)
	case raw.InPosition == nil:
		return nil, fmt.Errorf("%w: status missing in_position", ErrProtocolMismatch)
	case *raw.InPosition && raw.Position == nil:
		return nil, fmt.Errorf("%w: in_position without position", ErrProtocolMismatch)
	}

	snap := &model.Snapshot{
		BotRunning:    *raw.BotRunning,
		Balance:       *raw.Balance,
		CurrentPrice:  raw.CurrentPrice,
		Directions:    make(map[model.Timeframe]model.Direction, len(raw.SARDirections)),
		InPosition:    *raw.InPosition,
		TradingMode:   model.TradingMode(raw.TradingMode),
		APIConnected:  raw.APIConnected,
		CurrentSymbol: raw.CurrentSymbol,
		Top1Display:   raw.Top1Display,
		RealizedPnL:   raw.RealizedPnL,
		FetchedAt:     fetchedAt,
	}
	if raw.Available != nil {
		snap.Available = *raw.Available
	} else {
		snap.Available = snap.Balance
	}
	for tf, d := range raw.SARDirections {
		snap.Directions[model.Timeframe(tf)] = model.ParseDirection(d)
	}
	if snap.InPosition {
		p := raw.Position
		side := model.Side(p.Side)
		if side != model.SideLong && side != model.SideShort {
			return nil, fmt.Errorf("%w: position side %q", ErrProtocolMismatch, p.Side)
		}
		snap.Position = &model.Position{
			ID:            string(p.ID),
			Side:          side,
			Symbol:        p.Symbol,
			EntryPrice:    p.EntryPrice,
			Notional:      p.Notional,
			SizeBase:      p.SizeBase,
			CurrentPrice:  p.CurrentPrice,
			UnrealizedPnL: p.UnrealizedPnL,
			OpenTimestamp: int64(p.OpenTimestamp),
			EntryTime:     p.EntryTime,
			Top1Display:   p.Top1Display,
		}
	}
	snap.Trades = make([]model.Trade, len(raw.Trades))
	for i, t := range raw.Trades {
		snap.Trades[i] = model.Trade{Side: model.Side(t.Side), Symbol: t.Symbol, PnL: t.PnL, Duration: t.Duration}
	}
	return snap, nil
}

// Chart fetches candles and SAR points for one timeframe.
func (c *Collector) Chart(ctx context.Context, timeframe string) (*model.Chart, error) {
	raw, err := c.Fetcher.ChartData(ctx, timeframe)
	if err != nil {
		return nil, err
	}
	chart := &model.Chart{
		Timeframe: model.Timeframe(timeframe),
		Candles:   make([]model.OHLCV, 0, len(raw.Candles)),
		SAR:       make([]model.SARPoint, 0, len(raw.SARPoints)),
		FetchedAt: c.Now(),
	}
	for _, k := range raw.Candles {
		chart.Candles = append(chart.Candles, model.OHLCV{Label: k.Time, Open: k.Open, High: k.High, Low: k.Low, Close: k.Close})
	}
	// SAR points are aligned to candles; extras have nothing to attach to.
	for i, p := range raw.SARPoints {
		if i >= len(chart.Candles) {
			break
		}
		chart.SAR = append(chart.SAR, model.SARPoint{Label: p.Time, Value: p.Value, Trend: p.Trend, Color: p.Color})
	}
	return chart, nil
}

// Leaderboard fetches the ranked market list.
func (c *Collector) Leaderboard(ctx context.Context) (*model.Leaderboard, error) {
	raw, err := c.Fetcher.TopGainers(ctx)
	if err != nil {
		return nil, err
	}
	lb := &model.Leaderboard{
		Gainers:    make([]model.Gainer, 0, len(raw.Gainers)),
		TotalPairs: raw.TotalPairs,
		Cached:     raw.Cached,
		FetchedAt:  c.Now(),
	}
	for _, g := range raw.Gainers {
		if g.Symbol == "" {
			continue
		}
		rank := string(g.GeckoRank)
		if rank == "" {
			rank = "N/A"
		}
		lb.Gainers = append(lb.Gainers, model.Gainer{Symbol: g.Symbol, Price: g.Price, ChangePct: g.Change, Rank: rank})
	}
	return lb, nil
}

// Presence fetches the online-users list.
func (c *Collector) Presence(ctx context.Context) (*model.Presence, error) {
	raw, err := c.Fetcher.OnlineUsers(ctx)
	if err != nil {
		return nil, err
	}
	p := &model.Presence{Online: raw.OnlineUsers, Users: make([]model.PresenceUser, len(raw.Users))}
	for i, u := range raw.Users {
		p.Users[i] = model.PresenceUser{ID: u.ID, IP: u.IP, LastSeen: u.LastSeen}
	}
	return p, nil
}

// Heartbeat keeps the dashboard session alive.
func (c *Collector) Heartbeat(ctx context.Context) error {
	return c.Fetcher.Heartbeat(ctx)
}
