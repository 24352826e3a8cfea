package collector

import (
	"context"

	"DashSync/internal/model"
)

// Fetcher defines the read side of the trading service.
type Fetcher interface {
	Status(ctx context.Context) (*StatusPayload, error)
	ChartData(ctx context.Context, timeframe string) (*ChartPayload, error)
	TopGainers(ctx context.Context) (*GainersPayload, error)
	OnlineUsers(ctx context.Context) (*PresencePayload, error)
	Heartbeat(ctx context.Context) error
	StrategyConfig(ctx context.Context) (*model.StrategyLevels, error)
	Leverage(ctx context.Context) (int, error)
	TradingMode(ctx context.Context) (model.TradingMode, error)
	Name() string
}
