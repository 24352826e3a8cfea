package collector

import (
	"context"
	"errors"
	"sync"

	"DashSync/internal/model"
)

// MockFetcher returns controllable canned responses for development and testing.
// When StatusGate is set, Status blocks until a value is received from it or ctx ends.
type MockFetcher struct {
	mu sync.Mutex

	StatusResp   *StatusPayload
	StatusErr    error
	StatusGate   chan struct{}
	ChartResp    *ChartPayload
	GainersResp  *GainersPayload
	PresenceResp *PresencePayload
	Levels       model.StrategyLevels
	LeverageVal  int
	Mode         model.TradingMode

	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

// SetStatus swaps the status response.
func (m *MockFetcher) SetStatus(resp *StatusPayload, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusResp = resp
	m.StatusErr = err
}

// SetGainers swaps the leaderboard response.
func (m *MockFetcher) SetGainers(resp *GainersPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GainersResp = resp
}

// Calls returns how many times method was invoked.
func (m *MockFetcher) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockFetcher) count(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

func (m *MockFetcher) Status(ctx context.Context) (*StatusPayload, error) {
	m.count("Status")
	m.mu.Lock()
	gate := m.StatusGate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatusErr != nil {
		return nil, m.StatusErr
	}
	if m.StatusResp == nil {
		return nil, errors.New("mock: no status configured")
	}
	cp := *m.StatusResp
	return &cp, nil
}

func (m *MockFetcher) ChartData(_ context.Context, timeframe string) (*ChartPayload, error) {
	m.count("ChartData")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ChartResp == nil {
		return &ChartPayload{Timeframe: timeframe}, nil
	}
	return m.ChartResp, nil
}

func (m *MockFetcher) TopGainers(_ context.Context) (*GainersPayload, error) {
	m.count("TopGainers")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GainersResp == nil {
		return &GainersPayload{}, nil
	}
	return m.GainersResp, nil
}

func (m *MockFetcher) OnlineUsers(_ context.Context) (*PresencePayload, error) {
	m.count("OnlineUsers")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PresenceResp == nil {
		return &PresencePayload{}, nil
	}
	return m.PresenceResp, nil
}

func (m *MockFetcher) Heartbeat(_ context.Context) error {
	m.count("Heartbeat")
	return nil
}

func (m *MockFetcher) StrategyConfig(_ context.Context) (*model.StrategyLevels, error) {
	m.count("StrategyConfig")
	m.mu.Lock()
	defer m.mu.Unlock()
	lv := m.Levels
	return &lv, nil
}

func (m *MockFetcher) Leverage(_ context.Context) (int, error) {
	m.count("Leverage")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LeverageVal, nil
}

func (m *MockFetcher) TradingMode(_ context.Context) (model.TradingMode, error) {
	m.count("TradingMode")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Mode == "" {
		return model.ModeDemo, nil
	}
	return m.Mode, nil
}

// Gainers builds a leaderboard payload from symbols, ranked in the given order.
func Gainers(symbols ...string) *GainersPayload {
	p := &GainersPayload{TotalPairs: len(symbols), Cached: true}
	for i, s := range symbols {
		p.Gainers = append(p.Gainers, GainerPayload{Symbol: s, Price: float64(i + 1), Change: float64(10 - i)})
	}
	return p
}
