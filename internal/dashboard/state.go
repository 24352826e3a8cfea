package dashboard

import (
	"time"

	"DashSync/internal/model"
	"DashSync/internal/position"
	"DashSync/internal/strategy"
	"DashSync/internal/view"
)

// AppState is the whole client-side dashboard state. Reducers take a value and
// return the next one; only Dashboard swaps it in.
type AppState struct {
	Snapshot    *model.Snapshot
	Position    position.State
	Consensus   model.Direction
	Badges      []strategy.Badge
	Leaderboard *model.Leaderboard
	Chart       *model.Chart
	Presence    *model.Presence
	Levels      model.StrategyLevels
	Leverage    int
	Rebalance   bool

	Mode               model.TradingMode
	TransitionInFlight bool

	APIConnected   bool
	APIVerified    bool // false until a snapshot confirmed the cached flag
	StatusFailures int
	LastStatusAt   time.Time
}

// DisplayedSymbol is the pair shown at this instant.
func (s AppState) DisplayedSymbol() string {
	var top, current string
	if s.Leaderboard != nil {
		if g, ok := s.Leaderboard.Top(); ok {
			top = g.Symbol
		}
	}
	if s.Snapshot != nil {
		current = s.Snapshot.CurrentSymbol
	}
	return position.DisplaySymbol(s.Position, top, current)
}

// reduceStatus folds a snapshot into the state. The mode is taken from the
// snapshot only outside a transition window, or when authoritative is set.
func reduceStatus(s AppState, snap *model.Snapshot, engine *strategy.Engine, authoritative bool, now time.Time) (AppState, position.Transition) {
	next := s
	pos, tr := position.Next(s.Position, snap, s.DisplayedSymbol(), now)
	next.Position = pos
	next.Snapshot = snap
	next.Consensus = engine.Evaluate(snap.Directions)
	next.Badges = engine.Badges(snap.Directions)
	if snap.TradingMode.Valid() && (!s.TransitionInFlight || authoritative) {
		next.Mode = snap.TradingMode
	}
	next.APIConnected = snap.APIConnected
	next.APIVerified = true
	next.StatusFailures = 0
	next.LastStatusAt = snap.FetchedAt
	return next, tr
}

func reduceStatusFailure(s AppState) AppState {
	next := s
	next.StatusFailures++
	return next
}

func reduceModeChange(s AppState, mode model.TradingMode, balance *float64) AppState {
	next := s
	next.Mode = mode
	if balance != nil && s.Snapshot != nil {
		snap := *s.Snapshot
		snap.Balance = *balance
		next.Snapshot = &snap
	}
	return next
}

// viewInput maps the state to the projector's input.
func (s AppState) viewInput(lostAfter int) view.Input {
	return view.Input{
		Snapshot:         s.Snapshot,
		Position:         s.Position,
		Consensus:        s.Consensus,
		Badges:           s.Badges,
		Leaderboard:      s.Leaderboard,
		Chart:            s.Chart,
		Presence:         s.Presence,
		Levels:           s.Levels,
		Leverage:         s.Leverage,
		Rebalance:        s.Rebalance,
		Mode:             s.Mode,
		ModeSwitching:    s.TransitionInFlight,
		APIConnected:     s.APIConnected,
		ConnectivityLost: lostAfter > 0 && s.StatusFailures >= lostAfter,
	}
}
