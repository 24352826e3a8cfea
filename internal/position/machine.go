// Package position tracks the lifecycle of the single open position and the
// symbol lock that pins the displayed pair while it is open.
package position

import (
	"time"

	"DashSync/internal/calculator"
	"DashSync/internal/model"
)

// Phase is the lifecycle phase of the tracked position.
type Phase int

const (
	NoPosition Phase = iota
	Open
)

func (p Phase) String() string {
	if p == Open {
		return "OPEN"
	}
	return "NO_POSITION"
}

// Transition describes what a snapshot did to the tracked position.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionOpened
	TransitionUpdated
	TransitionReplaced // a different instance replaced the open one
	TransitionClosed
)

func (t Transition) String() string {
	switch t {
	case TransitionOpened:
		return "OPENED"
	case TransitionUpdated:
		return "UPDATED"
	case TransitionReplaced:
		return "REPLACED"
	case TransitionClosed:
		return "CLOSED"
	default:
		return "NONE"
	}
}

// State is the client view of the open position. EntryPrice, Notional, Size,
// LockedSymbol and OpenedAt are fixed for the lifetime of one ID.
type State struct {
	Phase         Phase
	ID            string
	Side          model.Side
	Symbol        string
	LockedSymbol  string
	EntryPrice    float64
	Notional      float64
	Size          float64
	CurrentPrice  float64
	UnrealizedPnL float64
	PnLEstimated  bool
	Top1Display   string
	OpenedAt      time.Time
}

// Locked reports whether the displayed symbol is pinned by an open position.
func (s State) Locked() bool {
	return s.Phase == Open
}

// Elapsed returns how long the position has been open at now.
func (s State) Elapsed(now time.Time) time.Duration {
	if s.Phase != Open || s.OpenedAt.IsZero() {
		return 0
	}
	if d := now.Sub(s.OpenedAt); d > 0 {
		return d
	}
	return 0
}

// Next folds one status snapshot into the position state. fallbackSymbol is the
// symbol displayed at this instant; it becomes the lock when the service does not
// name the position pair. now is the client-observed transition time.
func Next(prev State, snap *model.Snapshot, fallbackSymbol string, now time.Time) (State, Transition) {
	if snap == nil {
		return prev, TransitionNone
	}
	if !snap.InPosition {
		if prev.Phase == Open {
			return State{}, TransitionClosed
		}
		return State{}, TransitionNone
	}
	pos := snap.Position
	if pos == nil {
		return prev, TransitionNone
	}

	id := pos.Identity()
	if prev.Phase == Open && prev.ID == id {
		next := prev
		reprice(&next, pos, snap)
		return next, TransitionUpdated
	}

	next := open(pos, fallbackSymbol, now)
	reprice(&next, pos, snap)
	if prev.Phase == Open {
		return next, TransitionReplaced
	}
	return next, TransitionOpened
}

func open(pos *model.Position, fallbackSymbol string, now time.Time) State {
	lock := model.BaseSymbol(pos.Symbol)
	if lock == "" {
		lock = fallbackSymbol
	}
	openedAt, ok := pos.OpenedAt()
	if !ok {
		openedAt = now
	}
	size, err := calculator.PositionSize(pos.SizeBase, pos.Notional, pos.EntryPrice)
	if err != nil {
		size = 0
	}
	return State{
		Phase:        Open,
		ID:           pos.Identity(),
		Side:         pos.Side,
		Symbol:       pos.Symbol,
		LockedSymbol: lock,
		EntryPrice:   pos.EntryPrice,
		Notional:     pos.Notional,
		Size:         size,
		OpenedAt:     openedAt,
	}
}

// reprice refreshes the live fields. The service P&L is taken verbatim; the
// local estimate is only a fallback when the field is absent.
func reprice(s *State, pos *model.Position, snap *model.Snapshot) {
	cur := snap.CurrentPrice
	if pos.CurrentPrice != nil {
		cur = *pos.CurrentPrice
	}
	s.CurrentPrice = cur
	s.Top1Display = pos.Top1Display

	switch {
	case pos.UnrealizedPnL != nil:
		s.UnrealizedPnL = *pos.UnrealizedPnL
		s.PnLEstimated = false
	case s.Size > 0 && cur > 0:
		s.UnrealizedPnL = calculator.UnrealizedPnL(s.Side, s.EntryPrice, cur, s.Size)
		s.PnLEstimated = true
	default:
		s.UnrealizedPnL = 0
		s.PnLEstimated = true
	}
}

// DisplaySymbol resolves the pair the dashboard shows: the locked symbol while a
// position is open, otherwise the top leaderboard pair, otherwise the service's
// current trading symbol.
func DisplaySymbol(s State, topSymbol, currentSymbol string) string {
	if s.Locked() && s.LockedSymbol != "" {
		return s.LockedSymbol
	}
	if topSymbol != "" {
		return model.BaseSymbol(topSymbol)
	}
	return model.BaseSymbol(currentSymbol)
}
