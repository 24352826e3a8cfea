package strategy

import "DashSync/internal/model"

// Consensus returns the direction every tracked timeframe agrees on, or DirectionNone.
// The first timeframe in the canonical order sets the candidate; a missing key, a
// DirectionNone value or any divergent timeframe forces DirectionNone.
func Consensus(timeframes []model.Timeframe, dirs map[model.Timeframe]model.Direction) model.Direction {
	if len(timeframes) == 0 {
		return model.DirectionNone
	}
	want := dirs[timeframes[0]]
	if want == model.DirectionNone {
		return model.DirectionNone
	}
	for _, tf := range timeframes[1:] {
		if dirs[tf] != want {
			return model.DirectionNone
		}
	}
	return want
}

// Badge is the per-timeframe indicator shown next to the consensus signal.
type Badge struct {
	Timeframe model.Timeframe
	Direction model.Direction
}

// Engine evaluates consensus over a canonical timeframe set fixed at startup.
type Engine struct {
	timeframes []model.Timeframe
}

// NewEngine creates an Engine for the given canonical order.
func NewEngine(timeframes []model.Timeframe) *Engine {
	return &Engine{timeframes: append([]model.Timeframe(nil), timeframes...)}
}

// Timeframes returns a copy of the canonical order.
func (e *Engine) Timeframes() []model.Timeframe {
	return append([]model.Timeframe(nil), e.timeframes...)
}

// Evaluate computes the consensus direction for one snapshot's direction map.
func (e *Engine) Evaluate(dirs map[model.Timeframe]model.Direction) model.Direction {
	return Consensus(e.timeframes, dirs)
}

// Badges lists each tracked timeframe's direction in canonical order.
func (e *Engine) Badges(dirs map[model.Timeframe]model.Direction) []Badge {
	out := make([]Badge, len(e.timeframes))
	for i, tf := range e.timeframes {
		out[i] = Badge{Timeframe: tf, Direction: dirs[tf]}
	}
	return out
}
