package recorder

import "time"

// PositionEvent records a position lifecycle transition.
type PositionEvent struct {
	Transition string // "OPENED", "REPLACED", "CLOSED"
	PositionID string
	Side       string
	Symbol     string
	EntryPrice float64
	Notional   float64
	PnL        float64
	OpenedAt   time.Time
	Mode       string
}

// CommandEvent records one user-triggered command and its outcome.
type CommandEvent struct {
	RequestID string
	Command   string
	Args      string
	OK        bool
	Message   string
	Duration  time.Duration
}

// ModeTransition records one trading-mode switch.
type ModeTransition struct {
	TransitionID string
	From         string
	To           string
	OK           bool
	Balance      float64
	Error        string
	Duration     time.Duration
}

// Recorder journals dashboard events for later inspection.
type Recorder interface {
	RecordPosition(evt *PositionEvent) error
	RecordCommand(evt *CommandEvent) error
	RecordModeTransition(evt *ModeTransition) error
	Close() error
}
