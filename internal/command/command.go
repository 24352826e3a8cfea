// Package command sends user-triggered actions to the trading service.
package command

import (
	"errors"
	"fmt"
	"strconv"

	"DashSync/internal/collector"
)

// Kind names a command. The value is also the endpoint it posts to.
type Kind string

const (
	StartBot         Kind = "start_bot"
	StopBot          Kind = "stop_bot"
	OpenLong         Kind = "open_long"
	OpenShort        Kind = "open_short"
	ClosePosition    Kind = "close_position"
	DeleteLastTrade  Kind = "delete_last_trade"
	ResetBalance     Kind = "reset_balance"
	SetLeverage      Kind = "set_leverage"
	ToggleOpenLevel  Kind = "toggle_open_level"
	ToggleCloseLevel Kind = "toggle_close_level"
	ToggleRebalance  Kind = "toggle_rebalance"
)

// Kinds lists every supported command.
var Kinds = []Kind{
	StartBot, StopBot, OpenLong, OpenShort, ClosePosition, DeleteLastTrade,
	ResetBalance, SetLeverage, ToggleOpenLevel, ToggleCloseLevel, ToggleRebalance,
}

// Command is one user action. Leverage is used by SetLeverage, Level by the level toggles.
type Command struct {
	Kind     Kind
	Leverage int
	Level    string
}

func (c Command) String() string {
	switch c.Kind {
	case SetLeverage:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Leverage)
	case ToggleOpenLevel, ToggleCloseLevel:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Level)
	}
	return string(c.Kind)
}

// Parse builds a Command from a kind name and an optional argument.
func Parse(kind, arg string) (Command, error) {
	k := Kind(kind)
	switch k {
	case SetLeverage:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return Command{}, fmt.Errorf("leverage %q: %w", arg, err)
		}
		return Command{Kind: k, Leverage: n}, nil
	case ToggleOpenLevel, ToggleCloseLevel:
		if arg == "" {
			return Command{}, fmt.Errorf("%s needs a level tag", k)
		}
		return Command{Kind: k, Level: arg}, nil
	}
	for _, known := range Kinds {
		if k == known {
			return Command{Kind: k}, nil
		}
	}
	return Command{}, fmt.Errorf("unknown command %q", kind)
}

// refreshes reports whether a successful command changes the status snapshot.
func (k Kind) refreshes() bool {
	switch k {
	case OpenLong, OpenShort, ClosePosition, DeleteLastTrade:
		return true
	}
	return false
}

// defaultMessage is shown when the service answers without a message.
func (k Kind) defaultMessage() string {
	switch k {
	case StartBot:
		return "Bot started successfully"
	case StopBot:
		return "Bot stopped successfully"
	case OpenLong:
		return "LONG position opened successfully"
	case OpenShort:
		return "SHORT position opened successfully"
	case ClosePosition:
		return "Position closed successfully"
	case DeleteLastTrade:
		return "Last trade deleted successfully"
	case ResetBalance:
		return "Balance reset"
	case ToggleOpenLevel, ToggleCloseLevel:
		return "Strategy levels saved"
	}
	return "OK"
}

// failureMessage is shown when the request did not reach the service.
func (k Kind) failureMessage() string {
	switch k {
	case StartBot:
		return "Failed to start bot"
	case StopBot:
		return "Failed to stop bot"
	case OpenLong:
		return "Failed to open LONG position"
	case OpenShort:
		return "Failed to open SHORT position"
	case ClosePosition:
		return "Failed to close position"
	case DeleteLastTrade:
		return "Failed to delete last trade"
	case ResetBalance:
		return "Failed to reset balance"
	case SetLeverage:
		return "Error setting leverage"
	case ToggleOpenLevel, ToggleCloseLevel:
		return "Failed to save strategy levels"
	case ToggleRebalance:
		return "Error toggling rebalance"
	}
	return "Command failed"
}

// Error is a command failure that carries the text shown to the user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the user-visible text for a dispatch error. Remote rejections
// are shown verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var re *collector.RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
