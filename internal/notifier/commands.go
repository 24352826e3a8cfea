package notifier

import (
	"context"
	"strings"

	"DashSync/internal/command"
	"DashSync/internal/mode"
	"DashSync/internal/model"
	"DashSync/internal/view"
)

// FrameSource gives the current dashboard frame.
type FrameSource interface {
	Frame() view.Frame
}

// Dispatcher sends commands to the trading service.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) (*command.Result, error)
}

// ModeSwitcher runs a trading-mode transition.
type ModeSwitcher interface {
	Switch(ctx context.Context, target model.TradingMode) (*mode.Result, error)
}

const helpText = `<b>Commands</b>
/status - dashboard summary
/start, /stop - start or stop the bot
/long, /short - open a position
/close - close the open position
/leverage N - set leverage
/mode demo|real - switch trading mode
/rebalance - toggle balance rebalance`

// NewCommandHandler maps chat commands onto dashboard actions.
func NewCommandHandler(ctx context.Context, frames FrameSource, disp Dispatcher, modes ModeSwitcher) CommandHandler {
	return func(text string) string {
		fields := strings.Fields(text)
		if len(fields) == 0 {
			return ""
		}
		// "/status@SomeBot" addresses the bot explicitly in group chats.
		name, _, _ := strings.Cut(fields[0], "@")
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}

		var kind command.Kind
		switch name {
		case "/status":
			return FormatFrame(frames.Frame())
		case "/help":
			return helpText
		case "/mode":
			return FormatModeResult(modes.Switch(ctx, model.TradingMode(strings.ToLower(arg))))
		case "/start":
			kind = command.StartBot
		case "/stop":
			kind = command.StopBot
		case "/long":
			kind = command.OpenLong
		case "/short":
			kind = command.OpenShort
		case "/close":
			kind = command.ClosePosition
		case "/leverage":
			kind = command.SetLeverage
		case "/rebalance":
			kind = command.ToggleRebalance
		default:
			return "Unknown command. Send /help for the list."
		}

		cmd, err := command.Parse(string(kind), arg)
		if err != nil {
			return "❌ " + err.Error()
		}
		return FormatCommandResult(disp.Dispatch(ctx, cmd))
	}
}
