package notifier

import (
	"fmt"
	"strings"

	"DashSync/internal/calculator"
	"DashSync/internal/command"
	"DashSync/internal/dashboard"
	"DashSync/internal/mode"
	"DashSync/internal/model"
	"DashSync/internal/position"
	"DashSync/internal/view"
)

// FormatPositionEvent formats a position lifecycle event into a Telegram message.
func FormatPositionEvent(evt dashboard.PositionEvent) string {
	var b strings.Builder
	switch evt.Transition {
	case position.TransitionOpened, position.TransitionReplaced:
		p := evt.Next
		icon := "🟢"
		if p.Side == model.SideShort {
			icon = "🔴"
		}
		b.WriteString(fmt.Sprintf("%s <b>%s opened</b> | %s [%s]\n\n", icon, strings.ToUpper(string(p.Side)), p.LockedSymbol, evt.Mode))
		b.WriteString(fmt.Sprintf("Entry: %s\n", calculator.FormatPrice(p.EntryPrice)))
		b.WriteString(fmt.Sprintf("Notional: %s\n", calculator.FormatPrice(p.Notional)))
		if evt.Transition == position.TransitionReplaced {
			b.WriteString(fmt.Sprintf("Replaced %s %s (P&L %s)\n",
				evt.Prev.LockedSymbol, evt.Prev.Side, calculator.FormatSigned(evt.Prev.UnrealizedPnL)))
		}
	case position.TransitionClosed:
		p := evt.Prev
		b.WriteString(fmt.Sprintf("⚪ <b>%s closed</b> | %s [%s]\n\n", strings.ToUpper(string(p.Side)), p.LockedSymbol, evt.Mode))
		b.WriteString(fmt.Sprintf("Entry: %s | Last: %s\n", calculator.FormatPrice(p.EntryPrice), calculator.FormatPrice(p.CurrentPrice)))
		b.WriteString(fmt.Sprintf("Last P&L: %s\n", calculator.FormatSigned(p.UnrealizedPnL)))
		b.WriteString(fmt.Sprintf("Held: %s\n", calculator.FormatElapsed(p.Elapsed(evt.At))))
	default:
		return ""
	}
	return b.String()
}

// FormatFrame renders the current dashboard frame for /status.
func FormatFrame(f view.Frame) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Bot %s</b> | %s mode\n\n", f.BotStatus, f.Mode))
	if f.ConnectivityLost {
		b.WriteString("⚠️ Connection to the trading service lost\n\n")
	}
	b.WriteString(fmt.Sprintf("Balance: %s (available %s)\n", f.Balance, f.Available))
	lock := ""
	if f.SymbolLocked {
		lock = " 🔒"
	}
	b.WriteString(fmt.Sprintf("Symbol: %s%s\n", f.Symbol, lock))
	b.WriteString(fmt.Sprintf("Signal: %s\n", f.Signal))
	if len(f.Badges) > 0 {
		parts := make([]string, len(f.Badges))
		for i, bd := range f.Badges {
			parts[i] = bd.Timeframe + ":" + bd.Direction
		}
		b.WriteString("  " + strings.Join(parts, " ") + "\n")
	}
	if p := f.Position; p != nil {
		b.WriteString(fmt.Sprintf("\n<b>%s %s</b> for %s\n", p.Side, p.Symbol, p.Elapsed))
		b.WriteString(fmt.Sprintf("Entry %s → %s | P&L %s\n", p.EntryPrice, p.CurrentPrice, p.PnL))
	} else {
		b.WriteString("\nNo open position\n")
	}
	b.WriteString(fmt.Sprintf("\nLeverage: %dx | Rebalance: %v\n", f.Leverage, f.Rebalance))
	return b.String()
}

// FormatCommandResult formats the outcome of a dispatched command.
func FormatCommandResult(res *command.Result, err error) string {
	if err != nil {
		return "❌ " + command.Message(err)
	}
	return "✅ " + res.Message
}

// FormatModeResult formats the outcome of a mode switch.
func FormatModeResult(res *mode.Result, err error) string {
	if err != nil {
		return "❌ Mode switch failed: " + command.Message(err)
	}
	s := fmt.Sprintf("✅ Trading mode: %s", res.To)
	if res.Balance != nil {
		s += " | balance " + calculator.FormatPrice(*res.Balance)
	}
	return s
}
