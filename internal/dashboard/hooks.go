package dashboard

import (
	"context"
	"log"

	"DashSync/internal/collector"
	"DashSync/internal/model"
	"DashSync/internal/view"
)

// The methods below let the mode coordinator and the command dispatcher act on
// the state without reaching into it.

// CurrentMode returns the displayed trading mode.
func (d *Dashboard) CurrentMode() model.TradingMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Mode
}

// SuspendPolling opens a transition window. The generation bump happens under
// the state mutex so no in-flight result can be applied after this returns.
func (d *Dashboard) SuspendPolling() {
	d.mu.Lock()
	d.state.TransitionInFlight = true
	d.Scheduler.SuspendAll()
	in := d.state.viewInput(d.opts.LostAfter)
	d.mu.Unlock()
	d.publish(view.Project(in, d.Now()))
}

// ResumePolling closes the transition window and restarts periodic ticks.
func (d *Dashboard) ResumePolling() {
	d.mu.Lock()
	d.state.TransitionInFlight = false
	d.Scheduler.ResumeAll()
	in := d.state.viewInput(d.opts.LostAfter)
	d.mu.Unlock()
	d.publish(view.Project(in, d.Now()))
}

// ApplyModeChange applies the service's answer to a mode switch optimistically.
func (d *Dashboard) ApplyModeChange(change *collector.ModeChange) {
	d.update(func(s *AppState) {
		*s = reduceModeChange(*s, change.Mode, change.Balance)
	})
}

// ReconcileNow fetches one status snapshot and applies it even while polling is
// suspended.
func (d *Dashboard) ReconcileNow(ctx context.Context) error {
	tk := d.Scheduler.ForcedTicket()
	snap, err := d.Collector.Snapshot(ctx)
	if err != nil {
		d.recordFailure(tk)
		return err
	}
	d.applyStatus(tk, snap)
	return nil
}

// RefreshNow requests an out-of-band status fetch. When a fetch is already in
// flight one more is queued to run after it, so the refreshed state reflects
// the command that asked for it. It is refused while polling is suspended.
func (d *Dashboard) RefreshNow() bool {
	ok := d.Scheduler.RequestRun(TaskStatus)
	if !ok && d.opts.Debug {
		log.Println("[DEBUG] out-of-band refresh dropped")
	}
	return ok
}

func (d *Dashboard) Levels() model.StrategyLevels {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Levels
}

func (d *Dashboard) SetLevels(levels model.StrategyLevels) {
	d.update(func(s *AppState) { s.Levels = levels })
}

func (d *Dashboard) Rebalance() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Rebalance
}

func (d *Dashboard) SetRebalance(enabled bool) {
	d.update(func(s *AppState) { s.Rebalance = enabled })
}

func (d *Dashboard) SetLeverage(leverage int) {
	d.update(func(s *AppState) { s.Leverage = leverage })
}
