// Package mode switches the account trading mode while keeping background
// polling from overwriting the optimistic result.
package mode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"DashSync/internal/collector"
	"DashSync/internal/model"
	"DashSync/internal/recorder"
)

// ErrTransitionInProgress is returned when a switch is requested while another runs.
var ErrTransitionInProgress = errors.New("mode transition already in progress")

// Switcher is the remote call that changes the account mode.
type Switcher interface {
	SetTradingMode(ctx context.Context, mode model.TradingMode) (*collector.ModeChange, error)
}

// Host is the dashboard side of a transition.
type Host interface {
	CurrentMode() model.TradingMode
	SuspendPolling()
	ResumePolling()
	ApplyModeChange(change *collector.ModeChange)
	ReconcileNow(ctx context.Context) error
}

// Result describes a completed switch.
type Result struct {
	TransitionID string
	From         model.TradingMode
	To           model.TradingMode
	Balance      *float64
	ReconcileErr error
	Duration     time.Duration
}

// Coordinator runs one mode transition at a time.
type Coordinator struct {
	Host        Host
	Remote      Switcher
	Recorder    recorder.Recorder
	SettleDelay time.Duration
	ResumeDelay time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error

	busy atomic.Bool
}

// NewCoordinator creates a Coordinator with the given settle and resume delays.
func NewCoordinator(host Host, remote Switcher, rec recorder.Recorder, settle, resume time.Duration) *Coordinator {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Coordinator{
		Host:        host,
		Remote:      remote,
		Recorder:    rec,
		SettleDelay: settle,
		ResumeDelay: resume,
		Sleep:       sleepCtx,
	}
}

// InProgress reports whether a transition is running.
func (c *Coordinator) InProgress() bool {
	return c.busy.Load()
}

// Switch moves the account to target. Polling is suspended for the whole window;
// the only status fetch applied inside it is the reconciliation fetch.
func (c *Coordinator) Switch(ctx context.Context, target model.TradingMode) (*Result, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("invalid trading mode %q", target)
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrTransitionInProgress
	}
	defer c.busy.Store(false)

	start := time.Now()
	res := &Result{
		TransitionID: uuid.NewString(),
		From:         c.Host.CurrentMode(),
		To:           target,
	}
	log.Printf("[INFO] mode transition %s: %s -> %s", res.TransitionID, res.From, target)

	c.Host.SuspendPolling()
	resumed := false
	resume := func() {
		if !resumed {
			resumed = true
			c.Host.ResumePolling()
		}
	}
	defer resume()

	change, err := c.Remote.SetTradingMode(ctx, target)
	if err != nil {
		resume()
		res.Duration = time.Since(start)
		c.journal(res, err)
		log.Printf("[WARN] mode transition %s failed: %v", res.TransitionID, err)
		return res, err
	}
	if change.Mode == "" {
		change.Mode = target
	}
	res.To = change.Mode
	res.Balance = change.Balance
	c.Host.ApplyModeChange(change)

	if err := c.Sleep(ctx, c.SettleDelay); err != nil {
		res.Duration = time.Since(start)
		c.journal(res, nil)
		return res, err
	}
	if err := c.Host.ReconcileNow(ctx); err != nil {
		// The optimistic values stand until the next successful poll.
		res.ReconcileErr = err
		log.Printf("[WARN] mode transition %s: reconcile fetch: %v", res.TransitionID, err)
	}
	if err := c.Sleep(ctx, c.ResumeDelay); err != nil {
		res.Duration = time.Since(start)
		c.journal(res, nil)
		return res, err
	}
	resume()

	res.Duration = time.Since(start)
	c.journal(res, nil)
	log.Printf("[INFO] mode transition %s complete: now %s (%s)", res.TransitionID, res.To, res.Duration.Round(time.Millisecond))
	return res, nil
}

func (c *Coordinator) journal(res *Result, err error) {
	evt := &recorder.ModeTransition{
		TransitionID: res.TransitionID,
		From:         string(res.From),
		To:           string(res.To),
		OK:           err == nil,
		Duration:     res.Duration,
	}
	if res.Balance != nil {
		evt.Balance = *res.Balance
	}
	if err != nil {
		evt.Error = err.Error()
	}
	if rerr := c.Recorder.RecordModeTransition(evt); rerr != nil {
		log.Printf("[WARN] journal mode transition: %v", rerr)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
