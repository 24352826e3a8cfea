package command

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"DashSync/internal/collector"
	"DashSync/internal/model"
	"DashSync/internal/recorder"
)

// Transport posts a JSON body to a service path.
type Transport interface {
	Post(ctx context.Context, path string, body, out any) error
}

// StateStore is the slice of dashboard state the dispatcher reads and commits.
type StateStore interface {
	Levels() model.StrategyLevels
	SetLevels(levels model.StrategyLevels)
	Rebalance() bool
	SetRebalance(enabled bool)
	SetLeverage(leverage int)
}

// Refresher requests an out-of-band status fetch. It reports false when the
// fetch was not started.
type Refresher interface {
	RefreshNow() bool
}

// Result is the outcome of a successful dispatch.
type Result struct {
	RequestID string
	Command   Command
	Message   string
	Leverage  int
	Levels    *model.StrategyLevels
	Rebalance *bool
	Refreshed bool
	// RefreshDeferred is set when the rate limiter pushed the refresh back; it
	// runs once the limiter admits it.
	RefreshDeferred bool
}

// response covers every field the command endpoints answer with.
type response struct {
	Message          string `json:"message"`
	Success          *bool  `json:"success"`
	Leverage         int    `json:"leverage"`
	RebalanceEnabled *bool  `json:"rebalance_enabled"`
}

// Dispatcher sends one request per command. It never retries.
type Dispatcher struct {
	Remote    Transport
	State     StateStore
	Refresher Refresher
	Recorder  recorder.Recorder
	Limiter   *rate.Limiter

	mu       sync.Mutex
	deferred *time.Timer // at most one rate-limited refresh waits at a time
	closed   bool
}

// NewDispatcher creates a Dispatcher whose out-of-band refreshes are limited to
// perSecond with a burst of one.
func NewDispatcher(remote Transport, state StateStore, refresher Refresher, rec recorder.Recorder, perSecond float64) *Dispatcher {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Dispatcher{
		Remote:    remote,
		State:     state,
		Refresher: refresher,
		Recorder:  rec,
		Limiter:   rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

// Dispatch sends cmd and applies its confirmed effect to the state store.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (*Result, error) {
	start := time.Now()
	res := &Result{RequestID: uuid.NewString(), Command: cmd}
	ctx = collector.WithRequestID(ctx, res.RequestID)

	err := d.send(ctx, cmd, res)
	d.journal(res, cmd, err, time.Since(start))
	if err != nil {
		log.Printf("[WARN] command %s (%s) failed: %v", cmd, res.RequestID, err)
		return nil, err
	}
	log.Printf("[INFO] command %s (%s): %s", cmd, res.RequestID, res.Message)

	if cmd.Kind.refreshes() && d.Refresher != nil {
		d.refresh(res)
	}
	return res, nil
}

// Close cancels a deferred refresh that has not fired yet.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.deferred != nil {
		d.deferred.Stop()
		d.deferred = nil
	}
}

// refresh triggers the out-of-band status fetch. When the limiter has no token
// the fetch is scheduled for when it will; further requests in the meantime
// coalesce into that one.
func (d *Dispatcher) refresh(res *Result) {
	if d.Limiter == nil {
		res.Refreshed = d.Refresher.RefreshNow()
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if d.deferred != nil {
		d.mu.Unlock()
		res.RefreshDeferred = true
		return
	}
	r := d.Limiter.Reserve()
	delay := r.Delay()
	if !r.OK() || delay == rate.InfDuration {
		r.Cancel()
		d.mu.Unlock()
		log.Println("[WARN] out-of-band refresh dropped: limiter admits no refreshes")
		return
	}
	if delay == 0 {
		d.mu.Unlock()
		res.Refreshed = d.Refresher.RefreshNow()
		return
	}
	defer d.mu.Unlock()
	res.RefreshDeferred = true
	d.deferred = time.AfterFunc(delay, func() {
		d.mu.Lock()
		d.deferred = nil
		closed := d.closed
		d.mu.Unlock()
		if !closed {
			d.Refresher.RefreshNow()
		}
	})
}

func (d *Dispatcher) send(ctx context.Context, cmd Command, res *Result) error {
	var out response
	switch cmd.Kind {
	case StartBot, StopBot, OpenLong, OpenShort, ClosePosition, DeleteLastTrade, ResetBalance:
		if err := d.post(ctx, cmd.Kind, "/api/"+string(cmd.Kind), map[string]any{}, &out); err != nil {
			return err
		}

	case SetLeverage:
		if cmd.Leverage < 1 {
			return &Error{Kind: cmd.Kind, Message: "Leverage must be at least 1", Err: fmt.Errorf("leverage %d", cmd.Leverage)}
		}
		if err := d.post(ctx, cmd.Kind, "/api/set_leverage", map[string]int{"leverage": cmd.Leverage}, &out); err != nil {
			return err
		}
		res.Leverage = cmd.Leverage
		if out.Leverage > 0 {
			res.Leverage = out.Leverage
		}
		d.State.SetLeverage(res.Leverage)
		if out.Message == "" {
			out.Message = fmt.Sprintf("Leverage set to %dx", res.Leverage)
		}

	case ToggleOpenLevel, ToggleCloseLevel:
		cur := d.State.Levels()
		next := model.StrategyLevels{
			Open:  append([]string(nil), cur.Open...),
			Close: append([]string(nil), cur.Close...),
		}
		if cmd.Kind == ToggleOpenLevel {
			next.Open = model.Toggle(cur.Open, cmd.Level)
		} else {
			next.Close = model.Toggle(cur.Close, cmd.Level)
		}
		if err := d.post(ctx, cmd.Kind, "/api/set_strategy_config", next, &out); err != nil {
			return err
		}
		d.State.SetLevels(next)
		res.Levels = &next

	case ToggleRebalance:
		want := !d.State.Rebalance()
		if err := d.post(ctx, cmd.Kind, "/api/toggle_rebalance", map[string]bool{"enabled": want}, &out); err != nil {
			return err
		}
		enabled := want
		if out.RebalanceEnabled != nil {
			enabled = *out.RebalanceEnabled
		}
		d.State.SetRebalance(enabled)
		res.Rebalance = &enabled
		if out.Message == "" {
			state := "DISABLED"
			if enabled {
				state = "ENABLED"
			}
			out.Message = "Balance rebalance " + state
		}

	default:
		return fmt.Errorf("unknown command %q", cmd.Kind)
	}

	res.Message = out.Message
	if res.Message == "" {
		res.Message = cmd.Kind.defaultMessage()
	}
	return nil
}

// post sends one request. Service rejections pass through untouched so their
// message reaches the user; transport failures get the command's failure text.
func (d *Dispatcher) post(ctx context.Context, kind Kind, path string, body any, out *response) error {
	err := d.Remote.Post(ctx, path, body, out)
	if err == nil {
		return nil
	}
	var re *collector.RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &Error{Kind: kind, Message: kind.failureMessage(), Err: err}
}

func (d *Dispatcher) journal(res *Result, cmd Command, err error, took time.Duration) {
	evt := &recorder.CommandEvent{
		RequestID: res.RequestID,
		Command:   string(cmd.Kind),
		OK:        err == nil,
		Duration:  took,
	}
	switch cmd.Kind {
	case SetLeverage:
		evt.Args = fmt.Sprint(cmd.Leverage)
	case ToggleOpenLevel, ToggleCloseLevel:
		evt.Args = cmd.Level
	}
	if err != nil {
		evt.Message = Message(err)
	} else {
		evt.Message = res.Message
	}
	if rerr := d.Recorder.RecordCommand(evt); rerr != nil {
		log.Printf("[WARN] journal command: %v", rerr)
	}
}
