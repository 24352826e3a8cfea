// Package dashboard owns the client-side dashboard state and the polling tasks
// that keep it in sync with the trading service.
package dashboard

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"DashSync/internal/collector"
	"DashSync/internal/model"
	"DashSync/internal/position"
	"DashSync/internal/recorder"
	"DashSync/internal/scheduler"
	"DashSync/internal/session"
	"DashSync/internal/strategy"
	"DashSync/internal/view"
)

// Task names registered with the scheduler.
const (
	TaskStatus      = "status"
	TaskChart       = "chart"
	TaskLeaderboard = "leaderboard"
	TaskPresence    = "presence"
	TaskHeartbeat   = "heartbeat"
)

// Publisher receives every projected frame.
type Publisher interface {
	Publish(f view.Frame)
}

// PositionEvent is emitted when a position opens, is replaced or closes.
type PositionEvent struct {
	Transition position.Transition
	Prev       position.State
	Next       position.State
	Mode       model.TradingMode
	At         time.Time
}

// Alerter is told about position lifecycle events.
type Alerter interface {
	PositionChanged(evt PositionEvent)
}

// Intervals configures the polling cadence.
type Intervals struct {
	Status      time.Duration
	Chart       time.Duration
	Leaderboard time.Duration
	Presence    time.Duration
	Heartbeat   time.Duration
}

// Options configures a Dashboard.
type Options struct {
	Intervals      Intervals
	ChartTimeframe string
	LostAfter      int
	Debug          bool
}

// Dashboard holds AppState and the tasks that update it.
type Dashboard struct {
	Collector  *collector.Collector
	Scheduler  *scheduler.Scheduler
	Engine     *strategy.Engine
	Session    *session.Store
	Recorder   recorder.Recorder
	Clock      *position.ElapsedClock
	Publishers []Publisher
	Alerters   []Alerter
	Now        func() time.Time

	opts Options

	mu    sync.Mutex
	state AppState
}

// New creates a Dashboard and registers its polling tasks on sched. The cached
// session flag seeds the state as unverified.
func New(coll *collector.Collector, sched *scheduler.Scheduler, engine *strategy.Engine, sess *session.Store, rec recorder.Recorder, opts Options) (*Dashboard, error) {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	d := &Dashboard{
		Collector: coll,
		Scheduler: sched,
		Engine:    engine,
		Session:   sess,
		Recorder:  rec,
		Now:       time.Now,
		opts:      opts,
	}
	d.Clock = position.NewElapsedClock(d.onClockTick)

	if sess != nil {
		cached := sess.Get()
		d.state.APIConnected = cached.APIConnected
		if cached.TradingMode.Valid() {
			d.state.Mode = cached.TradingMode
		}
	}

	iv := opts.Intervals
	tasks := []struct {
		name  string
		every time.Duration
		quiet bool
		fn    scheduler.TaskFunc
	}{
		{TaskStatus, iv.Status, false, d.pollStatus},
		{TaskChart, iv.Chart, false, d.pollChart},
		{TaskLeaderboard, iv.Leaderboard, false, d.pollLeaderboard},
		{TaskPresence, iv.Presence, true, d.pollPresence},
		{TaskHeartbeat, iv.Heartbeat, true, d.heartbeat},
	}
	for _, t := range tasks {
		if err := sched.Register(t.name, t.every, t.quiet, t.fn); err != nil {
			return nil, fmt.Errorf("register tasks: %w", err)
		}
	}
	return d, nil
}

// State returns a copy of the current state.
func (d *Dashboard) State() AppState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Frame projects the current state.
func (d *Dashboard) Frame() view.Frame {
	d.mu.Lock()
	in := d.state.viewInput(d.opts.LostAfter)
	d.mu.Unlock()
	return view.Project(in, d.Now())
}

// Bootstrap loads the strategy levels, leverage and trading mode, then runs the
// leaderboard, status and chart tasks once so the first frame is complete.
// Failures are logged; periodic polling recovers them.
func (d *Dashboard) Bootstrap(ctx context.Context) {
	f := d.Collector.Fetcher
	if levels, err := f.StrategyConfig(ctx); err != nil {
		log.Printf("[WARN] load strategy config: %v", err)
	} else {
		d.update(func(s *AppState) { s.Levels = *levels })
	}
	if lev, err := f.Leverage(ctx); err != nil {
		log.Printf("[WARN] load leverage: %v", err)
	} else {
		d.update(func(s *AppState) { s.Leverage = lev })
	}
	if m, err := f.TradingMode(ctx); err != nil {
		log.Printf("[WARN] load trading mode: %v", err)
	} else if m.Valid() {
		d.update(func(s *AppState) {
			if !s.TransitionInFlight {
				s.Mode = m
			}
		})
	}
	for _, name := range []string{TaskLeaderboard, TaskStatus, TaskChart} {
		d.Scheduler.RunNow(name)
	}
}

// Close stops the elapsed clock.
func (d *Dashboard) Close() {
	d.Clock.Stop()
}

func (d *Dashboard) pollStatus(ctx context.Context, tk scheduler.Ticket) error {
	snap, err := d.Collector.Snapshot(ctx)
	if err != nil {
		d.recordFailure(tk)
		return err
	}
	d.applyStatus(tk, snap)
	return nil
}

func (d *Dashboard) recordFailure(tk scheduler.Ticket) {
	var lost bool
	d.apply(tk, "status failure", func(s *AppState) {
		*s = reduceStatusFailure(*s)
		lost = s.StatusFailures == d.opts.LostAfter
	})
	if lost {
		log.Printf("[ERROR] connectivity lost: %d consecutive status failures", d.opts.LostAfter)
	}
}

// applyStatus folds snap into the state if tk is still valid. It returns false
// when the result was discarded.
func (d *Dashboard) applyStatus(tk scheduler.Ticket, snap *model.Snapshot) bool {
	var (
		prev, next position.State
		tr         position.Transition
		mode       model.TradingMode
		recovered  bool
	)
	now := d.Now()
	ok := d.apply(tk, "status", func(s *AppState) {
		prev = s.Position
		recovered = d.opts.LostAfter > 0 && s.StatusFailures >= d.opts.LostAfter
		*s, tr = reduceStatus(*s, snap, d.Engine, tk.Forced(), now)
		next = s.Position
		mode = s.Mode

		if next.Phase == position.Open {
			d.Clock.Ensure(next.ID, next.OpenedAt)
		} else {
			d.Clock.Stop()
		}
	})
	if !ok {
		return false
	}
	if recovered {
		log.Println("[INFO] connectivity restored")
	}
	if d.Session != nil {
		if d.Session.Confirm(snap.APIConnected, snap.TradingMode, now) {
			log.Printf("[INFO] session updated: api_connected=%v mode=%s", snap.APIConnected, snap.TradingMode)
		}
	}
	switch tr {
	case position.TransitionOpened, position.TransitionReplaced, position.TransitionClosed:
		d.positionChanged(PositionEvent{Transition: tr, Prev: prev, Next: next, Mode: mode, At: now})
	}
	return true
}

func (d *Dashboard) positionChanged(evt PositionEvent) {
	subject := evt.Next
	pnl := evt.Next.UnrealizedPnL
	if evt.Transition == position.TransitionClosed {
		subject = evt.Prev
		pnl = evt.Prev.UnrealizedPnL
	}
	log.Printf("[INFO] position %s: %s %s %s", evt.Transition, subject.ID, subject.Side, subject.LockedSymbol)

	if err := d.Recorder.RecordPosition(&recorder.PositionEvent{
		Transition: evt.Transition.String(),
		PositionID: subject.ID,
		Side:       string(subject.Side),
		Symbol:     subject.Symbol,
		EntryPrice: subject.EntryPrice,
		Notional:   subject.Notional,
		PnL:        pnl,
		OpenedAt:   subject.OpenedAt,
		Mode:       string(evt.Mode),
	}); err != nil {
		log.Printf("[WARN] journal position event: %v", err)
	}
	for _, a := range d.Alerters {
		a.PositionChanged(evt)
	}
}

func (d *Dashboard) pollChart(ctx context.Context, tk scheduler.Ticket) error {
	chart, err := d.Collector.Chart(ctx, d.opts.ChartTimeframe)
	if err != nil {
		return err
	}
	d.apply(tk, "chart", func(s *AppState) { s.Chart = chart })
	return nil
}

func (d *Dashboard) pollLeaderboard(ctx context.Context, tk scheduler.Ticket) error {
	lb, err := d.Collector.Leaderboard(ctx)
	if err != nil {
		return err
	}
	d.apply(tk, "leaderboard", func(s *AppState) { s.Leaderboard = lb })
	return nil
}

func (d *Dashboard) pollPresence(ctx context.Context, tk scheduler.Ticket) error {
	p, err := d.Collector.Presence(ctx)
	if err != nil {
		return err
	}
	d.apply(tk, "presence", func(s *AppState) { s.Presence = p })
	return nil
}

func (d *Dashboard) heartbeat(ctx context.Context, _ scheduler.Ticket) error {
	return d.Collector.Heartbeat(ctx)
}

// apply runs fn on the state under the state mutex if tk is still valid, then
// publishes the new frame. The validity check and the write happen under the
// same lock that suspension takes, so a stale result can never land.
func (d *Dashboard) apply(tk scheduler.Ticket, what string, fn func(s *AppState)) bool {
	d.mu.Lock()
	if !tk.Valid() {
		d.mu.Unlock()
		if d.opts.Debug {
			log.Printf("[DEBUG] %s result discarded: polling generation changed", what)
		}
		return false
	}
	fn(&d.state)
	in := d.state.viewInput(d.opts.LostAfter)
	d.mu.Unlock()

	d.publish(view.Project(in, d.Now()))
	return true
}

// update changes state outside the polling path and publishes.
func (d *Dashboard) update(fn func(s *AppState)) {
	d.mu.Lock()
	fn(&d.state)
	in := d.state.viewInput(d.opts.LostAfter)
	d.mu.Unlock()
	d.publish(view.Project(in, d.Now()))
}

func (d *Dashboard) publish(f view.Frame) {
	for _, p := range d.Publishers {
		p.Publish(f)
	}
}

// onClockTick re-renders the elapsed time while the same instance is open.
func (d *Dashboard) onClockTick(id string, _ time.Duration) {
	d.mu.Lock()
	if d.state.Position.Phase != position.Open || d.state.Position.ID != id {
		d.mu.Unlock()
		return
	}
	in := d.state.viewInput(d.opts.LostAfter)
	d.mu.Unlock()
	d.publish(view.Project(in, d.Now()))
}
