package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGuard_Transitions(t *testing.T) {
	var g Guard
	if g.State() != TaskIdle {
		t.Fatalf("new guard should be idle, got %s", g.State())
	}
	if g.Release() {
		t.Error("release from idle must be rejected")
	}
	if !g.TryAcquire() {
		t.Fatal("first acquire should succeed")
	}
	if g.TryAcquire() {
		t.Error("re-entry must be rejected while running")
	}
	if g.State() != TaskRunning {
		t.Errorf("expected running, got %s", g.State())
	}
	if !g.Release() || g.State() != TaskIdle {
		t.Error("release should return the guard to idle")
	}
}

func TestRegister_Validation(t *testing.T) {
	s := NewScheduler(context.Background())
	noop := func(context.Context, Ticket) error { return nil }
	if err := s.Register("fast", 500*time.Millisecond, false, noop); err == nil {
		t.Error("expected error for sub-second interval")
	}
	if err := s.Register("status", time.Second, false, noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Register("status", 2*time.Second, false, noop); err == nil {
		t.Error("expected duplicate error")
	}
	if got := s.Tasks(); len(got) != 1 || got[0] != "status" {
		t.Errorf("tasks: %v", got)
	}
}

// A tick arriving while the previous invocation is outstanding is a no-op, and the
// state afterwards reflects only the first invocation's result.
func TestFire_SkipsWhileRunning(t *testing.T) {
	s := NewScheduler(context.Background())
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls atomic.Int32
	var mu sync.Mutex
	var applied []int32

	err := s.Register("status", time.Minute, false, func(ctx context.Context, tk Ticket) error {
		n := calls.Add(1)
		started <- struct{}{}
		<-release
		if tk.Valid() {
			mu.Lock()
			applied = append(applied, n)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan bool)
	go func() { done <- s.RunNow("status") }()
	<-started

	if s.State("status") != TaskRunning {
		t.Errorf("expected running state, got %s", s.State("status"))
	}
	if s.RunNow("status") {
		t.Error("second tick must be skipped")
	}
	close(release)
	if !<-done {
		t.Error("first tick should have run")
	}

	if calls.Load() != 1 {
		t.Errorf("expected 1 fetch, got %d", calls.Load())
	}
	runs, skipped := s.Stats("status")
	if runs != 1 || skipped != 1 {
		t.Errorf("expected runs=1 skipped=1, got %d/%d", runs, skipped)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 1 || applied[0] != 1 {
		t.Errorf("expected only tick 1 applied, got %v", applied)
	}
	if s.State("status") != TaskIdle {
		t.Errorf("guard should be idle after completion")
	}
}

func TestSuspend_InvalidatesInFlightTicket(t *testing.T) {
	s := NewScheduler(context.Background())
	release := make(chan struct{})
	started := make(chan struct{})
	valid := make(chan bool, 1)

	s.Register("status", time.Minute, false, func(ctx context.Context, tk Ticket) error {
		close(started)
		<-release
		valid <- tk.Valid()
		return nil
	})

	go s.RunNow("status")
	<-started
	s.SuspendAll()
	close(release)
	if <-valid {
		t.Error("result resolved after suspension must be discarded")
	}

	if s.RunNow("status") {
		t.Error("RunNow must refuse while suspended")
	}
	if !s.ForcedTicket().Valid() {
		t.Error("forced ticket must stay valid while suspended")
	}

	s.ResumeAll()
	if !s.Ticket().Valid() {
		t.Error("fresh ticket after resume should be valid")
	}
}

func TestSuspendResume_TicketGenerations(t *testing.T) {
	s := NewScheduler(context.Background())
	before := s.Ticket()
	s.SuspendAll()
	s.SuspendAll()
	s.ResumeAll()
	if before.Valid() {
		t.Error("ticket from before a suspension must not validate after resume")
	}
	if s.Suspended() {
		t.Error("expected resumed")
	}
	if (Ticket{}).Valid() {
		t.Error("zero ticket must be invalid")
	}
}

// A cron tick handed to its goroutine just as polling is suspended must not run,
// and nothing started inside the window may apply after resume.
func TestFire_TickRacingSuspendDoesNotRun(t *testing.T) {
	s := NewScheduler(context.Background())
	var calls atomic.Int32
	valid := make(chan bool, 1)
	s.Register("status", time.Minute, false, func(ctx context.Context, tk Ticket) error {
		calls.Add(1)
		valid <- tk.Valid()
		return nil
	})
	task := s.tasks["status"]

	s.SuspendAll()
	if s.fire(task, false) {
		t.Fatal("tick fired while suspended must not run")
	}
	if calls.Load() != 0 {
		t.Errorf("task ran %d times while suspended", calls.Load())
	}
	if _, skipped := s.Stats("status"); skipped != 1 {
		t.Errorf("expected the suspended tick to count as skipped, got %d", skipped)
	}
	if s.State("status") != TaskIdle {
		t.Error("guard must be released after a suspended tick")
	}

	s.ResumeAll()
	if !s.fire(task, false) {
		t.Fatal("tick after resume should run")
	}
	if !<-valid {
		t.Error("ticket taken after resume should be valid")
	}
}

func TestResume_InvalidatesTicketsFromSuspensionWindow(t *testing.T) {
	s := NewScheduler(context.Background())
	release := make(chan struct{})
	started := make(chan struct{})
	valid := make(chan bool, 1)
	s.Register("status", time.Minute, false, func(ctx context.Context, tk Ticket) error {
		close(started)
		<-release
		valid <- tk.Valid()
		return nil
	})

	go s.RunNow("status")
	<-started
	s.SuspendAll()
	inside := s.Ticket()
	s.ResumeAll()
	close(release)

	if <-valid {
		t.Error("invocation spanning a suspension window must not apply after resume")
	}
	if inside.Valid() {
		t.Error("ticket taken while suspended must stay invalid after resume")
	}
	if !s.Ticket().Valid() {
		t.Error("fresh ticket after resume should be valid")
	}
}

func TestRequestRun_QueuesOneRerun(t *testing.T) {
	s := NewScheduler(context.Background())
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	var calls atomic.Int32
	s.Register("status", time.Minute, false, func(ctx context.Context, tk Ticket) error {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return nil
	})

	done := make(chan bool)
	go func() { done <- s.RunNow("status") }()
	<-started

	for i := 0; i < 3; i++ {
		if !s.RequestRun("status") {
			t.Fatalf("request %d should be queued behind the running invocation", i)
		}
	}
	close(release)
	if !<-done {
		t.Fatal("first invocation should have run")
	}

	if calls.Load() != 2 {
		t.Errorf("expected the requests to coalesce into one rerun, got %d runs", calls.Load())
	}
	runs, skipped := s.Stats("status")
	if runs != 2 || skipped != 0 {
		t.Errorf("expected runs=2 skipped=0, got %d/%d", runs, skipped)
	}
	if s.State("status") != TaskIdle {
		t.Error("guard should be idle after the rerun")
	}
}

func TestRequestRun_RefusedWhileSuspended(t *testing.T) {
	s := NewScheduler(context.Background())
	var calls atomic.Int32
	s.Register("status", time.Minute, false, func(ctx context.Context, tk Ticket) error {
		calls.Add(1)
		return nil
	})
	if s.RequestRun("missing") {
		t.Error("unknown task must be refused")
	}
	s.SuspendAll()
	if s.RequestRun("status") {
		t.Error("request while suspended must be refused")
	}
	s.ResumeAll()
	if calls.Load() != 0 {
		t.Errorf("no run expected, got %d", calls.Load())
	}
	if !s.RequestRun("status") || calls.Load() != 1 {
		t.Errorf("request while idle should run at once, got %d runs", calls.Load())
	}
}

func TestFire_ErrorDoesNotStopTask(t *testing.T) {
	s := NewScheduler(context.Background())
	var calls atomic.Int32
	s.Register("chart", time.Minute, false, func(ctx context.Context, tk Ticket) error {
		calls.Add(1)
		return errors.New("boom")
	})
	for i := 0; i < 3; i++ {
		if !s.RunNow("chart") {
			t.Fatalf("run %d refused", i)
		}
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 runs, got %d", calls.Load())
	}
}

func TestCron_FiresPeriodically(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a real cron tick")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewScheduler(ctx)
	fired := make(chan struct{}, 4)
	s.Register("heartbeat", time.Second, true, func(ctx context.Context, tk Ticket) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	})
	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("cron did not fire")
	}
}
