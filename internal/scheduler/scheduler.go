package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// TaskFunc is one invocation of a periodic task. Results may only be applied
// while tk.Valid() holds.
type TaskFunc func(ctx context.Context, tk Ticket) error

// Task is a named periodic job with its own re-entrancy guard.
type Task struct {
	Name  string
	Every time.Duration
	Quiet bool // failures logged at debug level only

	run     TaskFunc
	guard   Guard
	entry   cron.EntryID
	runs    atomic.Int64
	skipped atomic.Int64
	pending atomic.Bool // a requested rerun for after the current invocation
}

// Ticket identifies the polling generation an invocation started in. Suspending
// and resuming the scheduler each start a new generation, which invalidates
// outstanding tickets.
type Ticket struct {
	gen    uint64
	forced bool
	s      *Scheduler
}

// Valid reports whether a result obtained under this ticket may still be applied.
func (t Ticket) Valid() bool {
	if t.forced {
		return true
	}
	if t.s == nil {
		return false
	}
	return t.s.current(t.gen)
}

// Forced reports whether the ticket bypasses suspension.
func (t Ticket) Forced() bool { return t.forced }

// Scheduler owns the named periodic polling tasks.
type Scheduler struct {
	Cron  *cron.Cron
	Ctx   context.Context
	Debug bool

	mu         sync.Mutex
	tasks      map[string]*Task
	order      []string
	generation uint64
	started    bool
	suspended  bool
}

// NewScheduler creates a new Scheduler. Task invocations use ctx.
func NewScheduler(ctx context.Context) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron:  cron.New(cron.WithChain(cron.Recover(logger))),
		Ctx:   ctx,
		tasks: make(map[string]*Task),
	}
}

// Register adds a task firing every interval. Intervals below one second are rejected.
func (s *Scheduler) Register(name string, every time.Duration, quiet bool, fn TaskFunc) error {
	if every < time.Second {
		return fmt.Errorf("register %s: interval %s below 1s", name, every)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.tasks[name]; dup {
		return fmt.Errorf("register %s: duplicate task", name)
	}
	t := &Task{Name: name, Every: every, Quiet: quiet, run: fn}
	t.entry = s.Cron.Schedule(cron.Every(every), cron.FuncJob(func() { s.fire(t, false) }))
	s.tasks[name] = t
	s.order = append(s.order, name)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	if !s.suspended {
		s.Cron.Start()
	}
	log.Printf("[INFO] scheduler started with %d tasks", len(s.tasks))
}

// Stop stops the cron scheduler and waits for running invocations.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.started = false
	s.generation++
	done := s.Cron.Stop().Done()
	s.mu.Unlock()
	<-done
	log.Println("[INFO] scheduler stopped")
}

// SuspendAll cancels pending ticks and invalidates every outstanding ticket.
// In-flight invocations run to completion but their results are discarded.
func (s *Scheduler) SuspendAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.suspended {
		return
	}
	s.suspended = true
	if s.started {
		s.Cron.Stop()
	}
	log.Println("[INFO] polling suspended")
}

// ResumeAll restarts periodic ticks after SuspendAll.
func (s *Scheduler) ResumeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.suspended {
		return
	}
	s.suspended = false
	s.generation++
	if s.started {
		s.Cron.Start()
	}
	log.Println("[INFO] polling resumed")
}

// Suspended reports whether polling is suspended.
func (s *Scheduler) Suspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}

// Ticket returns a ticket for the current generation.
func (s *Scheduler) Ticket() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Ticket{gen: s.generation, s: s}
}

// ForcedTicket returns a ticket that stays valid while suspended. Only the mode
// coordinator's reconciliation fetch uses it.
func (s *Scheduler) ForcedTicket() Ticket {
	return Ticket{forced: true, s: s}
}

func (s *Scheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.suspended && gen == s.generation
}

// RunNow fires a task immediately through its guard. It reports false when the
// task is unknown, polling is suspended, or an invocation is already running.
func (s *Scheduler) RunNow(name string) bool {
	s.mu.Lock()
	t, ok := s.tasks[name]
	suspended := s.suspended
	s.mu.Unlock()
	if !ok || suspended {
		return false
	}
	return s.fire(t, false)
}

// RequestRun asks for a task run that must not be lost to an in-flight
// invocation. If the task is idle it runs now; if it is running, one rerun is
// queued for when the current invocation finishes. Requests arriving while a
// rerun is queued coalesce into it. It reports false when the task is unknown
// or polling is suspended.
func (s *Scheduler) RequestRun(name string) bool {
	s.mu.Lock()
	t, ok := s.tasks[name]
	suspended := s.suspended
	s.mu.Unlock()
	if !ok || suspended {
		return false
	}
	t.pending.Store(true)
	if !s.fire(t, true) && s.Debug {
		log.Printf("[DEBUG] %s rerun queued behind running invocation", t.Name)
	}
	return true
}

// State returns the guard state of a task.
func (s *Scheduler) State(name string) TaskState {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return TaskIdle
	}
	return t.guard.State()
}

// Stats returns how many times a task ran and how many ticks were skipped.
func (s *Scheduler) Stats(name string) (runs, skipped int64) {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return 0, 0
	}
	return t.runs.Load(), t.skipped.Load()
}

// Tasks lists registered task names in registration order.
func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// fire runs t through its guard. Periodic ticks that find the task running are
// skipped; a queued rerun is picked up before the guard is handed back.
func (s *Scheduler) fire(t *Task, requested bool) bool {
	ran := false
	for {
		if !t.guard.TryAcquire() {
			if !ran && !requested {
				t.skipped.Add(1)
				if s.Debug {
					log.Printf("[DEBUG] %s tick skipped: previous invocation still running", t.Name)
				}
			}
			return ran
		}
		t.pending.Store(false)
		if s.invoke(t) {
			ran = true
		}
		t.guard.Release()
		// A request that lost the race with Release finds the guard idle again and
		// is served here or by its own fire.
		if !t.pending.Load() {
			return ran
		}
	}
}

// invoke runs one invocation under a ticket taken together with the suspension
// check, so a tick racing SuspendAll either runs before it or not at all.
func (s *Scheduler) invoke(t *Task) bool {
	s.mu.Lock()
	if s.suspended {
		s.mu.Unlock()
		t.skipped.Add(1)
		if s.Debug {
			log.Printf("[DEBUG] %s tick skipped: polling suspended", t.Name)
		}
		return false
	}
	tk := Ticket{gen: s.generation, s: s}
	s.mu.Unlock()

	t.runs.Add(1)
	if err := t.run(s.Ctx, tk); err != nil {
		if t.Quiet {
			if s.Debug {
				log.Printf("[DEBUG] %s: %v", t.Name, err)
			}
		} else {
			log.Printf("[WARN] %s: %v", t.Name, err)
		}
	}
	return true
}
