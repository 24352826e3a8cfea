package scheduler

import "sync/atomic"

// TaskState is the lifecycle of one periodic task invocation.
type TaskState int32

const (
	TaskIdle TaskState = iota
	TaskRunning
)

func (s TaskState) String() string {
	if s == TaskRunning {
		return "running"
	}
	return "idle"
}

// Guard admits one invocation at a time. The only legal cycle is idle -> running -> idle;
// an attempt to enter while running is rejected, never queued.
type Guard struct {
	state atomic.Int32
}

// TryAcquire moves the guard from idle to running. It returns false if an
// invocation is already outstanding.
func (g *Guard) TryAcquire() bool {
	return g.state.CompareAndSwap(int32(TaskIdle), int32(TaskRunning))
}

// Release moves the guard back to idle. It returns false if the guard was not running.
func (g *Guard) Release() bool {
	return g.state.CompareAndSwap(int32(TaskRunning), int32(TaskIdle))
}

// State reports the current state.
func (g *Guard) State() TaskState {
	return TaskState(g.state.Load())
}
