package vm

import (
	"sync/atomic"
	"time"
)

// DefaultClockHz is the machine's nominal clock rate absent a configured
// override.
const DefaultClockHz = 100000

// Executor drives a CPU's fetch/decode/execute loop, pacing it against a
// target clock and ticking hardware devices and the interrupt queue between
// instructions. Run blocks the goroutine that calls it; a host can stop it
// from any other goroutine via Stop; the worker only observes the flag at instruction
// boundaries, per the cooperative-cancellation model.
type Executor struct {
	CPU       *CPU
	ClockHz   int    // 0 disables pacing entirely, for tests
	MaxCycles uint64 // 0 disables the cycle ceiling

	stop atomic.Bool
}

// NewExecutor constructs an Executor over cpu, paced at clockHz (0 to run
// unpaced).
func NewExecutor(cpu *CPU, clockHz int) *Executor {
	return &Executor{CPU: cpu, ClockHz: clockHz}
}

// Stop requests the run loop to exit at the next instruction boundary.
// Safe to call from any goroutine.
func (e *Executor) Stop() {
	e.stop.Store(true)
}

// Stopped reports whether Stop has been called.
func (e *Executor) Stopped() bool {
	return e.stop.Load()
}

// Run executes instructions until Stop is called or the machine catches
// fire. Only the stop flag and the memory image are shared with a caller
// on another goroutine; callers must wait for Run to return (or poll
// Stopped/CPU.OnFire) before reading CPU or memory state.
func (e *Executor) Run() {
	var period time.Duration
	var deadline time.Time
	if e.ClockHz > 0 {
		period = time.Second / time.Duration(e.ClockHz)
		deadline = time.Now().Add(period)
	}

	for !e.stop.Load() && !e.CPU.OnFire {
		if e.MaxCycles > 0 && e.CPU.Cycles >= e.MaxCycles {
			return
		}
		e.CPU.Step()
		e.CPU.Hardware.Tick(e.CPU)
		e.CPU.drainOneInterrupt()

		if e.ClockHz > 0 {
			now := time.Now()
			if deadline.After(now) {
				time.Sleep(deadline.Sub(now))
			}
			deadline = deadline.Add(period)
		}
	}
}
