// Package countdown computes a live days/hours/minutes/seconds breakdown toward
// a fixed instant and fires a completion callback exactly once when it is
// reached.
package countdown

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"verisite/pkg/realtime"
)

// TickInterval is the fixed update cadence.
const TickInterval = time.Second

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Remaining is the time left until a target, floored per unit.
type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Compute returns the breakdown of target-now. Anything at or past the target
// is all zeros.
func Compute(target, now time.Time) Remaining {
	ms := target.Sub(now).Milliseconds()
	if ms <= 0 {
		return Remaining{}
	}
	return Remaining{
		Days:    int(ms / msPerDay),
		Hours:   int(ms / msPerHour % 24),
		Minutes: int(ms / msPerMinute % 60),
		Seconds: int(ms / msPerSecond % 60),
	}
}

// TotalSeconds folds the breakdown back into whole seconds.
func (r Remaining) TotalSeconds() int {
	return r.Days*86400 + r.Hours*3600 + r.Minutes*60 + r.Seconds
}

// IsZero reports whether every unit is zero.
func (r Remaining) IsZero() bool { return r == Remaining{} }

// Display is a Remaining formatted for presentation: days as-is, other units
// zero padded to two digits.
type Display struct {
	Days    string
	Hours   string
	Minutes string
	Seconds string
}

// Format pads hours, minutes and seconds to two digits.
func (r Remaining) Format() Display {
	return Display{
		Days:    strconv.Itoa(r.Days),
		Hours:   fmt.Sprintf("%02d", r.Hours),
		Minutes: fmt.Sprintf("%02d", r.Minutes),
		Seconds: fmt.Sprintf("%02d", r.Seconds),
	}
}

func (r Remaining) String() string {
	d := r.Format()
	return d.Days + "d " + d.Hours + ":" + d.Minutes + ":" + d.Seconds
}

// State is a snapshot of a countdown.
type State struct {
	Target    time.Time `json:"target"`
	Remaining Remaining `json:"remaining"`
	Completed bool      `json:"completed"`
}

// Options configures a Countdown. Callbacks run without the countdown's lock
// held, so they may call back into it.
type Options struct {
	Clock realtime.Clock
	// OnTick runs after every timer tick, not for the initial evaluation.
	OnTick func(State)
	// OnComplete runs once per target, on the evaluation that first sees the
	// target reached.
	OnComplete func(State)
	Logger     *zap.Logger
}

// Countdown ticks once per second until its target is reached.
type Countdown struct {
	mu         sync.Mutex
	clock      realtime.Clock
	log        *zap.Logger
	onTick     func(State)
	onComplete func(State)

	state   State
	timer   realtime.Timer
	gen     uint64
	stopped bool
}

// New starts a countdown toward target. A target already in the past reports
// the completed state immediately and fires OnComplete before New returns.
func New(target time.Time, opts Options) *Countdown {
	if opts.Clock == nil {
		opts.Clock = realtime.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	c := &Countdown{
		clock:      opts.Clock,
		log:        opts.Logger,
		onTick:     opts.OnTick,
		onComplete: opts.OnComplete,
	}
	c.SetTarget(target)
	return c
}

// SetTarget re-targets the countdown. Timer callbacks armed for the previous
// target are invalidated and never apply.
func (c *Countdown) SetTarget(target time.Time) {
	c.mu.Lock()
	c.gen++
	c.stopTimerLocked()
	c.stopped = false
	c.state = State{Target: target}
	completed := c.evaluateLocked()
	snapshot := c.state
	c.mu.Unlock()

	if completed && c.onComplete != nil {
		c.onComplete(snapshot)
	}
}

// State returns the latest evaluated state.
func (c *Countdown) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stop cancels the pending tick. A stopped countdown never completes.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.gen++
	c.stopTimerLocked()
}

// evaluateLocked recomputes the state from the clock and arms the next tick if
// the target is still ahead. It reports whether this evaluation completed the
// countdown.
func (c *Countdown) evaluateLocked() bool {
	if c.state.Completed {
		return false
	}
	now := c.clock.Now()
	c.state.Remaining = Compute(c.state.Target, now)
	if !c.state.Target.After(now) {
		c.state.Completed = true
		c.state.Remaining = Remaining{}
		return true
	}
	gen := c.gen
	c.timer = c.clock.AfterFunc(TickInterval, func() { c.tick(gen) })
	if c.timer == nil {
		c.log.Warn("countdown timer unavailable, showing static value",
			zap.Time("target", c.state.Target))
	}
	return false
}

func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.stopped {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	completed := c.evaluateLocked()
	snapshot := c.state
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(snapshot)
	}
	if completed && c.onComplete != nil {
		c.onComplete(snapshot)
	}
}

func (c *Countdown) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
