// Package reveal decides whether a page section is shown in its revealed
// state. The browser reports intersection ratios; the controller owns the
// trigger-once latch, reduced-motion override and fail-open behaviour.
package reveal

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Variant is the entrance animation of a section.
type Variant string

const (
	Fade       Variant = "fade"
	SlideUp    Variant = "slide-up"
	SlideLeft  Variant = "slide-left"
	SlideRight Variant = "slide-right"
	Zoom       Variant = "zoom"
)

// Variants lists every supported variant.
var Variants = []Variant{Fade, SlideUp, SlideLeft, SlideRight, Zoom}

// ParseVariant maps s onto a known variant, defaulting to Fade.
func ParseVariant(s string) Variant {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if v.Valid() {
		return v
	}
	return Fade
}

// Valid reports whether v is one of Variants.
func (v Variant) Valid() bool {
	for _, known := range Variants {
		if v == known {
			return true
		}
	}
	return false
}

const (
	DefaultThreshold = 0.1
	DefaultDuration  = 600 * time.Millisecond
)

// Config describes how one section reveals.
type Config struct {
	Variant     Variant
	TriggerOnce bool
	// Threshold is the visible fraction, 0..1, at which the section counts as
	// intersecting. Zero means any visible pixel.
	Threshold float64
	Delay     time.Duration
	Duration  time.Duration
}

// DefaultConfig is a fade that triggers once at 10% visibility.
func DefaultConfig() Config {
	return Config{
		Variant:     Fade,
		TriggerOnce: true,
		Threshold:   DefaultThreshold,
		Duration:    DefaultDuration,
	}
}

func (c Config) normalized() Config {
	if !c.Variant.Valid() {
		c.Variant = Fade
	}
	if c.Threshold < 0 {
		c.Threshold = 0
	}
	if c.Threshold > 1 {
		c.Threshold = 1
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.Duration < 0 {
		c.Duration = 0
	}
	return c
}

// Env is what the host environment tells us about the viewer.
type Env struct {
	ReducedMotion     bool
	ObserverAvailable bool
}

// State is a snapshot of a controller.
type State struct {
	Revealed     bool
	Intersecting bool
	Visible      bool
	Static       bool // rendered without observation or transition
}

// Controller tracks one section.
type Controller struct {
	mu           sync.Mutex
	cfg          Config
	env          Env
	revealed     bool
	intersecting bool
	closed       bool
}

// New creates a controller for a freshly rendered section. A section that
// starts under reduced motion is already revealed.
func New(cfg Config, env Env) *Controller {
	return &Controller{cfg: cfg.normalized(), env: env, revealed: env.ReducedMotion}
}

// Config returns the normalized configuration.
func (c *Controller) Config() Config { return c.cfg }

// Observe feeds a new visible fraction. It reports whether Visible changed.
// Calls after Close, or while the controller is static, are ignored.
func (c *Controller) Observe(ratio float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.staticLocked() {
		return false
	}
	before := c.visibleLocked()
	if c.cfg.Threshold == 0 {
		c.intersecting = ratio > 0
	} else {
		c.intersecting = ratio >= c.cfg.Threshold
	}
	if c.intersecting {
		c.revealed = true
	}
	return before != c.visibleLocked()
}

// SetReducedMotion applies a change of the viewer's reduced-motion preference.
// Turning it on shows the section, which latches a trigger-once section as
// revealed so turning it off again never hides it.
func (c *Controller) SetReducedMotion(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.env.ReducedMotion = on
	if on {
		c.revealed = true
	}
}

// Visible reports whether the section should be in its final visible state.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleLocked()
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Revealed:     c.revealed,
		Intersecting: c.intersecting,
		Visible:      c.visibleLocked(),
		Static:       c.staticLocked(),
	}
}

// Transition returns the delay and duration to animate with. Reduced motion
// disables the transition entirely.
func (c *Controller) Transition() (delay, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.env.ReducedMotion {
		return 0, 0
	}
	return c.cfg.Delay, c.cfg.Duration
}

// Close detaches the controller from observation.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Class returns the CSS classes for the section's current state.
func (c *Controller) Class() string {
	st := c.State()
	classes := []string{"reveal", "reveal-" + string(c.cfg.Variant)}
	if st.Visible {
		classes = append(classes, "is-visible")
	}
	if st.Static {
		classes = append(classes, "is-static")
	}
	return strings.Join(classes, " ")
}

// Style returns the inline transition style.
func (c *Controller) Style() string {
	delay, duration := c.Transition()
	return fmt.Sprintf("transition-delay:%dms;transition-duration:%dms", delay.Milliseconds(), duration.Milliseconds())
}

// Values of the data-reveal-static attribute. A section without an observer
// never animates; a reduced-motion section resumes observation when the
// preference is lifted.
const (
	StaticNoObserver    = "observer"
	StaticReducedMotion = "motion"
)

// Attrs returns the data attributes the browser observer reads. They carry
// every setting the browser needs to apply Observe and SetReducedMotion to
// later crossings.
func (c *Controller) Attrs() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	attrs := map[string]string{
		"data-reveal":           string(c.cfg.Variant),
		"data-reveal-once":      strconv.FormatBool(c.cfg.TriggerOnce),
		"data-reveal-threshold": strconv.FormatFloat(c.cfg.Threshold, 'f', -1, 64),
	}
	switch {
	case !c.env.ObserverAvailable:
		attrs["data-reveal-static"] = StaticNoObserver
	case c.env.ReducedMotion:
		attrs["data-reveal-static"] = StaticReducedMotion
	}
	return attrs
}

func (c *Controller) staticLocked() bool {
	return c.env.ReducedMotion || !c.env.ObserverAvailable
}

func (c *Controller) visibleLocked() bool {
	if c.staticLocked() {
		return true
	}
	if c.cfg.TriggerOnce {
		return c.revealed
	}
	return c.intersecting
}
