// Package deck implements the pitch-deck slide controller: a cyclic cursor over
// a fixed, non-empty list of slides with keyboard, control, indicator and swipe
// navigation and an optional auto-advance timer that the first user action
// cancels for good.
package deck

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"verisite/pkg/realtime"
)

const (
	// DefaultInterval is the auto-advance period used when none is configured.
	DefaultInterval = 8 * time.Second
	// SwipeThreshold is the minimum horizontal displacement, in CSS pixels,
	// that counts as a swipe.
	SwipeThreshold = 50.0
)

// ErrNoSlides is returned when a deck is built without slides.
var ErrNoSlides = errors.New("deck: at least one slide is required")

// Source identifies what caused a slide change.
type Source string

const (
	SourceControl     Source = "control"
	SourceIndicator   Source = "indicator"
	SourceKeyboard    Source = "keyboard"
	SourceSwipe       Source = "swipe"
	SourceAutoAdvance Source = "auto"
)

// Slide is one page of the deck.
type Slide struct {
	ID      string   `yaml:"id"`
	Kicker  string   `yaml:"kicker"`
	Title   string   `yaml:"title"`
	Body    string   `yaml:"body"`
	Bullets []string `yaml:"bullets"`
}

// SlideViewed is emitted after every index change.
type SlideViewed struct {
	DeckID  string
	SlideID string
	Index   int
	Source  Source
}

// Options configures a Deck.
type Options struct {
	ID            string
	AutoAdvance   bool
	Interval      time.Duration
	Clock         realtime.Clock
	OnSlideViewed func(SlideViewed)
	Logger        *zap.Logger
}

// State is a point-in-time view of a deck.
type State struct {
	Index       int
	Total       int
	Slide       Slide
	Progress    float64
	AutoAdvance bool
}

// Deck owns the current position within its slides. It is safe for concurrent
// use; calls are applied in the order they acquire the lock.
type Deck struct {
	mu       sync.Mutex
	id       string
	slides   []Slide
	index    int
	interval time.Duration
	clock    realtime.Clock
	log      *zap.Logger
	onViewed func(SlideViewed)

	auto   bool // auto-advance currently armed
	timer  realtime.Timer
	gen    uint64
	closed bool
}

// New builds a deck positioned on the first slide. If opts.AutoAdvance is set
// the timer starts immediately.
func New(slides []Slide, opts Options) (*Deck, error) {
	if len(slides) == 0 {
		return nil, ErrNoSlides
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = realtime.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	d := &Deck{
		id:       opts.ID,
		slides:   append([]Slide(nil), slides...),
		interval: opts.Interval,
		clock:    opts.Clock,
		log:      opts.Logger,
		onViewed: opts.OnSlideViewed,
	}
	if opts.AutoAdvance && len(slides) > 1 {
		d.mu.Lock()
		d.auto = true
		d.armLocked()
		d.mu.Unlock()
	}
	return d, nil
}

// ID returns the deck's identifier.
func (d *Deck) ID() string { return d.id }

// Len returns the number of slides.
func (d *Deck) Len() int { return len(d.slides) }

// Interval returns the auto-advance period.
func (d *Deck) Interval() time.Duration { return d.interval }

// Next advances one slide, wrapping from the last to the first.
func (d *Deck) Next() { d.userStep(1, SourceControl) }

// Previous goes back one slide, wrapping from the first to the last.
func (d *Deck) Previous() { d.userStep(-1, SourceControl) }

// GoTo jumps to index i. Out of range indexes are ignored and reported false.
func (d *Deck) GoTo(i int) bool {
	return d.userJump(i, SourceIndicator)
}

// HandleKey applies the keyboard contract. It reports whether the key was
// consumed, in which case the caller should suppress the default scroll.
func (d *Deck) HandleKey(key string) bool {
	switch key {
	case "ArrowRight", " ", "Space", "Spacebar":
		d.userStep(1, SourceKeyboard)
	case "ArrowLeft":
		d.userStep(-1, SourceKeyboard)
	case "Home":
		d.userJump(0, SourceKeyboard)
	case "End":
		d.userJump(len(d.slides)-1, SourceKeyboard)
	default:
		return false
	}
	return true
}

// HandleSwipe interprets a horizontal drag displacement dx. A leftward swipe
// (negative dx) moves forward and a rightward one moves back. Drags shorter
// than SwipeThreshold are ignored and reported false.
func (d *Deck) HandleSwipe(dx float64) bool {
	switch {
	case dx < -SwipeThreshold:
		d.userStep(1, SourceSwipe)
	case dx > SwipeThreshold:
		d.userStep(-1, SourceSwipe)
	default:
		return false
	}
	return true
}

// Progress returns (index+1)/total.
func (d *Deck) Progress() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progressLocked()
}

// Index returns the current slide index.
func (d *Deck) Index() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index
}

// AutoAdvancing reports whether the auto-advance timer is still armed.
func (d *Deck) AutoAdvancing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.auto
}

// State returns a snapshot of the deck.
func (d *Deck) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return State{
		Index:       d.index,
		Total:       len(d.slides),
		Slide:       d.slides[d.index],
		Progress:    d.progressLocked(),
		AutoAdvance: d.auto,
	}
}

// Close stops auto-advance. Navigation keeps working afterwards but the timer
// is never re-armed.
func (d *Deck) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.cancelAutoLocked()
}

func (d *Deck) progressLocked() float64 {
	return float64(d.index+1) / float64(len(d.slides))
}

func (d *Deck) userStep(delta int, source Source) {
	d.mu.Lock()
	d.cancelAutoLocked()
	ev, changed := d.moveLocked(d.wrap(d.index+delta), source)
	d.mu.Unlock()
	if changed {
		d.notify(ev)
	}
}

func (d *Deck) userJump(i int, source Source) bool {
	if i < 0 || i >= len(d.slides) {
		return false
	}
	d.mu.Lock()
	d.cancelAutoLocked()
	ev, changed := d.moveLocked(i, source)
	d.mu.Unlock()
	if changed {
		d.notify(ev)
	}
	return true
}

func (d *Deck) wrap(i int) int {
	n := len(d.slides)
	return ((i % n) + n) % n
}

func (d *Deck) moveLocked(target int, source Source) (SlideViewed, bool) {
	if target == d.index {
		return SlideViewed{}, false
	}
	d.index = target
	return SlideViewed{
		DeckID:  d.id,
		SlideID: d.slides[target].ID,
		Index:   target,
		Source:  source,
	}, true
}

func (d *Deck) cancelAutoLocked() {
	if !d.auto {
		return
	}
	d.auto = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Deck) armLocked() {
	if !d.auto || d.closed {
		return
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.interval, func() { d.autoTick(gen) })
	if d.timer == nil {
		d.log.Warn("auto-advance timer unavailable, deck stays static", zap.String("deck", d.id))
		d.auto = false
	}
}

func (d *Deck) autoTick(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.auto || d.closed {
		d.mu.Unlock()
		return
	}
	ev, changed := d.moveLocked(d.wrap(d.index+1), SourceAutoAdvance)
	d.armLocked()
	d.mu.Unlock()
	if changed {
		d.notify(ev)
	}
}

func (d *Deck) notify(ev SlideViewed) {
	if d.onViewed == nil {
		return
	}
	d.onViewed(ev)
}
