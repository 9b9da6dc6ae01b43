package reveal

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var observing = Env{ObserverAvailable: true}

func TestParseVariant(t *testing.T) {
	assert.Equal(t, SlideLeft, ParseVariant(" Slide-Left "))
	assert.Equal(t, Zoom, ParseVariant("zoom"))
	assert.Equal(t, Fade, ParseVariant("spin"))
	assert.Equal(t, Fade, ParseVariant(""))
}

func TestTriggerOnceNeverHidesAgain(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 50; run++ {
		c := New(Config{TriggerOnce: true, Threshold: 0.3}, observing)
		revealed := false
		for i := 0; i < 40; i++ {
			c.Observe(rng.Float64())
			st := c.State()
			if revealed {
				assert.True(t, st.Revealed)
				assert.True(t, st.Visible)
			}
			revealed = st.Revealed
		}
	}
}

func TestTriggerOnceLatches(t *testing.T) {
	c := New(Config{TriggerOnce: true, Threshold: 0.5}, observing)
	assert.False(t, c.Visible())
	assert.False(t, c.Observe(0.2))
	assert.True(t, c.Observe(0.5))
	assert.False(t, c.Observe(0))
	st := c.State()
	assert.True(t, st.Visible)
	assert.False(t, st.Intersecting)
}

func TestRepeatToggles(t *testing.T) {
	c := New(Config{TriggerOnce: false, Threshold: 0.25}, observing)
	assert.True(t, c.Observe(0.3))
	assert.True(t, c.Visible())
	assert.True(t, c.Observe(0.1))
	assert.False(t, c.Visible())
	assert.False(t, c.Observe(0.2))
	assert.True(t, c.Observe(1))
	assert.True(t, c.State().Revealed)
}

func TestZeroThresholdMeansAnyPixel(t *testing.T) {
	c := New(Config{Threshold: 0}, observing)
	assert.False(t, c.Observe(0))
	assert.True(t, c.Observe(0.001))
}

func TestThresholdClamped(t *testing.T) {
	assert.Equal(t, 1.0, New(Config{Threshold: 3}, observing).Config().Threshold)
	assert.Equal(t, 0.0, New(Config{Threshold: -1}, observing).Config().Threshold)
	assert.Equal(t, Fade, New(Config{Variant: "wobble"}, observing).Config().Variant)
}

func TestReducedMotionIsStaticAndImmediate(t *testing.T) {
	c := New(Config{Variant: Zoom, Threshold: 0.9, Delay: time.Second, Duration: time.Second},
		Env{ReducedMotion: true, ObserverAvailable: true})

	assert.True(t, c.Visible())
	assert.False(t, c.Observe(0))
	assert.True(t, c.Visible())
	delay, duration := c.Transition()
	assert.Zero(t, delay)
	assert.Zero(t, duration)
	assert.Equal(t, "transition-delay:0ms;transition-duration:0ms", c.Style())
	assert.Contains(t, c.Class(), "is-visible")
	assert.Contains(t, c.Class(), "is-static")
	assert.Equal(t, StaticReducedMotion, c.Attrs()["data-reveal-static"])
}

func TestReducedMotionChangeSnapsVisible(t *testing.T) {
	c := New(Config{TriggerOnce: false, Threshold: 0.5}, observing)
	assert.False(t, c.Visible())
	c.SetReducedMotion(true)
	assert.True(t, c.Visible())

	// A repeating section follows intersection again once motion is back.
	c.SetReducedMotion(false)
	assert.False(t, c.Visible())
	assert.True(t, c.Observe(0.6))
	assert.True(t, c.Observe(0))
	assert.False(t, c.Visible())
}

func TestReducedMotionLatchesTriggerOnce(t *testing.T) {
	c := New(DefaultConfig(), Env{ObserverAvailable: true, ReducedMotion: true})
	require.True(t, c.Visible())

	c.SetReducedMotion(false)
	st := c.State()
	assert.True(t, st.Visible)
	assert.True(t, st.Revealed)
	assert.False(t, st.Static)
	assert.False(t, c.Observe(0))
	assert.True(t, c.Visible())

	c = New(DefaultConfig(), observing)
	c.SetReducedMotion(true)
	c.SetReducedMotion(false)
	assert.True(t, c.Visible())
	assert.Contains(t, c.Class(), "is-visible")
	assert.NotContains(t, c.Class(), "is-static")
}

func TestMissingObserverFailsOpen(t *testing.T) {
	c := New(DefaultConfig(), Env{})
	assert.True(t, c.Visible())
	assert.False(t, c.Observe(0))
	assert.True(t, c.Visible())
	assert.Equal(t, StaticNoObserver, c.Attrs()["data-reveal-static"])

	c = New(DefaultConfig(), Env{ReducedMotion: true})
	assert.Equal(t, StaticNoObserver, c.Attrs()["data-reveal-static"], "a missing observer outlasts the motion preference")
}

func TestCloseStopsObservation(t *testing.T) {
	c := New(DefaultConfig(), observing)
	c.Close()
	assert.False(t, c.Observe(1))
	assert.False(t, c.Visible())
}

func TestClassStyleAttrs(t *testing.T) {
	c := New(Config{Variant: SlideUp, TriggerOnce: true, Threshold: 0.2, Delay: 150 * time.Millisecond, Duration: 700 * time.Millisecond}, observing)
	assert.Equal(t, "reveal reveal-slide-up", c.Class())
	assert.Equal(t, "transition-delay:150ms;transition-duration:700ms", c.Style())
	assert.Equal(t, map[string]string{
		"data-reveal":           "slide-up",
		"data-reveal-once":      "true",
		"data-reveal-threshold": "0.2",
	}, c.Attrs())
	c.Observe(0.5)
	assert.Equal(t, "reveal reveal-slide-up is-visible", c.Class())
}

func TestEnvFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, Env{}, EnvFromRequest(r))

	r.Header.Set(ReducedMotionHint, "reduce")
	r.AddCookie(&http.Cookie{Name: ObserverCookie, Value: "1"})
	assert.Equal(t, Env{ReducedMotion: true, ObserverAvailable: true}, EnvFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: ReducedMotionCookie, Value: "1"})
	assert.True(t, EnvFromRequest(r).ReducedMotion)
}
