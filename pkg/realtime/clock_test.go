package realtime

import (
	"testing"
	"time"
)

func TestFakeClock_AdvanceFiresInOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)
	var got []string
	c.AfterFunc(2*time.Second, func() { got = append(got, "b") })
	c.AfterFunc(time.Second, func() { got = append(got, "a") })
	c.AfterFunc(5*time.Second, func() { got = append(got, "late") })

	c.Advance(3 * time.Second)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("fired %v, want [a b]", got)
	}
	if !c.Now().Equal(start.Add(3 * time.Second)) {
		t.Errorf("Now %v, want start+3s", c.Now())
	}
	if c.Pending() != 1 {
		t.Errorf("Pending %d, want 1", c.Pending())
	}
}

func TestFakeClock_CallbackSeesDeadlineAndCanRearm(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)
	var seen []time.Time
	var tick func()
	tick = func() {
		seen = append(seen, c.Now())
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3 * time.Second)
	if len(seen) != 3 {
		t.Fatalf("ticks %d, want 3", len(seen))
	}
	for i, at := range seen {
		want := start.Add(time.Duration(i+1) * time.Second)
		if !at.Equal(want) {
			t.Errorf("tick %d at %v, want %v", i, at, want)
		}
	}
}

func TestFakeClock_Stop(t *testing.T) {
	c := NewFakeClock(time.Now())
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Error("Stop should report true for a pending timer")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
	c.Advance(time.Minute)
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestSystemClock_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	SystemClock{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("system timer did not fire")
	}
}
