package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"verisite/internal/deck"
)

func TestEventValidate(t *testing.T) {
	assert.NoError(t, Event{Name: "cta.click"}.Validate())
	assert.NoError(t, Event{Name: "whitepaper_download"}.Validate())
	for _, name := range []string{"", "Click", "1abc", "has space", "x!"} {
		assert.ErrorIs(t, Event{Name: name}.Validate(), ErrInvalidEvent, name)
	}
	props := map[string]string{}
	for i := 0; i < maxProperties+1; i++ {
		props[string(rune('a'+i))] = "v"
	}
	assert.ErrorIs(t, Event{Name: "ok", Properties: props}.Validate(), ErrInvalidEvent)
}

func TestForwarderPostsToCollector(t *testing.T) {
	got := make(chan collectorPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p collectorPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		got <- p
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	f := NewForwarder(srv.URL, "verisite.test", srv.Client(), nil)
	require.NoError(t, f.Send(context.Background(), Event{Name: "cta.click", Path: "/"}))
	p := <-got
	assert.Equal(t, "verisite.test", p.Site)
	assert.Equal(t, "cta.click", p.Name)
	assert.False(t, p.Time.IsZero())
}

func TestForwarderCollectorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	f := NewForwarder(srv.URL, "s", srv.Client(), nil)
	assert.Error(t, f.Send(context.Background(), Event{Name: "x"}))
}

func TestForwarderWithoutEndpoint(t *testing.T) {
	f := NewForwarder("", "s", nil, nil)
	assert.NoError(t, f.Send(context.Background(), Event{Name: "x"}))
	assert.ErrorIs(t, f.Send(context.Background(), Event{Name: "BAD"}), ErrInvalidEvent)
}

type chanSink chan Event

func (c chanSink) Send(_ context.Context, e Event) error {
	c <- e
	return nil
}

func TestSlideReporterForwards(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sink := make(chanSink, 1)
	r := NewSlideReporter(sink, 4, nil)
	defer r.Close()
	r.Report(deck.SlideViewed{DeckID: "d1", SlideID: "team", Index: 3, Source: deck.SourceSwipe})

	select {
	case e := <-sink:
		assert.Equal(t, EventSlideViewed, e.Name)
		assert.Equal(t, map[string]string{"deck": "d1", "slide": "team", "index": "3", "source": "swipe"}, e.Properties)
	case <-time.After(time.Second):
		t.Fatal("event not forwarded")
	}
}

// gatedSink blocks every Send until release is closed.
type gatedSink struct {
	started chan string
	release chan struct{}
	mu      sync.Mutex
	got     []string
}

func (s *gatedSink) Send(_ context.Context, e Event) error {
	s.started <- e.Properties["slide"]
	<-s.release
	s.mu.Lock()
	s.got = append(s.got, e.Properties["slide"])
	s.mu.Unlock()
	return nil
}

func TestSlideReporterDropsWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sink := &gatedSink{started: make(chan string, 8), release: make(chan struct{})}
	r := NewSlideReporter(sink, 1, nil)

	r.Report(deck.SlideViewed{SlideID: "a"})
	require.Equal(t, "a", <-sink.started, "worker is busy with the first view")
	r.Report(deck.SlideViewed{SlideID: "b"})
	r.Report(deck.SlideViewed{SlideID: "c"})
	r.Report(deck.SlideViewed{SlideID: "d"})
	assert.Equal(t, int64(2), r.Dropped())

	close(sink.release)
	r.Close()
	assert.Equal(t, []string{"a", "b"}, sink.got)

	r.Report(deck.SlideViewed{SlideID: "late"})
	assert.Equal(t, int64(3), r.Dropped())
	r.Close()
}
