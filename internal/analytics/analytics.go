// Package analytics validates page events and forwards them to the configured
// collector.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"verisite/internal/deck"
)

// EventSlideViewed is the event name deck notifications are reported under.
const EventSlideViewed = "slide_viewed"

const maxProperties = 20

var (
	ErrInvalidEvent = errors.New("invalid event")

	eventName = regexp.MustCompile(`^[a-z][a-z0-9_.-]{0,63}$`)
)

// Event is one analytics event.
type Event struct {
	Name       string            `json:"name"`
	Path       string            `json:"path,omitempty"`
	Referrer   string            `json:"referrer,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Time       time.Time         `json:"time"`
}

// Validate checks the event name and property budget.
func (e Event) Validate() error {
	if !eventName.MatchString(e.Name) {
		return fmt.Errorf("%w: name %q", ErrInvalidEvent, e.Name)
	}
	if len(e.Properties) > maxProperties {
		return fmt.Errorf("%w: %d properties, at most %d", ErrInvalidEvent, len(e.Properties), maxProperties)
	}
	return nil
}

// Sink receives validated events.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Forwarder posts events as JSON to a collector endpoint.
type Forwarder struct {
	endpoint string
	site     string
	http     *http.Client
	log      *zap.Logger
}

// NewForwarder builds a Forwarder. An empty endpoint makes Send log only.
func NewForwarder(endpoint, site string, httpClient *http.Client, logger *zap.Logger) *Forwarder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{endpoint: endpoint, site: site, http: httpClient, log: logger}
}

type collectorPayload struct {
	Site string `json:"site"`
	Event
}

// Send validates e and delivers it.
func (f *Forwarder) Send(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	if f.endpoint == "" {
		f.log.Debug("analytics event", zap.String("name", e.Name), zap.String("path", e.Path))
		return nil
	}
	body, err := json.Marshal(collectorPayload{Site: f.site, Event: e})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build collector request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("collector status %d", resp.StatusCode)
	}
	return nil
}

// DefaultReportBuffer is the number of slide views queued for delivery before
// new ones are dropped.
const DefaultReportBuffer = 256

// SlideReporter turns deck notifications into events and delivers them from a
// single worker, so a slow collector never blocks navigation. Views that
// arrive while the queue is full are dropped.
type SlideReporter struct {
	sink    Sink
	log     *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}

	dropped atomic.Int64
}

// NewSlideReporter starts the delivery worker. buffer <= 0 uses
// DefaultReportBuffer. Close must be called to stop it.
func NewSlideReporter(sink Sink, buffer int, logger *zap.Logger) *SlideReporter {
	if buffer <= 0 {
		buffer = DefaultReportBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &SlideReporter{
		sink:    sink,
		log:     logger,
		timeout: 5 * time.Second,
		queue:   make(chan Event, buffer),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Report queues ev. It never blocks. It is shaped to be used as
// deck.StoreConfig.OnSlideViewed.
func (r *SlideReporter) Report(ev deck.SlideViewed) {
	e := Event{
		Name: EventSlideViewed,
		Path: "/deck",
		Properties: map[string]string{
			"deck":   ev.DeckID,
			"slide":  ev.SlideID,
			"index":  strconv.Itoa(ev.Index),
			"source": string(ev.Source),
		},
		Time: time.Now().UTC(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.queue <- e:
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			r.log.Warn("slide view queue full, dropping", zap.Int64("dropped", n))
		}
	}
}

// Dropped returns how many views were discarded.
func (r *SlideReporter) Dropped() int64 { return r.dropped.Load() }

// Close stops accepting views, delivers what is queued and waits for the
// worker to exit.
func (r *SlideReporter) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *SlideReporter) run() {
	defer close(r.done)
	for e := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.sink.Send(ctx, e); err != nil {
			r.log.Warn("forward slide view", zap.Error(err))
		}
		cancel()
	}
}
