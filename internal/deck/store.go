package deck

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"verisite/pkg/realtime"
)

// EventSlide is published on a deck's broadcaster whenever its slide changes.
const EventSlide = "slide"

// DefaultIdleTTL is how long an unwatched deck session survives.
const DefaultIdleTTL = 2 * time.Hour

// StoreConfig configures the decks a Store hands out.
type StoreConfig struct {
	Slides      []Slide
	AutoAdvance bool
	Interval    time.Duration
	IdleTTL     time.Duration
	Clock       realtime.Clock
	// OnSlideViewed receives every slide change of every deck, typically an
	// analytics forwarder.
	OnSlideViewed func(SlideViewed)
	Logger        *zap.Logger
}

// Store holds one deck per viewer session and delegates broadcast to
// realtime.RoomStore.
type Store struct {
	cfg StoreConfig
	r   *realtime.RoomStore[*Deck]
}

// NewStore creates an in-memory deck session store.
func NewStore(cfg StoreConfig) *Store {
	if cfg.Clock == nil {
		cfg.Clock = realtime.SystemClock{}
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Store{cfg: cfg, r: realtime.NewRoomStore[*Deck]()}
}

// Create starts a new deck session.
func (s *Store) Create() (*Deck, error) {
	id := uuid.NewString()
	d, err := New(s.cfg.Slides, Options{
		ID:          id,
		AutoAdvance: s.cfg.AutoAdvance,
		Interval:    s.cfg.Interval,
		Clock:       s.cfg.Clock,
		Logger:      s.cfg.Logger,
		OnSlideViewed: func(ev SlideViewed) {
			s.r.Publish(id, EventSlide)
			if s.cfg.OnSlideViewed != nil {
				s.cfg.OnSlideViewed(ev)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	s.r.Create(id, d, s.cfg.Clock.Now())
	return d, nil
}

// Get returns a deck session by ID and marks it as recently used.
func (s *Store) Get(id string) (*Deck, bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	s.r.Touch(id, s.cfg.Clock.Now())
	return room.State, true
}

// Broadcaster returns the SSE broadcaster for a deck session.
func (s *Store) Broadcaster(id string) (*realtime.Broadcaster, bool) {
	return s.r.Broadcaster(id)
}

// Remove closes and forgets a deck session.
func (s *Store) Remove(id string) {
	if d, ok := s.r.Delete(id); ok {
		d.Close()
	}
}

// Len returns the number of live deck sessions.
func (s *Store) Len() int { return s.r.Len() }

// Sweep closes decks that have been idle longer than the configured TTL.
func (s *Store) Sweep() int {
	evicted := s.r.Sweep(s.cfg.Clock.Now().Add(-s.cfg.IdleTTL))
	for _, d := range evicted {
		d.Close()
	}
	if len(evicted) > 0 {
		s.cfg.Logger.Debug("swept idle decks", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run sweeps idle decks every interval until ctx is done, then closes every
// remaining deck.
func (s *Store) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			for _, d := range s.r.Drain() {
				d.Close()
			}
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
