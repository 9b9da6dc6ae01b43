// Package presale reports token sale status from static configuration and
// keeps a live countdown to the next phase boundary.
package presale

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"verisite/internal/countdown"
	"verisite/pkg/realtime"
)

const (
	StageUpcoming = "upcoming"
	StageActive   = "active"
	StageEnded    = "ended"
)

// Events published on the service broadcaster.
const (
	EventCountdown = "countdown"
	EventPresale   = "presale"
)

// Phase is one pricing round of the sale.
type Phase struct {
	Name     string    `koanf:"name" json:"name"`
	StartsAt time.Time `koanf:"starts_at" json:"starts_at"`
	EndsAt   time.Time `koanf:"ends_at" json:"ends_at"`
	PriceUSD float64   `koanf:"price_usd" json:"price_usd"`
}

// Config is the static sale description.
type Config struct {
	TokenName   string  `koanf:"token_name"`
	TokenSymbol string  `koanf:"token_symbol"`
	TotalSupply int64   `koanf:"total_supply"`
	HardCapUSD  float64 `koanf:"hard_cap_usd"`
	RaisedUSD   float64 `koanf:"raised_usd"`
	Phases      []Phase `koanf:"phases"`
}

// Status is the sale state at an instant.
type Status struct {
	TokenName     string          `json:"token_name"`
	TokenSymbol   string          `json:"token_symbol"`
	Stage         string          `json:"stage"`
	Phase         *Phase          `json:"phase,omitempty"`
	NextBoundary  *time.Time      `json:"next_boundary,omitempty"`
	HardCapUSD    float64         `json:"hard_cap_usd"`
	RaisedUSD     float64         `json:"raised_usd"`
	PercentRaised float64         `json:"percent_raised"`
	Countdown     countdown.State `json:"countdown"`
}

// Boundary returns NextBoundary, or the zero time when there are no phases.
func (st Status) Boundary() time.Time {
	if st.NextBoundary == nil {
		return time.Time{}
	}
	return *st.NextBoundary
}

func sortedPhases(phases []Phase) []Phase {
	out := append([]Phase(nil), phases...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

// Evaluate derives the sale status at now. Phase is the active phase, or the
// next one while upcoming, or the last one once ended.
func Evaluate(cfg Config, now time.Time) Status {
	st := Status{
		TokenName:   cfg.TokenName,
		TokenSymbol: cfg.TokenSymbol,
		Stage:       StageEnded,
		HardCapUSD:  cfg.HardCapUSD,
		RaisedUSD:   cfg.RaisedUSD,
	}
	if cfg.HardCapUSD > 0 {
		st.PercentRaised = cfg.RaisedUSD / cfg.HardCapUSD * 100
		if st.PercentRaised > 100 {
			st.PercentRaised = 100
		}
	}
	phases := sortedPhases(cfg.Phases)
	for i := range phases {
		p := phases[i]
		switch {
		case now.Before(p.StartsAt):
			st.Stage = StageUpcoming
			st.Phase = &p
			st.NextBoundary = &p.StartsAt
			return st
		case now.Before(p.EndsAt):
			st.Stage = StageActive
			st.Phase = &p
			st.NextBoundary = &p.EndsAt
			return st
		}
	}
	if len(phases) > 0 {
		last := phases[len(phases)-1]
		st.Phase = &last
		st.NextBoundary = &last.EndsAt
	}
	return st
}

// Service owns the presale countdown and notifies SSE clients on each tick
// and on every phase change.
type Service struct {
	cfg   Config
	clock realtime.Clock
	log   *zap.Logger
	hub   *realtime.Broadcaster

	mu sync.Mutex
	cd *countdown.Countdown
}

// NewService starts the countdown toward the next phase boundary.
func NewService(cfg Config, clock realtime.Clock, logger *zap.Logger) *Service {
	if clock == nil {
		clock = realtime.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Phases = sortedPhases(cfg.Phases)
	s := &Service{
		cfg:   cfg,
		clock: clock,
		log:   logger,
		hub:   realtime.NewBroadcaster(),
	}
	target := Evaluate(s.cfg, clock.Now()).Boundary()
	cd := countdown.New(target, countdown.Options{
		Clock:      clock,
		Logger:     logger,
		OnTick:     func(countdown.State) { s.hub.Publish(EventCountdown) },
		OnComplete: func(countdown.State) { s.boundaryReached() },
	})
	s.mu.Lock()
	s.cd = cd
	s.mu.Unlock()
	return s
}

// Config returns the sale configuration with phases sorted by start.
func (s *Service) Config() Config { return s.cfg }

// Status returns the current sale status including the countdown.
func (s *Service) Status() Status {
	st := Evaluate(s.cfg, s.clock.Now())
	s.mu.Lock()
	cd := s.cd
	s.mu.Unlock()
	if cd != nil {
		st.Countdown = cd.State()
	}
	return st
}

// Broadcaster returns the hub SSE handlers subscribe to.
func (s *Service) Broadcaster() *realtime.Broadcaster { return s.hub }

// Close stops the countdown and disconnects subscribers.
func (s *Service) Close() {
	s.mu.Lock()
	cd := s.cd
	s.mu.Unlock()
	if cd != nil {
		cd.Stop()
	}
	s.hub.Close()
}

func (s *Service) boundaryReached() {
	now := s.clock.Now()
	st := Evaluate(s.cfg, now)
	s.log.Info("presale boundary reached", zap.String("stage", st.Stage), zap.Time("next", st.Boundary()))
	s.hub.Publish(EventPresale)

	s.mu.Lock()
	cd := s.cd
	s.mu.Unlock()
	// cd is nil only while NewService is still constructing it, and then the
	// boundary it was built for is already the last one.
	if next := st.Boundary(); cd != nil && next.After(now) {
		cd.SetTarget(next)
	}
}
