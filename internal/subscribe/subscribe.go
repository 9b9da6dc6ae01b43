// Package subscribe validates email sign-ups, records them and forwards them
// to the mailing-list provider.
package subscribe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"verisite/internal/mailing"
	"verisite/internal/ratelimit"
)

const (
	maxEmailLen  = 254
	maxSourceLen = 64
)

var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrAlreadySubscribed = errors.New("already subscribed")
	ErrProvider          = errors.New("mailing provider failed")
	ErrRateLimited       = errors.New("rate limited")
)

// RateLimitError is returned when a client exceeded its sign-up budget.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// Request is a sign-up as submitted by the browser.
type Request struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

// Subscriber is a recorded sign-up.
type Subscriber struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Source      string    `json:"source"`
	ProviderRef string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// NormalizeEmail trims and lower-cases addr and checks it is a bare address.
func NormalizeEmail(addr string) (string, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" || len(addr) > maxEmailLen {
		return "", ErrInvalidEmail
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || parsed.Name != "" {
		return "", ErrInvalidEmail
	}
	at := strings.LastIndexByte(addr, '@')
	if at < 1 || !strings.Contains(addr[at+1:], ".") {
		return "", ErrInvalidEmail
	}
	return addr, nil
}

// Service handles sign-ups.
type Service struct {
	db       *sql.DB
	provider mailing.Provider
	limiter  *ratelimit.Limiter
	log      *zap.Logger
	now      func() time.Time
}

// NewService wires a Service. limiter may be nil to disable rate limiting.
func NewService(db *sql.DB, provider mailing.Provider, limiter *ratelimit.Limiter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:       db,
		provider: provider,
		limiter:  limiter,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe validates req, applies the per-client rate limit, forwards the
// address to the provider and records it.
func (s *Service) Subscribe(ctx context.Context, req Request, clientKey string) (Subscriber, error) {
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return Subscriber{}, err
	}
	source := strings.TrimSpace(req.Source)
	if len(source) > maxSourceLen {
		source = source[:maxSourceLen]
	}
	now := s.now()

	if s.limiter != nil {
		decision, err := s.limiter.Allow(ctx, "subscribe:"+clientKey, now)
		if err != nil {
			return Subscriber{}, fmt.Errorf("rate limit: %w", err)
		}
		if !decision.Allowed {
			return Subscriber{}, &RateLimitError{RetryAfter: decision.RetryAfter}
		}
	}

	sub := Subscriber{
		ID:        uuid.NewString(),
		Email:     email,
		Source:    source,
		CreatedAt: now,
	}
	// The insert claims the address. Two concurrent sign-ups for the same
	// email race on the unique index, and only one of them reaches the
	// provider.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (id, email, source, provider_ref, created_at) VALUES (?, ?, ?, '', ?)
		 ON CONFLICT(email) DO NOTHING`,
		sub.ID, sub.Email, sub.Source, sub.CreatedAt.UnixMilli())
	if err != nil {
		return Subscriber{}, fmt.Errorf("record subscriber: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Subscriber{}, fmt.Errorf("record subscriber: %w", err)
	}
	if n == 0 {
		return Subscriber{}, ErrAlreadySubscribed
	}

	ref, err := s.provider.AddMember(ctx, mailing.Member{Email: email, Source: source})
	switch {
	case errors.Is(err, mailing.ErrMemberExists):
		s.log.Info("provider already had member, recording locally", zap.String("source", source))
	case err != nil:
		s.log.Error("mailing provider failed", zap.Error(err))
		s.release(ctx, sub.ID)
		return Subscriber{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	if ref != "" {
		if _, err := s.db.ExecContext(ctx, `UPDATE subscribers SET provider_ref = ? WHERE id = ?`, ref, sub.ID); err != nil {
			s.log.Warn("storing provider reference failed", zap.Error(err))
		} else {
			sub.ProviderRef = ref
		}
	}
	return sub, nil
}

// release drops a claimed row whose provider call failed so the address can
// be retried.
func (s *Service) release(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE id = ?`, id); err != nil {
		s.log.Error("releasing subscriber failed", zap.Error(err))
	}
}

// Count returns the number of recorded subscribers.
func (s *Service) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return n, nil
}
