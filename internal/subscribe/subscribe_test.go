package subscribe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"verisite/internal/db"
	"verisite/internal/mailing"
	"verisite/internal/ratelimit"
)

type fakeProvider struct {
	mu      sync.Mutex
	members []mailing.Member
	err     error
}

func (p *fakeProvider) AddMember(_ context.Context, m mailing.Member) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.members = append(p.members, m)
	return "ref-" + m.Email, nil
}

func newService(t *testing.T, p mailing.Provider, limit int) *Service {
	t.Helper()
	d, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	var l *ratelimit.Limiter
	if limit > 0 {
		l = ratelimit.New(d.DB, limit, time.Hour)
	}
	return NewService(d.DB, p, l, nil)
}

func TestNormalizeEmail(t *testing.T) {
	valid := map[string]string{
		"  Alice@Example.COM ": "alice@example.com",
		"a.b+tag@sub.example.io": "a.b+tag@sub.example.io",
	}
	for in, want := range valid {
		got, err := NormalizeEmail(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	invalid := []string{"", "plain", "a@", "@example.com", "a@localhost", "Bob <bob@example.com>", "a b@example.com"}
	for _, in := range invalid {
		_, err := NormalizeEmail(in)
		assert.ErrorIs(t, err, ErrInvalidEmail, in)
	}
}

func TestSubscribe(t *testing.T) {
	p := &fakeProvider{}
	s := newService(t, p, 0)
	ctx := context.Background()

	sub, err := s.Subscribe(ctx, Request{Email: "New@Example.com", Source: "hero"}, "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", sub.Email)
	assert.Equal(t, "hero", sub.Source)
	assert.NotEmpty(t, sub.ID)
	require.Len(t, p.members, 1)

	_, err = s.Subscribe(ctx, Request{Email: "new@example.com"}, "2.2.2.2")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
	assert.Len(t, p.members, 1, "duplicates never reach the provider")

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSubscribeInvalid(t *testing.T) {
	p := &fakeProvider{}
	s := newService(t, p, 0)
	_, err := s.Subscribe(context.Background(), Request{Email: "nope"}, "k")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Empty(t, p.members)
}

func TestSubscribeRateLimited(t *testing.T) {
	s := newService(t, &fakeProvider{}, 2)
	ctx := context.Background()
	_, err := s.Subscribe(ctx, Request{Email: "a@example.com"}, "ip")
	require.NoError(t, err)
	_, err = s.Subscribe(ctx, Request{Email: "b@example.com"}, "ip")
	require.NoError(t, err)

	_, err = s.Subscribe(ctx, Request{Email: "c@example.com"}, "ip")
	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Greater(t, rl.RetryAfter, time.Duration(0))

	_, err = s.Subscribe(ctx, Request{Email: "c@example.com"}, "other-ip")
	assert.NoError(t, err)
}

func TestSubscribeProviderFailure(t *testing.T) {
	s := newService(t, &fakeProvider{err: errors.New("boom")}, 0)
	_, err := s.Subscribe(context.Background(), Request{Email: "a@example.com"}, "ip")
	assert.ErrorIs(t, err, ErrProvider)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "failed sign-ups are not recorded")
}

func TestSubscribeRetryAfterProviderFailure(t *testing.T) {
	p := &fakeProvider{err: errors.New("boom")}
	s := newService(t, p, 0)
	ctx := context.Background()
	_, err := s.Subscribe(ctx, Request{Email: "a@example.com"}, "ip")
	require.ErrorIs(t, err, ErrProvider)

	p.err = nil
	sub, err := s.Subscribe(ctx, Request{Email: "a@example.com"}, "ip")
	require.NoError(t, err)
	assert.Equal(t, "ref-a@example.com", sub.ProviderRef)

	var ref string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT provider_ref FROM subscribers WHERE email = ?`, "a@example.com").Scan(&ref))
	assert.Equal(t, "ref-a@example.com", ref)
}

func TestSubscribeConcurrentDuplicates(t *testing.T) {
	p := &fakeProvider{}
	s := newService(t, p, 0)
	ctx := context.Background()

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Subscribe(ctx, Request{Email: "race@example.com"}, "ip")
		}()
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadySubscribed):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, dup)
	assert.Len(t, p.members, 1, "only the winning insert reaches the provider")
}

func TestSubscribeProviderAlreadyHasMember(t *testing.T) {
	s := newService(t, &fakeProvider{err: mailing.ErrMemberExists}, 0)
	sub, err := s.Subscribe(context.Background(), Request{Email: "a@example.com"}, "ip")
	require.NoError(t, err)
	assert.Empty(t, sub.ProviderRef)
}
