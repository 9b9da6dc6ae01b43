package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"verisite/internal/analytics"
	"verisite/internal/content"
	"verisite/internal/db"
	"verisite/internal/deck"
	"verisite/internal/mailing"
	"verisite/internal/presale"
	"verisite/internal/ratelimit"
	"verisite/internal/subscribe"
	"verisite/pkg/realtime"
)

var epoch = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (s *recordingSink) Send(_ context.Context, e analytics.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Events() []analytics.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]analytics.Event(nil), s.events...)
}

type stubProvider struct {
	err error
}

func (p stubProvider) AddMember(_ context.Context, m mailing.Member) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "ref-" + m.Email, nil
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("database is gone") }

type testApp struct {
	router http.Handler
	site   *content.Site
	clock  *realtime.FakeClock
	decks  *deck.Store
	sale   *presale.Service
	sink   *recordingSink
}

type appOption func(*Deps, *appSettings)

type appSettings struct {
	provider mailing.Provider
	limit    int
}

func withProvider(p mailing.Provider) appOption {
	return func(_ *Deps, s *appSettings) { s.provider = p }
}

func withRateLimit(n int) appOption {
	return func(_ *Deps, s *appSettings) { s.limit = n }
}

func withPinger(p Pinger) appOption {
	return func(d *Deps, _ *appSettings) { d.DB = p }
}

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	site, err := content.Load()
	require.NoError(t, err)

	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	clock := realtime.NewFakeClock(epoch)
	sale := presale.NewService(presale.Config{
		TokenName:   "Veri",
		TokenSymbol: "VRF",
		HardCapUSD:  2_000_000,
		RaisedUSD:   500_000,
		Phases: []presale.Phase{
			{Name: "Seed", StartsAt: epoch.Add(time.Hour), EndsAt: epoch.Add(24 * time.Hour), PriceUSD: 0.02},
		},
	}, clock, nil)
	t.Cleanup(sale.Close)

	decks := deck.NewStore(deck.StoreConfig{Slides: site.Slides, Clock: clock})
	sink := &recordingSink{}

	settings := appSettings{provider: stubProvider{}, limit: 5}
	deps := Deps{
		Site:           site,
		Decks:          decks,
		Presale:        sale,
		Analytics:      sink,
		DB:             database.DB,
		Clock:          clock,
		AllowedOrigins: []string{"https://partner.example"},
	}
	for _, opt := range opts {
		opt(&deps, &settings)
	}
	deps.Subscribe = subscribe.NewService(database.DB, settings.provider,
		ratelimit.New(database.DB, settings.limit, time.Hour), nil)

	return &testApp{
		router: NewRouter(deps),
		site:   site,
		clock:  clock,
		decks:  decks,
		sale:   sale,
		sink:   sink,
	}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func formRequest(path string, values url.Values, hx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if hx {
		req.Header.Set("Hx-Request", "true")
	}
	return req
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
