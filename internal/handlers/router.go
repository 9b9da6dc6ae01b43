package handlers

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"verisite/internal/analytics"
	"verisite/internal/content"
	"verisite/internal/deck"
	"verisite/internal/logging"
	"verisite/internal/presale"
	"verisite/internal/subscribe"
	"verisite/pkg/realtime"
)

// Deps is everything the router serves from.
type Deps struct {
	Site      *content.Site
	Decks     *deck.Store
	Presale   *presale.Service
	Subscribe *subscribe.Service
	Analytics analytics.Sink
	DB        Pinger
	Clock     realtime.Clock
	Logger    *zap.Logger
	// Static is served under /static when set.
	Static         fs.FS
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter builds the site's HTTP handler.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(timeoutExceptStreams(d.RequestTimeout))

	if d.Static != nil {
		r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(d.Static))))
	}

	pageHandler := NewPageHandler(d.Site, d.Presale, d.Clock)
	deckHandler := NewDeckHandler(d.Decks, d.Site, d.Clock, d.Logger)
	presaleHandler := NewPresaleHandler(d.Presale)
	apiHandler := NewAPIHandler(d.Subscribe, d.Analytics, d.Presale, d.DB, d.Clock, d.Logger)

	pageHandler.RegisterRoutes(r)
	deckHandler.RegisterRoutes(r)
	presaleHandler.RegisterRoutes(r)
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		apiHandler.RegisterRoutes(r)
	})
	r.NotFound(pageHandler.NotFound)
	return r
}

// timeoutExceptStreams applies middleware.Timeout to everything but SSE
// streams, which stay open until the client leaves.
func timeoutExceptStreams(d time.Duration) func(http.Handler) http.Handler {
	timeout := middleware.Timeout(d)
	return func(next http.Handler) http.Handler {
		limited := timeout(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/stream") {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
