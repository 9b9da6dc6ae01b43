package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"verisite/internal/analytics"
	"verisite/internal/config"
	"verisite/internal/content"
	"verisite/internal/db"
	"verisite/internal/deck"
	"verisite/internal/handlers"
	"verisite/internal/logging"
	"verisite/internal/mailing"
	"verisite/internal/presale"
	"verisite/internal/ratelimit"
	"verisite/internal/subscribe"
	"verisite/pkg/realtime"
)

//go:embed static/*
var embeddedStatic embed.FS

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "verisite",
	Short:         "Serve the Verisite marketing and investor site",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer database.Close()
		logger.Info("database ready", zap.String("path", database.Path()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "verisite.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	site, err := content.Load()
	if err != nil {
		return err
	}

	clock := realtime.SystemClock{}
	sink := analytics.NewForwarder(cfg.Analytics.Endpoint, cfg.Analytics.Site, nil, logger.Named("analytics"))

	var provider mailing.Provider = mailing.LogProvider{Logger: logger.Named("mailing")}
	if cfg.Mailing.BaseURL != "" {
		provider = mailing.NewClient(mailing.Config{
			BaseURL:  cfg.Mailing.BaseURL,
			APIKey:   cfg.Mailing.APIKey,
			ListID:   cfg.Mailing.ListID,
			MaxTries: cfg.Mailing.MaxTries,
		}, nil, logger.Named("mailing"))
	}
	limiter := ratelimit.New(database.DB, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	subs := subscribe.NewService(database.DB, provider, limiter, logger.Named("subscribe"))

	sale := presale.NewService(cfg.Presale, clock, logger.Named("presale"))
	defer sale.Close()

	reporter := analytics.NewSlideReporter(sink, cfg.Analytics.Buffer, logger.Named("analytics"))
	defer reporter.Close()

	decks := deck.NewStore(deck.StoreConfig{
		Slides:        site.Slides,
		AutoAdvance:   cfg.Deck.AutoAdvance,
		Interval:      cfg.Deck.Interval,
		IdleTTL:       cfg.Deck.IdleTTL,
		Clock:         clock,
		OnSlideViewed: reporter.Report,
		Logger:        logger.Named("deck"),
	})
	go decks.Run(ctx, time.Minute)
	go pruneRateLimits(ctx, limiter, cfg.RateLimit.Window)

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.Deps{
		Site:           site,
		Decks:          decks,
		Presale:        sale,
		Subscribe:      subs,
		Analytics:      sink,
		DB:             database,
		Clock:          clock,
		Logger:         logger,
		Static:         staticFS,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// No WriteTimeout: SSE responses stay open. Non-stream handlers are
		// bounded by the router's request timeout.
		IdleTimeout: 60 * time.Second,
		// Request contexts end with ctx so open streams return on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func pruneRateLimits(ctx context.Context, limiter *ratelimit.Limiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := limiter.Prune(ctx, now.UTC())
			if err != nil {
				logger.Warn("prune rate limits", zap.Error(err))
				continue
			}
			logger.Debug("pruned rate limits", zap.Int64("rows", n))
		}
	}
}
