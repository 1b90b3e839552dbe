// Gossip is a small social networking backend.
//
// Accounts register, follow each other, and post. A viewer's feed is the
// posts of everyone they follow, paywalled behind a paid tier. Moderators
// review and clean up posts. New posts are fanned out to websocket
// listeners as they land.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/run"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	_ "golang.org/x/crypto/x509roots/fallback"
	_ "modernc.org/sqlite"

	"github.com/jdholdren/gossip/internal/api"
	"github.com/jdholdren/gossip/internal/fanout"
	"github.com/jdholdren/gossip/internal/migrations"
	"github.com/jdholdren/gossip/internal/payment"
	"github.com/jdholdren/gossip/internal/sqlite"
	"github.com/jdholdren/gossip/logger"
)

type config struct {
	Port     int    `env:"PORT, default=4444"`
	Database string `env:"DATABASE, required"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`

	CookieHashKey  string `env:"COOKIE_HASH_KEY, required"`
	CookieBlockKey string `env:"COOKIE_BLOCK_KEY, required"`
	HTTPSCookies   bool   `env:"HTTPS_COOKIES, default=false"`
	CorsHeader     string `env:"CORS_HEADER, default=*"`

	// Where the payment provider lives
	PaymentURL string `env:"PAYMENT_URL, required"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	// Determine which logger format to use
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, nil)
	if cfg.LoggerFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	}
	l := slog.New(logger.NewContextHandler(handler))
	slog.SetDefault(l)

	if err := runApp(ctx, cfg); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func runApp(ctx context.Context, cfg config) error {
	slog.Info("running", "port", cfg.Port, "database", cfg.Database)

	// Connect to the db
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_journal_mode=WAL", cfg.Database))
	if err != nil {
		return fmt.Errorf("error opening database: %s", err)
	}
	defer dbx.Close()

	// The file may be on slow storage; give it a few tries before giving up.
	pingBackoff := retry.WithMaxRetries(5, retry.NewExponential(100*time.Millisecond))
	if err := retry.Do(ctx, pingBackoff, func(ctx context.Context) error {
		return retry.RetryableError(dbx.PingContext(ctx))
	}); err != nil {
		return fmt.Errorf("error pinging database: %s", err)
	}

	// Migrate, always
	if err := migrations.Run(dbx); err != nil {
		return fmt.Errorf("error migrating: %s", err)
	}

	repo := sqlite.New(dbx)
	hub := fanout.NewHub()
	payments := payment.NewClient(cfg.PaymentURL)

	s := api.NewServer(api.ServerConfig{
		Port:           cfg.Port,
		CookieHashKey:  []byte(cfg.CookieHashKey),
		CookieBlockKey: []byte(cfg.CookieBlockKey),
		HttpsCookies:   cfg.HTTPSCookies,
		CorsHeader:     cfg.CorsHeader,
	}, repo, hub, payments)

	var g run.Group
	{
		// The API server
		g.Add(func() error {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("error listening: %s", err)
			}
			return nil
		}, func(error) {
			downCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := s.Shutdown(downCtx); err != nil {
				slog.Error("error shutting down server", "error", err)
			}
		})
	}
	{
		// The websocket fan-out loop
		hubCtx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return hub.Run(hubCtx)
		}, func(error) {
			cancel()
		})
	}
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	if err := g.Run(); err != nil {
		var sigErr run.SignalError
		if errors.As(err, &sigErr) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("error running: %s", err)
	}

	return nil
}
