package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	auth "github.com/mind-engage/lessonquiz/internal/auth/middleware"
	"github.com/mind-engage/lessonquiz/internal/config"
	"github.com/mind-engage/lessonquiz/internal/db"
	"github.com/mind-engage/lessonquiz/internal/logger"
	"github.com/mind-engage/lessonquiz/internal/session"
	"github.com/mind-engage/lessonquiz/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Sessions ---
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		lg.Fatal("session store open failed", "driver", cfg.SessionDriver, "error", err)
	}
	defer closeStore()

	client := upstream.New(cfg.UpstreamURL, cfg.UpstreamTimeout)
	sessions := session.NewService(store, client, lg,
		session.WithFreeTextRange(cfg.FreeTextMin, cfg.FreeTextMax))

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: newRouter(cfg, deps{
			sessions: sessions,
			auth:     auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL),
			platform: client,
			log:      lg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "sessions", cfg.SessionDriver, "upstream", cfg.UpstreamURL)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		pruneLoop(gctx, sessions, cfg.SessionTTL, lg)
		return nil
	})
	if err := g.Wait(); err != nil {
		lg.Error("server stopped", "error", err)
		return
	}
	lg.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.Config) (session.Store, func() error, error) {
	if cfg.SessionDriver == "memory" {
		return session.NewMemoryStore(), func() error { return nil }, nil
	}
	octx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(octx, db.Driver(cfg.SessionDriver), cfg.SessionDSN)
	if err != nil {
		return nil, nil, err
	}
	return session.NewSQLStore(dbh), dbh.Close, nil
}

// pruneLoop drops idle sessions until ctx is done.
func pruneLoop(ctx context.Context, sessions *session.Service, ttl time.Duration, lg *logger.Logger) {
	if ttl <= 0 {
		return
	}
	every := ttl / 4
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := sessions.Prune(ctx, ttl)
			if err != nil {
				lg.Warn("session prune failed", "error", err)
				continue
			}
			if n > 0 {
				lg.Info("sessions pruned", "count", n)
			}
		}
	}
}
