package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pokematch-server/api"
	"pokematch-server/auth"
	"pokematch-server/config"
	"pokematch-server/creature"
	"pokematch-server/game"
	"pokematch-server/loghandler"
	"pokematch-server/scoreboard"
	"pokematch-server/session"
	"pokematch-server/storage"
	"pokematch-server/ws"
)

// app is the wired server: storage, score service, sessions and transports.
type app struct {
	cfg      *config.Config
	kv       storage.KV
	board    *scoreboard.Service
	sessions *session.Manager
	hub      *ws.Hub
	handler  http.Handler
}

func newApp(cfg *config.Config, kv storage.KV, source game.CreatureSource) (*app, error) {
	board := scoreboard.NewService(storage.NewScoreStore(kv), cfg, nil)

	sessions := session.NewManager(cfg, source, board, nil)

	var validator ws.TokenValidator
	if cfg.NeonAuthBaseURL != "" {
		v, err := auth.NewValidator(cfg.NeonAuthBaseURL)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		validator = v
	}

	hub := ws.NewHub(cfg, sessions, board, validator)
	board.OnChange(hub.BroadcastLeaderboardUpdated)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	api.NewHandler(board).Register(mux)

	return &app{
		cfg:      cfg,
		kv:       kv,
		board:    board,
		sessions: sessions,
		hub:      hub,
		handler:  mux,
	}, nil
}

// start launches the hub, the idle session janitor and, when the backend
// supports it, the watcher for changes made by other processes.
func (a *app) start(ctx context.Context) error {
	go a.hub.Run(ctx)

	if err := a.sessions.StartJanitor(); err != nil {
		return fmt.Errorf("session janitor: %w", err)
	}

	w, ok := a.kv.(storage.Watcher)
	if !ok || (a.cfg.Store.Backend == config.BackendFile && !a.cfg.Store.WatchFile) {
		return nil
	}
	go func() {
		if err := w.Watch(ctx, a.board.NotifyChanged); err != nil {
			slog.Warn("store watch stopped", "tag", "main", "err", err)
		}
	}()
	return nil
}

func (a *app) shutdown() {
	a.sessions.Shutdown()
	if err := a.kv.Close(); err != nil {
		slog.Warn("close store", "tag", "main", "err", err)
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		if err2 := godotenv.Load("server/.env"); err2 != nil {
			slog.Info("No .env file found; using environment variables", "tag", "main")
		}
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, cfg.SlogLevel())))

	if cfg.NeonAuthBaseURL == "" {
		slog.Info("NEON_AUTH_BASE_URL is not set; auth messages are ignored", "tag", "main")
	} else {
		slog.Info("auth configured", "tag", "main", "base_url", cfg.NeonAuthBaseURL)
	}
	slog.Info("configuration", "tag", "main",
		"port", cfg.Port,
		"store", cfg.Store.Backend,
		"mismatch_delay_ms", cfg.MismatchDelayMS,
		"record_wins", cfg.RecordWins,
		"creature_api", cfg.Creature.BaseURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "tag", "main", "backend", cfg.Store.Backend, "err", err)
		os.Exit(1)
	}

	client := creature.NewClient(cfg.Creature.BaseURL, time.Duration(cfg.Creature.TimeoutMS)*time.Millisecond, cfg.Creature.RatePerSec)
	pool := creature.NewPool(client, cfg.Creature.MaxID)

	a, err := newApp(cfg, kv, pool)
	if err != nil {
		slog.Error("failed to start", "tag", "main", "err", err)
		kv.Close()
		os.Exit(1)
	}
	if err := a.start(ctx); err != nil {
		slog.Error("failed to start", "tag", "main", "err", err)
		a.shutdown()
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown", "tag", "main", "err", err)
		}
	}()

	slog.Info("PokéMatch server listening", "tag", "main", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "tag", "main", "err", err)
		a.shutdown()
		os.Exit(1)
	}
	a.shutdown()
	slog.Info("server stopped", "tag", "main")
}
