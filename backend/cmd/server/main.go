package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"x-slice/backend/internal/config"
	"x-slice/backend/internal/leaderboard"
	"x-slice/backend/internal/session"
	"x-slice/backend/internal/telemetry"
	"x-slice/backend/internal/transport/ws"
)

const serviceName = "x-slice-server"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("[Server] %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := log.Default()

	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Printf("[Server] tracing shutdown: %v", err)
		}
	}()

	mux := http.NewServeMux()

	// Таблица рекордов: своя база или удаленный сервис
	var submitter session.ScoreSubmitter
	if cfg.LeaderboardURL != "" {
		submitter = leaderboard.NewClient(cfg.LeaderboardURL, nil)
		logger.Printf("[Server] scores go to %s", cfg.LeaderboardURL)
	} else {
		store, err := leaderboard.Open(cfg.DBPath, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		submitter = store
		leaderboard.NewHandler(store, cfg.LeaderboardSize, logger).Register(mux)
	}

	journal := telemetry.NewTelemetryManager(cfg.TelemetryEntries, logger)
	wsServer := ws.NewWSServer(ws.Config{
		Session:       cfg.SessionOptions(),
		FrameInterval: cfg.FrameInterval,
		PingInterval:  ws.DefaultPingInterval,
	}, submitter, journal, logger)

	mux.HandleFunc("GET /ws", wsServer.HandleWS)
	mux.HandleFunc("GET /debug/telemetry", func(w http.ResponseWriter, r *http.Request) {
		data, err := journal.GetTelemetryJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})
	mux.HandleFunc("GET /debug/sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(wsServer.GetStats())
	})
	mux.Handle("/", http.FileServer(http.Dir("./static")))

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				journal.PrintSummary()
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("[Server] listening on %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Printf("[Server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
