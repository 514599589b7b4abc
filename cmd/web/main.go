// nise-web serves the HTTP API and websocket play.
//
//	go run ./cmd/web [--addr :8080]
//
// Endpoints: /api/health, /api/levels, /api/levels/{id},
// /api/levels/{id}/render.png, /api/sections/{id}, /api/visits and /ws.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "nise/internal/generate"
	"nise/internal/scene"
	"nise/internal/visitlog"
	"nise/internal/web"
)

func main() {
	defAddr := os.Getenv("ADDR")
	if defAddr == "" {
		defAddr = ":8080"
	}
	addr := flag.String("addr", defAddr, "listen address")
	refresh := flag.Float64("refresh", 30, "websocket frames per second")
	verbose := flag.Bool("v", false, "debug logging (logs every request)")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(log, *addr, *refresh); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, addr string, refresh float64) error {
	cfg := scene.DefaultConfig()
	cfg.RefreshRate = refresh
	if err := cfg.Validate(); err != nil {
		return err
	}
	visits, err := visitlog.FromEnv()
	if err != nil {
		return err
	}
	defer visits.Close()

	ws := web.NewServer(cfg, visits, log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           ws.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(ws.Close)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			log.Warn("shutdown", "error", err)
		}
	}()

	log.Info("nise web server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
