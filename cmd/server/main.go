// nise-server serves the museum over SSH. Every connection gets its own
// scene. Build:
//
//	go build -o nise-server ./cmd/server
//
// Usage:
//
//	./nise-server [--port 2222] [--key server_host_key]
//
// Connect with:
//
//	ssh -t -p 2222 localhost
//
// Visits go to a JSONL file by default; set DB_TYPE=postgres and
// DATABASE_URL to use PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	gossh "github.com/gliderlabs/ssh"

	_ "nise/internal/generate"
	"nise/internal/i18n"
	"nise/internal/scene"
	internalssh "nise/internal/ssh"
	"nise/internal/visitlog"
)

func main() {
	port := flag.Int("port", 2222, "SSH server port")
	keyFile := flag.String("key", "server_host_key", "Path to the PEM-encoded host key (generated if absent)")
	lang := flag.String("lang", i18n.FromEnv(), "UI language")
	refresh := flag.Float64("refresh", 30, "frames per second per session")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(log, *port, *keyFile, *lang, *refresh); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, port int, keyFile, lang string, refresh float64) error {
	if err := i18n.SetLanguage(lang); err != nil {
		log.Warn("language not available", "lang", lang, "error", err)
	}
	signer, err := internalssh.HostKey(keyFile, log)
	if err != nil {
		return err
	}
	visits, err := visitlog.FromEnv()
	if err != nil {
		return fmt.Errorf("visit log: %w", err)
	}
	defer visits.Close()

	cfg := scene.DefaultConfig()
	cfg.RefreshRate = refresh
	if err := cfg.Validate(); err != nil {
		return err
	}
	h := &internalssh.Handler{Config: cfg, Visits: visits, Logger: log}

	srv := &gossh.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     h.Handle,
		PtyCallback: func(gossh.Context, gossh.Pty) bool { return true },
		// No authentication: the museum is public.
		HostSigners: []gossh.Signer{signer},
	}

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

	log.Info("nise SSH server listening", "port", port)
	log.Info("connect with", "cmd", fmt.Sprintf("ssh -t -p %d localhost", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, gossh.ErrServerClosed) {
		return err
	}
	return nil
}
