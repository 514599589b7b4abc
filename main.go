// nise is a walkable raycast museum in the terminal.
//
//	go run . [--level lobby] [--lang pt_BR]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"nise/internal/game"
	_ "nise/internal/generate"
	"nise/internal/i18n"
	"nise/internal/visitlog"
)

func main() {
	lvl := flag.String("level", game.HomeLevel, "level to start in")
	lang := flag.String("lang", i18n.FromEnv(), "UI language")
	logPath := flag.String("log", "", "log file (default $XDG_STATE_HOME/nise/nise.log)")
	flag.Parse()

	// The screen owns stdout, so logs go to a file.
	logOut, err := openLog(*logPath)
	if err != nil {
		logOut = io.Discard
	}
	log := slog.New(slog.NewTextHandler(logOut, nil))
	slog.SetDefault(log)

	if err := i18n.SetLanguage(*lang); err != nil {
		log.Warn("language not available", "lang", *lang, "error", err)
	}
	visits, err := visitlog.FromEnv()
	if err != nil {
		log.Warn("visit log disabled", "error", err)
	} else {
		defer visits.Close()
	}

	g, err := game.NewTerminal(game.Options{
		Level:  *lvl,
		Visits: visits,
		Client: "terminal",
		Logger: log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := g.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// openLog opens path for appending, defaulting to
// $XDG_STATE_HOME/nise/nise.log (~/.local/state/nise/nise.log).
func openLog(path string) (io.Writer, error) {
	if path == "" {
		state := os.Getenv("XDG_STATE_HOME")
		if state == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			state = filepath.Join(home, ".local", "state")
		}
		path = filepath.Join(state, "nise", "nise.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
