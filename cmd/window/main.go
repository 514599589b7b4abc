// nise-window opens the museum in a desktop window.
//
//	go run ./cmd/window [--level lobby] [--lang pt_BR]
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	_ "nise/internal/generate"
	"nise/internal/i18n"
	"nise/internal/visitlog"
	"nise/internal/window"
)

func main() {
	lvl := flag.String("level", window.HomeLevel, "level to open")
	lang := flag.String("lang", i18n.FromEnv(), "UI language")
	width := flag.Int("width", 800, "window width")
	height := flag.Int("height", 600, "window height")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
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

	g, err := window.New(window.Options{
		Level:  *lvl,
		Width:  *width / 2,
		Height: *height / 2,
		Visits: visits,
		Logger: log,
	})
	if err != nil {
		log.Error("start", "error", err)
		os.Exit(1)
	}
	defer g.Close()

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("nise")
	ebiten.SetTPS(g.TPS())
	if err := ebiten.RunGame(g); err != nil {
		log.Error("window", "error", err)
		os.Exit(1)
	}
}
