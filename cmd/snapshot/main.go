// nise-snapshot prints one rendered frame to stdout as 24-bit ANSI half
// blocks, or writes it as a PNG.
//
//	go run ./cmd/snapshot --level museum
//	go run ./cmd/snapshot --png lobby.png --x 8 --y 8 --dx -1 --dy 0
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"

	gcolor "github.com/gookit/color"
	"golang.org/x/term"

	_ "nise/internal/generate"
	"nise/internal/level"
	"nise/internal/render"
	"nise/internal/scene"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	id := flag.String("level", "lobby", "level to render")
	x := flag.Float64("x", -1, "player x (default: level spawn)")
	y := flag.Float64("y", -1, "player y (default: level spawn)")
	dx := flag.Float64("dx", 0, "direction x")
	dy := flag.Float64("dy", 0, "direction y")
	cols := flag.Int("cols", 0, "text columns (default: terminal width)")
	rows := flag.Int("rows", 0, "text rows (default: terminal height - 1)")
	pngOut := flag.String("png", "", "write a PNG of -width x -height pixels instead")
	width := flag.Int("width", 640, "PNG width")
	height := flag.Int("height", 400, "PNG height")
	force := flag.Bool("color", false, "emit color even when stdout is not a terminal")
	flag.Parse()

	l, err := level.Load(*id)
	if err != nil {
		return err
	}
	cfg := scene.ForLevel(l, scene.DefaultConfig())
	if *x >= 0 && *y >= 0 {
		cfg.Start.X, cfg.Start.Y = *x, *y
	}
	if *dx != 0 || *dy != 0 {
		cfg.Start.DirX, cfg.Start.DirY = *dx, *dy
	}
	sc, err := scene.New(l.Map, l.Lookup(), cfg)
	if err != nil {
		return err
	}
	defer sc.Detach()

	if *pngOut != "" {
		surf := render.NewImageSurface(*width, *height)
		if _, err := sc.RenderFrame(surf); err != nil {
			return err
		}
		f, err := os.Create(*pngOut)
		if err != nil {
			return err
		}
		if err := png.Encode(f, surf.Img); err != nil {
			f.Close()
			return fmt.Errorf("encode %s: %w", *pngOut, err)
		}
		return f.Close()
	}

	c, r := *cols, *rows
	if c <= 0 || r <= 0 {
		tw, th, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			tw, th = 80, 25
		}
		if c <= 0 {
			c = tw
		}
		if r <= 0 {
			r = th - 1
		}
	}
	if *force {
		gcolor.ForceOpenColor()
	}
	surf := render.NewAnsiSurface(c, r)
	if _, err := sc.RenderFrame(surf); err != nil {
		return err
	}
	_, err = surf.WriteTo(os.Stdout)
	return err
}
