package generate

// carveCorridor joins two room centres with a passage of floor. An L passage
// turns once, at a corner picked by the plan's random source; a Z passage
// turns twice around the midpoint row; a straight one always runs east-west
// first.
func carveCorridor(p *Plan, x1, y1, x2, y2 int, cfg *Config) {
	switch cfg.CorridorStyle {
	case CorridorZShaped:
		carveZShaped(p, x1, y1, x2, y2)
	case CorridorStraight:
		carveElbow(p, x1, y1, x2, y2, true)
	default:
		carveElbow(p, x1, y1, x2, y2, cfg.Rand.Intn(2) == 0)
	}
}

// carveElbow digs two legs meeting at one corner: (x2, y1) when
// horizontalFirst, otherwise (x1, y2).
func carveElbow(p *Plan, x1, y1, x2, y2 int, horizontalFirst bool) {
	if horizontalFirst {
		carveH(p, x1, x2, y1)
		carveV(p, y1, y2, x2)
		return
	}
	carveV(p, y1, y2, x1)
	carveH(p, x1, x2, y2)
}

// carveZShaped digs down from the first room to the midpoint row, across,
// then on to the second room.
func carveZShaped(p *Plan, x1, y1, x2, y2 int) {
	mid := (y1 + y2) / 2
	carveV(p, y1, mid, x1)
	carveH(p, x1, x2, mid)
	carveV(p, mid, y2, x2)
}

// carveH floors row y between columns a and b, inclusive, in either order.
func carveH(p *Plan, a, b, y int) {
	for x := min(a, b); x <= max(a, b); x++ {
		p.carve(x, y)
	}
}

// carveV floors column x between rows a and b, inclusive, in either order.
func carveV(p *Plan, a, b, x int) {
	for y := min(a, b); y <= max(a, b); y++ {
		p.carve(x, y)
	}
}
