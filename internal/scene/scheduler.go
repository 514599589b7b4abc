package scene

import (
	"context"
	"errors"
	"time"
)

// Scheduler drives a scene at its refresh rate.
type Scheduler struct {
	Scene   *Scene
	Surface Surface
	// OnFrame runs after every tick, on the scheduler goroutine. Hosts use it
	// to present the surface.
	OnFrame func(Frame)
	// Interval overrides the scene's refresh interval when non-zero.
	Interval time.Duration
}

// Run ticks until ctx is cancelled or the scene is detached. The scene is
// always detached when Run returns. Cancellation returns ctx.Err(); a
// detach returns nil.
func (sc *Scheduler) Run(ctx context.Context) error {
	s := sc.Scene
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return ErrDetached
	}
	if s.running {
		s.mu.Unlock()
		return ErrRunning
	}
	s.running = true
	s.mu.Unlock()
	defer s.Detach()

	interval := sc.Interval
	if interval <= 0 {
		interval = s.cfg.Interval()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("scene scheduler started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-ticker.C:
			f, err := s.RenderFrame(sc.Surface)
			if errors.Is(err, ErrDetached) {
				return nil
			}
			if err != nil {
				return err
			}
			if sc.OnFrame != nil {
				sc.OnFrame(f)
			}
		}
	}
}
