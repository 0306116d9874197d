package session

import (
	"context"
	"time"
)

// Run ticks the session every interval while it is Running and returns when
// ctx is done. It never reconnects on its own.
func (s *Session) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if s.State() != StateRunning {
			continue
		}
		tickCtx, cancel := context.WithTimeout(ctx, 2*interval+s.cfg.ReadTimeout)
		report, err := s.Tick(tickCtx)
		cancel()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Errorf("Tick failed: %v", err)
			}
			continue
		}
		if report.Terminating {
			s.logger.Debugf("Tick skipped, server terminating")
		}
	}
}
