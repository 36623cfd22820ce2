package service

import (
	"context"
	"time"
)

// RunSessionSweeper periodically deletes expired sessions and idle rate
// limiters until ctx ends.
func (s *Service) RunSessionSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepExpiredSessions(ctx)
		}
	}
}

func (s *Service) sweepExpiredSessions(ctx context.Context) {
	if n := s.limiter.Prune(s.now().Add(-limiterIdleTTL)); n > 0 {
		s.logger.Debug().Int("removed", n).Msg("idle rate limiters removed")
	}

	sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := s.sessions.DeleteExpiredSessions(sweepCtx, s.now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("session sweep failed")
		return
	}
	if n > 0 {
		s.logger.Debug().Int64("removed", n).Msg("expired sessions removed")
	}
}
