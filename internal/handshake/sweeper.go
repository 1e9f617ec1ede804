package handshake

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically deletes expired, never-redeemed records.
type Sweeper struct {
	Store    Store
	Interval time.Duration
	Now      func() time.Time
	Log      *slog.Logger
	// OnSweep, when set, receives the number of rows removed per pass.
	OnSweep func(n int64)
}

// SweepOnce runs a single pass.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	n, err := s.Store.DeleteExpired(ctx, now())
	if err != nil {
		return 0, err
	}
	if s.OnSweep != nil {
		s.OnSweep(n)
	}
	return n, nil
}

// Run sweeps every Interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultTTL
	}
	log := s.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				log.Error("sweep expired handshake tokens", "err", err)
				continue
			}
			if n > 0 {
				log.Debug("swept expired handshake tokens", "count", n)
			}
		}
	}
}
