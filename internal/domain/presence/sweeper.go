package presence

import (
	"log/slog"
	"time"
)

// Sweeper demotes stale records to offline on a fixed interval. One runs per
// process, independent of any request.
type Sweeper struct {
	store      Storer
	logger     *slog.Logger
	interval   time.Duration
	staleAfter time.Duration
	doneCh     chan struct{}
}

func NewSweeper(store Storer, logger *slog.Logger, interval, staleAfter time.Duration) *Sweeper {
	return &Sweeper{
		store:      store,
		logger:     logger,
		interval:   interval,
		staleAfter: staleAfter,
		doneCh:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.loop()
}

func (s *Sweeper) Stop() {
	close(s.doneCh)
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.doneCh:
			return
		case <-ticker.C:
			if swept := s.store.SweepStale(s.staleAfter); swept > 0 {
				s.logger.Debug("presence sweep demoted stale records", "count", swept)
			}
		}
	}
}
