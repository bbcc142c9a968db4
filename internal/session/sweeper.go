package session

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper evicts idle sessions on a cron schedule.
type Sweeper struct {
	cron   *cron.Cron
	store  *Store
	logger *zap.Logger
}

// NewSweeper creates a sweeper for store. schedule is a standard 5-field
// cron expression.
func NewSweeper(store *Store, schedule string, logger *zap.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Sweeper{cron: cron.New(), store: store, logger: logger}
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("schedule session sweep %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Sweeper) Start() {
	s.logger.Info("starting session sweeper")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.logger.Info("stopping session sweeper")
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	removed := s.store.Sweep(s.store.now())
	if removed > 0 {
		s.logger.Info("expired sessions removed", zap.Int("count", removed), zap.Int("live", s.store.Len()))
	}
}
