// Package sweeper periodically deletes idle sessions and their basket summaries.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RunTimeout bounds a single sweep.
const RunTimeout = 10 * time.Second

// SessionSweeper deletes sessions idle for longer than retention.
type SessionSweeper interface {
	Sweep(ctx context.Context, retention time.Duration) ([]string, error)
}

// SummaryRemover drops the projected summary of a session.
type SummaryRemover interface {
	Delete(ctx context.Context, sessionID string) error
}

type Sweeper struct {
	sessions  SessionSweeper
	summaries SummaryRemover
	retention time.Duration
	logger    *zap.Logger
	cron      *cron.Cron
}

// New builds a sweeper. summaries may be nil when no read model is kept.
func New(sessions SessionSweeper, summaries SummaryRemover, retention time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		sessions:  sessions,
		summaries: summaries,
		retention: retention,
		logger:    logger.With(zap.String("component", "sweeper")),
		cron:      cron.New(),
	}
}

// RunOnce deletes idle sessions and their summaries and returns how many
// sessions were removed.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, RunTimeout)
	defer cancel()

	ids, err := s.sessions.Sweep(ctx, s.retention)
	// ids deleted before a failure still need their summaries removed
	summaryErr := s.removeSummaries(ctx, ids)
	if err = errors.Join(err, summaryErr); err != nil {
		s.logger.Error("session sweep failed", zap.Int("deleted", len(ids)), zap.Error(err))
		return len(ids), err
	}
	s.logger.Info("session sweep completed",
		zap.Int("deleted", len(ids)),
		zap.Duration("retention", s.retention))
	return len(ids), nil
}

func (s *Sweeper) removeSummaries(ctx context.Context, ids []string) error {
	if s.summaries == nil {
		return nil
	}
	var errs []error
	for _, id := range ids {
		if err := s.summaries.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete summary %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Start schedules RunOnce on the cron spec, e.g. "@every 1h" or "0 3 * * *".
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		_, _ = s.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", spec, err)
	}
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
