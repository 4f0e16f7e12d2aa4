// Package scheduler triggers catalog refreshes on a fixed delay.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	libredis "evcharge/backend/libs/redis"
	"evcharge/backend/services/stations-service/internal/catalogsync"
)

// Refresher runs one catalog sync.
type Refresher interface {
	Refresh(ctx context.Context, region string) (catalogsync.Result, error)
}

// Locker guards a run across replicas. Acquire returns libredis.ErrLockHeld when another replica owns it.
type Locker interface {
	Acquire(ctx context.Context) (func(context.Context) error, error)
}

// Scheduler runs Refresh immediately and then Interval after each run completes.
type Scheduler struct {
	refresher Refresher
	locker    Locker
	region    string
	interval  time.Duration
	logger    *zap.Logger
}

// New builds a scheduler. locker may be nil for single-replica deployments.
func New(refresher Refresher, locker Locker, region string, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		refresher: refresher,
		locker:    locker,
		region:    region,
		interval:  interval,
		logger:    logger.With(zap.String("component", "catalog-scheduler")),
	}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("catalog scheduler started",
		zap.String("region", s.region),
		zap.Duration("interval", s.interval),
	)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("catalog scheduler stopped")
			return
		case <-timer.C:
			if err := s.tick(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("scheduled catalog sync failed", zap.Error(err))
			}
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("catalog sync panic: %v", r)
		}
	}()

	if s.locker != nil {
		release, lockErr := s.locker.Acquire(ctx)
		if errors.Is(lockErr, libredis.ErrLockHeld) {
			s.logger.Debug("catalog sync skipped, lock held elsewhere")
			return nil
		}
		if lockErr != nil {
			return fmt.Errorf("acquire sync lock: %w", lockErr)
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if relErr := release(releaseCtx); relErr != nil {
				s.logger.Warn("release sync lock", zap.Error(relErr))
			}
		}()
	}

	_, err = s.refresher.Refresh(ctx, s.region)
	return err
}
