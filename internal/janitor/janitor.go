// Package janitor sweeps uploads whose ingestion run died before reaching a
// terminal status.
package janitor

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/smallbiznis/revbox/internal/config"
	obsmetrics "github.com/smallbiznis/revbox/internal/observability/metrics"
	uploaddomain "github.com/smallbiznis/revbox/internal/upload/domain"
	"github.com/smallbiznis/revbox/pkg/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JobStaleUploads = "stale_uploads"

	lockKey    = "janitor:" + JobStaleUploads
	runTimeout = time.Minute
)

var ErrInvalidSchedule = errors.New("invalid_janitor_schedule")

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Cfg        config.Config
	Locker     lock.Locker
	UploadRepo uploaddomain.Repository
	Metrics    *obsmetrics.JobMetrics `optional:"true"`
}

type Janitor struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	cfg     config.JanitorConfig
	locker  lock.Locker
	uploads uploaddomain.Repository
	metrics *obsmetrics.JobMetrics

	cron *cron.Cron
}

func New(p Params) *Janitor {
	cfg := p.Cfg.Janitor
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 30 * time.Minute
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	return &Janitor{
		db:      p.DB,
		log:     p.Log.Named("janitor").With(zap.String("component", "janitor")),
		clock:   p.Clock,
		cfg:     cfg,
		locker:  p.Locker,
		uploads: p.UploadRepo,
		metrics: p.Metrics,
	}
}

// Sweep fails every upload still processing after the stale window. Only
// one replica sweeps at a time; the others return ErrLockUnavailable.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	token, ok, err := j.locker.TryLock(ctx, lockKey, runTimeout)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, obsmetrics.ErrLockUnavailable
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = j.locker.Release(releaseCtx, lockKey, token)
	}()

	now := j.clock.Now()
	cutoff := now.Add(-j.cfg.StaleAfter)
	return j.uploads.FailStale(ctx, j.db, cutoff, uploaddomain.ErrIngestionAbandoned.Error(), now)
}

// RunOnce performs one sweep with metrics and logging.
func (j *Janitor) RunOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, runTimeout)
	defer cancel()

	start := time.Now()
	j.metrics.IncRun(JobStaleUploads)
	swept, err := j.Sweep(ctx)
	j.metrics.ObserveDuration(JobStaleUploads, time.Since(start))

	switch {
	case errors.Is(err, obsmetrics.ErrLockUnavailable):
		j.log.Debug("sweep skipped, another replica holds the lock")
	case err != nil:
		j.metrics.IncError(JobStaleUploads, err)
		j.log.Error("sweep failed", zap.Error(err))
	case swept > 0:
		j.metrics.AddProcessed(JobStaleUploads, "uploads", int(swept))
		j.log.Warn("stale uploads marked as error",
			zap.Int64("count", swept),
			zap.Duration("stale_after", j.cfg.StaleAfter),
		)
	}
}

// Start schedules RunOnce on the configured cron schedule.
func (j *Janitor) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(j.cfg.Schedule, func() { j.RunOnce(ctx) }); err != nil {
		return errors.Join(ErrInvalidSchedule, err)
	}
	j.cron = c
	c.Start()
	j.log.Info("janitor scheduled",
		zap.String("schedule", j.cfg.Schedule),
		zap.Duration("stale_after", j.cfg.StaleAfter),
	)
	return nil
}

// Stop waits for a running sweep to finish or ctx to end.
func (j *Janitor) Stop(ctx context.Context) {
	if j.cron == nil {
		return
	}
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}
