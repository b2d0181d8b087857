package places

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// retagTimeout bounds a single scheduled batch.
const retagTimeout = 5 * time.Minute

// Retagger periodically enriches places whose stored provider data was
// never classified, for example rows loaded by a bulk SQL import.
type Retagger struct {
	cron    *cron.Cron
	service PlaceService
	batch   int
	logger  *slog.Logger
}

// NewRetagger schedules RunOnce on a standard 5-field cron expression. An
// invalid expression is an error. Overlapping runs are skipped.
func NewRetagger(service PlaceService, schedule string, batch int) (*Retagger, error) {
	logger := slog.Default().With(slog.String("system", "retagger"))
	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))

	r := &Retagger{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
		service: service,
		batch:   batch,
		logger:  logger,
	}

	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("scheduling retag job %q: %w", schedule, err)
	}
	return r, nil
}

// Start runs the scheduler in its own goroutine.
func (r *Retagger) Start() {
	r.cron.Start()
	r.logger.Info("retag scheduler started", slog.Int("batch_size", r.batch))
}

// Stop halts the scheduler and waits for a running batch, up to ctx.
func (r *Retagger) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.logger.Warn("retag batch still running at shutdown")
	}
}

// RunOnce enriches one batch immediately.
func (r *Retagger) RunOnce(ctx context.Context) (RetagResult, error) {
	start := time.Now()
	result, err := r.service.RetagPending(ctx, r.batch)
	if err != nil {
		return result, err
	}

	if result.Processed > 0 || result.Failed > 0 {
		r.logger.Info("retag batch finished",
			slog.Int("processed", result.Processed),
			slog.Int("failed", result.Failed),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return result, nil
}

func (r *Retagger) run() {
	ctx, cancel := context.WithTimeout(context.Background(), retagTimeout)
	defer cancel()

	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Error("retag batch failed", slog.Any("error", err))
	}
}
