package sched

import (
	"context"
	"time"

	"telegram-dating-onboarding/internal/infra/metrics"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

// PoolStatsReporter periodically publishes database pool usage.
type PoolStatsReporter struct {
	interval time.Duration
	pool     *pgxpool.Pool
	log      *zerolog.Logger
}

func NewPoolStatsReporter(interval time.Duration, pool *pgxpool.Pool, logger *zerolog.Logger) *PoolStatsReporter {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	l := logger.With().Str("component", "PoolStatsReporter").Logger()
	return &PoolStatsReporter{interval: interval, pool: pool, log: &l}
}

func (r *PoolStatsReporter) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Msg("Starting pool stats reporter")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("Stopping pool stats reporter")
			return ctx.Err()
		case <-ticker.C:
			s := r.pool.Stat()
			metrics.SetProfileStorePool(s.TotalConns(), s.IdleConns(), s.AcquiredConns())
		}
	}
}
