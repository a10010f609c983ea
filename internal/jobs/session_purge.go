package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BurntNail/denim/internal/config"
	"github.com/BurntNail/denim/internal/session"
)

// StartSessionPurgeJob periodically removes sessions past their
// expiry. Skipping it never makes an expired session readable (the
// store checks expiry on load), it only lets dead rows pile up.
func StartSessionPurgeJob(ctx context.Context, cfg config.Config, store session.Store, logger *zap.Logger) {
	if !cfg.SessionPurgeEnabled {
		return
	}
	interval := cfg.SessionPurgeEvery
	if interval <= 0 {
		interval = time.Hour
	}
	timeout := cfg.SessionPurgeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				purged, err := store.PurgeExpired(tickCtx)
				cancel()
				if err != nil {
					logger.Error("session purge failed", zap.Error(err))
					continue
				}
				if purged > 0 {
					logger.Info("purged expired sessions", zap.Int64("count", purged))
				}
			}
		}
	}()
}
