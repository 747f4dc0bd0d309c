package interaction

import (
	"context"

	"go.uber.org/zap"

	"mochibot/pkg/cron"
	"mochibot/pkg/logger"
)

// SweepJobID is the cron job that evicts expired sessions.
const SweepJobID = "interaction-sweep"

// SweepJob returns a cron job evicting expired sessions from store.
// Lookup already hides expired sessions; the sweep only frees memory.
func SweepJob(store *Store, metrics *Metrics, log *logger.Logger) cron.JobFunc {
	return func(ctx context.Context) error {
		n := store.Sweep(store.Now())
		metrics.observeSweep(n)
		if n > 0 {
			log.Debug("Swept expired sessions",
				zap.Int("removed", n),
				zap.Int("remaining", store.Len()))
		}
		return nil
	}
}
