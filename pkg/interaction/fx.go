package interaction

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"mochibot/pkg/config"
	"mochibot/pkg/cron"
	"mochibot/pkg/logger"
)

// Module provides the session store and router, schedules the expiry
// sweep and follows config reloads.
var Module = fx.Module("interaction",
	fx.Provide(
		ProvideStore,
		ProvideMetrics,
		ProvideRouter,
	),
	fx.Invoke(RegisterSweep, WatchConfig),
)

func ProvideStore() *Store {
	return NewStore()
}

func ProvideMetrics(reg prometheus.Registerer, store *Store) (*Metrics, error) {
	return NewMetrics(reg, store)
}

// ProvideRouter builds the router from the interactions config section.
func ProvideRouter(store *Store, metrics *Metrics, log *logger.Logger, cfg *config.Config) (*Router, error) {
	settings := cfg.InteractionSettings()
	policy, err := ParseBusyPolicy(settings.BusyPolicy)
	if err != nil {
		return nil, err
	}
	return NewRouter(store, log.Named("interaction"),
		WithBusyPolicy(policy),
		WithDefaultTTL(cfg.InteractionTTL()),
		WithMetrics(metrics),
	), nil
}

// RegisterSweep schedules the expiry sweep on the cron manager.
func RegisterSweep(cm *cron.Manager, store *Store, metrics *Metrics, log *logger.Logger, cfg *config.Config) error {
	_, err := cm.AddJob(SweepJobID, cfg.InteractionSettings().SweepSchedule,
		SweepJob(store, metrics, log.Named("interaction")))
	return err
}

// WatchConfig applies reloaded interaction settings to the running router.
func WatchConfig(w *config.Watcher, router *Router, cm *cron.Manager, log *logger.Logger) {
	w.AddHandler(func(c *config.Config) error {
		settings := c.InteractionSettings()
		policy, err := ParseBusyPolicy(settings.BusyPolicy)
		if err != nil {
			return err
		}
		router.SetBusyPolicy(policy)
		router.SetDefaultTTL(c.InteractionTTL())
		if err := cm.Reschedule(SweepJobID, settings.SweepSchedule); err != nil {
			return err
		}
		log.Info("Interaction settings reloaded",
			zap.String("busy_policy", policy.String()),
			zap.Duration("ttl", c.InteractionTTL()),
			zap.String("sweep_schedule", settings.SweepSchedule))
		return nil
	})
}
