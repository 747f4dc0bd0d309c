package interaction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records router activity.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	swept      prometheus.Counter
}

// NewMetrics registers the interaction collectors on reg. A nil reg
// returns collectors that are never exported.
func NewMetrics(reg prometheus.Registerer, store *Store) (*Metrics, error) {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mochibot",
			Subsystem: "interaction",
			Name:      "dispatches_total",
			Help:      "UI events dispatched, by event kind and result status.",
		}, []string{"kind", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mochibot",
			Subsystem: "interaction",
			Name:      "continuation_duration_seconds",
			Help:      "Time spent running continuations.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"command"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mochibot",
			Subsystem: "interaction",
			Name:      "sessions_swept_total",
			Help:      "Expired sessions evicted by the sweeper.",
		}),
	}
	if reg == nil {
		return m, nil
	}

	live := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "mochibot",
		Subsystem: "interaction",
		Name:      "sessions",
		Help:      "Sessions currently held by the store.",
	}, func() float64 { return float64(store.Len()) })

	for _, c := range []prometheus.Collector{m.dispatches, m.duration, m.swept, live} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeDispatch(kind EventKind, status Status) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(kind.String(), status.String()).Inc()
}

func (m *Metrics) observeContinuation(command string, d time.Duration) {
	if m == nil {
		return
	}
	if command == "" {
		command = "unknown"
	}
	m.duration.WithLabelValues(command).Observe(d.Seconds())
}

func (m *Metrics) observeSweep(n int) {
	if m == nil || n == 0 {
		return
	}
	m.swept.Add(float64(n))
}
