// Package metrics exports feature engine activity to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/fieldmap/internal/mvi"
)

// Observer implements mvi.Observer with Prometheus counters.
type Observer struct {
	actions *prometheus.CounterVec
	folded  prometheus.Counter
	news    prometheus.Counter
	dropped prometheus.Counter
}

var _ mvi.Observer = (*Observer)(nil)

// NewObserver creates the counters for the named feature and registers them
// on reg. Panics if they are already registered there.
func NewObserver(reg prometheus.Registerer, feature string) *Observer {
	labels := prometheus.Labels{"feature": feature}

	o := &Observer{
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "fieldmap",
				Name:        "actions_total",
				Help:        "Actions received by the feature, by source.",
				ConstLabels: labels,
			},
			[]string{"source"},
		),
		folded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fieldmap",
			Name:        "effects_folded_total",
			Help:        "Effects reduced into state.",
			ConstLabels: labels,
		}),
		news: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fieldmap",
			Name:        "news_published_total",
			Help:        "One-shot news published.",
			ConstLabels: labels,
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fieldmap",
			Name:        "effects_dropped_total",
			Help:        "Effects discarded because the feature was disposed.",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(o.actions, o.folded, o.news, o.dropped)
	return o
}

func (o *Observer) ActionReceived(source mvi.ActionSource) {
	o.actions.WithLabelValues(string(source)).Inc()
}

func (o *Observer) EffectFolded()  { o.folded.Inc() }
func (o *Observer) NewsPublished() { o.news.Inc() }
func (o *Observer) EffectDropped() { o.dropped.Inc() }
