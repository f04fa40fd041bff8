// Package metrics exposes pipeline invocations as prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krew-solutions/bloc-go/bloc/pipeline"
)

const namespace = "bloc"

// Collector implements pipeline.Observer. All counters carry an operation
// label (filter, query or aggregate).
type Collector struct {
	invocations *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	emitted     *prometheus.CounterVec
}

// NewCollector registers the counters on reg. It panics if they are already
// registered there.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Total filter, query and aggregate invocations",
		}, []string{"operation"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Total invocations rejected by document validation",
		}, []string{"operation"}),
		emitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Total records produced by invocations",
		}, []string{"operation"}),
	}
}

func (c *Collector) Invoked(operation string) {
	c.invocations.WithLabelValues(operation).Inc()
}

func (c *Collector) Rejected(operation string) {
	c.rejections.WithLabelValues(operation).Inc()
}

func (c *Collector) Emitted(operation string, n int) {
	c.emitted.WithLabelValues(operation).Add(float64(n))
}

var _ pipeline.Observer = (*Collector)(nil)
