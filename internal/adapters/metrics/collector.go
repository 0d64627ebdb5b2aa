package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

const metricsNamespace = "predixarena"

// Collector is a prometheus.Collector that also records domain activity for
// the services through ports.Metrics.
type Collector struct {
	eventsCreated       prometheus.Counter
	eventStatusChanges  *prometheus.CounterVec
	votesCast           *prometheus.CounterVec
	tallyDriftCorrected prometheus.Counter
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		eventsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "events_created_total",
				Help:      "The number of prediction events created.",
			},
		),
		eventStatusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "event_status_changes_total",
				Help:      "The number of moderation decisions, by resulting status.",
			}, []string{"status"},
		),
		votesCast: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "votes_cast_total",
				Help:      "The number of accepted ballots, by result (created, changed, unchanged).",
			}, []string{"result"},
		),
		tallyDriftCorrected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "tally_drift_corrected_total",
				Help:      "The number of outcome counters rewritten by tally reconciliation.",
			},
		),
	}
}

func (c *Collector) EventCreated() {
	c.eventsCreated.Inc()
}

func (c *Collector) EventStatusChanged(status domain.EventStatus) {
	c.eventStatusChanges.WithLabelValues(string(status)).Inc()
}

func (c *Collector) VoteCast(result domain.CastResult) {
	c.votesCast.WithLabelValues(string(result)).Inc()
}

func (c *Collector) TallyDrift(n int) {
	c.tallyDriftCorrected.Add(float64(n))
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.eventsCreated.Describe(ch)
	c.eventStatusChanges.Describe(ch)
	c.votesCast.Describe(ch)
	c.tallyDriftCorrected.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.eventsCreated.Collect(ch)
	c.eventStatusChanges.Collect(ch)
	c.votesCast.Collect(ch)
	c.tallyDriftCorrected.Collect(ch)
}
