package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"concierge/internal/models"
	"concierge/internal/worker"
)

var (
	chatEventsDesc = prometheus.NewDesc(
		"concierge_chat_events_total",
		"Persisted chat events by endpoint and outcome",
		[]string{"endpoint", "outcome"},
		nil,
	)

	// QueriesTotal counts handled queries in this process.
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "concierge_queries_total",
		Help: "Handled chat and research queries by outcome and visitor category",
	}, []string{"endpoint", "outcome", "visitor"})

	// LLMDuration observes completion latency.
	LLMDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "concierge_llm_request_duration_seconds",
		Help:    "Language model completion latency",
		Buckets: []float64{0.5, 1, 2, 5, 10, 15, 20, 25, 30},
	}, []string{"endpoint", "status"})

	// ContactsTotal counts contact form submissions by delivery result.
	ContactsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "concierge_contact_submissions_total",
		Help: "Contact form submissions by delivery result",
	}, []string{"result"})
)

// OutcomeSource reads aggregated event counts for the collector.
type OutcomeSource interface {
	GetOutcomeCounts(ctx context.Context) ([]models.OutcomeCount, error)
}

// EventWriter persists chat events.
type EventWriter interface {
	RecordChatEvent(ctx context.Context, e *models.ChatEvent) error
}

// Submitter runs background tasks.
type Submitter interface {
	Submit(label string, task func(ctx context.Context) error) error
}

// ChatEventCollector is a custom Prometheus collector that reads chat event
// counts from the database on each scrape.
type ChatEventCollector struct {
	source OutcomeSource
}

// Describe sends the metric descriptor to the channel.
func (c *ChatEventCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- chatEventsDesc
}

// Collect queries the database for event counts and emits them as counters.
func (c *ChatEventCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.source.GetOutcomeCounts(ctx)
	if err != nil {
		slog.Error("failed to collect chat event metrics", "error", err)
		return
	}
	for _, oc := range counts {
		ch <- prometheus.MustNewConstMetric(
			chatEventsDesc,
			prometheus.CounterValue,
			float64(oc.Count),
			oc.Endpoint,
			oc.Outcome,
		)
	}
}

var (
	poolRunningDesc = prometheus.NewDesc(
		"concierge_worker_running",
		"Busy workers in the background pool",
		[]string{"pool"},
		nil,
	)
	poolTasksDesc = prometheus.NewDesc(
		"concierge_worker_tasks_total",
		"Background tasks by result",
		[]string{"pool", "result"},
		nil,
	)
)

// PoolSource exposes worker pool occupancy and task counters.
type PoolSource interface {
	Running() int
	Stats() worker.Stats
}

// PoolCollector reports a worker pool's state on each scrape.
type PoolCollector struct {
	name string
	pool PoolSource
}

// NewPoolCollector creates a collector for the named pool.
func NewPoolCollector(name string, pool PoolSource) *PoolCollector {
	return &PoolCollector{name: name, pool: pool}
}

// Describe sends the metric descriptors to the channel.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolRunningDesc
	ch <- poolTasksDesc
}

// Collect emits the running gauge and one counter per task result.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(poolRunningDesc, prometheus.GaugeValue, float64(c.pool.Running()), c.name)

	st := c.pool.Stats()
	for _, r := range []struct {
		result string
		n      int64
	}{
		{"submitted", st.Submitted},
		{"completed", st.Completed},
		{"failed", st.Failed},
		{"rejected", st.Rejected},
		{"panicked", st.Panicked},
	} {
		ch <- prometheus.MustNewConstMetric(poolTasksDesc, prometheus.CounterValue, float64(r.n), c.name, r.result)
	}
}

// RegisterPool registers a PoolCollector with the default registry.
func RegisterPool(name string, pool PoolSource) error {
	return prometheus.Register(NewPoolCollector(name, pool))
}

var registerOnce sync.Once

// Init registers the process counters and, when source is non-nil, the
// database-backed collector. Only the first call has an effect.
func Init(source OutcomeSource) {
	registerOnce.Do(func() {
		prometheus.MustRegister(QueriesTotal, LLMDuration, ContactsTotal)
		if source != nil {
			prometheus.MustRegister(&ChatEventCollector{source: source})
		}
	})
}

// Recorder counts chat events and, when a writer is configured, persists
// them on the background pool.
type Recorder struct {
	writer EventWriter
	pool   Submitter
}

// NewRecorder creates a recorder. writer and pool may be nil, in which
// case events are only counted.
func NewRecorder(writer EventWriter, pool Submitter) *Recorder {
	return &Recorder{writer: writer, pool: pool}
}

// Record counts the event and schedules its insert. It never blocks on the
// database.
func (r *Recorder) Record(_ context.Context, e models.ChatEvent) {
	QueriesTotal.WithLabelValues(e.Endpoint, e.Outcome, e.Visitor).Inc()

	if r == nil || r.writer == nil || r.pool == nil {
		return
	}

	err := r.pool.Submit("record chat event", func(ctx context.Context) error {
		return r.writer.RecordChatEvent(ctx, &e)
	})
	if err != nil {
		slog.Warn("dropped chat event", "endpoint", e.Endpoint, "outcome", e.Outcome, "error", err)
	}
}

// ObserveLLM records one completion's latency.
func ObserveLLM(endpoint string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LLMDuration.WithLabelValues(endpoint, status).Observe(d.Seconds())
}
