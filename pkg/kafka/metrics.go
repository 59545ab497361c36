package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

var (
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_producer_messages_total",
		Help: "Kafka messages handed to the writer, by topic and outcome.",
	}, []string{"topic", "outcome"})

	writeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kafka_producer_write_duration_seconds",
		Help:    "Latency of synchronous Kafka writes.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"topic"})
)

func observeWrite(topic string, started time.Time, err error) {
	writeDuration.WithLabelValues(topic).Observe(time.Since(started).Seconds())
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	messagesTotal.WithLabelValues(topic, outcome).Inc()
}
