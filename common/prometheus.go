// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package common

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	log "github.com/sirupsen/logrus"
)

const pushJobName = "es_init"

// Registry only holds the run metrics below, so a push carries nothing else.
var Registry = prometheus.NewRegistry()

var (
	ExitCode = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Name: "es_init_exit_code",
		Help: "Exit code of the last run (0 delta load, 1 failure, 2 full load)",
	})

	IndexDocumentsCount = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Name: "es_init_index_documents_count",
		Help: "Reports number of documents found in the target index",
	})

	IndexShards = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Name: "es_init_index_shards",
		Help: "Number of primary shards requested when the index was created",
	})

	CreatedCount = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "es_init_created_total",
			Help: "Reports resources created by the run",
		},
		[]string{"resource"})

	ErrorsCount = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "es_init_errors_total",
			Help: "Reports errors by kind (connection, pipeline, index, unhandled)",
		},
		[]string{"kind"})

	OperationLatencyHistogram = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "es_init_operation_latency_ms",
			Help:    "Measure latency of every cluster call",
			Buckets: []float64{1, 2.5, 5, 7.5, 10, 15, 20, 35, 50, 75, 100, 250, 500, 1000, 5000, 10000},
		},
		[]string{"operation"},
	)
)

// ObserveLatency records the time spent since start for operation.
func ObserveLatency(operation string, start time.Time) {
	OperationLatencyHistogram.WithLabelValues(operation).Observe(float64(time.Since(start).Milliseconds()))
}

// PushMetrics sends the run metrics to a Pushgateway, grouped by cluster so a
// run replaces the previous run's values.
func PushMetrics(gatewayURL, cluster string) error {
	log.Info("Pushing run metrics to ", gatewayURL)
	err := push.New(gatewayURL, pushJobName).
		Gatherer(Registry).
		Grouping("cluster", cluster).
		Push()
	if err != nil {
		return errors.Wrapf(err, "Failed to push metrics to %s", gatewayURL)
	}
	return nil
}
