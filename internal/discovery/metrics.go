package discovery

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    batchesTotal = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "discovery_batches_total",
            Help: "Total number of discovery batches served",
        },
    )

    swipesTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "discovery_swipes_total",
            Help: "Total number of recorded swipes",
        },
        []string{"action"},
    )

    matchScores = promauto.NewHistogram(
        prometheus.HistogramOpts{
            Name:    "discovery_match_scores",
            Help:    "Distribution of candidate match scores",
            Buckets: prometheus.LinearBuckets(0, 10, 11),
        },
    )

    batchSizes = promauto.NewHistogram(
        prometheus.HistogramOpts{
            Name:    "discovery_batch_sizes",
            Help:    "Distribution of returned batch sizes",
            Buckets: prometheus.LinearBuckets(0, 5, 11),
        },
    )
)

func RecordBatch(size int) {
    batchesTotal.Inc()
    batchSizes.Observe(float64(size))
}

func RecordSwipe(action string) {
    swipesTotal.WithLabelValues(action).Inc()
}

func RecordMatchScore(score float64) {
    matchScores.Observe(score)
}
