/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uploadbot_attempts_total",
		Help: "Attempts by request kind and outcome",
	}, []string{"kind", "outcome"})
	promAttemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uploadbot_attempt_duration_seconds",
		Help:    "Attempt duration",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"kind"})
	promUploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uploadbot_upload_bytes_total",
		Help: "Multipart bytes sent",
	})
	promActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "uploadbot_active_workers",
		Help: "Workers currently running",
	})
)

type PromReporter struct{}

func (m *PromReporter) reportAttempt(res AttemptResult) {
	promAttemptsTotal.WithLabelValues(string(res.Kind), string(res.Outcome)).Inc()
	promAttemptDuration.WithLabelValues(string(res.Kind)).Observe(res.Elapsed.Seconds())
	promUploadBytes.Add(float64(res.BytesOut))
}

func (m *PromReporter) workerStarted() {
	promActiveWorkers.Inc()
}

func (m *PromReporter) workerDone() {
	promActiveWorkers.Dec()
}
