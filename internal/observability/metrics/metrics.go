package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "backoffice_"

	// ResultSuccess labels a successful operation.
	ResultSuccess = "success"
	// ResultError labels a failed operation.
	ResultError = "error"
)

var (
	registerOnce sync.Once

	ovBuildTotal   *prometheus.CounterVec
	ovBuildLatency *prometheus.HistogramVec

	ovTransitionTotal *prometheus.CounterVec

	ovFilesTotal   *prometheus.CounterVec
	ovFilesLatency *prometheus.HistogramVec

	ovRecoveryTotal *prometheus.CounterVec

	beneficiaryImportTotal *prometheus.CounterVec
)

// Init registers observability metrics.
func Init() {
	registerOnce.Do(func() {
		ovBuildTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ov_build_total",
				Help: "Total transfer order build attempts by result",
			},
			[]string{"result"},
		)
		ovBuildLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ov_build_latency_seconds",
				Help:    "Transfer order build latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		ovTransitionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ov_transition_total",
				Help: "Total order status transitions by action and result",
			},
			[]string{"action", "result"},
		)

		ovFilesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ov_files_total",
				Help: "Total advice/bank file generations by result",
			},
			[]string{"result"},
		)
		ovFilesLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ov_files_latency_seconds",
				Help:    "File generation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		ovRecoveryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ov_recovery_total",
				Help: "Total fund recovery updates by kind and result",
			},
			[]string{"kind", "result"},
		)

		beneficiaryImportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "beneficiary_import_total",
				Help: "Total beneficiary registry imports by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			ovBuildTotal,
			ovBuildLatency,
			ovTransitionTotal,
			ovFilesTotal,
			ovFilesLatency,
			ovRecoveryTotal,
			beneficiaryImportTotal,
		)
	})
}

// ObserveBuild records an order build attempt.
func ObserveBuild(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if ovBuildTotal != nil {
		ovBuildTotal.WithLabelValues(result).Inc()
	}
	if ovBuildLatency != nil {
		ovBuildLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncTransition records a status transition attempt.
func IncTransition(action, result string) {
	if action == "" {
		action = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if ovTransitionTotal != nil {
		ovTransitionTotal.WithLabelValues(action, result).Inc()
	}
}

// ObserveFiles records a file generation attempt.
func ObserveFiles(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if ovFilesTotal != nil {
		ovFilesTotal.WithLabelValues(result).Inc()
	}
	if ovFilesLatency != nil {
		ovFilesLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncRecovery records a recovery request or confirmation.
func IncRecovery(kind, result string) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if ovRecoveryTotal != nil {
		ovRecoveryTotal.WithLabelValues(kind, result).Inc()
	}
}

// IncBeneficiaryImport records a registry import.
func IncBeneficiaryImport(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if beneficiaryImportTotal != nil {
		beneficiaryImportTotal.WithLabelValues(result).Inc()
	}
}
