// Package metrics exposes the Prometheus counters for data-management operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation outcomes used as the status label
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var (
	backupOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examprogress_backup_operations_total",
		Help: "Backup, restore and auto-backup operations by type and status",
	}, []string{"operation", "status"})

	restoreDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "examprogress_restore_duration_seconds",
		Help:    "Time to restore the student table from a snapshot",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"status"})

	syncAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examprogress_sync_attempts_total",
		Help: "External sync attempts by direction and status",
	}, []string{"direction", "status"})

	syncConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examprogress_sync_conflicts_total",
		Help: "Records skipped during sync imports by conflict type",
	}, []string{"type"})

	validationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examprogress_validation_runs_total",
		Help: "Integrity validation runs by outcome",
	}, []string{"valid"})
)

func status(ok bool) string {
	if ok {
		return StatusSuccess
	}
	return StatusFailed
}

// ObserveBackup counts a backup-family operation (create, export, auto, restore).
func ObserveBackup(operation string, ok bool) {
	backupOperationsTotal.WithLabelValues(operation, status(ok)).Inc()
}

// ObserveRestore records a restore attempt and its duration.
func ObserveRestore(ok bool, took time.Duration) {
	ObserveBackup("restore", ok)
	restoreDurationHistogram.WithLabelValues(status(ok)).Observe(took.Seconds())
}

// ObserveSync counts a sync attempt.
func ObserveSync(direction string, ok bool) {
	syncAttemptsTotal.WithLabelValues(direction, status(ok)).Inc()
}

// ObserveSyncConflict counts one skipped record.
func ObserveSyncConflict(conflictType string) {
	syncConflictsTotal.WithLabelValues(conflictType).Inc()
}

// ObserveValidation counts an integrity validation run.
func ObserveValidation(valid bool) {
	label := "false"
	if valid {
		label = "true"
	}
	validationRunsTotal.WithLabelValues(label).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
