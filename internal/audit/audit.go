// Package audit appends and reads the document audit trail.
package audit

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"docvault/internal/logging"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// Metrics counts audit appends per action and result.
type Metrics struct {
	records *prometheus.CounterVec
}

// NewMetrics registers the audit counters on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_records_total",
				Help: "Total number of audit records appended.",
			},
			[]string{"action", "result"},
		),
	}
	if err := reg.Register(m.records); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(action model.AuditAction, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.records.WithLabelValues(string(action), result).Inc()
}

// Recorder writes audit records through the repository.
type Recorder struct {
	repo    repository.AuditRepository
	metrics *Metrics
}

// NewRecorder creates a Recorder. metrics may be nil.
func NewRecorder(repo repository.AuditRepository, metrics *Metrics) *Recorder {
	return &Recorder{repo: repo, metrics: metrics}
}

// Record appends one audit record. A nil documentID marks an action that
// could not be attributed to a stored document.
func (r *Recorder) Record(ctx context.Context, userID int64, documentID *string, action model.AuditAction, details string) error {
	rec, err := r.repo.AppendAudit(ctx, userID, documentID, action, details)
	r.metrics.observe(action, err)

	logger := logging.From(ctx)
	if err != nil {
		logger.Error("audit_append_failed",
			zap.String("component", "audit"),
			zap.String("action", string(action)),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("append audit %q: %w", action, err)
	}

	logger.Debug("audit_appended",
		zap.String("component", "audit"),
		zap.String("audit_id", rec.ID),
		zap.String("action", string(action)),
		zap.Int64("user_id", userID),
	)
	return nil
}

// List returns audit records newest first, optionally for a single document.
func (r *Recorder) List(ctx context.Context, documentID *string) ([]model.AuditRecord, error) {
	return r.repo.ListAudit(ctx, documentID)
}
