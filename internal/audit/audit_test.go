package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/model"
	"docvault/internal/repository/memory"
)

type failingRepo struct {
	*memory.DB
}

func (failingRepo) AppendAudit(context.Context, int64, *string, model.AuditAction, string) (*model.AuditRecord, error) {
	return nil, errors.New("disk full")
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	db, err := memory.New()
	require.NoError(t, err)

	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	rec := NewRecorder(db, metrics)

	docID := "doc-1"
	require.NoError(t, rec.Record(ctx, 7, &docID, model.ActionAddDocument, "Doc1"))
	require.NoError(t, rec.Record(ctx, 7, nil, model.ActionDownloadDocument, "orphan"))

	all, err := rec.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.ActionDownloadDocument, all[0].Action)

	scoped, err := rec.List(ctx, &docID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Doc1", scoped[0].Details)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.records.WithLabelValues(string(model.ActionAddDocument), "ok")))
}

func TestRecorder_AppendFailure(t *testing.T) {
	db, err := memory.New()
	require.NoError(t, err)

	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	rec := NewRecorder(failingRepo{db}, metrics)

	err = rec.Record(context.Background(), 1, nil, model.ActionShareDocument, "")
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.records.WithLabelValues(string(model.ActionShareDocument), "error")))
}

func TestRecorder_NilMetrics(t *testing.T) {
	db, err := memory.New()
	require.NoError(t, err)

	assert.NoError(t, NewRecorder(db, nil).Record(context.Background(), 1, nil, model.ActionAddDocument, ""))
}
