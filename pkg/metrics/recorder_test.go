package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/metrics"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func TestRecorder_Counters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r := metrics.MustNewRecorder(reg)

	r.RecordCreated(session.ReasonNew)
	r.RecordCreated(session.ReasonNew)
	r.RecordCreated(session.ReasonStale)
	r.RecordDestroyed()
	r.WriteConflict()
	r.IDCollision()
	r.Pruned(3)
	r.Pruned(0)

	expected := `
# HELP sessionkit_session_created_total Session records created, by reason
# TYPE sessionkit_session_created_total counter
sessionkit_session_created_total{reason="new"} 2
sessionkit_session_created_total{reason="stale"} 1
# HELP sessionkit_session_destroyed_total Sessions cleared by the application
# TYPE sessionkit_session_destroyed_total counter
sessionkit_session_destroyed_total 1
# HELP sessionkit_session_id_collisions_total Generated session ids that were already taken
# TYPE sessionkit_session_id_collisions_total counter
sessionkit_session_id_collisions_total 1
# HELP sessionkit_session_pruned_total Idle session records removed by pruning
# TYPE sessionkit_session_pruned_total counter
sessionkit_session_pruned_total 3
# HELP sessionkit_session_write_conflicts_total Writes that gave up after repeated version conflicts
# TYPE sessionkit_session_write_conflicts_total counter
sessionkit_session_write_conflicts_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"sessionkit_session_created_total",
		"sessionkit_session_destroyed_total",
		"sessionkit_session_id_collisions_total",
		"sessionkit_session_pruned_total",
		"sessionkit_session_write_conflicts_total",
	))
}

func TestRecorder_StoreOperation(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r := metrics.MustNewRecorder(reg, metrics.WithNamespace("app"))

	r.StoreOperation("find", time.Millisecond, nil)
	r.StoreOperation("find", time.Millisecond, session.ErrRecordNotFound)
	r.StoreOperation("update", time.Millisecond, session.ErrVersionConflict)
	r.StoreOperation("insert", time.Millisecond, session.ErrRecordExists)
	r.StoreOperation("touch", time.Millisecond, errors.New("boom"))

	ops, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, ops)

	count := func(op, result string) float64 {
		for _, mf := range ops {
			if mf.GetName() != "app_store_operations_total" {
				continue
			}
			for _, m := range mf.GetMetric() {
				labels := map[string]string{}
				for _, l := range m.GetLabel() {
					labels[l.GetName()] = l.GetValue()
				}
				if labels["op"] == op && labels["result"] == result {
					return m.GetCounter().GetValue()
				}
			}
		}
		return 0
	}

	assert.Equal(t, 1.0, count("find", "ok"))
	assert.Equal(t, 1.0, count("find", "not_found"))
	assert.Equal(t, 1.0, count("update", "conflict"))
	assert.Equal(t, 1.0, count("insert", "exists"))
	assert.Equal(t, 1.0, count("touch", "error"))

	var series int
	for _, mf := range ops {
		if mf.GetName() == "app_store_operation_duration_seconds" {
			series = len(mf.GetMetric())
		}
	}
	assert.Equal(t, 4, series)
}

func TestRecorder_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	_, err = metrics.NewRecorder(reg)
	assert.Error(t, err)
	assert.Panics(t, func() { metrics.MustNewRecorder(reg) })
}

func TestHandler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics.MustNewRecorder(reg).RecordCreated(session.ReasonNew)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), `sessionkit_session_created_total{reason="new"} 1`)
}
