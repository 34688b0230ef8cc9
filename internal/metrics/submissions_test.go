package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSubmissionMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSubmissionMetrics(reg)

	m.Observe("addons", 10*time.Millisecond, nil)
	m.Observe("addons", 20*time.Millisecond, errors.New("boom"))
	m.Observe("", time.Millisecond, nil)

	require.Equal(t, 1.0, testutil.ToFloat64(m.success.WithLabelValues("addons")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failure.WithLabelValues("addons")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.success.WithLabelValues("unknown")))
}

func TestSubmissionMetricsNilSafe(t *testing.T) {
	var m *SubmissionMetrics
	m.Observe("addons", time.Second, nil)
	NewSubmissionMetrics(nil).Observe("addons", time.Second, errors.New("x"))
}
