package prom

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDispatch(t *testing.T) {
	require.NoError(t, Create("test-host", "test", "rr_test"))

	RecordDispatch("EMAIL", "sent", 0.2)
	RecordDispatch("EMAIL", "sent", 0.1)
	RecordDispatch("SMS", "failed", 0.3)

	counter := MetricCollectionCounterVec[SystemReviewRequests+MetricDispatchTotal]
	assert.Equal(t, float64(2), testutil.ToFloat64(counter.WithLabelValues("EMAIL", "sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(counter.WithLabelValues("SMS", "failed")))

	RecordClick("EMAIL")
	clicks := MetricCollectionCounterVec[SystemTracking+MetricClicksTotal]
	assert.Equal(t, float64(1), testutil.ToFloat64(clicks.WithLabelValues("EMAIL")))
}
