package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/yc01-bridge/hardware/yc01"
	"github.com/temoto/yc01-bridge/internal/network"
	"github.com/temoto/yc01-bridge/internal/tele"
	"github.com/temoto/yc01-bridge/log2"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := New()
	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	m.ObserveCycle(&tele.Status{Outcome: tele.OutcomeNoMatch}, time.Second)
	m.ObserveCycle(&tele.Status{Outcome: tele.OutcomeSuccess, Reading: &yc01.Reading{Time: t0, PH: 7.2, RSSI: -55}}, 3*time.Second)
	m.ObserveCycle(&tele.Status{Outcome: tele.OutcomeSuccess}, time.Second)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cycles.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues("no-match")))
	assert.Equal(t, 7.2, testutil.ToFloat64(m.reading.WithLabelValues("ph")))
	assert.Equal(t, -55.0, testutil.ToFloat64(m.reading.WithLabelValues("rssi")))
	assert.Equal(t, float64(t0.Unix()), testutil.ToFloat64(m.readingTime))
	assert.Equal(t, uint64(3), histogramCount(t, m, "yc01_cycle_duration_seconds"))

	m.ObserveAttempt(false)
	m.ObserveAttempt(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("fail")))
	m.ObserveDeliveryError(&tele.DeliveryError{Sink: "status"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveryFails.WithLabelValues("status")))
	m.ObserveNetworkState(network.StateFallbackHosting)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.networkState))

	log := log2.NewTest(t, log2.LDebug)
	log.SetErrorFunc(m.ErrorFunc())
	log.Errorf("first")
	log.Error("second")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logErrors))
}

func histogramCount(t testing.TB, m *Metrics, name string) uint64 {
	mfs, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("metric=%s not found", name)
	return 0
}

func TestMetricsNil(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveCycle(&tele.Status{}, time.Second)
	m.ObserveAttempt(true)
	m.ObserveNetworkState(network.StateConnected)
	m.ErrorFunc()(nil)
}

func TestMetricsServe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := New()
	m.ObserveCycle(&tele.Status{Outcome: tele.OutcomeFailure}, time.Second)
	addr, err := m.Serve(ctx, log2.NewTest(t, log2.LDebug), "127.0.0.1:0")
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `yc01_cycles_total{outcome="failure"} 1`)
}
