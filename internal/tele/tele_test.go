package tele

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/hardware/yc01"
	"github.com/temoto/yc01-bridge/internal/network"
	"github.com/temoto/yc01-bridge/log2"
)

func testStatus(withReading bool) *Status {
	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s := &Status{
		MessageID:    "6f1c1f9e-1b7a-4d52-9a41-63f0c8f0e2a1",
		Node:         "pool-3",
		Cycle:        7,
		Time:         t0,
		Outcome:      OutcomeNoMatch,
		Message:      MessageNoMatch,
		Connectivity: network.Projection{State: "Connected", Since: t0, Usable: true},
		NextCycle:    t0.Add(300 * time.Second),
	}
	if withReading {
		s.Outcome, s.Message = OutcomeSuccess, ""
		s.Device = &ble.Identity{Address: "C0:00:00:01:4A:2B", Name: "BLE-YC01"}
		s.Reading = &yc01.Reading{Type: 1, Time: t0, RSSI: -61, PH: 7.1, EC: 1250, Salt: 687.5, TDS: 625, ORP: 650, Chlorine: 1.2, Temperature: 24.5, Battery: 3000}
	}
	return s
}

func TestEncodeStatusJSON(t *testing.T) {
	t.Parallel()

	b, err := EncodeStatus(FormatJSON, testStatus(false))
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "no-match", m["outcome"])
	assert.Equal(t, "no matching device found", m["message"])
	// absent reading is explicit null, never zeros
	v, ok := m["reading"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Nil(t, m["device"])
	assert.Equal(t, "Connected", m["connectivity"].(map[string]interface{})["state"])

	_, err = EncodeStatus("xml", testStatus(false))
	assert.True(t, errors.IsNotValid(err))
}

func TestEncodeStatusProto(t *testing.T) {
	t.Parallel()

	s := testStatus(true)
	b, err := EncodeStatus(FormatProto, s)
	require.NoError(t, err)
	var m StatusMessage
	require.NoError(t, proto.Unmarshal(b, &m))
	assert.Equal(t, "pool-3", m.Node)
	assert.Equal(t, uint64(7), m.Cycle)
	assert.Equal(t, "success", m.Outcome)
	assert.Equal(t, "C0:00:00:01:4A:2B", m.DeviceAddress)
	assert.True(t, m.NetworkUsable)
	assert.Equal(t, s.NextCycle.UnixMilli(), m.NextCycleMs)
	require.NotNil(t, m.Reading)
	assert.Equal(t, int32(-61), m.Reading.Rssi)
	assert.Equal(t, 7.1, m.Reading.Ph)
	assert.Equal(t, 24.5, m.Reading.Temperature)
}

func TestPublisher(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := log2.NewTest(t, log2.LDebug)
	sink := NewMockSink()
	p := NewPublisher(log, PublisherConfig{Topic: "yc01/pool-3/status"}, sink, nil)
	var failures []*DeliveryError
	p.OnError = func(e *DeliveryError) { failures = append(failures, e) }

	assert.Equal(t, 0, p.Publish(ctx, testStatus(false), false), "not usable")
	assert.Equal(t, 0, sink.Attempts())

	assert.Equal(t, 1, p.Publish(ctx, testStatus(false), true))
	sent := sink.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "yc01/pool-3/status", sent[0].Topic)
	assert.Contains(t, string(sent[0].Payload), `"reading":null`)

	sink.SetError(errors.New("broker gone"))
	assert.Equal(t, 0, p.Publish(ctx, testStatus(false), true))
	assert.Equal(t, 2, sink.Attempts(), "never retried")
	require.Len(t, failures, 1)
	assert.Equal(t, "status", failures[0].Sink)
	assert.Contains(t, failures[0].Error(), "broker gone")
}

type slowSink struct{}

func (slowSink) Reachable() bool { return true }
func (slowSink) Publish(ctx context.Context, topic string, payload []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestPublisherTimeout(t *testing.T) {
	t.Parallel()

	p := NewPublisher(log2.NewTest(t, log2.LDebug), PublisherConfig{Timeout: 20 * time.Millisecond}, slowSink{}, nil)
	tbegin := time.Now()
	assert.Equal(t, 0, p.Publish(context.Background(), testStatus(false), true))
	assert.Less(t, time.Since(tbegin), time.Second)
}

func TestInflux(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var lines []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/write" {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		lines = append(lines, string(b))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	influx, err := NewInflux(InfluxConfig{URL: srv.URL, Token: "t", Org: "o", Bucket: "b", Measurement: "water", Timeout: time.Second})
	require.NoError(t, err)
	defer influx.Close()

	sink := NewMockSink()
	p := NewPublisher(log2.NewTest(t, log2.LDebug), PublisherConfig{Topic: "s"}, sink, influx)
	assert.Equal(t, 2, p.Publish(context.Background(), testStatus(true), true))
	assert.Equal(t, 1, p.Publish(context.Background(), testStatus(false), true), "no reading, no point")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lines, 1)
	line := lines[0]
	assert.True(t, strings.HasPrefix(line, "water,address=C0:00:00:01:4A:2B,name=BLE-YC01,node=pool-3 "), line)
	assert.Contains(t, line, "ph=7.1")
	assert.Contains(t, line, "rssi=-61i")

	_, err = NewInflux(InfluxConfig{})
	assert.Error(t, err)
}

func TestInfluxTimeout(t *testing.T) {
	t.Parallel()

	influx, err := NewInflux(InfluxConfig{URL: "http://127.0.0.1:1", Bucket: "b", Timeout: 300 * time.Millisecond})
	require.NoError(t, err)
	defer influx.Close()
	assert.Equal(t, uint(1), influx.client.Options().HTTPRequestTimeout())

	assert.Equal(t, uint(0), timeoutSeconds(0))
	assert.Equal(t, uint(1), timeoutSeconds(time.Second))
	assert.Equal(t, uint(2), timeoutSeconds(1001*time.Millisecond))
}

func TestNoop(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Noop.Publish(context.Background(), "t", nil))
	assert.False(t, Noop.Reachable())
}
