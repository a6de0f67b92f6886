package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/hardware/yc01"
	"github.com/temoto/yc01-bridge/internal/network"
	"github.com/temoto/yc01-bridge/internal/node"
	"github.com/temoto/yc01-bridge/internal/state"
	"github.com/temoto/yc01-bridge/internal/tele"
)

func newTestApp(t *testing.T) *app {
	_, g := state.NewTestContext(t, `name = "pool-3"`)
	radio := ble.NewMockRadio()
	n, err := node.New(g.Log, node.Config{Name: g.Config.Name, Interval: time.Minute}, node.Deps{
		Discovery:    yc01.NewDiscovery(g.Log, radio, time.Millisecond),
		Session:      yc01.NewSession(g.Log, radio, yc01.SessionConfig{LinkTimeout: time.Second, RetryDelay: time.Millisecond}),
		Target:       g.Target,
		Connectivity: &network.Unmanaged{},
		Publisher:    tele.NewPublisher(g.Log, tele.PublisherConfig{Topic: "yc01/pool-3/status"}, tele.NewMockSink(), nil),
	})
	require.NoError(t, err)
	return &app{g: g, node: n}
}

func TestExecutor(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	exec := newExecutor(a)
	exec("")
	exec("bogus")
	exec("rescan")
	exec("read-now")
	assert.True(t, a.g.Alive.IsRunning())

	exec("quit")
	assert.False(t, a.g.Alive.IsRunning())
	assert.False(t, a.restartRequested())
}

func TestRequestRestart(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	a.requestRestart()
	assert.True(t, a.restartRequested())
	assert.False(t, a.g.Alive.IsRunning())
	assert.NoError(t, a.Close())
}
