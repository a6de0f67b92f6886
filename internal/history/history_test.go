package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/hardware/yc01"
	"github.com/temoto/yc01-bridge/internal/tele"
	"github.com/temoto/yc01-bridge/log2"
)

func TestHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "history.sqlite")
	h, err := Open(log2.NewTest(t, log2.LDebug), path, 48*time.Hour)
	require.NoError(t, err)
	defer h.Close()

	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	device := &ble.Identity{Address: "C0:00:00:01:4A:2B", Name: "BLE-YC01"}
	statuses := []*tele.Status{
		{Node: "n", Cycle: 1, Time: t0, Outcome: tele.OutcomeFailure, Message: tele.MessageFailure, Device: device},
		{Node: "n", Cycle: 2, Time: t0.Add(24 * time.Hour), Outcome: tele.OutcomeNoMatch, Message: tele.MessageNoMatch},
		{Node: "n", Cycle: 3, Time: t0.Add(72 * time.Hour), Outcome: tele.OutcomeSuccess, Device: device,
			Reading: &yc01.Reading{Type: 1, Time: t0.Add(72 * time.Hour), RSSI: -70, PH: 7.05, EC: 1000, Salt: 550, Temperature: 21.5}},
	}
	for _, s := range statuses {
		require.NoError(t, h.Record(ctx, s))
	}

	entries, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2, "cycle 1 pruned by retention")
	assert.Equal(t, uint64(3), entries[0].Cycle)
	assert.Equal(t, uint64(2), entries[1].Cycle)
	require.NotNil(t, entries[0].Reading)
	assert.Equal(t, 7.05, entries[0].Reading.PH)
	assert.Equal(t, -70, entries[0].Reading.RSSI)
	assert.True(t, entries[0].Reading.Time.Equal(t0.Add(72*time.Hour)))
	assert.Equal(t, device.Address, entries[0].Device.Address)
	assert.Nil(t, entries[1].Reading)
	assert.Nil(t, entries[1].Device)
	assert.Equal(t, tele.MessageNoMatch, entries[1].Message)

	entries, err = h.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
