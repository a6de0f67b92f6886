package yc01

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/log2"
)

func TestDiscoveryScan(t *testing.T) {
	t.Parallel()

	radio := ble.NewMockRadio()
	probe := func(addr ble.Address, name string) ble.Advertisement {
		return ble.Advertisement{
			Identity: ble.Identity{Address: addr, Name: name},
			Services: []ble.UUID{"0000FF01-0000-1000-8000-00805F9B34FB"},
		}
	}
	radio.SetAdverts(
		ble.Advertisement{Identity: ble.Identity{Address: "11:11:11:11:11:11", Name: "headphones"}},
		probe("22:22:22:22:22:22", "BLE-YC01"),
		probe("33:33:33:33:33:33", ""),
		probe("22:22:22:22:22:22", "BLE-YC01"),
	)
	d := NewDiscovery(log2.NewTest(t, log2.LDebug), radio, 0)

	ids := d.Scan(context.Background())
	assert.Equal(t, []ble.Identity{
		{Address: "22:22:22:22:22:22", Name: "BLE-YC01"},
		{Address: "33:33:33:33:33:33"},
	}, ids)

	id, ok := FindTarget(ids, "33:33:33:33:33:33")
	assert.True(t, ok)
	assert.Equal(t, ble.Address("33:33:33:33:33:33"), id.Address)
	_, ok = FindTarget(ids, "44:44:44:44:44:44")
	assert.False(t, ok)
}

func TestDiscoveryScanErrorIsEmpty(t *testing.T) {
	t.Parallel()

	radio := ble.NewMockRadio()
	radio.SetScanError(errors.New("adapter not ready"))
	d := NewDiscovery(log2.NewTest(t, log2.LDebug), radio, 0)
	assert.Empty(t, d.Scan(context.Background()))
	assert.Equal(t, 1, radio.Scans())
}
