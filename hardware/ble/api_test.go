package ble

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, Address("c0:00:00:01:4a:2b").Equal("C0:00:00:01:4A:2B"))
	assert.False(t, Address("c0:00:00:01:4a:2b").Equal("C0:00:00:01:4A:2C"))
	assert.True(t, Address("").IsZero())
	assert.Equal(t, "YC01(C0:00:00:01:4A:2B)", Identity{Address: "C0:00:00:01:4A:2B", Name: "YC01"}.String())
}

func TestShortUUID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, UUID("00001800-0000-1000-8000-00805f9b34fb"), GAPService)
	assert.True(t, DeviceNameChar.Equal("00002A00-0000-1000-8000-00805F9B34FB"))
	ad := Advertisement{Services: []UUID{"0000FF01-0000-1000-8000-00805F9B34FB"}}
	assert.True(t, ad.Advertises(ShortUUID(0xff01)))
	assert.False(t, ad.Advertises(ShortUUID(0xff02)))
}

func TestMockRadio(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewMockRadio()
	d := &MockDevice{
		OpenFailures: 1,
		RSSI:         -61,
		Values:       map[MockChar][][]byte{{Service: GAPService, Char: DeviceNameChar}: {[]byte("a"), []byte("b")}},
	}
	r.AddDevice("AA:BB:CC:DD:EE:FF", d)

	_, err := r.Open(ctx, "aa:bb:cc:dd:ee:ff")
	require.Error(t, err)
	link, err := r.Open(ctx, "aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	assert.Equal(t, -61, link.SignalQuality())
	for _, expect := range []string{"a", "b", "b"} {
		v, err := link.ReadCharacteristic(ctx, GAPService, DeviceNameChar)
		require.NoError(t, err)
		assert.Equal(t, expect, string(v))
	}
	_, err = link.ReadCharacteristic(ctx, GAPService, ShortUUID(0x2a01))
	assert.True(t, errors.IsNotFound(err))
	_, err = link.ReadCharacteristic(ctx, ShortUUID(0xff01), DeviceNameChar)
	assert.True(t, errors.IsNotFound(err), "same char under other service")
	require.NoError(t, link.Close())
	assert.Error(t, link.Close())
	assert.Equal(t, 2, d.Opens())
	assert.Equal(t, 1, d.Closes())

	_, err = r.Open(ctx, "11:22:33:44:55:66")
	assert.Error(t, err)
}
