package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/log2"
)

func TestTargetStore(t *testing.T) {
	t.Parallel()

	log := log2.NewTest(t, log2.LDebug)
	root := t.TempDir()
	const configured ble.Address = "C0:00:00:01:4A:2B"

	ts, err := NewTargetStore(log, configured, root)
	require.NoError(t, err)
	assert.Equal(t, configured, ts.Target())

	require.NoError(t, ts.PersistTarget("C0:00:00:01:4A:FF"))
	assert.Equal(t, ble.Address("C0:00:00:01:4A:FF"), ts.Target())

	// reload: persisted wins over config
	ts, err = NewTargetStore(log, configured, root)
	require.NoError(t, err)
	assert.Equal(t, ble.Address("C0:00:00:01:4A:FF"), ts.Target())

	// cleared record also wins
	require.NoError(t, ts.ClearTarget())
	assert.True(t, ts.Target().IsZero())
	ts, err = NewTargetStore(log, configured, root)
	require.NoError(t, err)
	assert.True(t, ts.Target().IsZero())
}

func TestTargetStoreMemory(t *testing.T) {
	t.Parallel()

	ts, err := NewTargetStore(log2.NewTest(t, log2.LDebug), "", "")
	require.NoError(t, err)
	assert.True(t, ts.Target().IsZero())
	require.NoError(t, ts.PersistTarget("aa:bb:cc:dd:ee:ff"))
	assert.Equal(t, ble.Address("aa:bb:cc:dd:ee:ff"), ts.Target())
	assert.Error(t, ts.PersistTarget(ble.Address(make([]byte, 100))))
}

func TestTargetRecord(t *testing.T) {
	t.Parallel()

	ts := &TargetStore{stored: "aa:bb"}
	b, err := ts.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, b, targetRecordSize)

	other := &TargetStore{}
	require.NoError(t, other.UnmarshalBinary(b))
	assert.Equal(t, ble.Address("aa:bb"), other.stored)

	assert.Error(t, other.UnmarshalBinary([]byte{targetRecordVersion, 5}))
	b[0] = 9
	assert.Error(t, other.UnmarshalBinary(b))
}
