package persist

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/yc01-bridge/log2"
)

type counter struct{ n byte }

func (self *counter) MarshalBinary() ([]byte, error) { return []byte{self.n}, nil }
func (self *counter) UnmarshalBinary(b []byte) error {
	if len(b) != 1 {
		return errors.NotValidf("counter length=%d", len(b))
	}
	self.n = b[0]
	return nil
}

func TestPersist(t *testing.T) {
	t.Parallel()

	log := log2.NewTest(t, log2.LDebug)
	root := t.TempDir()
	c := &counter{}
	p := New(log, "counter", c, root)
	assert.True(t, p.Enabled())

	found, err := p.Load()
	require.NoError(t, err)
	assert.False(t, found)

	c.n = 42
	require.NoError(t, p.Store())

	c2 := &counter{}
	found, err = New(log, "counter", c2, root).Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, byte(42), c2.n)
}

func TestPersistDisabled(t *testing.T) {
	t.Parallel()

	p := New(log2.NewTest(t, log2.LDebug), "counter", &counter{n: 1}, "")
	assert.False(t, p.Enabled())
	found, err := p.Load()
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, p.Store())
}
