package state

import (
	"bytes"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/temoto/yc01-bridge/log2"
)

func TestGlobalError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, g := NewContext(log2.NewWriter(&buf, log2.LDebug))
	var reported error
	g.Log.SetErrorFunc(func(e error) { reported = e })

	g.Error(nil)
	assert.Equal(t, "", buf.String())

	g.Error(errors.New("nmcli: signal 100%d"), "network op=%s", "status")
	assert.Contains(t, buf.String(), "network op=status: nmcli: signal 100%d")
	assert.NotContains(t, buf.String(), "%!d")
	assert.EqualError(t, reported, "network op=status: nmcli: signal 100%d")
}
