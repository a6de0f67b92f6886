package network

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWifiQRContent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "WIFI:T:nopass;S:YC01-Portal;;", WifiQRContent("YC01-Portal", ""))
	assert.Equal(t, `WIFI:T:WPA;S:pool\;side;P:a\:b\\c;;`, WifiQRContent("pool;side", `a:b\c`))
}

func TestWritePortalQR(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "portal.png")
	require.NoError(t, WritePortalQR(path, 0, "YC01-Portal", "password1"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(b[:4]))

	assert.Error(t, WritePortalQR(filepath.Join(t.TempDir(), "missing", "portal.png"), 0, "x", ""))
}
