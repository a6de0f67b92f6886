package history

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/hardware/yc01"
	history_api "github.com/temoto/yc01-bridge/internal/history"
)

func TestPrint(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)
	entries := []history_api.Entry{
		{Time: t0.Add(time.Hour), Cycle: 2, Outcome: "success",
			Device:  &ble.Identity{Address: "C0:00:00:01:4A:2B"},
			Reading: &yc01.Reading{PH: 7.2}},
		{Time: t0, Cycle: 1, Outcome: "no-match", Message: "no matching device found"},
	}
	var buf bytes.Buffer
	Print(&buf, entries)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Contains(t, lines[0], "cycle=1 outcome=no-match device=- no matching device found")
		assert.Contains(t, lines[1], "cycle=2 outcome=success device=C0:00:00:01:4A:2B type=0 pH=7.20")
	}
}
