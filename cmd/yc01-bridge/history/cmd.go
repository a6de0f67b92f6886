// Package history prints recent acquisition cycles from local log.
package history

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/cmd/yc01-bridge/subcmd"
	history_api "github.com/temoto/yc01-bridge/internal/history"
	"github.com/temoto/yc01-bridge/internal/state"
)

const recentLimit = 50

var Mod = subcmd.Mod{Name: "history", Short: "print recent acquisition cycles", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	if err := config.Validate(g.Log); err != nil {
		return errors.Annotate(err, "config")
	}
	h, err := history_api.Open(g.Log, config.History.Path, 0)
	if err != nil {
		return errors.Trace(err)
	}
	defer h.Close()

	entries, err := h.Recent(ctx, recentLimit)
	if err != nil {
		return errors.Trace(err)
	}
	Print(os.Stdout, entries)
	return nil
}

// Print writes entries oldest first, one line each.
func Print(w io.Writer, entries []history_api.Entry) {
	for i := len(entries) - 1; i >= 0; i-- {
		e := &entries[i]
		device := "-"
		if e.Device != nil {
			device = e.Device.String()
		}
		detail := e.Message
		if e.Reading != nil {
			detail = e.Reading.String()
		}
		fmt.Fprintf(w, "%s cycle=%d outcome=%s device=%s %s\n",
			e.Time.Local().Format(time.RFC3339), e.Cycle, e.Outcome, device, detail)
	}
}
