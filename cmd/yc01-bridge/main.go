package main

import (
	"context"
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/temoto/yc01-bridge/cmd/yc01-bridge/decode"
	"github.com/temoto/yc01-bridge/cmd/yc01-bridge/history"
	"github.com/temoto/yc01-bridge/cmd/yc01-bridge/run"
	"github.com/temoto/yc01-bridge/cmd/yc01-bridge/subcmd"
	"github.com/temoto/yc01-bridge/internal/state"
	"github.com/temoto/yc01-bridge/log2"
)

var BuildVersion string = "unknown" // set by ldflags -X

var log = log2.NewStderr(log2.LDebug)

var modules = []subcmd.Mod{
	run.Mod,
	run.ConsoleMod,
	decode.Mod,
	history.Mod,
}

func main() {
	flagConfig := "yc01-bridge.hcl"
	root := &cobra.Command{
		Use:     "yc01-bridge",
		Short:   "YC01 water quality probe to MQTT bridge",
		Version: BuildVersion,
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", flagConfig, "HCL config file")

	load := func() (context.Context, *state.Config, error) {
		if subcmd.SdNotify("start") {
			// under systemd, journal adds timestamps
			log.SetFlags(log2.LServiceFlags)
		} else {
			log.SetFlags(log2.LInteractiveFlags)
		}
		ctx, g := state.NewContext(log)
		g.BuildVersion = BuildVersion
		config, err := state.ReadConfig(log, state.NewOsFullReader(), flagConfig)
		return ctx, config, errors.Trace(err)
	}
	for _, m := range modules {
		root.AddCommand(subcmd.Command(m, load))
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.ErrorStack(err))
		os.Exit(1)
	}
}
