// Package run is the node service and its interactive console variant.
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/cmd/yc01-bridge/subcmd"
	"github.com/temoto/yc01-bridge/helpers/cli"
	"github.com/temoto/yc01-bridge/internal/node"
	"github.com/temoto/yc01-bridge/internal/state"
)

var Mod = subcmd.Mod{Name: "run", Short: "acquire readings and publish status, service mode", Main: Main}
var ConsoleMod = subcmd.Mod{Name: "console", Short: "run node with interactive command prompt", Main: ConsoleMain}

var ErrRestart = errors.New("restart requested")

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	a, err := prepare(ctx, g, config)
	if err != nil {
		return err
	}
	defer a.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	go func() {
		select {
		case s := <-signalCh:
			g.Log.Infof("signal=%v stopping", s)
			g.Stop()
		case <-g.Alive.StopChan():
		}
	}()

	return serve(ctx, a)
}

func ConsoleMain(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	a, err := prepare(ctx, g, config)
	if err != nil {
		return err
	}
	defer a.Close()

	go func() {
		cli.MainLoop("yc01-bridge", newExecutor(a), cli.Suggest(suggests), g.Stop)
		g.Stop()
	}()
	return serve(ctx, a)
}

func prepare(ctx context.Context, g *state.Global, config *state.Config) (*app, error) {
	g.MustInit(ctx, config)
	g.Log.Debugf("config=%+v", g.Config)

	a, err := build(g)
	if err != nil {
		return nil, errors.Annotate(err, "build")
	}
	watchdog, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		g.Error(err, "watchdog")
	}
	if err = a.node.ValidateWatchdog(watchdog); err != nil {
		a.Close()
		return nil, errors.Annotate(err, "systemd WatchdogSec too short")
	}
	if watchdog != 0 {
		g.Log.Infof("watchdog=%v worst cycle=%v", watchdog, a.node.MaxCycleDuration())
	}
	return a, nil
}

func serve(ctx context.Context, a *app) error {
	g := a.g
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := a.start(ctx); err != nil {
		return errors.Annotate(err, "start")
	}
	subcmd.SdNotify(daemon.SdNotifyReady)
	g.Log.Infof("node=%s running", g.Config.Name)

	<-g.Alive.StopChan()
	subcmd.SdNotify(daemon.SdNotifyStopping)
	cancel()
	g.Alive.Wait()
	if a.restartRequested() {
		return ErrRestart
	}
	return nil
}

var suggests = []prompt.Suggest{
	{Text: "status", Description: "print last status document"},
	{Text: "read-now", Description: "start acquisition cycle at next tick"},
	{Text: "rescan", Description: "forget pinned sensor, bind to first found"},
	{Text: "quit"},
}

func newExecutor(a *app) func(string) {
	g := a.g
	return func(line string) {
		switch line {
		case "":
			return
		case "status":
			b, err := json.MarshalIndent(a.node.Status(), "", "  ")
			if err != nil {
				g.Error(err, "status")
				return
			}
			fmt.Println(string(b))
			return
		case "quit", "exit":
			g.Stop()
			return
		}
		c, ok := node.ParseCommand(line)
		if !ok {
			g.Log.Errorf("unknown command=%s", line)
			return
		}
		if a.node.Submit(c) {
			g.Log.Infof("command=%s accepted", c)
		}
	}
}
