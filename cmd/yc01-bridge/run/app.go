package run

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/cmd/yc01-bridge/subcmd"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/hardware/indicator"
	"github.com/temoto/yc01-bridge/hardware/yc01"
	"github.com/temoto/yc01-bridge/helpers"
	"github.com/temoto/yc01-bridge/internal/history"
	"github.com/temoto/yc01-bridge/internal/metrics"
	"github.com/temoto/yc01-bridge/internal/network"
	"github.com/temoto/yc01-bridge/internal/node"
	"github.com/temoto/yc01-bridge/internal/state"
	"github.com/temoto/yc01-bridge/internal/tele"
	"github.com/temoto/yc01-bridge/log2"
)

// app is everything a running node owns, built from config.
type app struct {
	g         *state.Global
	node      *node.Node
	metrics   *metrics.Metrics
	indicator *indicator.Indicator
	closers   []io.Closer
	stops     []func()
	restart   int32
}

func logLevel(debug bool) log2.Level {
	if debug {
		return log2.LDebug
	}
	return log2.LInfo
}

func build(g *state.Global) (*app, error) {
	config := g.Config
	self := &app{g: g, metrics: metrics.New()}
	g.Log.SetErrorFunc(self.metrics.ErrorFunc())

	bleLog := g.Log.Clone(logLevel(config.Hardware.BLE.LogDebug))
	radio, err := ble.NewBluez(bleLog, config.Hardware.BLE.Adapter)
	if err != nil {
		return nil, errors.Annotate(err, "ble")
	}
	self.closers = append(self.closers, radio)

	acquireLog := g.Log.Clone(logLevel(config.Acquire.LogDebug))
	discovery := yc01.NewDiscovery(acquireLog, radio, config.Acquire.ScanTimeout())
	session := yc01.NewSession(acquireLog, radio, yc01.SessionConfig{
		LinkTimeout: config.Acquire.LinkTimeout(),
		RetryDelay:  config.Acquire.RetryDelay(),
		OnAttempt:   self.metrics.ObserveAttempt,
	})

	conn, err := self.connectivity()
	if err != nil {
		self.Close()
		return nil, errors.Annotate(err, "network")
	}

	publisher, err := self.publisher()
	if err != nil {
		self.Close()
		return nil, errors.Annotate(err, "tele")
	}

	deps := node.Deps{
		Discovery:    discovery,
		Session:      session,
		Target:       g.Target,
		Connectivity: conn,
		Publisher:    publisher,
		Metrics:      self.metrics,
		Notify:       func(s string) { subcmd.SdNotify(s) },
	}
	if config.History.Enable {
		h, err := history.Open(g.Log, config.History.Path, config.History.Retention())
		if err != nil {
			self.Close()
			return nil, errors.Annotate(err, "history")
		}
		self.closers = append(self.closers, h)
		deps.History = h
	}
	if hc := config.Hardware.Indicator; hc.Enable {
		ind, err := indicator.Open(g.Log, hc.PinChip, hc.LEDPin, hc.ButtonPin)
		if err != nil {
			// probe reading works without LED and button
			g.Error(err, "indicator")
		} else {
			self.indicator = ind
			self.closers = append(self.closers, ind)
			deps.Activity = ind
		}
	}

	self.node, err = node.New(acquireLog, node.Config{
		Name:        config.Name,
		Version:     g.BuildVersion,
		Interval:    config.Acquire.Interval(),
		RetryMargin: config.Acquire.RetryMargin(),
		Tick:        config.Acquire.Tick(),
		ReadNowMin:  config.Acquire.ReadNowMin(),
	}, deps)
	if err != nil {
		self.Close()
		return nil, errors.Trace(err)
	}
	return self, nil
}

func (self *app) connectivity() (node.Connectivity, error) {
	nc := &self.g.Config.Network
	if !nc.Enable {
		return &network.Unmanaged{}, nil
	}
	log := self.g.Log.Clone(logLevel(nc.LogDebug))
	dns, err := network.NewDNSResponder(log, nc.DNSListen, nc.PortalIP())
	if err != nil {
		return nil, errors.Trace(err)
	}
	restarter, err := network.NewRestarter(log, nc.Restart, self.requestRestart)
	if err != nil {
		return nil, errors.Trace(err)
	}
	sup := network.NewSupervisor(log, network.Config{
		WifiSSID:          nc.WifiSSID,
		WifiPassword:      nc.WifiPassword,
		PortalSSID:        nc.PortalSSID,
		PortalPassword:    nc.PortalPassword,
		JoinTimeout:       helpers.IntSecondDefault(nc.JoinTimeoutSec, network.DefaultJoinTimeout),
		FallbackTimeout:   helpers.IntSecondDefault(nc.FallbackTimeoutSec, network.DefaultFallbackTimeout),
		FallbackExtend:    helpers.IntSecondDefault(nc.FallbackExtendSec, network.DefaultFallbackExtend),
		DisconnectTimeout: helpers.IntSecondDefault(nc.DisconnectTimeoutSec, network.DefaultDisconnectTimeout),
		QRPath:            nc.QRPath,
	}, network.NewNMCLI(log, nc.Interface, nc.PortalAddress), dns, restarter)
	sup.SetOnState(self.metrics.ObserveNetworkState)
	return sup, nil
}

func (self *app) publisher() (*tele.Publisher, error) {
	config := self.g.Config
	var sink tele.Sink = tele.Noop
	if tc := config.Tele; tc.Enable {
		m, err := tele.NewMQTT(self.g.Log.Clone(logLevel(tc.LogDebug)), tele.MQTTConfig{
			Broker:   tc.Broker,
			ClientID: tc.ClientID,
			Username: tc.Username,
			Password: tc.Password,
			Topic:    tc.Topic,
			QoS:      byte(tc.QoS),
			LogDebug: tc.LogDebug,
		})
		if err != nil {
			return nil, errors.Trace(err)
		}
		self.stops = append(self.stops, m.Close)
		sink = m
	}
	var recorder tele.Recorder
	if ic := config.Influx; ic.Enable {
		influx, err := tele.NewInflux(tele.InfluxConfig{
			URL:         ic.URL,
			Token:       ic.Token,
			Org:         ic.Org,
			Bucket:      ic.Bucket,
			Measurement: ic.Measurement,
			Timeout:     ic.Timeout(),
		})
		if err != nil {
			return nil, errors.Trace(err)
		}
		self.stops = append(self.stops, influx.Close)
		recorder = influx
	}
	p := tele.NewPublisher(self.g.Log, tele.PublisherConfig{
		Topic:   config.Tele.Topic,
		Format:  config.Tele.Format,
		Timeout: config.Tele.Timeout(),
	}, sink, recorder)
	p.OnError = self.metrics.ObserveDeliveryError
	return p, nil
}

// start runs node and its helpers until g.Alive is stopped.
func (self *app) start(ctx context.Context) error {
	g := self.g
	if listen := g.Config.Metrics.Listen; listen != "" {
		if _, err := self.metrics.Serve(ctx, g.Log, listen); err != nil {
			return errors.Trace(err)
		}
	}
	if self.indicator != nil && g.Alive.Add(1) {
		go func() {
			defer g.Alive.Done()
			self.indicator.Run(g.Alive, func() { self.node.Submit(node.ReadNow{}) })
		}()
	}
	if !g.Alive.Add(1) {
		return errors.New("stopped before start")
	}
	go func() {
		defer g.Alive.Done()
		self.node.Run(ctx, g.Alive)
	}()
	return nil
}

// requestRestart stops the process with failure status, service manager starts it again.
func (self *app) requestRestart() {
	atomic.StoreInt32(&self.restart, 1)
	self.g.Stop()
}

func (self *app) restartRequested() bool { return atomic.LoadInt32(&self.restart) == 1 }

func (self *app) Close() error {
	for _, stop := range self.stops {
		stop()
	}
	errs := make([]error, 0, len(self.closers))
	for i := len(self.closers) - 1; i >= 0; i-- {
		errs = append(errs, self.closers[i].Close())
	}
	return helpers.FoldErrors(errs)
}
