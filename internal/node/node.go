// Package node is the acquisition control loop.
// One goroutine runs connectivity supervisor, command queue and acquisition
// cycles sequentially, other goroutines only read Status or Submit commands.
package node

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/hardware/yc01"
	"github.com/temoto/yc01-bridge/helpers/atomic_clock"
	"github.com/temoto/yc01-bridge/internal/metrics"
	"github.com/temoto/yc01-bridge/internal/network"
	"github.com/temoto/yc01-bridge/internal/tele"
	"github.com/temoto/yc01-bridge/log2"
	"golang.org/x/time/rate"
)

const (
	DefaultInterval    = 900 * time.Second
	DefaultRetryMargin = 600 * time.Second
	DefaultTick        = time.Second
	historyTimeout     = 2 * time.Second
)

type Config struct {
	Name    string
	Version string
	// success -> next cycle after Interval exactly
	Interval time.Duration
	// failure -> next cycle after Interval-RetryMargin
	RetryMargin time.Duration
	Tick        time.Duration
	// minimal period between forced cycles
	ReadNowMin time.Duration
}

type TargetStore interface {
	Target() ble.Address
	PersistTarget(ble.Address) error
	ClearTarget() error
}

// Connectivity is network.Supervisor seen by the control loop.
type Connectivity interface {
	Start(ctx context.Context, now time.Time)
	Tick(ctx context.Context, now time.Time)
	State() network.State
	Usable() bool
	Projection() network.Projection
	MaxTickDuration() time.Duration
}

type HistoryRecorder interface {
	Record(ctx context.Context, s *tele.Status) error
}

type Activity interface {
	SetActive(on bool)
}

// Deps are collaborators, Discovery Session Target Connectivity Publisher are required.
type Deps struct {
	Discovery    *yc01.Discovery
	Session      *yc01.Session
	Target       TargetStore
	Connectivity Connectivity
	Publisher    *tele.Publisher
	History      HistoryRecorder  // optional
	Metrics      *metrics.Metrics // optional
	Activity     Activity         // optional
	// optional, receives sd_notify strings like WATCHDOG=1
	Notify func(string)
}

type Node struct {
	config Config
	log    *log2.Log
	deps   Deps
	now    func() time.Time

	commands       chan Command
	readNowLimit   *rate.Limiter
	pendingRescan  bool
	pendingReadNow bool
	cycle          uint64
	nextCycle      time.Time

	status   atomic.Value // *tele.Status
	lastTick atomic_clock.Clock
}

func New(log *log2.Log, config Config, deps Deps) (*Node, error) {
	if deps.Discovery == nil || deps.Session == nil || deps.Target == nil || deps.Connectivity == nil || deps.Publisher == nil {
		return nil, errors.NotValidf("node deps incomplete")
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.RetryMargin == 0 {
		config.RetryMargin = DefaultRetryMargin
	}
	if config.RetryMargin <= 0 || config.RetryMargin >= config.Interval {
		config.RetryMargin = config.Interval / 2
	}
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	self := &Node{
		config:       config,
		log:          log,
		deps:         deps,
		now:          time.Now,
		commands:     make(chan Command, commandQueue),
		readNowLimit: newReadNowLimiter(config.ReadNowMin),
	}
	self.status.Store(&tele.Status{
		Node:    config.Name,
		Version: config.Version,
		Outcome: tele.OutcomePending,
	})
	return self, nil
}

// Status is last snapshot, must not be modified.
func (self *Node) Status() *tele.Status {
	s, _ := self.status.Load().(*tele.Status)
	return s
}

// LastTick is UTC time of last control loop iteration, zero before Run.
func (self *Node) LastTick() time.Time {
	if t := self.lastTick.Time(); !t.IsZero() {
		return t.UTC()
	}
	return time.Time{}
}

// MaxCycleDuration is worst case blocking time of one tick with a cycle.
func (self *Node) MaxCycleDuration() time.Duration {
	d := self.deps.Connectivity.MaxTickDuration() +
		self.deps.Discovery.MaxDuration() +
		self.deps.Session.MaxDuration() +
		self.deps.Publisher.MaxDuration()
	if self.deps.History != nil {
		d += historyTimeout
	}
	return d
}

// ValidateWatchdog budget=0 means no watchdog.
func (self *Node) ValidateWatchdog(budget time.Duration) error {
	if budget <= 0 {
		return nil
	}
	if d := self.MaxCycleDuration(); d >= budget {
		return errors.NotValidf("worst case cycle=%v watchdog=%v", d, budget)
	}
	if self.config.Tick >= budget {
		return errors.NotValidf("tick=%v watchdog=%v", self.config.Tick, budget)
	}
	return nil
}

// Run blocks until a is stopped or ctx is done.
func (self *Node) Run(ctx context.Context, a *alive.Alive) {
	self.deps.Connectivity.Start(ctx, self.now())
	ticker := time.NewTicker(self.config.Tick)
	defer ticker.Stop()
	stopCh := a.StopChan()
	for {
		self.Tick(ctx, self.now())
		select {
		case <-ticker.C:
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Tick is one control loop iteration.
func (self *Node) Tick(ctx context.Context, now time.Time) {
	self.notify("WATCHDOG=1")
	self.lastTick.SetTime(now)
	self.deps.Connectivity.Tick(ctx, now)
	self.deps.Metrics.ObserveNetworkState(self.deps.Connectivity.State())
	self.drainCommands(now)
	if !now.Before(self.nextCycle) {
		self.RunCycle(ctx, now)
	}
}

func (self *Node) notify(s string) {
	if self.deps.Notify != nil {
		self.deps.Notify(s)
	}
}
