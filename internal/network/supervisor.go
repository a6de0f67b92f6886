package network

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/temoto/yc01-bridge/log2"
)

//go:generate stringer -type=State -trimprefix=State
type State int32

const (
	StateJoining State = iota
	StateConnected
	StateFallbackHosting
)

const (
	DefaultJoinTimeout       = 20 * time.Second
	DefaultFallbackTimeout   = 5 * time.Minute
	DefaultFallbackExtend    = 30 * time.Second
	DefaultDisconnectTimeout = 10 * time.Minute
	DefaultCallTimeout       = 5 * time.Second
)

type Config struct {
	WifiSSID       string
	WifiPassword   string
	PortalSSID     string
	PortalPassword string

	JoinTimeout       time.Duration
	FallbackTimeout   time.Duration
	FallbackExtend    time.Duration
	DisconnectTimeout time.Duration
	// bound for every single Network call
	CallTimeout time.Duration

	// optional, portal join QR code png written on entering fallback
	QRPath string
	QRSize int
}

// Projection is read-only view of supervisor for status document.
type Projection struct {
	State         string     `json:"state"`
	Since         time.Time  `json:"since"`
	LastConnected *time.Time `json:"last_connected,omitempty"`
	Usable        bool       `json:"usable"`
	Restarting    bool       `json:"restarting,omitempty"`
}

// Supervisor state machine. Tick is called from the single control loop,
// time is passed in as value. Only Projection() is safe to call concurrently.
//
//	Joining -> Connected         network reports connected
//	Joining -> FallbackHosting   JoinTimeout elapsed
//	FallbackHosting              deadline extended while clients attached, else restart
//	Connected                    lost longer than DisconnectTimeout -> restart
type Supervisor struct {
	config    Config
	log       *log2.Log
	net       Network
	captive   Captive
	restarter Restarter
	onState   func(State)

	state         State
	enteredAt     time.Time
	lastConnected time.Time
	lostAt        time.Time
	deadline      time.Time
	restarting    bool
	// set while last Restart failed, retried every Tick
	restartReason string

	projection atomic.Value // Projection
}

func NewSupervisor(log *log2.Log, config Config, net Network, captive Captive, restarter Restarter) *Supervisor {
	if config.JoinTimeout <= 0 {
		config.JoinTimeout = DefaultJoinTimeout
	}
	if config.FallbackTimeout <= 0 {
		config.FallbackTimeout = DefaultFallbackTimeout
	}
	if config.FallbackExtend <= 0 {
		config.FallbackExtend = DefaultFallbackExtend
	}
	if config.DisconnectTimeout <= 0 {
		config.DisconnectTimeout = DefaultDisconnectTimeout
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultCallTimeout
	}
	self := &Supervisor{
		config:    config,
		log:       log,
		net:       net,
		captive:   captive,
		restarter: restarter,
	}
	self.project()
	return self
}

// SetOnState f is called on every state entry.
func (self *Supervisor) SetOnState(f func(State)) { self.onState = f }

// MaxTickDuration is worst case Tick duration, entering fallback makes most calls.
func (self *Supervisor) MaxTickDuration() time.Duration { return 3 * self.config.CallTimeout }

func (self *Supervisor) State() State { return self.state }

// Usable reports whether delivery over network may be attempted now.
func (self *Supervisor) Usable() bool {
	return !self.restarting && self.state == StateConnected && self.lostAt.IsZero()
}

func (self *Supervisor) Projection() Projection {
	p, _ := self.projection.Load().(Projection)
	return p
}

// Start begins joining infrastructure network.
func (self *Supervisor) Start(ctx context.Context, now time.Time) {
	self.enter(StateJoining, now)
	self.log.Infof("network joining ssid=%s", self.config.WifiSSID)
	self.call(ctx, "join", func(ctx context.Context) error {
		return self.net.JoinInfrastructure(ctx, self.config.WifiSSID, self.config.WifiPassword)
	})
}

func (self *Supervisor) Tick(ctx context.Context, now time.Time) {
	if self.restarting {
		if self.restartReason != "" {
			self.requestRestart()
		}
		return
	}
	switch self.state {
	case StateJoining:
		if self.connected(ctx) {
			self.lastConnected = now
			self.lostAt = time.Time{}
			self.log.Infof("network connected after %v", now.Sub(self.enteredAt))
			self.enter(StateConnected, now)
			return
		}
		if now.Sub(self.enteredAt) >= self.config.JoinTimeout {
			self.enterFallback(ctx, now)
		}

	case StateConnected:
		if self.connected(ctx) {
			if !self.lostAt.IsZero() {
				self.log.Infof("network restored after %v", now.Sub(self.lostAt))
			}
			self.lastConnected = now
			self.lostAt = time.Time{}
			self.project()
			return
		}
		if self.lostAt.IsZero() {
			self.lostAt = now
			self.log.Errorf("network lost, restart after %v", self.config.DisconnectTimeout)
			self.project()
		}
		if now.Sub(self.lostAt) > self.config.DisconnectTimeout {
			self.restart(ctx, "network lost for "+now.Sub(self.lostAt).String())
		}

	case StateFallbackHosting:
		self.captive.ServeOnce()
		if now.Before(self.deadline) {
			return
		}
		var clients int
		self.call(ctx, "attached clients", func(ctx context.Context) (err error) {
			clients, err = self.net.AttachedClientCount(ctx)
			return err
		})
		if clients > 0 {
			self.deadline = now.Add(self.config.FallbackExtend)
			self.log.Infof("network portal clients=%d, extend until %s", clients, self.deadline.Format(time.RFC3339))
			return
		}
		self.restart(ctx, "portal timeout without clients")
	}
}

func (self *Supervisor) connected(ctx context.Context) bool {
	var status LinkStatus
	ok := self.call(ctx, "status", func(ctx context.Context) (err error) {
		status, err = self.net.Status(ctx)
		return err
	})
	return ok && status == StatusConnected
}

func (self *Supervisor) enterFallback(ctx context.Context, now time.Time) {
	self.log.Errorf("network join timeout %v, hosting portal ssid=%s", self.config.JoinTimeout, self.config.PortalSSID)
	self.call(ctx, "disconnect", self.net.Disconnect)
	self.call(ctx, "host fallback", func(ctx context.Context) error {
		return self.net.HostFallback(ctx, self.config.PortalSSID, self.config.PortalPassword)
	})
	if err := self.captive.Start(); err != nil {
		self.fault("captive start", err)
	}
	if self.config.QRPath != "" {
		if err := WritePortalQR(self.config.QRPath, self.config.QRSize, self.config.PortalSSID, self.config.PortalPassword); err != nil {
			self.fault("portal qr", err)
		}
	}
	self.deadline = now.Add(self.config.FallbackTimeout)
	self.enter(StateFallbackHosting, now)
}

func (self *Supervisor) restart(ctx context.Context, reason string) {
	self.log.Errorf("network restart reason=%s", reason)
	if self.state == StateFallbackHosting {
		if err := self.captive.Close(); err != nil {
			self.fault("captive close", err)
		}
	}
	self.call(ctx, "disconnect", self.net.Disconnect)
	self.call(ctx, "radio off", self.net.RadioOff)
	self.restarting = true
	self.restartReason = reason
	self.project()
	self.requestRestart()
}

func (self *Supervisor) requestRestart() {
	if err := self.restarter.Restart(self.restartReason); err != nil {
		self.fault("restart", err)
		return
	}
	self.restartReason = ""
}

func (self *Supervisor) enter(s State, now time.Time) {
	self.state = s
	self.enteredAt = now
	self.project()
	if self.onState != nil {
		self.onState(s)
	}
}

func (self *Supervisor) project() {
	p := Projection{
		State:      self.state.String(),
		Since:      self.enteredAt,
		Usable:     self.Usable(),
		Restarting: self.restarting,
	}
	if !self.lastConnected.IsZero() {
		t := self.lastConnected
		p.LastConnected = &t
	}
	self.projection.Store(p)
}

// call runs network primitive with timeout, failure is a logged fault.
func (self *Supervisor) call(ctx context.Context, op string, f func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, self.config.CallTimeout)
	defer cancel()
	if err := f(ctx); err != nil {
		self.fault(op, err)
		return false
	}
	return true
}

func (self *Supervisor) fault(op string, err error) {
	self.log.Error(&ConnectivityFault{Op: op, State: self.state, Err: err})
}
