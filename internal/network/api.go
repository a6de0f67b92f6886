// Package network keeps the node reachable:
// infrastructure Wi-Fi when possible, local portal with captive DNS otherwise,
// restart when neither works out.
package network

import (
	"context"
	"fmt"
)

//go:generate mockgen -source=api.go -destination=mock_network.go -package=network

type LinkStatus int

const (
	StatusJoining LinkStatus = iota
	StatusConnected
)

// Network is the host network primitive.
// Every call must return within ctx deadline.
type Network interface {
	JoinInfrastructure(ctx context.Context, ssid, password string) error
	Status(ctx context.Context) (LinkStatus, error)
	HostFallback(ctx context.Context, ssid, password string) error
	AttachedClientCount(ctx context.Context) (int, error)
	Disconnect(ctx context.Context) error
	RadioOff(ctx context.Context) error
}

// Captive answers name queries while portal is hosted.
// ServeOnce must not block longer than a few milliseconds.
type Captive interface {
	Start() error
	ServeOnce()
	Close() error
}

type Restarter interface {
	Restart(reason string) error
}

// ConnectivityFault never leaves Supervisor, it is only logged.
type ConnectivityFault struct {
	Op    string
	State State
	Err   error
}

func (f *ConnectivityFault) Error() string {
	return fmt.Sprintf("connectivity fault state=%s op=%s: %v", f.State, f.Op, f.Err)
}

func (f *ConnectivityFault) Unwrap() error { return f.Err }
