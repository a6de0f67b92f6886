package network

import (
	"context"
	"sync/atomic"
	"time"
)

// Unmanaged stands in for Supervisor when host network is configured elsewhere.
// It is always Connected and never restarts anything.
type Unmanaged struct {
	since atomic.Value // time.Time
}

func (self *Unmanaged) Start(ctx context.Context, now time.Time) { self.since.Store(now) }
func (self *Unmanaged) Tick(ctx context.Context, now time.Time)  {}
func (self *Unmanaged) State() State                             { return StateConnected }
func (self *Unmanaged) Usable() bool                             { return true }
func (self *Unmanaged) MaxTickDuration() time.Duration           { return 0 }

func (self *Unmanaged) Projection() Projection {
	since, _ := self.since.Load().(time.Time)
	return Projection{State: StateConnected.String(), Since: since, Usable: true}
}
