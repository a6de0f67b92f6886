package node

import (
	"time"

	"golang.org/x/time/rate"
)

const commandQueue = 16

// Command is closed set: Rescan | ReadNow.
// Applied by control loop at next tick, duplicates collapse.
type Command interface {
	command()
	String() string
}

// Rescan forgets pinned sensor, next cycle binds to the first one found.
type Rescan struct{}

// ReadNow starts cycle at next tick, rate limited.
type ReadNow struct{}

func (Rescan) command()        {}
func (Rescan) String() string  { return "rescan" }
func (ReadNow) command()       {}
func (ReadNow) String() string { return "read-now" }

func ParseCommand(s string) (Command, bool) {
	switch s {
	case "rescan":
		return Rescan{}, true
	case "read-now", "read":
		return ReadNow{}, true
	}
	return nil, false
}

// Submit never blocks, returns false when queue is full.
func (self *Node) Submit(c Command) bool {
	select {
	case self.commands <- c:
		return true
	default:
		self.log.Errorf("node command=%s dropped, queue full", c)
		return false
	}
}

func newReadNowLimiter(min time.Duration) *rate.Limiter {
	if min <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(min), 1)
}

// drainCommands is called from control loop only.
func (self *Node) drainCommands(now time.Time) {
	for {
		select {
		case c := <-self.commands:
			self.log.Debugf("node command=%s", c)
			switch c.(type) {
			case Rescan:
				self.pendingRescan = true
			case ReadNow:
				self.pendingReadNow = true
			}
		default:
			if self.pendingReadNow && now.Before(self.nextCycle) && self.readNowLimit.AllowN(now, 1) {
				self.log.Infof("node read-now, cycle moved from %s", self.nextCycle.Format(time.RFC3339))
				self.nextCycle = now
			}
			return
		}
	}
}
