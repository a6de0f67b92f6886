package node

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/hardware/yc01"
	"github.com/temoto/yc01-bridge/internal/tele"
)

// RunCycle is one acquisition: discover, read, snapshot, record, publish.
func (self *Node) RunCycle(ctx context.Context, now time.Time) *tele.Status {
	tbegin := time.Now()
	self.setActive(true)
	defer self.setActive(false)

	self.cycle++
	self.pendingReadNow = false
	if self.pendingRescan {
		self.pendingRescan = false
		if err := self.deps.Target.ClearTarget(); err != nil {
			self.log.Errorf("node rescan clear target err=%v", err)
		}
	}
	pinned := self.deps.Target.Target()

	s := &tele.Status{
		MessageID: uuid.New().String(),
		Node:      self.config.Name,
		Version:   self.config.Version,
		Cycle:     self.cycle,
		Time:      now.UTC(),
	}
	candidates := self.deps.Discovery.Scan(ctx)
	device, ok := self.choose(candidates, pinned)
	switch {
	case !ok:
		s.Outcome, s.Message = tele.OutcomeNoMatch, tele.MessageNoMatch
		self.log.Infof("node cycle=%d %s pinned=%q candidates=%d", s.Cycle, s.Message, pinned, len(candidates))

	default:
		s.Device = &device
		r, err := self.deps.Session.Acquire(ctx, device)
		if err != nil {
			s.Outcome, s.Message = tele.OutcomeFailure, tele.MessageFailure
			self.log.Errorf("node cycle=%d device=%s %s err=%v", s.Cycle, device, s.Message, err)
			break
		}
		s.Outcome = tele.OutcomeSuccess
		s.Reading = &r
		self.log.Infof("node cycle=%d device=%s %s", s.Cycle, device, r.String())
		if pinned.IsZero() {
			if err := self.deps.Target.PersistTarget(device.Address); err != nil {
				self.log.Errorf("node persist target=%s err=%v", device.Address, err)
			}
		}
	}

	self.nextCycle = self.nextCycleAfter(now, s.Outcome == tele.OutcomeSuccess)
	s.NextCycle = self.nextCycle.UTC()
	s.Connectivity = self.deps.Connectivity.Projection()
	s.SinkReachable = self.deps.Publisher.Reachable()
	self.status.Store(s)

	if self.deps.History != nil {
		hctx, cancel := context.WithTimeout(ctx, historyTimeout)
		if err := self.deps.History.Record(hctx, s); err != nil {
			self.log.Errorf("node history err=%v", err)
		}
		cancel()
	}
	self.deps.Publisher.Publish(ctx, s, self.deps.Connectivity.Usable())
	self.deps.Metrics.ObserveCycle(s, time.Since(tbegin))
	return s
}

// choose pinned: only matching candidate, unpinned: first candidate.
func (self *Node) choose(candidates []ble.Identity, pinned ble.Address) (ble.Identity, bool) {
	if !pinned.IsZero() {
		return yc01.FindTarget(candidates, pinned)
	}
	if len(candidates) == 0 {
		return ble.Identity{}, false
	}
	return candidates[0], true
}

func (self *Node) nextCycleAfter(now time.Time, success bool) time.Time {
	if success {
		return now.Add(self.config.Interval)
	}
	return now.Add(self.config.Interval - self.config.RetryMargin)
}

func (self *Node) setActive(on bool) {
	if self.deps.Activity != nil {
		self.deps.Activity.SetActive(on)
	}
}
