package state

import (
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/internal/state/persist"
	"github.com/temoto/yc01-bridge/log2"
)

const (
	targetRecordVersion = 1
	// fixed width, storage overwrites in place
	targetRecordSize = 2 + targetAddressMax
	targetAddressMax = 62
)

// TargetStore owns pinned sensor address.
// Persisted record wins over configured address, including a cleared one.
type TargetStore struct {
	mu         sync.Mutex
	log        *log2.Log
	configured ble.Address
	stored     ble.Address
	hasStored  bool
	persist    *persist.Persist
}

// NewTargetStore empty root keeps target in memory only.
func NewTargetStore(log *log2.Log, configured ble.Address, root string) (*TargetStore, error) {
	self := &TargetStore{log: log, configured: configured}
	self.persist = persist.New(log, "target", self, root)
	found, err := self.persist.Load()
	if err != nil {
		return self, errors.Trace(err)
	}
	self.hasStored = found
	if found {
		self.log.Debugf("target persisted=%q configured=%q", self.stored, configured)
	}
	return self, nil
}

func (self *TargetStore) Target() ble.Address {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.hasStored {
		return self.stored
	}
	return self.configured
}

func (self *TargetStore) PersistTarget(addr ble.Address) error {
	if len(addr) > targetAddressMax {
		return errors.NotValidf("target address=%q too long", addr)
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	self.stored, self.hasStored = addr, true
	self.log.Infof("target pinned=%q", addr)
	return self.persist.Store()
}

// ClearTarget makes next cycle bind to the first device found.
func (self *TargetStore) ClearTarget() error { return self.PersistTarget("") }

// MarshalBinary is called by persist with mu held.
func (self *TargetStore) MarshalBinary() ([]byte, error) {
	b := make([]byte, targetRecordSize)
	b[0] = targetRecordVersion
	b[1] = byte(len(self.stored))
	copy(b[2:], self.stored)
	return b, nil
}

func (self *TargetStore) UnmarshalBinary(b []byte) error {
	if len(b) != targetRecordSize || b[0] != targetRecordVersion {
		return errors.NotValidf("target record length=%d", len(b))
	}
	n := int(b[1])
	if n > targetAddressMax {
		return errors.NotValidf("target record address length=%d", n)
	}
	self.stored = ble.Address(b[2 : 2+n])
	return nil
}
