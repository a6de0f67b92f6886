package ble

// Public API to easy create radio stubs to test your code.
import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/juju/errors"
)

// MockChar addresses characteristic under its service.
type MockChar struct {
	Service UUID
	Char    UUID
}

type MockDevice struct {
	// first OpenFailures calls to Open fail
	OpenFailures int
	// characteristic values, each read pops one, last value repeats
	Values map[MockChar][][]byte
	RSSI   int
	// reads of missing characteristics block until ctx is done
	Stall bool
	// each Close takes this long
	CloseDelay time.Duration

	opens  int
	closes int
	reads  int
}

type MockRadio struct {
	mu      sync.Mutex
	adverts []Advertisement
	scanErr error
	devices map[string]*MockDevice
	scans   int
}

var _ Radio = &MockRadio{} // compile-time interface test

func NewMockRadio() *MockRadio {
	return &MockRadio{devices: make(map[string]*MockDevice)}
}

func (self *MockRadio) SetAdverts(as ...Advertisement) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.adverts = as
}

func (self *MockRadio) SetScanError(err error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.scanErr = err
}

func (self *MockRadio) AddDevice(addr Address, d *MockDevice) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.devices[strings.ToLower(string(addr))] = d
}

func (self *MockRadio) Scans() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.scans
}

func (self *MockRadio) Scan(ctx context.Context, window time.Duration) ([]Advertisement, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.scans++
	if self.scanErr != nil {
		return nil, self.scanErr
	}
	result := make([]Advertisement, len(self.adverts))
	copy(result, self.adverts)
	return result, nil
}

func (self *MockRadio) Open(ctx context.Context, addr Address) (Link, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	d, ok := self.devices[strings.ToLower(string(addr))]
	if !ok {
		return nil, errors.NotFoundf("mock device address=%s", addr)
	}
	d.opens++
	if d.opens <= d.OpenFailures {
		return nil, errors.Errorf("mock open address=%s attempt=%d refused", addr, d.opens)
	}
	return &mockLink{radio: self, device: d}, nil
}

// Opens counts all Open calls including failed.
func (self *MockDevice) Opens() int { return self.opens }
func (self *MockDevice) Closes() int { return self.closes }
func (self *MockDevice) Reads() int  { return self.reads }

type mockLink struct {
	radio  *MockRadio
	device *MockDevice
	closed bool
}

func (self *mockLink) ReadCharacteristic(ctx context.Context, service, char UUID) ([]byte, error) {
	if v, ok, err := self.read(service, char); ok || err != nil {
		return v, err
	}
	if self.device.Stall {
		<-ctx.Done()
		return nil, errors.Annotatef(ctx.Err(), "mock read char=%s", char)
	}
	return nil, errors.NotFoundf("mock characteristic service=%s char=%s", service, char)
}

func (self *mockLink) read(service, char UUID) ([]byte, bool, error) {
	self.radio.mu.Lock()
	defer self.radio.mu.Unlock()
	if self.closed {
		return nil, false, errors.New("mock link closed")
	}
	for key, values := range self.device.Values {
		if !key.Service.Equal(service) || !key.Char.Equal(char) || len(values) == 0 {
			continue
		}
		self.device.reads++
		v := values[0]
		if len(values) > 1 {
			self.device.Values[key] = values[1:]
		}
		return v, true, nil
	}
	return nil, false, nil
}

func (self *mockLink) SignalQuality() int { return self.device.RSSI }

func (self *mockLink) Close() error {
	time.Sleep(self.device.CloseDelay)
	self.radio.mu.Lock()
	defer self.radio.mu.Unlock()
	if self.closed {
		return errors.New("mock link already closed")
	}
	self.closed = true
	self.device.closes++
	return nil
}
