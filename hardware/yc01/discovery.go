package yc01

import (
	"context"
	"strings"
	"time"

	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/log2"
)

const DefaultScanWindow = 2500 * time.Millisecond

// radio gets this much above scan window before ctx deadline
const scanGrace = 2 * time.Second

type Discovery struct {
	log    *log2.Log
	radio  ble.Radio
	window time.Duration
}

func NewDiscovery(log *log2.Log, radio ble.Radio, window time.Duration) *Discovery {
	if window <= 0 {
		window = DefaultScanWindow
	}
	return &Discovery{log: log, radio: radio, window: window}
}

func (self *Discovery) MaxDuration() time.Duration { return self.window + scanGrace }

// Scan listens once and returns probes in observation order.
// Nothing found is normal, scan errors are logged and yield empty result.
func (self *Discovery) Scan(ctx context.Context) []ble.Identity {
	ctx, cancel := context.WithTimeout(ctx, self.MaxDuration())
	defer cancel()
	ads, err := self.radio.Scan(ctx, self.window)
	if err != nil {
		self.log.Errorf("yc01 discovery scan err=%v", err)
		return nil
	}
	seen := make(map[string]struct{}, len(ads))
	result := make([]ble.Identity, 0, len(ads))
	for i := range ads {
		ad := &ads[i]
		if !ad.Advertises(ServiceUUID) {
			continue
		}
		key := strings.ToLower(string(ad.Address))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		self.log.Debugf("yc01 discovery found %s rssi=%d", ad.Identity, ad.RSSI)
		result = append(result, ad.Identity)
	}
	return result
}

// FindTarget returns first candidate with given address.
func FindTarget(candidates []ble.Identity, target ble.Address) (ble.Identity, bool) {
	for _, c := range candidates {
		if c.Address.Equal(target) {
			return c, true
		}
	}
	return ble.Identity{}, false
}
