// Package ble is the short range radio primitive consumed by sensor code:
// timed scan, link open, characteristic read.
// Production implementation talks to BlueZ over D-Bus, tests use MockRadio.
package ble

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Textual hardware address, e.g. "C0:00:00:01:4A:2B".
// Comparison is case-insensitive, always use Equal.
type Address string

func (a Address) Equal(b Address) bool { return strings.EqualFold(string(a), string(b)) }
func (a Address) IsZero() bool         { return a == "" }
func (a Address) String() string       { return string(a) }

type Identity struct {
	Address Address `json:"address"`
	Name    string  `json:"name,omitempty"`
}

func (id Identity) String() string {
	if id.Name == "" {
		return id.Address.String()
	}
	return fmt.Sprintf("%s(%s)", id.Name, id.Address)
}

type UUID string

const bluetoothBaseUUID = "-0000-1000-8000-00805f9b34fb"

// ShortUUID expands 16 bit assigned number to full textual UUID.
func ShortUUID(x uint16) UUID { return UUID(fmt.Sprintf("0000%04x%s", x, bluetoothBaseUUID)) }

func (u UUID) Equal(other UUID) bool { return strings.EqualFold(string(u), string(other)) }

// Generic Access Profile device name, optional on most peripherals.
var (
	GAPService     = ShortUUID(0x1800)
	DeviceNameChar = ShortUUID(0x2a00)
)

type Advertisement struct {
	Identity
	Services []UUID
	RSSI     int
}

func (a *Advertisement) Advertises(service UUID) bool {
	for _, s := range a.Services {
		if s.Equal(service) {
			return true
		}
	}
	return false
}

// Radio contract:
// - Scan blocks for exactly one listen window (or less if ctx is done)
// - Scan result is a snapshot in observation order, one entry per address
// - Open returns a connected link or error within ctx deadline
type Radio interface {
	Scan(ctx context.Context, window time.Duration) ([]Advertisement, error)
	Open(ctx context.Context, addr Address) (Link, error)
}

// Link must be closed by whoever opened it, on every path.
// Radio has very limited concurrent connection budget.
// CloseTimeout bounds Link.Close, it runs after link context may be done.
const CloseTimeout = 2 * time.Second

type Link interface {
	ReadCharacteristic(ctx context.Context, service, char UUID) ([]byte, error)
	SignalQuality() int
	Close() error
}
