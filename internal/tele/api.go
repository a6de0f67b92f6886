// Package tele delivers node status to remote backends.
package tele

import (
	"context"
	"fmt"
	"time"

	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/hardware/yc01"
	"github.com/temoto/yc01-bridge/internal/network"
)

// Sink contract:
// - construction fails only with invalid config, ignores network errors
// - Publish delivers within ctx deadline or fails, never retries after return
// - application may start without network available
type Sink interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Reachable is last known connection state, must not block.
	Reachable() bool
}

// Recorder stores successful readings in time series backend.
type Recorder interface {
	Record(ctx context.Context, node string, device ble.Identity, r *yc01.Reading) error
}

// DeliveryError is logged and dropped by Publisher.
type DeliveryError struct {
	Sink  string
	Topic string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("tele delivery sink=%s topic=%s: %v", e.Sink, e.Topic, e.Err)
}
func (e *DeliveryError) Unwrap() error { return e.Err }

const (
	OutcomePending = "pending"
	OutcomeSuccess = "success"
	OutcomeNoMatch = "no-match"
	OutcomeFailure = "failure"

	MessageNoMatch = "no matching device found"
	MessageFailure = "failed to read data"
)

// Status is the snapshot document of last acquisition cycle.
// Rebuilt in full every cycle, never mutated after publishing.
type Status struct {
	MessageID     string             `json:"message_id"`
	Node          string             `json:"node"`
	Version       string             `json:"version,omitempty"`
	Cycle         uint64             `json:"cycle"`
	Time          time.Time          `json:"time"`
	Outcome       string             `json:"outcome"`
	Message       string             `json:"message,omitempty"`
	Device        *ble.Identity      `json:"device"`
	Reading       *yc01.Reading      `json:"reading"`
	Connectivity  network.Projection `json:"connectivity"`
	SinkReachable bool               `json:"sink_reachable"`
	NextCycle     time.Time          `json:"next_cycle"`
}

type noop struct{}

// Noop sink is used when telemetry is disabled.
var Noop Sink = noop{}

func (noop) Publish(context.Context, string, []byte) error { return nil }
func (noop) Reachable() bool                               { return false }
