package yc01

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/helpers"
	"github.com/temoto/yc01-bridge/log2"
)

const (
	DefaultAttempts    = 3
	DefaultLinkTimeout = 10 * time.Second
	DefaultRetryDelay  = 200 * time.Millisecond
)

type SessionConfig struct {
	Attempts    int
	LinkTimeout time.Duration
	// first retry delay, doubled each next retry
	RetryDelay time.Duration
	// bound of link Close, see ble.CloseTimeout
	CloseTimeout time.Duration
	// optional, called after each attempt
	OnAttempt func(ok bool)
}

// Session reads one probe with bounded retries.
// Every attempt owns its link and closes it on every path.
type Session struct {
	config SessionConfig
	log    *log2.Log
	radio  ble.Radio
	now    func() time.Time
}

func NewSession(log *log2.Log, radio ble.Radio, config SessionConfig) *Session {
	if config.Attempts <= 0 {
		config.Attempts = DefaultAttempts
	}
	if config.LinkTimeout <= 0 {
		config.LinkTimeout = DefaultLinkTimeout
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	if config.CloseTimeout <= 0 {
		config.CloseTimeout = ble.CloseTimeout
	}
	return &Session{config: config, log: log, radio: radio, now: time.Now}
}

// MaxDuration is worst case Acquire duration, used to check watchdog budget.
func (self *Session) MaxDuration() time.Duration {
	backoff := self.backoff()
	d := time.Duration(self.config.Attempts) * (self.config.LinkTimeout + self.config.CloseTimeout)
	for i := 1; i < self.config.Attempts; i++ {
		d += backoff.Next()
	}
	return d
}

func (self *Session) backoff() helpers.Backoff {
	return helpers.Backoff{Min: self.config.RetryDelay, Max: 5 * self.config.RetryDelay, K: 2}
}

func (self *Session) Acquire(ctx context.Context, id ble.Identity) (Reading, error) {
	backoff := self.backoff()
	var lastErr error
	for attempt := 1; attempt <= self.config.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoff.Next()):
			case <-ctx.Done():
				return Reading{}, &SessionError{Kind: Interrupted, Attempts: attempt - 1, Err: ctx.Err()}
			}
		}
		r, err := self.attempt(ctx, id)
		if self.config.OnAttempt != nil {
			self.config.OnAttempt(err == nil)
		}
		if err == nil {
			self.log.Debugf("yc01 session device=%s attempt=%d reading %s", id, attempt, r.String())
			return r, nil
		}
		self.log.Debugf("yc01 session device=%s attempt=%d err=%v", id, attempt, err)
		lastErr = err
	}
	return Reading{}, &SessionError{Kind: ExhaustedRetries, Attempts: self.config.Attempts, Err: lastErr}
}

func (self *Session) attempt(ctx context.Context, id ble.Identity) (Reading, error) {
	linkCtx, cancel := context.WithTimeout(ctx, self.config.LinkTimeout)
	defer cancel()

	link, err := self.radio.Open(linkCtx, id.Address)
	if err != nil {
		return Reading{}, &SessionError{Kind: LinkUnavailable, Attempts: 1, Err: err}
	}
	defer func() {
		if err := link.Close(); err != nil {
			self.log.Errorf("yc01 session device=%s link close err=%v", id, err)
		}
	}()

	// identification is best-effort
	sensorType := ""
	if b, err := link.ReadCharacteristic(linkCtx, ble.GAPService, ble.DeviceNameChar); err == nil {
		sensorType = string(b)
	} else {
		self.log.Debugf("yc01 session device=%s no device name err=%v", id, err)
	}

	raw, err := link.ReadCharacteristic(linkCtx, ServiceUUID, DataChar)
	if err != nil {
		return Reading{}, errors.Annotate(err, "yc01 read data")
	}
	r, err := DecodeFrame(raw)
	if err != nil {
		return Reading{}, errors.Annotatef(err, "yc01 payload=%x", raw)
	}
	r.SensorType = sensorType
	r.Time = self.now().UTC()
	r.RSSI = link.SignalQuality()
	return r, nil
}
