package tele

import (
	"context"
	"time"

	"github.com/temoto/yc01-bridge/log2"
)

const DefaultPublishTimeout = 5 * time.Second

type PublisherConfig struct {
	Topic   string
	Format  string
	Timeout time.Duration
}

// Publisher is best effort delivery of status and reading.
// Failures are logged and dropped, never retried.
type Publisher struct {
	log      *log2.Log
	config   PublisherConfig
	sink     Sink
	recorder Recorder
	// optional, called with every DeliveryError
	OnError func(*DeliveryError)
}

// NewPublisher sink=nil means Noop, recorder may be nil.
func NewPublisher(log *log2.Log, config PublisherConfig, sink Sink, recorder Recorder) *Publisher {
	if sink == nil {
		sink = Noop
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultPublishTimeout
	}
	if config.Format == "" {
		config.Format = FormatJSON
	}
	return &Publisher{log: log, config: config, sink: sink, recorder: recorder}
}

func (self *Publisher) Reachable() bool { return self.sink.Reachable() }

// MaxDuration is worst case Publish duration.
func (self *Publisher) MaxDuration() time.Duration {
	if self.recorder != nil {
		return 2 * self.config.Timeout
	}
	return self.config.Timeout
}

// Publish returns number of successful deliveries.
// usable=false skips any network attempt.
func (self *Publisher) Publish(ctx context.Context, s *Status, usable bool) int {
	if !usable {
		self.log.Debugf("tele network not usable, skip cycle=%d", s.Cycle)
		return 0
	}
	delivered := 0
	payload, err := EncodeStatus(self.config.Format, s)
	if err != nil {
		self.fail(&DeliveryError{Sink: "encode", Topic: self.config.Topic, Err: err})
	} else if self.send(ctx, "status", func(ctx context.Context) error {
		return self.sink.Publish(ctx, self.config.Topic, payload)
	}) {
		delivered++
	}

	if self.recorder != nil && s.Reading != nil && s.Device != nil {
		if self.send(ctx, "influx", func(ctx context.Context) error {
			return self.recorder.Record(ctx, s.Node, *s.Device, s.Reading)
		}) {
			delivered++
		}
	}
	return delivered
}

func (self *Publisher) send(ctx context.Context, sink string, f func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, self.config.Timeout)
	defer cancel()
	tbegin := time.Now()
	if err := f(ctx); err != nil {
		self.fail(&DeliveryError{Sink: sink, Topic: self.config.Topic, Err: err})
		return false
	}
	self.log.Debugf("tele delivered sink=%s duration=%v", sink, time.Since(tbegin))
	return true
}

func (self *Publisher) fail(e *DeliveryError) {
	self.log.Error(e)
	if self.OnError != nil {
		self.OnError(e)
	}
}
