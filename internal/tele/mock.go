package tele

// Public API to easy create sink stubs to test your code.
import (
	"context"
	"sync"

	"github.com/juju/errors"
)

type MockMessage struct {
	Topic   string
	Payload []byte
}

type MockSink struct {
	mu        sync.Mutex
	reachable bool
	err       error
	sent      []MockMessage
	attempts  int
}

var _ Sink = &MockSink{} // compile-time interface test

func NewMockSink() *MockSink { return &MockSink{reachable: true} }

// SetError non-nil makes every Publish fail.
func (self *MockSink) SetError(err error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.err = err
}

func (self *MockSink) SetReachable(r bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.reachable = r
}

func (self *MockSink) Reachable() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.reachable
}

func (self *MockSink) Publish(ctx context.Context, topic string, payload []byte) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.attempts++
	if self.err != nil {
		return errors.Annotate(self.err, "mock publish")
	}
	self.sent = append(self.sent, MockMessage{Topic: topic, Payload: append([]byte(nil), payload...)})
	return nil
}

// Attempts counts all Publish calls including failed.
func (self *MockSink) Attempts() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.attempts
}

func (self *MockSink) Sent() []MockMessage {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]MockMessage(nil), self.sent...)
}
