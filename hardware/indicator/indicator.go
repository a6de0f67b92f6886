// Package indicator drives activity LED and reads push button over GPIO character device.
package indicator

import (
	"io"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	gpio "github.com/temoto/gpio-cdev-go"
	"github.com/temoto/yc01-bridge/helpers"
	"github.com/temoto/yc01-bridge/log2"
)

const (
	consumer     = "yc01-bridge"
	buttonPoll   = 200 * time.Millisecond
	debounce     = 500 * time.Millisecond
	errorBackoff = time.Second
)

type Indicator struct {
	log    *log2.Log
	chip   gpio.Chiper
	mu     sync.Mutex
	led    gpio.Lineser
	setLED gpio.LineSetFunc
	button gpio.Eventer
}

// Open pin=0 means line not used.
func Open(log *log2.Log, chipPath string, ledPin, buttonPin int) (*Indicator, error) {
	chip, err := gpio.Open(chipPath, consumer)
	if err != nil {
		return nil, errors.Annotatef(err, "indicator open chip=%s", chipPath)
	}
	self, err := New(log, chip, ledPin, buttonPin)
	if err != nil {
		chip.Close()
		return nil, err
	}
	return self, nil
}

func New(log *log2.Log, chip gpio.Chiper, ledPin, buttonPin int) (*Indicator, error) {
	self := &Indicator{log: log, chip: chip}
	var err error
	if ledPin > 0 {
		self.led, err = chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, consumer+"-led", uint32(ledPin))
		if err != nil {
			return nil, errors.Annotatef(err, "indicator led pin=%d", ledPin)
		}
		self.setLED = self.led.SetFunc(uint32(ledPin))
	}
	if buttonPin > 0 {
		self.button, err = chip.GetLineEvent(uint32(buttonPin), 0, gpio.GPIOEVENT_REQUEST_FALLING_EDGE, consumer+"-button")
		if err != nil {
			if self.led != nil {
				self.led.Close()
			}
			return nil, errors.Annotatef(err, "indicator button pin=%d", buttonPin)
		}
	}
	return self, nil
}

// SetActive lights LED while cycle runs.
func (self *Indicator) SetActive(on bool) {
	if self == nil || self.led == nil {
		return
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	var v byte
	if on {
		v = 1
	}
	self.setLED(v)
	if err := self.led.Flush(); err != nil {
		self.log.Error(errors.Annotate(err, "indicator led"))
	}
}

// Run calls onPress on every debounced button press until a is stopped.
func (self *Indicator) Run(a *alive.Alive, onPress func()) {
	if self == nil || self.button == nil {
		return
	}
	var last uint64
	for a.IsRunning() {
		edge, err := self.button.Wait(buttonPoll)
		if gpio.IsTimeout(err) {
			continue
		}
		if err != nil {
			self.log.Error(errors.Annotate(err, "indicator button"))
			if gpio.IsClosed(err) {
				return
			}
			time.Sleep(errorBackoff)
			continue
		}
		if edge.ID != gpio.GPIOEVENT_EVENT_FALLING_EDGE {
			continue
		}
		if last != 0 && edge.Timestamp-last < uint64(debounce) {
			continue
		}
		last = edge.Timestamp
		self.log.Debugf("indicator button pressed")
		onPress()
	}
}

func (self *Indicator) Close() error {
	closers := []io.Closer{self.button, self.led, self.chip}
	errs := make([]error, 0, len(closers))
	for _, c := range closers {
		if c != nil {
			errs = append(errs, c.Close())
		}
	}
	return helpers.FoldErrors(errs)
}
