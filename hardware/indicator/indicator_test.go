package indicator

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	gpio "github.com/temoto/gpio-cdev-go"
	gpio_mock "github.com/temoto/gpio-cdev-go/mock"
	"github.com/temoto/yc01-bridge/log2"
)

func TestLED(t *testing.T) {
	t.Parallel()

	chip := &gpio_mock.MockChip{}
	lines := &gpio_mock.MockLines{}
	var values []byte
	chip.On("OpenLines", gpio.GPIOHANDLE_REQUEST_OUTPUT, "yc01-bridge-led", uint32(17)).Return(lines, nil)
	lines.On("SetFunc", uint32(17)).Return(gpio.LineSetFunc(func(v byte) { values = append(values, v) }))
	lines.On("Flush").Return(nil)
	lines.On("Close").Return(nil)
	chip.On("Close").Return(nil)

	ind, err := New(log2.NewTest(t, log2.LDebug), chip, 17, 0)
	require.NoError(t, err)
	ind.SetActive(true)
	ind.SetActive(false)
	assert.Equal(t, []byte{1, 0}, values)
	lines.AssertNumberOfCalls(t, "Flush", 2)

	// no button, Run returns immediately
	ind.Run(alive.NewAlive(), func() { t.Error("unexpected press") })

	require.NoError(t, ind.Close())
	chip.AssertExpectations(t)
	lines.AssertExpectations(t)

	var nilInd *Indicator
	nilInd.SetActive(true)
}

func TestButton(t *testing.T) {
	t.Parallel()

	chip := &gpio_mock.MockChip{}
	ev := &gpio_mock.MockEvent{}
	chip.On("GetLineEvent", uint32(27), gpio.RequestFlag(0), gpio.GPIOEVENT_REQUEST_FALLING_EDGE, "yc01-bridge-button").Return(ev, nil)
	press := gpio.EventData{ID: gpio.GPIOEVENT_EVENT_FALLING_EDGE, Timestamp: uint64(10 * time.Second)}
	bounce := gpio.EventData{ID: gpio.GPIOEVENT_EVENT_FALLING_EDGE, Timestamp: uint64(10*time.Second + 50*time.Millisecond)}
	rising := gpio.EventData{ID: gpio.GPIOEVENT_EVENT_RISING_EDGE, Timestamp: uint64(11 * time.Second)}
	second := gpio.EventData{ID: gpio.GPIOEVENT_EVENT_FALLING_EDGE, Timestamp: uint64(12 * time.Second)}
	ev.On("Wait", buttonPoll).Return(press, nil).Once()
	ev.On("Wait", buttonPoll).Return(bounce, nil).Once()
	ev.On("Wait", buttonPoll).Return(rising, nil).Once()
	ev.On("Wait", buttonPoll).Return(second, nil).Once()
	ev.On("Wait", mock.Anything).Return(gpio.EventData{}, gpio.ErrTimeout)
	ev.On("Close").Return(nil)
	chip.On("Close").Return(nil)

	ind, err := New(log2.NewTest(t, log2.LDebug), chip, 0, 27)
	require.NoError(t, err)
	ind.SetActive(true) // no led, no-op

	a := alive.NewAlive()
	var presses int32
	done := make(chan struct{})
	go func() {
		ind.Run(a, func() {
			if atomic.AddInt32(&presses, 1) == 2 {
				a.Stop()
			}
		})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		a.Stop()
		t.Fatal("button loop did not stop")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&presses))
	require.NoError(t, ind.Close())
}
