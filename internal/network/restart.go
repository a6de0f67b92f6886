package network

import (
	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/log2"
)

const (
	// stop the process, service manager starts it again
	RestartExit = "exit"
	// sync disks and reboot the machine
	RestartReboot = "reboot"
)

var rebootFunc = reboot

type RestartFunc func(reason string) error

func (f RestartFunc) Restart(reason string) error { return f(reason) }

// NewRestarter stop is called in exit mode, it must make the process quit with failure status.
func NewRestarter(log *log2.Log, mode string, stop func()) (Restarter, error) {
	switch mode {
	case "", RestartExit:
		return RestartFunc(func(reason string) error {
			log.Errorf("restart reason=%s exiting for service manager", reason)
			stop()
			return nil
		}), nil
	case RestartReboot:
		return RestartFunc(func(reason string) error {
			log.Errorf("restart reason=%s rebooting", reason)
			if err := rebootFunc(); err != nil {
				// usually missing CAP_SYS_BOOT
				log.Error(errors.Annotate(err, "reboot"))
				stop()
			}
			return nil
		}), nil
	}
	return nil, errors.NotValidf("network restart mode=%s", mode)
}
