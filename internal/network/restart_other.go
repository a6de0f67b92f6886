//go:build !linux

package network

import "github.com/juju/errors"

func reboot() error { return errors.NotSupportedf("reboot on this platform") }
