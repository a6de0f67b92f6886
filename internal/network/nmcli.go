package network

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/log2"
)

const DefaultPortalConnection = "yc01-portal"

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// NMCLI implements Network via NetworkManager command line and iw.
type NMCLI struct {
	log        *log2.Log
	iface      string
	connection string
	address    string // portal address with prefix, e.g. 10.42.0.1/24
	run        runFunc
}

var _ Network = &NMCLI{} // compile-time interface test

func NewNMCLI(log *log2.Log, iface, portalAddress string) *NMCLI {
	if iface == "" {
		iface = "wlan0"
	}
	return &NMCLI{
		log:        log,
		iface:      iface,
		connection: DefaultPortalConnection,
		address:    portalAddress,
		run:        execRun,
	}
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, errors.Annotatef(err, "%s %s output=%s", name, strings.Join(args, " "), bytes.TrimSpace(out))
	}
	return out, nil
}

func (self *NMCLI) JoinInfrastructure(ctx context.Context, ssid, password string) error {
	if ssid == "" {
		return errors.NotValidf("wifi ssid empty")
	}
	// --wait 0: do not block on activation, Status() polls
	args := []string{"--wait", "0", "device", "wifi", "connect", ssid, "ifname", self.iface}
	if password != "" {
		args = append(args, "password", password)
	}
	_, err := self.run(ctx, "nmcli", args...)
	return errors.Annotate(err, "nmcli wifi connect")
}

func (self *NMCLI) Status(ctx context.Context) (LinkStatus, error) {
	out, err := self.run(ctx, "nmcli", "--terse", "--fields", "GENERAL.STATE,IP4.ADDRESS", "device", "show", self.iface)
	if err != nil {
		return StatusJoining, errors.Annotate(err, "nmcli device show")
	}
	return parseDeviceShow(out), nil
}

// parseDeviceShow wants state 100 (connected) and at least one IPv4 address.
func parseDeviceShow(out []byte) LinkStatus {
	var stateOK, addrOK bool
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		switch {
		case key == "GENERAL.STATE":
			stateOK = strings.HasPrefix(value, "100")
		case strings.HasPrefix(key, "IP4.ADDRESS"):
			addrOK = addrOK || strings.TrimSpace(value) != ""
		}
	}
	if stateOK && addrOK {
		return StatusConnected
	}
	return StatusJoining
}

func (self *NMCLI) HostFallback(ctx context.Context, ssid, password string) error {
	// leftover from previous boot, absence is fine
	_, _ = self.run(ctx, "nmcli", "connection", "delete", self.connection)

	args := []string{"connection", "add", "type", "wifi", "ifname", self.iface,
		"con-name", self.connection, "autoconnect", "no", "ssid", ssid,
		"802-11-wireless.mode", "ap", "802-11-wireless.band", "bg",
		"ipv4.method", "shared"}
	if self.address != "" {
		args = append(args, "ipv4.addresses", self.address)
	}
	if password != "" {
		args = append(args, "wifi-sec.key-mgmt", "wpa-psk", "wifi-sec.psk", password)
	}
	if _, err := self.run(ctx, "nmcli", args...); err != nil {
		return errors.Annotate(err, "nmcli add portal")
	}
	_, err := self.run(ctx, "nmcli", "connection", "up", self.connection)
	return errors.Annotate(err, "nmcli portal up")
}

func (self *NMCLI) AttachedClientCount(ctx context.Context) (int, error) {
	out, err := self.run(ctx, "iw", "dev", self.iface, "station", "dump")
	if err != nil {
		return 0, errors.Annotate(err, "iw station dump")
	}
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "Station ") {
			n++
		}
	}
	return n, nil
}

func (self *NMCLI) Disconnect(ctx context.Context) error {
	_, err := self.run(ctx, "nmcli", "device", "disconnect", self.iface)
	return errors.Annotate(err, "nmcli disconnect")
}

func (self *NMCLI) RadioOff(ctx context.Context) error {
	_, err := self.run(ctx, "nmcli", "radio", "wifi", "off")
	return errors.Annotate(err, "nmcli radio off")
}
