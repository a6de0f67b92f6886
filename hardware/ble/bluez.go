package ble

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/log2"
)

const (
	bluezBus           = "org.bluez"
	ifaceAdapter       = "org.bluez.Adapter1"
	ifaceDevice        = "org.bluez.Device1"
	ifaceGattService   = "org.bluez.GattService1"
	ifaceGattChar      = "org.bluez.GattCharacteristic1"
	ifaceObjectManager = "org.freedesktop.DBus.ObjectManager"
	ifaceProperties    = "org.freedesktop.DBus.Properties"

	resolvePoll = 100 * time.Millisecond
)

type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Bluez implements Radio over BlueZ D-Bus API.
type Bluez struct {
	conn    *dbus.Conn
	adapter dbus.ObjectPath
	log     *log2.Log
}

var _ Radio = &Bluez{} // compile-time interface test

// NewBluez adapterName is like "hci0".
func NewBluez(log *log2.Log, adapterName string) (*Bluez, error) {
	if adapterName == "" {
		adapterName = "hci0"
	}
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, errors.Annotate(err, "bluez connect system bus")
	}
	self := &Bluez{
		conn:    conn,
		adapter: dbus.ObjectPath("/org/bluez/" + adapterName),
		log:     log,
	}
	powered, err := self.conn.Object(bluezBus, self.adapter).GetProperty(ifaceAdapter + ".Powered")
	if err != nil {
		conn.Close()
		return nil, errors.Annotatef(err, "bluez adapter=%s", adapterName)
	}
	if on, _ := powered.Value().(bool); !on {
		if err = self.conn.Object(bluezBus, self.adapter).SetProperty(ifaceAdapter+".Powered", dbus.MakeVariant(true)); err != nil {
			conn.Close()
			return nil, errors.Annotatef(err, "bluez adapter=%s power on", adapterName)
		}
	}
	return self, nil
}

func (self *Bluez) Close() error { return self.conn.Close() }

func (self *Bluez) Scan(ctx context.Context, window time.Duration) ([]Advertisement, error) {
	adapter := self.conn.Object(bluezBus, self.adapter)
	filter := map[string]dbus.Variant{
		"Transport":     dbus.MakeVariant("le"),
		"DuplicateData": dbus.MakeVariant(false),
	}
	if err := adapter.CallWithContext(ctx, ifaceAdapter+".SetDiscoveryFilter", 0, filter).Err; err != nil {
		return nil, errors.Annotate(err, "bluez SetDiscoveryFilter")
	}

	matches := []dbus.MatchOption{dbus.WithMatchPathNamespace(self.adapter)}
	if err := self.conn.AddMatchSignal(append(matches, dbus.WithMatchInterface(ifaceProperties))...); err != nil {
		return nil, errors.Annotate(err, "bluez AddMatchSignal")
	}
	defer func() { _ = self.conn.RemoveMatchSignal(append(matches, dbus.WithMatchInterface(ifaceProperties))...) }()
	if err := self.conn.AddMatchSignal(dbus.WithMatchInterface(ifaceObjectManager), dbus.WithMatchMember("InterfacesAdded")); err != nil {
		return nil, errors.Annotate(err, "bluez AddMatchSignal")
	}
	defer func() {
		_ = self.conn.RemoveMatchSignal(dbus.WithMatchInterface(ifaceObjectManager), dbus.WithMatchMember("InterfacesAdded"))
	}()
	sigch := make(chan *dbus.Signal, 64)
	self.conn.Signal(sigch)
	defer self.conn.RemoveSignal(sigch)

	if err := adapter.CallWithContext(ctx, ifaceAdapter+".StartDiscovery", 0).Err; err != nil {
		return nil, errors.Annotate(err, "bluez StartDiscovery")
	}
	seen := make(map[dbus.ObjectPath]int)
	timer := time.NewTimer(window)
	defer timer.Stop()
listen:
	for {
		select {
		case sig := <-sigch:
			if path, ok := self.signalDevice(sig); ok {
				if _, dup := seen[path]; !dup {
					seen[path] = len(seen)
				}
			}
		case <-timer.C:
			break listen
		case <-ctx.Done():
			break listen
		}
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := adapter.CallWithContext(stopCtx, ifaceAdapter+".StopDiscovery", 0).Err; err != nil {
		self.log.Errorf("bluez StopDiscovery err=%v", err)
	}

	objects, err := self.managedObjects(stopCtx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	type found struct {
		order int
		ad    Advertisement
	}
	result := make([]found, 0, len(seen))
	for path, ifaces := range objects {
		props, ok := ifaces[ifaceDevice]
		if !ok || !strings.HasPrefix(string(path), string(self.adapter)+"/") {
			continue
		}
		// RSSI is present only for devices heard in current discovery session
		rssi, ok := props["RSSI"].Value().(int16)
		if !ok {
			continue
		}
		order, ok := seen[path]
		if !ok {
			order = len(seen) + len(result)
		}
		ad := Advertisement{RSSI: int(rssi)}
		ad.Address = Address(variantString(props["Address"]))
		ad.Name = variantString(props["Name"])
		if uuids, ok := props["UUIDs"].Value().([]string); ok {
			for _, u := range uuids {
				ad.Services = append(ad.Services, UUID(u))
			}
		}
		result = append(result, found{order: order, ad: ad})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].order < result[j].order })
	ads := make([]Advertisement, len(result))
	for i, f := range result {
		ads[i] = f.ad
	}
	return ads, nil
}

func (self *Bluez) Open(ctx context.Context, addr Address) (Link, error) {
	path := self.devicePath(addr)
	dev := self.conn.Object(bluezBus, path)
	if err := dev.CallWithContext(ctx, ifaceDevice+".Connect", 0).Err; err != nil {
		return nil, errors.Annotatef(err, "bluez connect address=%s", addr)
	}
	link := &bluezLink{conn: self.conn, path: path, log: self.log}
	for {
		v, err := getProperty(ctx, dev, ifaceDevice, "ServicesResolved")
		if err == nil {
			if resolved, _ := v.Value().(bool); resolved {
				break
			}
		}
		select {
		case <-time.After(resolvePoll):
		case <-ctx.Done():
			_ = link.Close()
			return nil, errors.Annotatef(ctx.Err(), "bluez resolve services address=%s", addr)
		}
	}
	if v, err := getProperty(ctx, dev, ifaceDevice, "RSSI"); err == nil {
		if rssi, ok := v.Value().(int16); ok {
			link.rssi = int(rssi)
		}
	}
	return link, nil
}

func (self *Bluez) managedObjects(ctx context.Context) (managedObjects, error) {
	var objects managedObjects
	err := self.conn.Object(bluezBus, "/").
		CallWithContext(ctx, ifaceObjectManager+".GetManagedObjects", 0).
		Store(&objects)
	return objects, errors.Annotate(err, "bluez GetManagedObjects")
}

func (self *Bluez) devicePath(addr Address) dbus.ObjectPath {
	s := strings.ToUpper(strings.ReplaceAll(string(addr), ":", "_"))
	return dbus.ObjectPath(string(self.adapter) + "/dev_" + s)
}

func (self *Bluez) signalDevice(sig *dbus.Signal) (dbus.ObjectPath, bool) {
	switch sig.Name {
	case ifaceObjectManager + ".InterfacesAdded":
		if len(sig.Body) == 0 {
			return "", false
		}
		path, ok := sig.Body[0].(dbus.ObjectPath)
		return path, ok && strings.HasPrefix(string(path), string(self.adapter)+"/dev_")
	case ifaceProperties + ".PropertiesChanged":
		if len(sig.Body) == 0 {
			return "", false
		}
		iface, _ := sig.Body[0].(string)
		return sig.Path, iface == ifaceDevice
	}
	return "", false
}

type bluezLink struct {
	conn *dbus.Conn
	path dbus.ObjectPath
	log  *log2.Log
	rssi int
}

func (self *bluezLink) SignalQuality() int { return self.rssi }

func (self *bluezLink) ReadCharacteristic(ctx context.Context, service, char UUID) ([]byte, error) {
	dev := self.conn.Object(bluezBus, self.path)
	// BlueZ keeps GAP service to itself and exposes device name as property
	if service.Equal(GAPService) && char.Equal(DeviceNameChar) {
		v, err := getProperty(ctx, dev, ifaceDevice, "Name")
		if err != nil {
			return nil, errors.Annotate(err, "bluez device name")
		}
		return []byte(variantString(v)), nil
	}

	var objects managedObjects
	err := self.conn.Object(bluezBus, "/").
		CallWithContext(ctx, ifaceObjectManager+".GetManagedObjects", 0).
		Store(&objects)
	if err != nil {
		return nil, errors.Annotate(err, "bluez GetManagedObjects")
	}
	prefix := string(self.path) + "/"
	for path, ifaces := range objects {
		props, ok := ifaces[ifaceGattChar]
		if !ok || !strings.HasPrefix(string(path), prefix) {
			continue
		}
		if !UUID(variantString(props["UUID"])).Equal(char) {
			continue
		}
		servicePath, _ := props["Service"].Value().(dbus.ObjectPath)
		if sprops, ok := objects[servicePath][ifaceGattService]; !ok || !UUID(variantString(sprops["UUID"])).Equal(service) {
			continue
		}
		var value []byte
		err = self.conn.Object(bluezBus, path).
			CallWithContext(ctx, ifaceGattChar+".ReadValue", 0, map[string]dbus.Variant{}).
			Store(&value)
		return value, errors.Annotatef(err, "bluez ReadValue char=%s", char)
	}
	return nil, errors.NotFoundf("bluez service=%s char=%s", service, char)
}

func (self *bluezLink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), CloseTimeout)
	defer cancel()
	err := self.conn.Object(bluezBus, self.path).CallWithContext(ctx, ifaceDevice+".Disconnect", 0).Err
	return errors.Annotatef(err, "bluez disconnect path=%s", self.path)
}

// getProperty is BusObject.GetProperty bounded by ctx.
func getProperty(ctx context.Context, obj dbus.BusObject, iface, name string) (dbus.Variant, error) {
	var v dbus.Variant
	err := obj.CallWithContext(ctx, ifaceProperties+".Get", 0, iface, name).Store(&v)
	return v, err
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}
