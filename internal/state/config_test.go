package state

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/temoto/yc01-bridge/log2"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, context.Context)
		expectErr string
	}
	cases := []Case{
		{"empty", "", func(t testing.TB, ctx context.Context) {
			g := GetGlobal(ctx)
			assert.Equal(t, DefaultName, g.Config.Name)
			assert.Equal(t, 900*time.Second, g.Config.Acquire.Interval())
			assert.Equal(t, 600*time.Second, g.Config.Acquire.RetryMargin())
			assert.Equal(t, 2500*time.Millisecond, g.Config.Acquire.ScanTimeout())
			assert.Equal(t, time.Second, g.Config.Acquire.Tick())
			assert.Equal(t, DefaultPortalSSID, g.Config.Network.PortalSSID)
			assert.Equal(t, "10.42.0.1", g.Config.Network.PortalIP().String())
			assert.Equal(t, FormatJSON, g.Config.Tele.Format)
			assert.Equal(t, "yc01/yc01-bridge/status", g.Config.Tele.Topic)
			assert.Equal(t, 30*24*time.Hour, g.Config.History.Retention())
			assert.Equal(t, "", string(g.Target.Target()))
		}, ""},

		{"acquire", `
name = "pool-3"
acquire {
	interval_sec = 120
	retry_margin_sec = 30
	target = "C0:00:00:01:4A:2B"
}
tele { broker = "tcp://broker:1883" enable = true }`,
			func(t testing.TB, ctx context.Context) {
				g := GetGlobal(ctx)
				assert.Equal(t, 120*time.Second, g.Config.Acquire.Interval())
				assert.Equal(t, 30*time.Second, g.Config.Acquire.RetryMargin())
				assert.Equal(t, "C0:00:00:01:4A:2B", string(g.Target.Target()))
				assert.Equal(t, "pool-3", g.Config.Tele.ClientID)
				assert.Equal(t, "yc01/pool-3/status", g.Config.Tele.Topic)
			},
			""},

		{"margin-clamped", `acquire { interval_sec = 60 retry_margin_sec = 60 }`,
			func(t testing.TB, ctx context.Context) {
				assert.Equal(t, 30*time.Second, GetGlobal(ctx).Config.Acquire.RetryMargin())
			}, ""},

		{"hardware", `
hardware {
	ble { adapter = "hci1" }
	indicator { enable = true pin_chip = "/dev/gpiochip0" led_pin = 17 button_pin = 27 }
}`,
			func(t testing.TB, ctx context.Context) {
				g := GetGlobal(ctx)
				assert.Equal(t, "hci1", g.Config.Hardware.BLE.Adapter)
				assert.True(t, g.Config.Hardware.Indicator.Enable)
				assert.Equal(t, 17, g.Config.Hardware.Indicator.LEDPin)
				assert.Equal(t, 27, g.Config.Hardware.Indicator.ButtonPin)
			}, ""},

		{"include-normalize", `
name = "a"
include "./empty" {}`,
			nil, ""},

		{"include-optional", `
include "network-home" {}
include "non-exist" { optional = true }`,
			func(t testing.TB, ctx context.Context) {
				assert.Equal(t, "home", GetGlobal(ctx).Config.Network.WifiSSID)
			}, ""},

		{"include-overwrites", `
network { wifi_ssid = "office" }
include "network-home" {}`,
			func(t testing.TB, ctx context.Context) {
				assert.Equal(t, "home", GetGlobal(ctx).Config.Network.WifiSSID)
			}, ""},

		{"error-syntax", `hello`, nil, "key 'hello' expected start of object"},
		{"error-include-loop", `include "include-loop" {}`, nil, "config include loop: from=include-loop include=include-loop"},
		{"error-include-required", `include "non-exist" {}`, nil, "config required name=non-exist"},
		{"error-format", `tele { format = "xml" }`, nil, "config: tele.format=xml not valid"},
		{"error-restart", `network { restart = "halt" }`, nil, "config: network.restart=halt not valid"},
		{"error-portal-address", `network { portal_address = "10.42.0.1" }`, nil, "network.portal_address"},
		{"error-broker", `tele { enable = true }`, nil, "broker=empty"},
	}
	mkCheck := func(c Case) func(*testing.T) {
		return func(t *testing.T) {
			log := log2.NewTest(t, log2.LDebug)
			ctx, g := NewContext(log)
			fs := NewMockFullReader(map[string]string{
				"test-inline":  c.input,
				"empty":        "",
				"network-home": `network { wifi_ssid = "home" }`,
				"include-loop": `include "include-loop" {}`,
			})
			cfg, err := ReadConfig(log, fs, "test-inline")
			if err == nil {
				cfg.Persist.Root = t.TempDir()
				err = g.Init(ctx, cfg)
			}
			if c.expectErr == "" {
				if err != nil {
					t.Fatalf("error expected=nil actual='%v'", errors.ErrorStack(err))
				}
				if c.check != nil {
					c.check(t, ctx)
				}
			} else {
				if err == nil || !strings.Contains(err.Error(), c.expectErr) {
					t.Fatalf("error expected='%s' actual='%v'", c.expectErr, err)
				}
			}
		}
	}
	for _, c := range cases {
		t.Run(c.name, mkCheck(c))
	}
}

func TestFunctionalBundled(t *testing.T) {
	t.Parallel()
	t.Logf("this test needs OS open|read|stat access to file `../../yc01-bridge.hcl`")

	log := log2.NewTest(t, log2.LDebug)
	c := MustReadConfig(log, NewOsFullReader(), "../../yc01-bridge.hcl")
	c.Persist.Root = t.TempDir()
	assert.NoError(t, c.Validate(log))
}
