package state

import (
	"net"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/helpers"
	"github.com/temoto/yc01-bridge/log2"
)

const (
	DefaultName           = "yc01-bridge"
	DefaultPersistRoot    = "./tmp-yc01-db"
	DefaultInterval       = 900 * time.Second
	DefaultRetryMargin    = 600 * time.Second
	DefaultScanTimeout    = 2500 * time.Millisecond
	DefaultTick           = time.Second
	DefaultReadNowMin     = 10 * time.Second
	DefaultPortalSSID     = "YC01-Portal"
	DefaultPortalAddress  = "10.42.0.1/24"
	DefaultTeleTimeout    = 5 * time.Second
	DefaultHistoryKeep    = 30 // days
	FormatJSON            = "json"
	FormatProto           = "proto"
	defaultTopicPrefix    = "yc01/"
	defaultInfluxMeasure  = "water"
	defaultHistoryFile    = "history.sqlite"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	// node identity in status document and telemetry topic
	Name string `hcl:"name"`

	Persist struct {
		Root string `hcl:"root"`
	} `hcl:"persist"`

	Acquire  AcquireConfig  `hcl:"acquire"`
	Network  NetworkConfig  `hcl:"network"`
	Tele     TeleConfig     `hcl:"tele"`
	Influx   InfluxConfig   `hcl:"influx"`
	History  HistoryConfig  `hcl:"history"`
	Metrics  MetricsConfig  `hcl:"metrics"`
	Hardware HardwareConfig `hcl:"hardware"`
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

type AcquireConfig struct {
	IntervalSec    int `hcl:"interval_sec"`
	RetryMarginSec int `hcl:"retry_margin_sec"`
	ScanTimeoutMs  int `hcl:"scan_timeout_ms"`
	LinkTimeoutSec int `hcl:"link_timeout_sec"`
	RetryDelayMs   int `hcl:"retry_delay_ms"`
	// optional pinned sensor address, persisted rebind wins
	Target        string `hcl:"target"`
	ReadNowMinSec int    `hcl:"read_now_min_sec"`
	TickMs        int    `hcl:"tick_ms"`
	LogDebug      bool   `hcl:"log_debug"`
}

type NetworkConfig struct {
	Enable         bool   `hcl:"enable"`
	Interface      string `hcl:"interface"`
	WifiSSID       string `hcl:"wifi_ssid"`
	WifiPassword   string `hcl:"wifi_password"`
	PortalSSID     string `hcl:"portal_ssid"`
	PortalPassword string `hcl:"portal_password"`
	// CIDR, host part is answered to every captive DNS query
	PortalAddress        string `hcl:"portal_address"`
	DNSListen            string `hcl:"dns_listen"`
	JoinTimeoutSec       int    `hcl:"join_timeout_sec"`
	FallbackTimeoutSec   int    `hcl:"fallback_timeout_sec"`
	FallbackExtendSec    int    `hcl:"fallback_extend_sec"`
	DisconnectTimeoutSec int    `hcl:"disconnect_timeout_sec"`
	// exit|reboot
	Restart  string `hcl:"restart"`
	QRPath   string `hcl:"qr_path"`
	LogDebug bool   `hcl:"log_debug"`
}

type TeleConfig struct {
	Enable     bool   `hcl:"enable"`
	Broker     string `hcl:"broker"`
	ClientID   string `hcl:"client_id"`
	Username   string `hcl:"username"`
	Password   string `hcl:"password"`
	Topic      string `hcl:"topic"`
	Format     string `hcl:"format"`
	QoS        int    `hcl:"qos"`
	TimeoutSec int    `hcl:"timeout_sec"`
	LogDebug   bool   `hcl:"log_debug"`
}

type InfluxConfig struct {
	Enable      bool   `hcl:"enable"`
	URL         string `hcl:"url"`
	Token       string `hcl:"token"`
	Org         string `hcl:"org"`
	Bucket      string `hcl:"bucket"`
	Measurement string `hcl:"measurement"`
	TimeoutSec  int    `hcl:"timeout_sec"`
}

type HistoryConfig struct {
	Enable        bool   `hcl:"enable"`
	Path          string `hcl:"path"`
	RetentionDays int    `hcl:"retention_days"`
}

type MetricsConfig struct {
	// empty = no http exposition, counters still work
	Listen string `hcl:"listen"`
}

type HardwareConfig struct {
	BLE struct {
		Adapter  string `hcl:"adapter"`
		LogDebug bool   `hcl:"log_debug"`
	} `hcl:"ble"`
	Indicator struct {
		Enable    bool   `hcl:"enable"`
		PinChip   string `hcl:"pin_chip"`
		LEDPin    int    `hcl:"led_pin"`
		ButtonPin int    `hcl:"button_pin"`
	} `hcl:"indicator"`
}

func (self *AcquireConfig) Interval() time.Duration {
	return helpers.IntSecondDefault(self.IntervalSec, DefaultInterval)
}

// RetryMargin is strictly inside (0, Interval).
func (self *AcquireConfig) RetryMargin() time.Duration {
	interval := self.Interval()
	margin := helpers.IntSecondDefault(self.RetryMarginSec, DefaultRetryMargin)
	if margin <= 0 || margin >= interval {
		margin = interval / 2
	}
	return margin
}

func (self *AcquireConfig) ScanTimeout() time.Duration {
	return helpers.IntMillisecondDefault(self.ScanTimeoutMs, DefaultScanTimeout)
}
func (self *AcquireConfig) LinkTimeout() time.Duration {
	return helpers.IntSecondDefault(self.LinkTimeoutSec, 0)
}
func (self *AcquireConfig) RetryDelay() time.Duration {
	return helpers.IntMillisecondDefault(self.RetryDelayMs, 0)
}
func (self *AcquireConfig) ReadNowMin() time.Duration {
	return helpers.IntSecondDefault(self.ReadNowMinSec, DefaultReadNowMin)
}
func (self *AcquireConfig) Tick() time.Duration {
	return helpers.IntMillisecondDefault(self.TickMs, DefaultTick)
}

// PortalIP is host part of PortalAddress, valid after Validate.
func (self *NetworkConfig) PortalIP() net.IP {
	ip, _, _ := net.ParseCIDR(self.PortalAddress)
	return ip
}

func (self *TeleConfig) Timeout() time.Duration {
	return helpers.IntSecondDefault(self.TimeoutSec, DefaultTeleTimeout)
}

func (self *InfluxConfig) Timeout() time.Duration {
	return helpers.IntSecondDefault(self.TimeoutSec, DefaultTeleTimeout)
}

func (self *HistoryConfig) Retention() time.Duration {
	days := self.RetentionDays
	if days == 0 {
		days = DefaultHistoryKeep
	}
	return time.Duration(days) * 24 * time.Hour
}

// Validate applies defaults and returns all problems folded.
func (c *Config) Validate(log *log2.Log) error {
	errs := make([]error, 0, 8)

	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Persist.Root == "" {
		c.Persist.Root = DefaultPersistRoot
		log.Errorf("config: persist.root=empty changed=%s", c.Persist.Root)
	}
	log.Debugf("config: persist.root=%s", c.Persist.Root)

	if c.Acquire.IntervalSec < 0 {
		errs = append(errs, errors.NotValidf("config: acquire.interval_sec=%d", c.Acquire.IntervalSec))
	}
	if c.Acquire.RetryMarginSec != 0 {
		if m := c.Acquire.RetryMargin(); m != time.Duration(c.Acquire.RetryMarginSec)*time.Second {
			log.Errorf("config: acquire.retry_margin_sec=%d outside interval changed=%v", c.Acquire.RetryMarginSec, m)
		}
	}
	if c.Acquire.LinkTimeoutSec < 0 || c.Acquire.ScanTimeoutMs < 0 || c.Acquire.RetryDelayMs < 0 || c.Acquire.TickMs < 0 {
		errs = append(errs, errors.NotValidf("config: acquire negative timeout"))
	}

	n := &c.Network
	if n.PortalSSID == "" {
		n.PortalSSID = DefaultPortalSSID
	}
	if n.PortalAddress == "" {
		n.PortalAddress = DefaultPortalAddress
	}
	if ip, _, err := net.ParseCIDR(n.PortalAddress); err != nil || ip.To4() == nil {
		errs = append(errs, errors.NotValidf("config: network.portal_address=%s", n.PortalAddress))
	}
	if n.PortalPassword != "" && len(n.PortalPassword) < 8 {
		errs = append(errs, errors.NotValidf("config: network.portal_password shorter than 8"))
	}
	if n.Enable && n.WifiSSID == "" {
		log.Errorf("config: network.wifi_ssid=empty, portal will be hosted after join timeout")
	}
	switch n.Restart {
	case "", "exit", "reboot":
	default:
		errs = append(errs, errors.NotValidf("config: network.restart=%s", n.Restart))
	}

	t := &c.Tele
	if t.Format == "" {
		t.Format = FormatJSON
	}
	if t.Format != FormatJSON && t.Format != FormatProto {
		errs = append(errs, errors.NotValidf("config: tele.format=%s", t.Format))
	}
	if t.QoS < 0 || t.QoS > 2 {
		errs = append(errs, errors.NotValidf("config: tele.qos=%d", t.QoS))
	}
	if t.ClientID == "" {
		t.ClientID = c.Name
	}
	if t.Topic == "" {
		t.Topic = defaultTopicPrefix + c.Name + "/status"
	}
	if t.Enable && t.Broker == "" {
		errs = append(errs, errors.NotValidf("config: tele.enable=true broker=empty"))
	}

	if c.Influx.Measurement == "" {
		c.Influx.Measurement = defaultInfluxMeasure
	}
	if c.Influx.Enable && (c.Influx.URL == "" || c.Influx.Bucket == "") {
		errs = append(errs, errors.NotValidf("config: influx.enable=true requires url and bucket"))
	}

	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.Persist.Root, defaultHistoryFile)
	}
	if c.History.RetentionDays < 0 {
		errs = append(errs, errors.NotValidf("config: history.retention_days=%d", c.History.RetentionDays))
	}

	return helpers.FoldErrors(errs)
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			*errs = append(*errs, errors.NotFoundf("config required name=%s path=%s", source.Name, norm))
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	if err = hcl.Unmarshal(bs, c); err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config unmarshal source=%s", source.Name))
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		if _, ok := c.includeSeen[fs.Normalize(include.Name)]; ok {
			*errs = append(*errs, errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name))
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// ReadConfig reads and merges sources in order, later values overwrite.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.New("code error ReadConfig() without names")
	}
	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{includeSeen: make(map[string]struct{})}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
