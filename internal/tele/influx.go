package tele

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/hardware/ble"
	"github.com/temoto/yc01-bridge/hardware/yc01"
)

type InfluxConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
	Timeout     time.Duration
}

// Influx writes every reading as one point, blocking, no batching.
type Influx struct {
	config InfluxConfig
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

var _ Recorder = &Influx{} // compile-time interface test

func NewInflux(config InfluxConfig) (*Influx, error) {
	if config.URL == "" || config.Bucket == "" {
		return nil, errors.NotValidf("influx url=%q bucket=%q", config.URL, config.Bucket)
	}
	opts := influxdb2.DefaultOptions()
	if config.Timeout > 0 {
		opts.SetHTTPRequestTimeout(timeoutSeconds(config.Timeout))
	}
	client := influxdb2.NewClientWithOptions(config.URL, config.Token, opts)
	return &Influx{
		config: config,
		client: client,
		write:  client.WriteAPIBlocking(config.Org, config.Bucket),
	}, nil
}

// timeoutSeconds rounds up, client takes whole seconds and 0 means no timeout.
func timeoutSeconds(d time.Duration) uint {
	return uint((d + time.Second - 1) / time.Second)
}

func (self *Influx) Record(ctx context.Context, node string, device ble.Identity, r *yc01.Reading) error {
	tags := map[string]string{
		"node":    node,
		"address": string(device.Address),
	}
	if device.Name != "" {
		tags["name"] = device.Name
	}
	fields := make(map[string]interface{}, 10)
	for k, v := range r.Fields() {
		fields[k] = v
	}
	fields["rssi"] = r.RSSI
	fields["type"] = int(r.Type)
	p := write.NewPoint(self.config.Measurement, tags, fields, r.Time)
	err := self.write.WritePoint(ctx, p)
	return errors.Annotatef(err, "influx write bucket=%s", self.config.Bucket)
}

// Ping is health check for cli.
func (self *Influx) Ping(ctx context.Context) error {
	ok, err := self.client.Ping(ctx)
	if err == nil && !ok {
		err = errors.New("server not healthy")
	}
	return errors.Annotate(err, "influx ping")
}

func (self *Influx) Close() { self.client.Close() }
