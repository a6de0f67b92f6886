package tele

import (
	"context"
	"path"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/log2"
)

const (
	mqttKeepAlive      = 60 * time.Second
	mqttConnectTimeout = 10 * time.Second
	mqttRetryInterval  = 30 * time.Second
	mqttCloseQuiesce   = 250 // ms
)

type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// status topic, online flag is retained at sibling "online"
	Topic    string
	QoS      byte
	LogDebug bool
}

// MQTT is paho client behind Sink. Connection is retried in background by paho,
// Publish fails fast while disconnected.
type MQTT struct {
	log         *log2.Log
	config      MQTTConfig
	m           mqtt.Client
	topicOnline string

	mu        sync.RWMutex
	connected bool
}

var _ Sink = &MQTT{} // compile-time interface test

func NewMQTT(log *log2.Log, config MQTTConfig) (*MQTT, error) {
	if config.Broker == "" {
		return nil, errors.NotValidf("mqtt broker=empty")
	}
	if config.QoS > 2 {
		return nil, errors.NotValidf("mqtt qos=%d", config.QoS)
	}
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log
	if config.LogDebug {
		mqtt.DEBUG = log
	}

	self := &MQTT{
		log:         log,
		config:      config,
		topicOnline: path.Join(path.Dir(config.Topic), "online"),
	}
	opts := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetBinaryWill(self.topicOnline, []byte{0x00}, 1, true).
		SetCleanSession(true).
		SetKeepAlive(mqttKeepAlive).
		SetConnectTimeout(mqttConnectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(mqttRetryInterval).
		SetOrderMatters(false).
		SetOnConnectHandler(self.onConnect).
		SetConnectionLostHandler(self.onConnectionLost)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	self.m = mqtt.NewClient(opts)
	// with ConnectRetry token completes only on success or Disconnect
	_ = self.m.Connect()
	return self, nil
}

func (self *MQTT) Reachable() bool {
	self.mu.RLock()
	defer self.mu.RUnlock()
	return self.connected && self.m.IsConnectionOpen()
}

func (self *MQTT) Publish(ctx context.Context, topic string, payload []byte) error {
	if !self.Reachable() {
		return errors.Errorf("mqtt not connected broker=%s", self.config.Broker)
	}
	token := self.m.Publish(topic, self.config.QoS, false, payload)
	select {
	case <-token.Done():
		return errors.Annotatef(token.Error(), "mqtt publish topic=%s", topic)
	case <-ctx.Done():
		return errors.Annotatef(ctx.Err(), "mqtt publish topic=%s", topic)
	}
}

func (self *MQTT) Close() {
	if self.Reachable() {
		token := self.m.Publish(self.topicOnline, 1, true, []byte{0x00})
		token.WaitTimeout(time.Second)
	}
	self.m.Disconnect(mqttCloseQuiesce)
	self.mu.Lock()
	self.connected = false
	self.mu.Unlock()
}

func (self *MQTT) onConnect(c mqtt.Client) {
	self.log.Infof("mqtt connected broker=%s", self.config.Broker)
	self.mu.Lock()
	self.connected = true
	self.mu.Unlock()
	c.Publish(self.topicOnline, 1, true, []byte{0x01})
}

func (self *MQTT) onConnectionLost(c mqtt.Client, err error) {
	self.log.Errorf("mqtt connection lost err=%v", err)
	self.mu.Lock()
	self.connected = false
	self.mu.Unlock()
}
