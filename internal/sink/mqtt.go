// internal/sink/mqtt.go
package sink

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tamzrod/inverter-mqtt/internal/telemetry"
)

const (
	availabilityOnline  = "online"
	availabilityOffline = "offline"
)

// MQTTConfig carries broker and topic settings.
type MQTTConfig struct {
	Broker   string // e.g. tcp://127.0.0.1:1883
	ClientID string
	Username string
	Password string
	Prefix   string // topic prefix, e.g. "deye"
	QoS      byte

	// SuppressUnchanged skips re-publishing a value identical to the
	// last one sent on the same topic. Retained topics make the last
	// value available to late subscribers regardless.
	SuppressUnchanged bool

	ConnectTimeout time.Duration
}

// MQTT publishes each value of a batch to its own topic. The broker sees
// <prefix>/<inverter>/<value topic>; an availability topic per inverter
// carries online/offline via last will.
type MQTT struct {
	cfg    MQTTConfig
	client mqtt.Client

	mu   sync.Mutex
	last map[string]string
}

// NewMQTT prepares a client without connecting. Inverters is the set of
// names the availability last-will must cover.
func NewMQTT(cfg MQTTConfig, inverters []string) *MQTT {
	if cfg.ClientID == "" {
		cfg.ClientID = "inverter-mqtt"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetOrderMatters(false)

	// A will covers a single topic only; announce the first inverter via
	// will and the rest explicitly in OnConnect.
	if len(inverters) > 0 {
		opts.SetWill(AvailabilityTopic(cfg.Prefix, inverters[0]), availabilityOffline, cfg.QoS, true)
	}

	m := &MQTT{cfg: cfg, last: make(map[string]string)}
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		for _, inv := range inverters {
			c.Publish(AvailabilityTopic(cfg.Prefix, inv), cfg.QoS, true, availabilityOnline)
		}
		log.Printf("mqtt: connected to %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("mqtt: connection lost: %v", err)
	})

	m.client = mqtt.NewClient(opts)
	return m
}

// Connect blocks until the broker accepts the session or the timeout hits.
func (m *MQTT) Connect() error {
	tok := m.client.Connect()
	if !tok.WaitTimeout(m.cfg.ConnectTimeout) {
		return fmt.Errorf("%w: connect timeout to %s", ErrPublishFailed, m.cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	return nil
}

// Publish sends every value on its own retained topic. All values are
// attempted; the first failure is reported.
func (m *MQTT) Publish(ctx context.Context, batch telemetry.Batch) error {
	if !m.client.IsConnectionOpen() {
		return fmt.Errorf("%w: not connected to %s", ErrPublishFailed, m.cfg.Broker)
	}

	var first error
	for _, v := range batch.Values {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		topic := Topic(m.cfg.Prefix, batch.Inverter, v.Topic)
		payload := FormatValue(v.Value)
		if m.cfg.SuppressUnchanged && !m.changed(topic, payload) {
			continue
		}

		tok := m.client.Publish(topic, m.cfg.QoS, true, payload)
		if !tok.WaitTimeout(m.cfg.ConnectTimeout) {
			if first == nil {
				first = fmt.Errorf("%w: timeout publishing %s", ErrPublishFailed, topic)
			}
			continue
		}
		if err := tok.Error(); err != nil {
			if first == nil {
				first = fmt.Errorf("%w: %s: %v", ErrPublishFailed, topic, err)
			}
			continue
		}
		m.remember(topic, payload)
	}
	return first
}

// Close announces offline for the session's will topic and disconnects.
func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}

func (m *MQTT) changed(topic, payload string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last[topic] != payload
}

func (m *MQTT) remember(topic, payload string) {
	m.mu.Lock()
	m.last[topic] = payload
	m.mu.Unlock()
}

// Topic joins prefix, inverter name and value suffix, tolerating empty
// or slash-decorated parts.
func Topic(prefix, inverter, suffix string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{prefix, inverter, suffix} {
		if p = strings.Trim(p, "/"); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

// AvailabilityTopic is where an inverter's online/offline state lives.
func AvailabilityTopic(prefix, inverter string) string {
	return Topic(prefix, inverter, "status")
}

// FormatValue renders a metric the way subscribers expect: shortest
// representation that round-trips, no exponent for typical magnitudes.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
