package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-reconciler/core/reconcile"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"gorm.io/gorm"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250 // milliseconds
	maxQoS            = 2
)

// ErrPublishTimeout is returned when the broker does not acknowledge an
// event in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Publisher is the part of a paho client the emitter needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
}

// MQTTEmitter publishes events as JSON to <prefix>/<event type>/<netbox id>.
type MQTTEmitter struct {
	client  Publisher
	prefix  string
	qos     byte
	timeout time.Duration
}

// NewMQTTEmitter wraps an already connected publisher.
func NewMQTTEmitter(client Publisher, cfg Config) (*MQTTEmitter, error) {
	if cfg.QoS < 0 || cfg.QoS > maxQoS {
		return nil, fmt.Errorf("invalid mqtt qos %d", cfg.QoS)
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MQTTEmitter{client: client, prefix: cfg.TopicPrefix, qos: byte(cfg.QoS), timeout: timeout}, nil
}

// Dial connects to the configured broker. The returned function disconnects.
func Dial(cfg Config) (*MQTTEmitter, func(), error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, nil, fmt.Errorf("failed to connect to %s: timeout after %v", cfg.Broker, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.Broker, err)
	}

	em, err := NewMQTTEmitter(client, cfg)
	if err != nil {
		client.Disconnect(disconnectQuiesce)
		return nil, nil, err
	}
	return em, func() { client.Disconnect(disconnectQuiesce) }, nil
}

// Topic returns the topic ev is published to.
func (m *MQTTEmitter) Topic(ev reconcile.Event) string {
	return fmt.Sprintf("%s/%s/%d", m.prefix, ev.EventType, ev.NetboxID)
}

// Emit publishes ev and waits for the broker acknowledgement.
func (m *MQTTEmitter) Emit(ctx context.Context, _ *gorm.DB, ev reconcile.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	token := m.client.Publish(m.Topic(ev), m.qos, false, payload)
	select {
	case <-token.Done():
	case <-time.After(m.timeout):
		return fmt.Errorf("%w after %v", ErrPublishTimeout, m.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", m.Topic(ev), err)
	}
	return nil
}
