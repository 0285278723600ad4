package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/asavelyev/sentinel-bridge/internal/config"
	"github.com/asavelyev/sentinel-bridge/internal/logger"
)

const (
	// connectTimeout is the maximum time to wait for the initial connection.
	connectTimeout = 10 * time.Second

	// operationTimeout is the maximum time to wait for publish and
	// subscribe acknowledgements.
	operationTimeout = 5 * time.Second

	// keepAlive is the keepalive interval for the broker connection.
	keepAlive = 60 * time.Second

	// disconnectQuiesce is how long pending operations get on disconnect,
	// in milliseconds.
	disconnectQuiesce = 1000

	// qosAtLeastOnce is the QoS level used for all bridge traffic.
	qosAtLeastOnce byte = 1
)

var (
	// ErrConnectionFailed is returned when the broker cannot be reached.
	ErrConnectionFailed = errors.New("mqtt connection failed")
	// ErrNotConnected is returned when an operation needs a live connection.
	ErrNotConnected = errors.New("mqtt client is not connected")
)

// MessageHandler is the callback signature for received messages.
// Handlers run on paho's goroutines and must not block for long.
type MessageHandler func(topic string, payload []byte)

// subscription remembers an active subscription so it can be restored
// after a reconnect.
type subscription struct {
	topic   string
	handler MessageHandler
}

// Client wraps the paho MQTT client with the bridge's defaults:
// auto-reconnect, re-subscription after reconnect, QoS 1 everywhere and
// a retained availability topic used as the Last Will.
type Client struct {
	// client is the underlying paho connection.
	client pahomqtt.Client
	// availabilityTopic carries "online"/"offline", retained.
	availabilityTopic string

	// mu protects subscriptions.
	mu sync.Mutex
	// subscriptions maps topic to its handler for reconnect replay.
	subscriptions map[string]subscription
}

// Connect establishes the broker connection and announces availability.
// The availability topic doubles as the Last Will so Home Assistant marks
// the entities unavailable when the bridge dies.
func Connect(ctx context.Context, cfg config.MQTTConfig, availabilityTopic string) (*Client, error) {
	c := &Client{
		availabilityTopic: availabilityTopic,
		subscriptions:     make(map[string]subscription),
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive).
		SetWill(availabilityTopic, "offline", qosAtLeastOnce, true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.restoreSubscriptions(ctx)
		_ = c.Publish(c.availabilityTopic, []byte("online"), true)
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.WarnKV(ctx, "MQTT connection lost", "error", err)
	})

	c.client = pahomqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return c, nil
}

// Publish sends a message at QoS 1.
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	if !c.client.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qosAtLeastOnce, retained, payload)
	if !token.WaitTimeout(operationTimeout) {
		return fmt.Errorf("publish %s: timeout after %v", topic, operationTimeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	return nil
}

// Subscribe registers a handler at QoS 1. The subscription survives
// reconnects.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	c.mu.Lock()
	c.subscriptions[topic] = subscription{topic: topic, handler: handler}
	c.mu.Unlock()

	return c.subscribe(topic, handler)
}

// subscribe performs the broker-side subscription.
func (c *Client) subscribe(topic string, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qosAtLeastOnce, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})

	if !token.WaitTimeout(operationTimeout) {
		return fmt.Errorf("subscribe %s: timeout after %v", topic, operationTimeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	return nil
}

// restoreSubscriptions replays the registered subscriptions after a
// (re)connect. Paho starts with a clean session, so the broker forgot them.
func (c *Client) restoreSubscriptions(ctx context.Context) {
	c.mu.Lock()
	subs := make([]subscription, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		if err := c.subscribe(sub.topic, sub.handler); err != nil {
			logger.ErrorKV(ctx, "Failed to restore subscription", "topic", sub.topic, "error", err)
		}
	}
}

// Disconnect announces the offline state and releases the connection.
func (c *Client) Disconnect() {
	if c == nil || c.client == nil {
		return
	}

	if c.client.IsConnected() {
		_ = c.Publish(c.availabilityTopic, []byte("offline"), true)
	}

	c.client.Disconnect(disconnectQuiesce)
}
