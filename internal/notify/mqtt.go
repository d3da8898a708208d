package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"ai-image-service/internal/config"
	"ai-image-service/internal/models"
)

const mqttConnectTimeout = 5 * time.Second

// MQTTChannel publishes events to the real-time broker. A disconnected
// client fails sends immediately without buffering; reconnection is left to
// the paho auto-reconnect loop.
type MQTTChannel struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
}

// NewMQTT connects to the configured broker.
func NewMQTT(cfg config.Config) (*MQTTChannel, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBrokerURL)
	opts.SetClientID(fmt.Sprintf("ai-image-service-%d", os.Getpid()))
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	if cfg.MQTTUsername != "" && cfg.MQTTPassword != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timeout", cfg.MQTTBrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.MQTTBrokerURL, err)
	}

	slog.Info("connected to mqtt broker", "broker", cfg.MQTTBrokerURL)
	return &MQTTChannel{
		client:  client,
		prefix:  cfg.MQTTTopicPrefix,
		timeout: cfg.MQTTSendTimeout,
	}, nil
}

func (c *MQTTChannel) Name() string { return "mqtt" }

// Send publishes the event payload at QoS 1 with a bounded wait.
func (c *MQTTChannel) Send(_ context.Context, ev models.Event) bool {
	if !c.client.IsConnectionOpen() {
		slog.Warn("mqtt not connected, dropping event", "topic", ev.Topic())
		return false
	}

	payload, err := json.Marshal(ev.Detail())
	if err != nil {
		slog.Error("marshal mqtt payload", "topic", ev.Topic(), "error", err)
		return false
	}

	topic := c.prefix + "/" + ev.Topic()
	token := c.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(c.timeout) {
		slog.Warn("mqtt publish timed out", "topic", topic)
		return false
	}
	if err := token.Error(); err != nil {
		slog.Error("mqtt publish failed", "topic", topic, "error", err)
		return false
	}
	return true
}

// Close disconnects from the broker.
func (c *MQTTChannel) Close() {
	c.client.Disconnect(250)
}
