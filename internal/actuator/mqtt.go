package actuator

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/oakfield-labs/doorgate/internal/infrastructure/config"
)

const (
	// mqttConnectTimeout is the maximum time to wait for the initial
	// broker connection.
	mqttConnectTimeout = 10 * time.Second

	// mqttDisconnectQuiesce is the time to wait for pending operations
	// on disconnect, in milliseconds.
	mqttDisconnectQuiesce = 1000

	// mqttKeepAlive is the keepalive interval for the connection.
	mqttKeepAlive = 60 * time.Second
)

// openPayload is the command published to the door relay topic.
const openPayload = `{"action":"open"}`

// MQTTTrigger releases the door by publishing an open command to a
// door-relay topic. Useful where the relay hangs off a building
// automation broker instead of exposing its own HTTP endpoint.
type MQTTTrigger struct {
	client  pahomqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
}

// NewMQTTTrigger connects to the broker and returns an MQTT actuator
// publishing to cfg.Actuator.Topic. The connection uses auto-reconnect;
// a publish while the broker is away fails fast as ErrUnreachable
// rather than queueing an open command for later, since a stale door
// release is worse than a failed one.
func NewMQTTTrigger(cfg *config.Config, logger *slog.Logger) (*MQTTTrigger, error) {
	opts := buildClientOptions(cfg.MQTT)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("%w: broker connect timeout after %v", ErrUnreachable, mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: broker connect: %w", ErrUnreachable, err)
	}

	return &MQTTTrigger{
		client:  client,
		topic:   cfg.Actuator.Topic,
		qos:     byte(cfg.MQTT.QoS),
		timeout: cfg.GetActuatorTimeout(),
		logger:  logger,
	}, nil
}

// TriggerOpen publishes the open command and waits for broker
// acknowledgment within the trigger deadline.
func (t *MQTTTrigger) TriggerOpen(ctx context.Context) error {
	if !t.client.IsConnected() {
		return fmt.Errorf("%w: not connected to broker", ErrUnreachable)
	}

	deadline := t.timeout
	if d, ok := ctx.Deadline(); ok {
		if remaining := time.Until(d); remaining < deadline {
			deadline = remaining
		}
	}

	token := t.client.Publish(t.topic, t.qos, false, openPayload)
	if !token.WaitTimeout(deadline) {
		return fmt.Errorf("%w: publish timeout after %v", ErrUnreachable, deadline)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: publish: %w", ErrBadStatus, err)
	}

	t.logger.Debug("open command published", "topic", t.topic)
	return nil
}

// Close disconnects from the broker, waiting briefly for pending
// operations.
func (t *MQTTTrigger) Close() {
	if t.client != nil && t.client.IsConnected() {
		t.client.Disconnect(mqttDisconnectQuiesce)
	}
}

// buildClientOptions creates paho MQTT options from doorgate config.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))

	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetKeepAlive(mqttKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
		})
	}

	return opts
}
