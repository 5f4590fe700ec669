package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/waveform-core/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang for publishing service events.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig
	topics  Topics

	connected bool
	connMu    sync.RWMutex

	// Callbacks for connection events (optional, set via SetOnConnect/SetOnDisconnect).
	onConnect    func()
	onDisconnect func(err error)
	callbackMu   sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Connect establishes a connection to the MQTT broker.
//
// It performs the following setup:
//  1. Builds connection options from config (broker URL, auth, TLS)
//  2. Configures Last Will and Testament (LWT) on <prefix>/system/status
//  3. Sets up auto-reconnect with exponential backoff
//  4. Attempts initial connection with timeout
//  5. Publishes retained online status once connected
func Connect(cfg config.MQTTConfig) (*Client, error) {
	topics := Topics{Prefix: cfg.TopicPrefix}
	opts := buildClientOptions(cfg)
	configureLWT(opts, topics, cfg.Broker.ClientID)

	c := &Client{
		cfg:     cfg,
		options: opts,
		topics:  topics,
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		// Stop the background retry loop.
		c.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v connecting to %s", ErrConnectionFailed, defaultConnectTimeout, brokerURL(cfg))
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnect handler runs asynchronously and may not have fired yet.
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	return c, nil
}

// Topics returns the topic builder bound to the configured prefix.
func (c *Client) Topics() Topics {
	return c.topics
}

func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.client.Publish(c.topics.SystemStatus(), byte(c.cfg.QoS), true,
		buildStatusPayload("online", c.cfg.Broker.ClientID, ""))

	if logger := c.getLogger(); logger != nil {
		logger.Info("mqtt connected", "broker", brokerURL(c.cfg))
	}

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Warn("mqtt connection lost", "broker", brokerURL(c.cfg), "error", err)
	}

	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// Close publishes a graceful offline status and disconnects.
// Closing a nil or already disconnected client is not an error.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	if c.IsConnected() {
		payload := buildStatusPayload("offline", c.cfg.Broker.ClientID, reasonGraceful)
		token := c.client.Publish(c.topics.SystemStatus(), byte(c.cfg.QoS), true, payload)
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	return nil
}

// HealthCheck reports ErrNotConnected while the broker link is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected returns the last known connection state.
func (c *Client) IsConnected() bool {
	if c == nil || c.client == nil {
		return false
	}
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// SetOnConnect sets a callback invoked on the initial connect and every reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnDisconnect sets a callback invoked when the connection is lost.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for connection events.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
