package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/waveform-core/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Status reasons carried in the offline payloads.
const (
	reasonUnexpected = "unexpected_disconnect"
	reasonGraceful   = "graceful_shutdown"
)

// statusPayload is the body of every message on the system status topic.
type statusPayload struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// brokerURL returns tcp://host:port, or ssl:// when TLS is enabled.
func brokerURL(cfg config.MQTTConfig) string {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
}

// buildClientOptions creates paho MQTT options from the service config.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on TLS setting)
//   - Client ID and optional credentials
//   - Auto-reconnect with exponential backoff
//   - Clean session mode
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Events are fire-and-forget, no persistent session on the broker.
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}

// configureLWT sets up Last Will and Testament for offline detection.
//
// The broker publishes the will, retained, on the status topic if the
// client disappears without a clean disconnect.
func configureLWT(opts *pahomqtt.ClientOptions, topics Topics, clientID string) {
	opts.SetWill(topics.SystemStatus(), string(buildStatusPayload("offline", clientID, reasonUnexpected)), 1, true)
}

// buildStatusPayload encodes a status message stamped with the current UTC time.
func buildStatusPayload(status, clientID, reason string) []byte {
	b, err := json.Marshal(statusPayload{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		// statusPayload only holds strings; Marshal cannot fail.
		panic(err)
	}
	return b
}
