package mqtt

import (
	"encoding/json"
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message to the specified MQTT topic.
//
// QoS Levels:
//   - 0: At most once (fire and forget)
//   - 1: At least once (guaranteed delivery, may duplicate)
//   - 2: Exactly once (guaranteed, no duplicates, higher overhead)
//
// Retained messages are for state topics such as system status,
// never for run events.
//
// Example:
//
//	topic := client.Topics().IngestRuns()
//	err := client.Publish(topic, payload, 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishJSON encodes v and publishes it with the configured default QoS,
// not retained.
func (c *Client) PublishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %w", ErrPublishFailed, err)
	}
	return c.Publish(topic, payload, byte(c.cfg.QoS), false)
}
