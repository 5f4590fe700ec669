// Package mqtt publishes Waveform Core events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - A retained status topic with Last Will and Testament (LWT)
//   - One JSON event per finished ingestion run
//
// Publishing is optional. When disabled the service never dials a broker
// and ingestion does not depend on broker availability.
//
// # Topics
//
//	<prefix>/system/status   {"status":"online","client_id":"...","timestamp":"..."}
//	<prefix>/ingest/runs     RunEvent
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) for brokers off the local host
//   - Supply credentials through WAVEFORM_MQTT_USERNAME/PASSWORD
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishRunEvent(mqtt.RunEvent{RunID: id, Outcome: mqtt.OutcomeSuccess})
package mqtt
