package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

// connectionNotifier is the part of *mqtt.Client that reports link changes.
type connectionNotifier interface {
	SetOnConnect(callback func())
	SetOnDisconnect(callback func(err error))
}

// trackConnection exports the broker link state as waveform_mqtt_connected.
// The client is connected when this is called.
func trackConnection(n connectionNotifier, reg prometheus.Registerer) prometheus.Gauge {
	connected := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "waveform",
		Subsystem: "mqtt",
		Name:      "connected",
		Help:      "1 while the MQTT broker connection is up, 0 otherwise.",
	})
	reg.MustRegister(connected)

	connected.Set(1)
	n.SetOnConnect(func() { connected.Set(1) })
	n.SetOnDisconnect(func(error) { connected.Set(0) })
	return connected
}
