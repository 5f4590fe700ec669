// Package influxdb mirrors generated waveform samples into InfluxDB.
//
// The relational store keeps truncated 16-bit integers. This package
// keeps the full-precision floats alongside, tagged by run_id, so that
// truncation loss can be inspected after the fact.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteSamples(runID, started, samples)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Writes are non-blocking and batch errors are delivered to the SetOnError
// callback. Connection and health check errors are returned directly.
package influxdb
