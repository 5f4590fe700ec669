package influxdb

import "errors"

// Sentinel errors for the sample mirror. Check them with errors.Is.
var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed is returned by Connect when the server does not
	// answer its ping.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrClosed is returned by HealthCheck after Close.
	ErrClosed = errors.New("influxdb: client closed")

	// ErrWriteFailed wraps every asynchronous batch failure handed to the
	// SetOnError callback.
	ErrWriteFailed = errors.New("influxdb: write failed")
)
