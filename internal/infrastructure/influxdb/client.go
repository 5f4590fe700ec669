package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/waveform-core/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
	defaultMeasurement   = "waveform"
)

// Client mirrors samples into one bucket through the batching write API.
//
// Writes never block the caller. After Close every method is a no-op and
// HealthCheck reports ErrClosed; concurrent writes and Close are safe.
type Client struct {
	influx      influxdb2.Client
	writes      api.WriteAPI
	measurement string

	// mu guards closed and serialises Close against in-progress writes,
	// which must not reach the write API once it is shut down.
	mu     sync.RWMutex
	closed bool

	errMu   sync.RWMutex
	onError func(err error)
}

// Connect pings the server and prepares a batching writer for cfg.Bucket.
// It returns ErrDisabled when the mirror is switched off and
// ErrConnectionFailed when the ping fails.
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	influx := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, writeOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := ping(ctx, influx); err != nil {
		influx.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	measurement := cfg.Measurement
	if measurement == "" {
		measurement = defaultMeasurement
	}

	c := &Client{
		influx:      influx,
		writes:      influx.WriteAPI(cfg.Org, cfg.Bucket),
		measurement: measurement,
	}
	go c.forwardErrors(c.writes.Errors())

	return c, nil
}

// writeOptions applies the configured batching, falling back to the
// defaults for non-positive values.
func writeOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := defaultBatchSize
	if cfg.BatchSize > 0 {
		batch = cfg.BatchSize
	}
	flush := defaultFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}

	// #nosec G115 -- both values are positive
	return influxdb2.DefaultOptions().
		SetBatchSize(uint(batch)).
		SetFlushInterval(uint(flush.Milliseconds())).
		SetPrecision(time.Nanosecond)
}

func ping(ctx context.Context, influx influxdb2.Client) error {
	ok, err := influx.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("ping: server not ready")
	}
	return nil
}

// forwardErrors hands batch failures to the callback until the write API
// closes its error channel.
func (c *Client) forwardErrors(errs <-chan error) {
	for err := range errs {
		c.errMu.RLock()
		callback := c.onError
		c.errMu.RUnlock()

		if callback != nil {
			callback(fmt.Errorf("%w: %w", ErrWriteFailed, err))
		}
	}
}

// SetOnError registers the receiver of asynchronous batch failures.
// Every error it receives wraps ErrWriteFailed.
func (c *Client) SetOnError(callback func(err error)) {
	c.errMu.Lock()
	c.onError = callback
	c.errMu.Unlock()
}

// writePoints queues points unless the client is closed.
func (c *Client) writePoints(points ...*write.Point) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	for _, p := range points {
		c.writes.WritePoint(p)
	}
}

// Flush sends every queued point and waits for the batch to finish.
func (c *Client) Flush() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	c.writes.Flush()
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(ctx, c.influx); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	return nil
}

// Close flushes queued points and releases the client. Calling it more
// than once, or on a nil client, is a no-op.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	c.writes.Flush()
	c.influx.Close()
	return nil
}
