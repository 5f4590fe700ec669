package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Database      DatabaseMetrics `json:"database"`
	MQTT          *MQTTMetrics    `json:"mqtt,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// DatabaseMetrics contains connection pool statistics. Every ingest pair
// checks out one connection, so WaitCount and WaitDurationMS show pool
// pressure directly.
type DatabaseMetrics struct {
	MaxOpenConnections int   `json:"max_open_connections"`
	OpenConnections    int   `json:"open_connections"`
	InUse              int   `json:"in_use"`
	Idle               int   `json:"idle"`
	WaitCount          int64 `json:"wait_count"`
	WaitDurationMS     int64 `json:"wait_duration_ms"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// handleMetrics returns runtime and pool statistics as JSON.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbStats := s.db.Stats()

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Database: DatabaseMetrics{
			MaxOpenConnections: dbStats.MaxOpenConnections,
			OpenConnections:    dbStats.OpenConnections,
			InUse:              dbStats.InUse,
			Idle:               dbStats.Idle,
			WaitCount:          dbStats.WaitCount,
			WaitDurationMS:     dbStats.WaitDuration.Milliseconds(),
		},
	}

	if s.mqtt != nil {
		metrics.MQTT = &MQTTMetrics{Connected: s.mqtt.IsConnected()}
	}

	writeJSON(w, http.StatusOK, metrics)
}
