// Package api implements the HTTP surface of Waveform Core.
//
// Routes:
//   - GET /                 run one ingestion, then return the index document
//   - GET /static/*         browsable static directory (prefix configurable)
//   - GET /api/v1/health    database reachability
//   - GET /api/v1/metrics   runtime and connection pool statistics (JSON)
//   - GET /metrics          Prometheus exposition
//
// Ingestion failures are answered through a fixed table keyed by
// coordinate.Kind (see errors.go). Only pool failures carry a message;
// every other failure is opaque to the caller.
//
// The server follows the same lifecycle as other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
