package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Sample is one generated point at full float precision.
type Sample struct {
	Index int
	X, Y  float64
}

// WriteSamples mirrors a run's samples into the configured measurement.
//
// Every point is tagged with run_id. Timestamps are the run start plus
// the sample index in nanoseconds so that points of one run never share
// a series key and timestamp. The write is non-blocking; errors surface
// through the SetOnError callback.
//
// Example:
//
//	client.WriteSamples(run.ID, run.Started, samples)
func (c *Client) WriteSamples(runID string, started time.Time, samples []Sample) {
	c.writePoints(samplePoints(c.measurement, runID, started, samples)...)
}

// WriteRunSummary records one point per run describing its outcome.
//
// Fields: pairs, rows, duration_ms and ok. The measurement is the
// sample measurement with a "_runs" suffix.
func (c *Client) WriteRunSummary(runID string, started time.Time, pairs, rows int, duration time.Duration, ok bool) {
	c.writePoints(summaryPoint(c.measurement, runID, started, pairs, rows, duration, ok))
}

func samplePoints(measurement, runID string, started time.Time, samples []Sample) []*write.Point {
	points := make([]*write.Point, 0, len(samples))
	for _, s := range samples {
		points = append(points, write.NewPoint(
			measurement,
			map[string]string{"run_id": runID},
			map[string]interface{}{
				"index": s.Index,
				"x":     s.X,
				"y":     s.Y,
			},
			started.Add(time.Duration(s.Index)),
		))
	}
	return points
}

func summaryPoint(measurement, runID string, started time.Time, pairs, rows int, duration time.Duration, ok bool) *write.Point {
	return write.NewPoint(
		measurement+"_runs",
		map[string]string{"run_id": runID},
		map[string]interface{}{
			"pairs":       pairs,
			"rows":        rows,
			"duration_ms": duration.Milliseconds(),
			"ok":          ok,
		},
		started,
	)
}
