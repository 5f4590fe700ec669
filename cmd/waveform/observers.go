package main

import (
	"sync"
	"time"

	"github.com/nerrad567/waveform-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/waveform-core/internal/infrastructure/logging"
	"github.com/nerrad567/waveform-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/waveform-core/internal/ingest"
)

// eventPublisher is the part of *mqtt.Client used for run events.
type eventPublisher interface {
	PublishRunEvent(ev mqtt.RunEvent) error
}

// runPublisher announces finished runs on MQTT. Publishing waits for the
// broker acknowledgement, so it happens off the request goroutine; Wait
// drains those goroutines before the client is closed.
type runPublisher struct {
	client eventPublisher
	log    *logging.Logger
	wg     sync.WaitGroup

	// async is false in tests so that publishes complete before assertions.
	async bool
}

func newRunPublisher(client eventPublisher, log *logging.Logger) *runPublisher {
	return &runPublisher{client: client, log: log.With("component", "mqtt"), async: true}
}

func (p *runPublisher) RunCompleted(run ingest.RunInfo, res ingest.Result, err error) {
	ev := runEvent(run, res, err)
	publish := func() {
		if pubErr := p.client.PublishRunEvent(ev); pubErr != nil {
			p.log.Warn("publishing run event failed", "run_id", ev.RunID, "error", pubErr)
		}
	}
	if p.async {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			publish()
		}()
		return
	}
	publish()
}

// Wait blocks until every in-flight publish has finished.
func (p *runPublisher) Wait() {
	p.wg.Wait()
}

func runEvent(run ingest.RunInfo, res ingest.Result, err error) mqtt.RunEvent {
	ev := mqtt.RunEvent{
		RunID:      run.ID,
		Started:    run.Started,
		DurationMS: res.Duration.Milliseconds(),
		Outcome:    mqtt.OutcomeSuccess,
		Requested:  run.Params.Count,
		Pairs:      res.Pairs,
		Rows:       len(res.Inserted),
		Amplitude:  run.Params.Amplitude,
		Frequency:  run.Params.Frequency,
		Phase:      run.Params.Phase,
	}
	if err != nil {
		ev.Outcome = mqtt.OutcomeFailure
		ev.Error = err.Error()
	}
	return ev
}

// sampleWriter is the part of *influxdb.Client used for mirroring.
type sampleWriter interface {
	WriteSamples(runID string, started time.Time, samples []influxdb.Sample)
	WriteRunSummary(runID string, started time.Time, pairs, rows int, duration time.Duration, ok bool)
}

// sampleMirror writes the full-precision samples of every stored pair to
// InfluxDB. Writes are batched by the client and never block.
type sampleMirror struct {
	client sampleWriter
}

func newSampleMirror(client sampleWriter) *sampleMirror {
	return &sampleMirror{client: client}
}

func (m *sampleMirror) RunCompleted(run ingest.RunInfo, res ingest.Result, err error) {
	points := run.Params.Generate()
	if res.Pairs < len(points) {
		points = points[:res.Pairs]
	}

	samples := make([]influxdb.Sample, len(points))
	for i, p := range points {
		samples[i] = influxdb.Sample{Index: i, X: float64(p.X), Y: float64(p.Y)}
	}

	if len(samples) > 0 {
		m.client.WriteSamples(run.ID, run.Started, samples)
	}
	m.client.WriteRunSummary(run.ID, run.Started, res.Pairs, len(res.Inserted), res.Duration, err == nil)
}
