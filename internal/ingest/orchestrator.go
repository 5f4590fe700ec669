package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/waveform-core/internal/coordinate"
	"github.com/nerrad567/waveform-core/internal/infrastructure/logging"
	"github.com/nerrad567/waveform-core/internal/waveform"
)

const opAcquire = "ingest.acquire"

// Config holds per-run settings.
type Config struct {
	// Interval is waited at the start of every run.
	Interval time.Duration
	Params   waveform.Params
}

// Deps holds the collaborators of an Orchestrator.
type Deps struct {
	Pool     Pool
	Inserter Inserter
	Logger   *logging.Logger

	// Metrics and Observers are optional.
	Metrics   *Metrics
	Observers []Observer
}

// Orchestrator executes ingestion runs. It keeps no per-run state and is
// safe for concurrent use; concurrent runs share only the pool.
type Orchestrator struct {
	cfg       Config
	pool      Pool
	inserter  Inserter
	logger    *logging.Logger
	metrics   *Metrics
	observers []Observer
}

// New creates an Orchestrator.
//
// Returns:
//   - *Orchestrator: Ready to Run
//   - error: If a required dependency is missing
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Pool == nil {
		return nil, errors.New("ingest: pool is required")
	}
	if deps.Inserter == nil {
		return nil, errors.New("ingest: inserter is required")
	}
	if deps.Logger == nil {
		return nil, errors.New("ingest: logger is required")
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("ingest: negative interval %s", cfg.Interval)
	}

	return &Orchestrator{
		cfg:       cfg,
		pool:      deps.Pool,
		inserter:  deps.Inserter,
		logger:    deps.Logger.With("component", "ingest"),
		metrics:   deps.Metrics,
		observers: deps.Observers,
	}, nil
}

// Run performs one ingestion.
//
// It returns ctx's error if ctx ends during the interval wait, before
// anything is written. Storage failures carry a coordinate.Kind; a
// partially written run still reports its stored rows in Result.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	run := RunInfo{
		ID:      uuid.NewString(),
		Started: time.Now(),
		Params:  o.cfg.Params,
	}
	res := Result{RunID: run.ID}
	log := o.logger.With("run_id", run.ID)

	if o.metrics != nil {
		o.metrics.InFlight.Inc()
		defer o.metrics.InFlight.Dec()
	}

	err := o.run(ctx, &res)
	res.Duration = time.Since(run.Started)

	if err != nil {
		log.Warn("ingest run failed",
			"pairs", res.Pairs,
			"rows", len(res.Inserted),
			"kind", coordinate.KindOf(err).String(),
			"error", err,
		)
	} else {
		log.Info("ingest run complete",
			"pairs", res.Pairs,
			"rows", len(res.Inserted),
			"duration", res.Duration,
		)
	}

	if o.metrics != nil {
		o.metrics.observe(res, err)
	}
	for _, obs := range o.observers {
		obs.RunCompleted(run, res, err)
	}

	return res, err
}

func (o *Orchestrator) run(ctx context.Context, res *Result) error {
	if err := wait(ctx, o.cfg.Interval); err != nil {
		return fmt.Errorf("waiting for interval: %w", err)
	}

	points := o.cfg.Params.Generate()

	// From here on the run is not cancellable.
	ctx = context.WithoutCancel(ctx)

	for i, p := range points {
		if err := o.persistPair(ctx, p, res); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		res.Pairs++
	}
	return nil
}

// persistPair stores both records of p on one pooled connection.
func (o *Orchestrator) persistPair(ctx context.Context, p waveform.Point, res *Result) error {
	conn, err := o.pool.Acquire(ctx)
	if err != nil {
		return coordinate.PoolError(opAcquire, err)
	}
	defer conn.Close() //nolint:errcheck // Returns the connection to the pool

	for _, c := range coordinate.FromPoint(p) {
		stored, err := o.inserter.Insert(ctx, conn, c)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", c.Axis, err)
		}
		res.Inserted = append(res.Inserted, stored)
	}
	return nil
}

// wait blocks for d or until ctx ends.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
