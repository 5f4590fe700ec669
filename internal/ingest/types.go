package ingest

import (
	"context"
	"database/sql"
	"time"

	"github.com/nerrad567/waveform-core/internal/coordinate"
	"github.com/nerrad567/waveform-core/internal/waveform"
)

// Pool hands out dedicated connections. *database.DB implements it.
type Pool interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
}

// Inserter persists one record on a connection. *coordinate.Gateway
// implements it.
type Inserter interface {
	Insert(ctx context.Context, conn coordinate.Conn, c coordinate.Coordinate) (coordinate.Coordinate, error)
}

// Observer is told about every finished run, successful or not.
// Calls are synchronous on the request goroutine and must not block.
type Observer interface {
	RunCompleted(run RunInfo, res Result, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(run RunInfo, res Result, err error)

// RunCompleted calls f.
func (f ObserverFunc) RunCompleted(run RunInfo, res Result, err error) { f(run, res, err) }

// RunInfo identifies a run.
type RunInfo struct {
	ID      string
	Started time.Time

	// Params regenerates the run's samples; generation is deterministic.
	Params waveform.Params
}

// Result reports what a run persisted. On failure it covers the rows
// written before the failing call.
type Result struct {
	RunID string

	// Pairs counts points whose x and y records were both stored.
	Pairs int

	// Inserted holds every stored record, as returned by storage.
	Inserted []coordinate.Coordinate

	Duration time.Duration
}
