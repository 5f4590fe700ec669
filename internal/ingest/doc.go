// Package ingest runs one waveform ingestion per request.
//
// A run waits the configured interval, generates the full sample sequence,
// and then persists it pair by pair:
//
//	for each point:
//	    acquire a pooled connection   (failure: coordinate.KindPool)
//	    insert the x record
//	    insert the y record
//	    release the connection
//
// The first failure stops the run. Rows already written stay written; the
// x and y inserts of a point are not grouped in a transaction and nothing
// is compensated.
//
// The interval wait honours the caller's context. Once it has elapsed the
// insert loop is detached from cancellation and runs to completion or to
// its first failure.
package ingest
