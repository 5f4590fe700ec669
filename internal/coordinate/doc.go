// Package coordinate maps waveform samples to persisted axis records and
// inserts them through a pooled connection.
//
// Every generated point becomes two independent records, one per axis.
// Nothing in storage links the two; pairing exists only in generation order.
//
// Failures are classified into a closed set of kinds (see Kind). Callers
// translate kinds into responses with KindOf rather than matching on
// message text.
//
// The two inserts for a point are never grouped in a transaction. If the
// x insert succeeds and the y insert fails, the x row stays.
package coordinate
