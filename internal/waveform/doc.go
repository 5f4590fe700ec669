// Package waveform synthesizes deterministic sine sample sequences.
//
// Generation is pure: the same parameters always yield the same points, so
// a sequence can be recomputed at any time instead of being stored.
package waveform
