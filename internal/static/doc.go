// Package static serves the files returned by Waveform Core's HTTP surface:
// a browsable directory under a URL prefix, and the index document returned
// after a successful ingest.
//
// Both go through net/http's file serving, so Last-Modified and
// If-Modified-Since are honoured and directories are listed.
package static
