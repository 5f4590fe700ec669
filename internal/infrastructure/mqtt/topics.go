package mqtt

import "strings"

// DefaultTopicPrefix is used when the configuration leaves the prefix empty.
const DefaultTopicPrefix = "waveform"

// Topics builds topic names under a configurable prefix.
//
// Topic layout:
//
//	<prefix>/system/status   retained online/offline status (LWT)
//	<prefix>/ingest/runs     one event per finished ingestion run
type Topics struct {
	Prefix string
}

func (t Topics) root() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

// SystemStatus returns the retained status topic.
func (t Topics) SystemStatus() string {
	return t.root() + "/system/status"
}

// IngestRuns returns the topic run events are published to.
func (t Topics) IngestRuns() string {
	return t.root() + "/ingest/runs"
}
