package common

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics is the set holding all protocol counters of this process
var Metrics = metrics.NewSet()

var (
	BytesReceived    = Metrics.NewCounter("connectkit_bytes_received_total")
	FramesReceived   = Metrics.NewCounter("connectkit_frames_received_total")
	ManifestRebuilds = Metrics.NewCounter("connectkit_manifest_rebuilds_total")
	MessagesSent     = Metrics.NewCounter("connectkit_messages_sent_total")
	SendErrors       = Metrics.NewCounter("connectkit_send_errors_total")
	ConnectAttempts  = Metrics.NewCounter("connectkit_connect_attempts_total")
	ConnectFailures  = Metrics.NewCounter("connectkit_connect_failures_total")
)

// Reasons a received frame is dropped
const (
	DropUnknownID     = "unknown_id"
	DropDecodeError   = "decode_error"
	DropNoValue       = "no_value"
	DropBadManifest   = "bad_manifest"
	DropStaleSession  = "stale_session"
	DropCorruptStream = "corrupt_stream"
)

// FrameDropped counts a dropped frame under the given reason
func FrameDropped(reason string) {
	Metrics.GetOrCreateCounter(fmt.Sprintf(`connectkit_frames_dropped_total{reason=%q}`, reason)).Inc()
}

// FramesDropped returns the number of frames dropped for reason
func FramesDropped(reason string) uint64 {
	return Metrics.GetOrCreateCounter(fmt.Sprintf(`connectkit_frames_dropped_total{reason=%q}`, reason)).Get()
}

// WriteMetrics writes all counters in Prometheus text format
func WriteMetrics(w io.Writer) {
	Metrics.WritePrometheus(w)
}
