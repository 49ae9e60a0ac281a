package services

import (
	"fmt"
	"strconv"

	"srtalert/internal/core/domain"
)

// QualityThresholds decides whether a sample is below acceptable quality
type QualityThresholds struct {
	BitrateKbps float64 // minimum acceptable bitrate
	RTTMillis   float64 // maximum acceptable round-trip time
}

// Violations returns a human-readable reason per breached threshold.
// A sample without a stream never violates anything.
func (q QualityThresholds) Violations(sample domain.Sample) []string {
	if !sample.HasStream() {
		return nil
	}

	var reasons []string
	if bitrate := *sample.Bitrate; bitrate < q.BitrateKbps {
		reasons = append(reasons, fmt.Sprintf("Low bitrate: %s kbps", formatValue(bitrate)))
	}
	if sample.RTT > q.RTTMillis {
		reasons = append(reasons, fmt.Sprintf("High RTT: %s ms", formatValue(sample.RTT)))
	}
	return reasons
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
