package domain

import "time"

// Sample is one reading of the stats endpoint for the configured publisher.
// A nil Bitrate means the publisher has no active stream.
type Sample struct {
	Bitrate   *float64  `json:"bitrate_kbps"`
	RTT       float64   `json:"rtt_ms"`
	FetchedAt time.Time `json:"fetched_at"`
}

// HasStream reports whether the publisher is currently streaming
func (s Sample) HasStream() bool {
	return s.Bitrate != nil
}

// BitrateOr returns the bitrate, or def when there is no stream
func (s Sample) BitrateOr(def float64) float64 {
	if s.Bitrate == nil {
		return def
	}
	return *s.Bitrate
}

// NewSample builds a sample with a present bitrate
func NewSample(bitrate, rtt float64, at time.Time) Sample {
	return Sample{Bitrate: &bitrate, RTT: rtt, FetchedAt: at}
}

// NoStreamSample builds a sample for a publisher that is not streaming
func NoStreamSample(rtt float64, at time.Time) Sample {
	return Sample{RTT: rtt, FetchedAt: at}
}
