package domain

import "time"

// EventType represents the type of an alert event
type EventType string

const (
	EventStreamDetected     EventType = "stream.detected"
	EventStreamLost         EventType = "stream.lost"
	EventGraceEnded         EventType = "grace.ended"
	EventWarningRaised      EventType = "warning.raised"
	EventWarningCleared     EventType = "warning.cleared"
	EventConnectionLost     EventType = "connection.lost"
	EventConnectionRestored EventType = "connection.restored"
)

// Connection targets
const (
	TargetStats = "stats"
	TargetOBS   = "obs"
)

// AlertEvent is published to external observers when the monitor changes state
type AlertEvent struct {
	Type        EventType `json:"type"`
	InstanceID  string    `json:"instance_id"`
	Timestamp   time.Time `json:"timestamp"`
	Publisher   string    `json:"publisher,omitempty"`
	Target      string    `json:"target,omitempty"`
	BitrateKbps *float64  `json:"bitrate_kbps,omitempty"`
	RTTMillis   *float64  `json:"rtt_ms,omitempty"`
	Reasons     []string  `json:"reasons,omitempty"`
}
