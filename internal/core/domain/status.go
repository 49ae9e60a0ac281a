package domain

import "time"

// ConnectionStatus mirrors the retry tracker of one external dependency
type ConnectionStatus struct {
	Connected  bool `json:"connected"`
	RetryCount int  `json:"retry_count"`
}

// MonitorStatus is a point-in-time view of the monitor for the status endpoint
type MonitorStatus struct {
	Publisher    string           `json:"publisher"`
	GracePhase   string           `json:"grace_phase"`
	WarningPhase string           `json:"warning_phase"`
	LastRaisedAt *time.Time       `json:"last_raised_at,omitempty"`
	NextAlertIn  time.Duration    `json:"next_alert_in_ns"`
	LastSample   *Sample          `json:"last_sample,omitempty"`
	OBS          ConnectionStatus `json:"obs"`
	OBSSession   uint64           `json:"obs_session"`
	Stats        ConnectionStatus `json:"stats"`
}
