package models

import (
	"time"
)

// ProbeResult is one row of the append-only probe log.
type ProbeResult struct {
	ID             int64     `json:"id"`
	HostID         string    `json:"host_id"`
	Success        bool      `json:"success"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
}

// ProbeOutcome is the per-host result returned by a manual probe run.
type ProbeOutcome struct {
	HostID         string `json:"host_id"`
	Success        bool   `json:"success"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	Error          string `json:"error,omitempty"`
}

// ProbeSummary is the synchronous response of a manual probe-all run.
type ProbeSummary struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	Total        int            `json:"total"`
	SuccessCount int            `json:"success_count"`
	FailedCount  int            `json:"failed_count"`
	Results      []ProbeOutcome `json:"results"`
}
