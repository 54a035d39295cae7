package models

import (
	"time"
)

// Host is a monitored machine. The inventory itself (registration,
// credential management) is owned elsewhere; this service only reads it.
type Host struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Addr       string     `json:"addr"`
	Port       int        `json:"port"`
	Username   string     `json:"username"`
	AuthType   string     `json:"auth_type"` // "password" or "key"
	Password   string     `json:"-"`
	PrivateKey string     `json:"-"`
	Tags       []string   `json:"tags,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// HostStatus is the durable per-host probe state, one row per host.
type HostStatus struct {
	HostID          string    `json:"host_id"`
	Status          string    `json:"status"` // "online" or "offline"
	LastCheckTime   time.Time `json:"last_check_time"`
	LastCheckStatus string    `json:"last_check_status"` // "success" or "failed"
	ResponseTimeMs  int64     `json:"response_time_ms"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"

	CheckSuccess = "success"
	CheckFailed  = "failed"
)
