package datasync

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionState is what a client reports about its link to the server
type ConnectionState string

const (
	StateOnline  ConnectionState = "online"
	StateOffline ConnectionState = "offline"
	StateSyncing ConnectionState = "syncing"
)

// IsValid reports whether s is a known state
func (s ConnectionState) IsValid() bool {
	return s == StateOnline || s == StateOffline || s == StateSyncing
}

// ClientSession tracks the last heartbeat of a sync client
type ClientSession struct {
	TenantID   uuid.UUID
	ClientID   string
	UserID     uuid.UUID
	State      ConnectionState
	Pending    int
	LastSeenAt time.Time
}

// EffectiveState downgrades a silent client to offline
func (s ClientSession) EffectiveState(now time.Time, offlineAfter time.Duration) ConnectionState {
	if now.Sub(s.LastSeenAt) > offlineAfter {
		return StateOffline
	}
	return s.State
}
