package bridge

import (
	"time"

	"github.com/danmuck/simbridge/internal/protocol"
)

// SessionInfo is a point-in-time snapshot of a session for the admin surface.
type SessionInfo struct {
	ID          string                     `json:"id"`
	State       string                     `json:"state"`
	StartedAt   time.Time                  `json:"started_at"`
	ClosedAt    time.Time                  `json:"closed_at,omitzero"`
	CloseReason string                     `json:"close_reason,omitempty"`
	Handshake   *protocol.HandshakeOptions `json:"handshake,omitempty"`
	Timing      *Timing                    `json:"timing,omitempty"`
	Ticks       uint64                     `json:"ticks"`
	DueTicks    uint64                     `json:"due_ticks"`
	Receives    uint64                     `json:"receives"`
	Replies     uint64                     `json:"replies"`
	LastSimTime float64                    `json:"last_sim_time"`
}

func (b *Bridge) Info() SessionInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	info := b.info
	if info.Handshake != nil {
		h := *info.Handshake
		info.Handshake = &h
	}
	if info.Timing != nil {
		t := *info.Timing
		info.Timing = &t
	}
	return info
}
