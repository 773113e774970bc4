package host

import (
	"github.com/danmuck/simbridge/internal/bridge"
	"github.com/danmuck/simbridge/internal/protocol"
)

// PoseSinks fans one control message out to every sink in order.
type PoseSinks []bridge.PoseSink

func (s PoseSinks) ApplyPose(msg protocol.ControlMessage) {
	for _, sink := range s {
		sink.ApplyPose(msg)
	}
}
