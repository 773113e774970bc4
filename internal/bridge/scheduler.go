package bridge

import "github.com/danmuck/simbridge/internal/protocol"

// Scheduler is the pacing gate: a new control message is due only once
// simulation time reaches the last message's nextTimestep.
type Scheduler struct {
	last protocol.ControlMessage
	has  bool
}

func (s *Scheduler) IsDue(simTime float64) bool {
	return !s.has || simTime >= s.last.NextTimestep
}

func (s *Scheduler) Observe(msg protocol.ControlMessage) {
	s.last = msg
	s.has = true
}

func (s *Scheduler) Last() (protocol.ControlMessage, bool) {
	return s.last, s.has
}
