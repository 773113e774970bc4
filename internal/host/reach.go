package host

import (
	"math"
	"math/rand/v2"

	"github.com/danmuck/simbridge/internal/protocol"
)

const reachRadius = 0.05

// ReachEnv rewards moving the right controller onto a target point.
type ReachEnv struct {
	rng          *rand.Rand
	episodeSteps int

	target  protocol.Vec3
	hand    protocol.Vec3
	steps   int
	episode int
	hit     bool
}

func NewReachEnv(episodeSteps int, seed int64) *ReachEnv {
	if episodeSteps <= 0 {
		episodeSteps = 1
	}
	e := &ReachEnv{
		rng:          rand.New(rand.NewPCG(uint64(seed), 0x5eed)),
		episodeSteps: episodeSteps,
	}
	e.target = e.pickTarget()
	return e
}

func (e *ReachEnv) ApplyPose(msg protocol.ControlMessage) {
	e.hand = msg.RightControllerPosition
	e.steps++
	if e.distance() <= reachRadius {
		e.hit = true
	}
}

func (e *ReachEnv) Reward() float64 {
	return -e.distance()
}

func (e *ReachEnv) IsFinished() bool {
	return e.hit || e.steps >= e.episodeSteps
}

// TimeFeature is the remaining fraction of the episode.
func (e *ReachEnv) TimeFeature() float64 {
	return math.Max(0, 1-float64(e.steps)/float64(e.episodeSteps))
}

func (e *ReachEnv) LogDict() protocol.LogDict {
	return protocol.LogDict{
		"distance": protocol.Number(e.distance()),
		"episode":  protocol.Number(float64(e.episode)),
		"steps":    protocol.Number(float64(e.steps)),
		"hit":      protocol.Bool(e.hit),
	}
}

func (e *ReachEnv) Reset() {
	e.episode++
	e.steps = 0
	e.hit = false
	e.target = e.pickTarget()
}

func (e *ReachEnv) Target() protocol.Vec3 {
	return e.target
}

func (e *ReachEnv) distance() float64 {
	var sum float64
	for i := range e.hand {
		d := float64(e.hand[i] - e.target[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// pickTarget draws from the reachable volume in front of a standing user.
func (e *ReachEnv) pickTarget() protocol.Vec3 {
	return protocol.Vec3{
		float32(-0.5 + e.rng.Float64()),
		float32(0.8 + 0.8*e.rng.Float64()),
		float32(0.2 + 0.4*e.rng.Float64()),
	}
}
