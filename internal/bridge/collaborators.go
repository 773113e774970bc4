package bridge

import (
	"github.com/danmuck/simbridge/internal/protocol"
	"github.com/rs/zerolog"
)

type Renderer interface {
	CaptureFrame() ([]byte, error)
}

type AudioCapture interface {
	SampleBuffer() []float32
}

// Environment supplies the task-side values of each observation.
type Environment interface {
	Reward() float64
	IsFinished() bool
	TimeFeature() float64
	LogDict() protocol.LogDict
	Reset()
}

// PoseSink receives the headset and controller poses of every consumed
// control message.
type PoseSink interface {
	ApplyPose(protocol.ControlMessage)
}

// Collaborators is the host-owned capability set the bridge reads from.
// Any member may be nil; a nil Renderer or Audio leaves that field absent.
type Collaborators struct {
	Renderer Renderer
	Audio    AudioCapture
	Env      Environment
	Poses    PoseSink
}

// Observe pulls one value from each collaborator. A renderer failure drops
// the image rather than failing the tick.
func (c Collaborators) Observe(logger zerolog.Logger) protocol.Observation {
	var obs protocol.Observation
	if c.Renderer != nil {
		frame, err := c.Renderer.CaptureFrame()
		if err != nil {
			logger.Warn().Err(err).Msg("frame capture failed; publishing without image")
		} else {
			obs.Image = frame
		}
	}
	if c.Audio != nil {
		obs.Audio = c.Audio.SampleBuffer()
	}
	if c.Env != nil {
		obs.Reward = c.Env.Reward()
		obs.IsFinished = c.Env.IsFinished()
		obs.TimeFeature = c.Env.TimeFeature()
		obs.LogDict = c.Env.LogDict()
	}
	return obs
}
