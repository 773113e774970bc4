package bridge

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/simbridge/internal/protocol"
)

// DefaultPort is the well-known endpoint for interactive sessions.
const DefaultPort = 5555

var ErrInvalidTimeoutPolicy = errors.New("bridge: invalid timeout policy")

// Timing is the host step configuration derived from a handshake.
type Timing struct {
	TargetStepRate int     `json:"target_step_rate"`
	TimeScale      int     `json:"time_scale"`
	FixedStep      float64 `json:"fixed_step"`
	MaxDeltaTime   float64 `json:"max_delta_time"`
}

// DeriveTiming applies the handshake to the host step configuration:
// rate = sampleFrequency*timeScale, fixed step = fixedDeltaTime when
// positive else timestep, max delta = 1/rate.
func DeriveTiming(h protocol.HandshakeOptions) Timing {
	rate := h.SampleFrequency * h.TimeScale
	fixed := h.Timestep
	if h.FixedDeltaTime > 0 {
		fixed = h.FixedDeltaTime
	}
	t := Timing{
		TargetStepRate: rate,
		TimeScale:      h.TimeScale,
		FixedStep:      fixed,
	}
	if rate > 0 {
		t.MaxDeltaTime = 1.0 / float64(rate)
	}
	return t
}

// FrameInterval is the wall-clock budget of one host tick.
func (t Timing) FrameInterval() time.Duration {
	if t.TargetStepRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(t.TargetStepRate)
}

// TimeoutPolicy picks the receive timeout from the bound port.
type TimeoutPolicy struct {
	DefaultPort        int
	DefaultPortTimeout time.Duration
	OtherPortTimeout   time.Duration
}

func DefaultTimeoutPolicy() TimeoutPolicy {
	return TimeoutPolicy{
		DefaultPort:        DefaultPort,
		DefaultPortTimeout: 600 * time.Second,
		OtherPortTimeout:   60 * time.Second,
	}
}

func (p TimeoutPolicy) For(port int) time.Duration {
	if port == p.DefaultPort {
		return p.DefaultPortTimeout
	}
	return p.OtherPortTimeout
}

// Validate keeps the manual-session timeout strictly longer than the
// automated one.
func (p TimeoutPolicy) Validate() error {
	if p.OtherPortTimeout <= 0 {
		return fmt.Errorf("%w: other-port timeout must be positive", ErrInvalidTimeoutPolicy)
	}
	if p.DefaultPortTimeout <= p.OtherPortTimeout {
		return fmt.Errorf("%w: default-port timeout %s must exceed other-port timeout %s",
			ErrInvalidTimeoutPolicy, p.DefaultPortTimeout, p.OtherPortTimeout)
	}
	return nil
}
