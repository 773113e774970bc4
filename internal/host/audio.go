package host

import (
	"math"

	"github.com/danmuck/simbridge/internal/bridge"
	"github.com/danmuck/simbridge/internal/config"
)

// ToneCapture produces a continuous test tone in the configured layout.
// Stereo buffers are interleaved left/right; the right channel runs at a
// fifth above the left so the two are distinguishable.
type ToneCapture struct {
	channels int
	format   config.SampleFormat
	frames   int
	step     float64
	phase    float64
}

// NewAudioCapture returns nil when audio mode is none, leaving the
// observation's audio absent.
func NewAudioCapture(cfg config.AudioConfig) bridge.AudioCapture {
	channels := cfg.Mode.Channels()
	if channels == 0 {
		return nil
	}
	hz := cfg.ToneHz
	if hz <= 0 {
		hz = 440
	}
	return &ToneCapture{
		channels: channels,
		format:   cfg.Format,
		frames:   cfg.BufferSamples,
		step:     2 * math.Pi * hz / float64(cfg.SampleRate),
	}
}

func (c *ToneCapture) SampleBuffer() []float32 {
	out := make([]float32, c.frames*c.channels)
	for i := 0; i < c.frames; i++ {
		left := 0.5 * math.Sin(c.phase)
		out[i*c.channels] = c.sample(left)
		if c.channels == 2 {
			out[i*2+1] = c.sample(0.5 * math.Sin(c.phase*1.5))
		}
		c.phase += c.step
	}
	c.phase = math.Mod(c.phase, 4*math.Pi)
	return out
}

func (c *ToneCapture) sample(v float64) float32 {
	if c.format == config.SamplePCM16 {
		return QuantizePCM16(v)
	}
	return float32(v)
}

// QuantizePCM16 clamps v to [-1, 1] and snaps it to the 16-bit PCM grid.
func QuantizePCM16(v float64) float32 {
	v = math.Max(-1, math.Min(1, v))
	return float32(math.Round(v*math.MaxInt16) / math.MaxInt16)
}
