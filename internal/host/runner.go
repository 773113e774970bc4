package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/simbridge/internal/bridge"
	"github.com/danmuck/simbridge/internal/config"
	"github.com/danmuck/simbridge/internal/logging"
	"github.com/danmuck/simbridge/internal/transport"
	"github.com/rs/zerolog"
)

var ErrUnknownEnvironment = errors.New("host: unknown environment")

// Runner owns one bridge session from bind to teardown.
type Runner struct {
	cfg config.Config
	log zerolog.Logger

	current   atomic.Pointer[bridge.Bridge]
	addr      atomic.Value
	listening chan struct{}
	listenOne sync.Once
}

func NewRunner(cfg config.Config) *Runner {
	return &Runner{
		cfg:       cfg,
		log:       logging.Component("host"),
		listening: make(chan struct{}),
	}
}

// Listening is closed once the channel is bound, or when Run returns early.
func (r *Runner) Listening() <-chan struct{} {
	return r.listening
}

func (r *Runner) Addr() string {
	v, _ := r.addr.Load().(string)
	return v
}

// Session reports the live session, if one has been started.
func (r *Runner) Session() (bridge.SessionInfo, bool) {
	b := r.current.Load()
	if b == nil {
		return bridge.SessionInfo{}, false
	}
	return b.Info(), true
}

// Ready reports whether a session has completed its handshake and is still open.
func (r *Runner) Ready() bool {
	b := r.current.Load()
	if b == nil {
		return false
	}
	switch b.State() {
	case bridge.StateReady, bridge.StateAwaitingControl, bridge.StateRepliedThisTick:
		return true
	default:
		return false
	}
}

// Run binds the channel, negotiates and ticks until the controller quits,
// the tick budget is spent, ctx ends, or the session fails. A disabled
// bridge returns immediately.
func (r *Runner) Run(ctx context.Context) error {
	defer r.markListening()
	if !r.cfg.Enabled {
		r.log.Info().Msg("bridge disabled; running passive")
		return nil
	}

	chCfg, err := r.cfg.ChannelConfig()
	if err != nil {
		return err
	}
	collab, err := Collaborate(r.cfg)
	if err != nil {
		return err
	}
	ch, err := transport.Listen(chCfg)
	if err != nil {
		return err
	}
	r.addr.Store(ch.Addr())

	b := bridge.New(ch, bridge.WithCollaborators(collab))
	r.current.Store(b)
	r.markListening()
	defer b.Shutdown()
	stop := context.AfterFunc(ctx, func() { _ = b.Shutdown() })
	defer stop()

	r.log.Info().
		Str("session", b.Info().ID).
		Str("addr", ch.Addr()).
		Dur("timeout", ch.Timeout()).
		Msg("waiting for controller handshake")

	timing, err := b.Negotiate(ctx)
	if err != nil {
		return r.exit(ctx, err)
	}
	return r.loop(ctx, b, timing)
}

func (r *Runner) loop(ctx context.Context, b *bridge.Bridge, timing bridge.Timing) error {
	var pace <-chan time.Time
	if r.cfg.Sim.Realtime && timing.FrameInterval() > 0 {
		ticker := time.NewTicker(timing.FrameInterval())
		defer ticker.Stop()
		pace = ticker.C
	}

	maxTicks := r.cfg.Sim.MaxTicks
	for tick := 0; maxTicks == 0 || tick < maxTicks; tick++ {
		simTime := float64(tick) * timing.FixedStep
		out, err := b.Tick(ctx, simTime)
		if err != nil {
			return r.exit(ctx, err)
		}
		if out.Due {
			if err := b.PublishFrom(); err != nil {
				return r.exit(ctx, err)
			}
		}
		if b.Closed() {
			r.log.Info().Int("ticks", tick+1).Float64("sim_time", simTime).Msg("session ended by controller")
			return nil
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace:
			}
		}
	}
	r.log.Info().Int("max_ticks", maxTicks).Msg("tick budget spent")
	return nil
}

func (r *Runner) exit(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (r *Runner) markListening() {
	r.listenOne.Do(func() { close(r.listening) })
}

// Collaborate builds the reference collaborators named by cfg.
func Collaborate(cfg config.Config) (bridge.Collaborators, error) {
	var (
		collab bridge.Collaborators
		sinks  PoseSinks
		target TargetSource
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Sim.Environment)) {
	case "reach":
		env := NewReachEnv(cfg.Sim.EpisodeSteps, cfg.Sim.Seed)
		collab.Env = env
		target = env
		sinks = append(sinks, env)
	case "none", "":
	default:
		return bridge.Collaborators{}, fmt.Errorf("%w: %q", ErrUnknownEnvironment, cfg.Sim.Environment)
	}
	if cfg.Render.Enabled {
		renderer := NewFrameRenderer(cfg.Render.Width, cfg.Render.Height, target)
		collab.Renderer = renderer
		sinks = append(sinks, renderer)
	}
	collab.Audio = NewAudioCapture(cfg.Audio)
	if len(sinks) > 0 {
		collab.Poses = sinks
	}
	return collab, nil
}
