package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/danmuck/simbridge/internal/logging"
	"github.com/danmuck/simbridge/internal/observability"
	"github.com/danmuck/simbridge/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type State uint8

const (
	StateIdle State = iota
	StateAwaitingHandshake
	StateReady
	StateAwaitingControl
	StateRepliedThisTick
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingHandshake:
		return "awaiting_handshake"
	case StateReady:
		return "ready"
	case StateAwaitingControl:
		return "awaiting_control"
	case StateRepliedThisTick:
		return "replied_this_tick"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TickOutcome reports what one host tick did at the protocol level.
type TickOutcome struct {
	Due     bool
	Control protocol.ControlMessage
	Reset   bool
	Quit    bool
}

type Option func(*Bridge)

func WithCollaborators(c Collaborators) Option {
	return func(b *Bridge) { b.collab = c }
}

func WithSessionID(id string) Option {
	return func(b *Bridge) {
		if id != "" {
			b.info.ID = id
		}
	}
}

// WithLogger replaces the component logger; the session id is still added.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bridge) { b.log = logger }
}

// Bridge drives one controller session over a request/reply channel.
//
// Negotiate, Tick, Publish and PublishFrom belong to the host's tick
// goroutine. State, Info and Shutdown may be called from anywhere.
type Bridge struct {
	ch     Channel
	collab Collaborators
	log    zerolog.Logger
	sched  Scheduler

	owes        bool
	pendingQuit bool
	last        protocol.ControlMessage

	mu        sync.Mutex
	state     State
	info      SessionInfo
	closeOnce sync.Once
}

func New(ch Channel, opts ...Option) *Bridge {
	b := &Bridge{
		ch:    ch,
		log:   logging.Component("bridge"),
		state: StateIdle,
		info: SessionInfo{
			ID:        uuid.NewString(),
			StartedAt: time.Now().UTC(),
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With().Str("session", b.info.ID).Logger()
	b.info.State = b.state.String()
	return b
}

// Negotiate performs the session's single handshake exchange.
func (b *Bridge) Negotiate(ctx context.Context) (Timing, error) {
	switch b.State() {
	case StateClosed:
		return Timing{}, ErrClosed
	case StateIdle:
	default:
		return Timing{}, ErrNegotiated
	}
	b.setState(StateAwaitingHandshake)

	start := time.Now()
	opts, err := Negotiate(ctx, b.ch)
	if err != nil {
		return Timing{}, b.fail("handshake", err)
	}
	observability.RecordReceive(string(protocol.KindHandshake), time.Since(start))
	observability.RecordReply("ack")

	timing := DeriveTiming(opts)
	b.mu.Lock()
	b.info.Handshake = &opts
	b.info.Timing = &timing
	b.info.Receives++
	b.info.Replies++
	b.mu.Unlock()
	b.setState(StateReady)

	b.log.Info().
		Int("sample_frequency", opts.SampleFrequency).
		Int("time_scale", opts.TimeScale).
		Int("step_rate", timing.TargetStepRate).
		Float64("fixed_step", timing.FixedStep).
		Msg("handshake complete")
	return timing, nil
}

// Tick runs the pacing gate for one host frame. When the tick is due it
// consumes exactly one control message and the caller must then Publish
// exactly once.
func (b *Bridge) Tick(ctx context.Context, simTime float64) (TickOutcome, error) {
	switch b.State() {
	case StateClosed:
		return TickOutcome{}, ErrClosed
	case StateIdle, StateAwaitingHandshake:
		return TickOutcome{}, ErrNotNegotiated
	}
	if b.owes {
		return TickOutcome{}, ErrReplyOwed
	}
	b.setState(StateAwaitingControl)
	b.mu.Lock()
	b.info.Ticks++
	b.info.LastSimTime = simTime
	b.mu.Unlock()

	if !b.sched.IsDue(simTime) {
		observability.RecordTick(false)
		b.setState(StateRepliedThisTick)
		return TickOutcome{}, nil
	}
	observability.RecordTick(true)

	start := time.Now()
	text, err := b.ch.Receive(ctx)
	if err != nil {
		return TickOutcome{}, b.fail("receive", err)
	}
	msg, err := protocol.DecodeControl(text)
	if err != nil {
		return TickOutcome{}, b.fail("decode", err)
	}
	observability.RecordReceive(string(protocol.KindControl), time.Since(start))

	b.sched.Observe(msg)
	b.last = msg
	b.owes = true
	b.mu.Lock()
	b.info.Receives++
	b.info.DueTicks++
	b.mu.Unlock()

	out := TickOutcome{
		Due:     true,
		Control: msg,
		Quit:    msg.QuitApplication,
		Reset:   msg.Reset && !msg.QuitApplication,
	}
	if b.collab.Poses != nil {
		b.collab.Poses.ApplyPose(msg)
	}
	if out.Quit {
		b.pendingQuit = true
		b.log.Info().Float64("sim_time", simTime).Msg("controller requested quit")
	} else if out.Reset && b.collab.Env != nil {
		b.collab.Env.Reset()
	}

	b.log.Trace().
		Float64("sim_time", simTime).
		Float64("next_timestep", msg.NextTimestep).
		Bool("reset", out.Reset).
		Msg("control consumed")
	return out, nil
}

// Publish answers the request consumed by the current tick. After the reply
// to a quit request the bridge closes.
func (b *Bridge) Publish(obs protocol.Observation) error {
	if b.State() == StateClosed {
		return ErrClosed
	}
	if !b.owes {
		b.log.Warn().Msg("publish without a pending request")
		return ErrNoReplyOwed
	}
	obs.IsFinished = obs.IsFinished || b.last.IsFinished

	text, err := b.encode(obs)
	if err != nil {
		return b.fail("encode", err)
	}
	if err := b.ch.Send(text); err != nil {
		return b.fail("send", err)
	}
	b.owes = false
	observability.RecordReply(string(protocol.KindObservation))
	b.mu.Lock()
	b.info.Replies++
	b.mu.Unlock()
	b.setState(StateRepliedThisTick)

	if b.pendingQuit {
		b.closeSession("quit")
	}
	return nil
}

// encode replaces values JSON cannot carry and, if the logDict still will
// not encode, drops it rather than leave the controller without a reply.
func (b *Bridge) encode(obs protocol.Observation) (string, error) {
	obs, replaced := protocol.SanitizeObservation(obs)
	if replaced > 0 {
		b.log.Warn().Int("values", replaced).Msg("non-finite observation values replaced")
	}
	text, err := protocol.EncodeObservation(obs)
	if err == nil || obs.LogDict == nil {
		return text, err
	}
	b.log.Warn().Err(err).Int("entries", len(obs.LogDict)).Msg("logDict dropped from observation")
	obs.LogDict = nil
	return protocol.EncodeObservation(obs)
}

// PublishFrom builds the observation from the collaborators and publishes it.
func (b *Bridge) PublishFrom() error {
	if b.State() == StateClosed {
		return ErrClosed
	}
	if !b.owes {
		return ErrNoReplyOwed
	}
	return b.Publish(b.collab.Observe(b.log))
}

// Owes reports whether the current tick consumed a request that has not
// been answered yet.
func (b *Bridge) Owes() bool {
	return b.owes
}

// Shutdown releases the channel. It is safe to call repeatedly and from any
// goroutine.
func (b *Bridge) Shutdown() error {
	b.closeSession("shutdown")
	return nil
}

func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bridge) Closed() bool {
	return b.State() == StateClosed
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	if b.state != StateClosed {
		b.state = s
		b.info.State = s.String()
	}
	b.mu.Unlock()
}

func (b *Bridge) fail(op string, err error) error {
	cause := Cause(err)
	observability.RecordFatal(op, cause)
	b.log.Error().Err(err).Str("op", op).Str("cause", cause).Msg("session failed")
	b.closeSession(cause)
	return &FatalError{Op: op, Err: err}
}

func (b *Bridge) closeSession(reason string) {
	b.closeOnce.Do(func() {
		_ = b.ch.Close()
		b.mu.Lock()
		b.state = StateClosed
		b.info.State = StateClosed.String()
		b.info.CloseReason = reason
		b.info.ClosedAt = time.Now().UTC()
		b.mu.Unlock()
		b.log.Info().Str("reason", reason).Msg("session closed")
	})
}
