package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/danmuck/simbridge/internal/protocol"
	"github.com/danmuck/simbridge/internal/testutil/testlog"
)

func TestDeriveTimingFallsBackToTimestep(t *testing.T) {
	testlog.Start(t)
	got := DeriveTiming(protocol.HandshakeOptions{SampleFrequency: 50, TimeScale: 1, Timestep: 0.01})
	if got.TargetStepRate != 50 || got.FixedStep != 0.01 || got.MaxDeltaTime != 0.02 {
		t.Fatalf("unexpected timing: %+v", got)
	}
	if got.FrameInterval() != 20*time.Millisecond {
		t.Fatalf("unexpected frame interval: %s", got.FrameInterval())
	}
}

func TestDeriveTimingPrefersFixedDelta(t *testing.T) {
	testlog.Start(t)
	got := DeriveTiming(protocol.HandshakeOptions{SampleFrequency: 25, TimeScale: 4, Timestep: 0.04, FixedDeltaTime: 0.005})
	if got.TargetStepRate != 100 || got.FixedStep != 0.005 || got.TimeScale != 4 {
		t.Fatalf("unexpected timing: %+v", got)
	}
	if got.MaxDeltaTime != 0.01 {
		t.Fatalf("expected max delta 0.01, got %v", got.MaxDeltaTime)
	}
}

func TestTimeoutPolicyDefaultPortWaitsLonger(t *testing.T) {
	testlog.Start(t)
	p := DefaultTimeoutPolicy()
	if p.For(DefaultPort) != 600*time.Second {
		t.Fatalf("default port timeout = %s", p.For(DefaultPort))
	}
	for _, port := range []int{5556, 6000, 0} {
		if p.For(port) != 60*time.Second {
			t.Fatalf("port %d timeout = %s", port, p.For(port))
		}
		if p.For(port) >= p.For(DefaultPort) {
			t.Fatalf("port %d should wait less than the default port", port)
		}
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
}

func TestTimeoutPolicyValidate(t *testing.T) {
	testlog.Start(t)
	cases := []TimeoutPolicy{
		{DefaultPort: DefaultPort, DefaultPortTimeout: time.Minute, OtherPortTimeout: time.Minute},
		{DefaultPort: DefaultPort, DefaultPortTimeout: time.Second, OtherPortTimeout: time.Minute},
		{DefaultPort: DefaultPort, DefaultPortTimeout: time.Minute, OtherPortTimeout: 0},
	}
	for _, p := range cases {
		if err := p.Validate(); !errors.Is(err, ErrInvalidTimeoutPolicy) {
			t.Fatalf("policy %+v: expected ErrInvalidTimeoutPolicy, got %v", p, err)
		}
	}
}

func TestSchedulerGate(t *testing.T) {
	testlog.Start(t)
	var s Scheduler
	if !s.IsDue(0) {
		t.Fatalf("empty scheduler must be due")
	}
	if _, ok := s.Last(); ok {
		t.Fatalf("empty scheduler has no last control")
	}
	s.Observe(protocol.ControlMessage{NextTimestep: 1.0})
	if s.IsDue(0.999) {
		t.Fatalf("must not be due before nextTimestep")
	}
	if !s.IsDue(1.0) || !s.IsDue(1.5) {
		t.Fatalf("must be due at or after nextTimestep")
	}
	last, ok := s.Last()
	if !ok || last.NextTimestep != 1.0 {
		t.Fatalf("unexpected last: %+v ok=%v", last, ok)
	}
}
