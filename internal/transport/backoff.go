package transport

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/danmuck/simbridge/internal/logging"
)

// Delay returns the wait after failed dial attempt N (1-based). The delay
// grows by Multiplier per attempt up to MaxDelay; with Jitter it is scaled
// into [0.5, 1.5) of that value, or exactly 0.5 when rng is nil.
func (b BackoffConfig) Delay(attempt int, rng *rand.Rand) time.Duration {
	if b.InitialDelay <= 0 {
		return 0
	}
	mult := b.Multiplier
	if mult < 1.0 {
		mult = 1.0
	}
	delay := float64(b.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= mult
		if b.MaxDelay > 0 && delay >= float64(b.MaxDelay) {
			delay = float64(b.MaxDelay)
			break
		}
	}
	if b.Jitter {
		f := 0.5
		if rng != nil {
			f += rng.Float64()
		}
		delay *= f
	}
	return time.Duration(delay)
}

// redial runs attempt until it succeeds, cfg.DialAttempts is spent, or ctx
// ends. Both transport kinds dial through here so a simulator that binds
// late is reached on the same schedule.
func redial(ctx context.Context, cfg Config, addr string, attempt func(context.Context) error) error {
	logger := logging.Component("transport").With().
		Str("kind", string(cfg.Kind)).
		Str("addr", addr).
		Logger()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for n := 1; ; n++ {
		err := attempt(ctx)
		if err == nil {
			if n > 1 {
				logger.Info().Int("attempt", n).Msg("transport dial succeeded")
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if n >= cfg.DialAttempts {
			return fmt.Errorf("after %d attempts: %w", n, err)
		}
		wait := cfg.Backoff.Delay(n, rng)
		logger.Warn().Int("attempt", n).Dur("retry_in", wait).Err(err).Msg("transport dial failed")
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
