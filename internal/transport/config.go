package transport

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/danmuck/simbridge/internal/protocol/frame"
)

// Kind selects the socket implementation.
type Kind string

const (
	KindZMQ Kind = "zmq"
	KindTCP Kind = "tcp"
)

// ParseKind normalizes a configured kind name.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindZMQ:
		return KindZMQ, nil
	case KindTCP:
		return KindTCP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

// BackoffConfig defines dial retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines one channel endpoint and its timing limits.
type Config struct {
	Kind         Kind
	Address      string
	Timeout      time.Duration
	SendTimeout  time.Duration
	DialTimeout  time.Duration
	DialAttempts int
	Backoff      BackoffConfig
	Limits       frame.Limits
	// Linger bounds how long Close waits for a just-queued reply to reach
	// the peer before the socket is torn down.
	Linger time.Duration
}

func DefaultConfig() Config {
	return Config{
		Kind:         KindZMQ,
		Address:      "127.0.0.1:5555",
		Timeout:      60 * time.Second,
		SendTimeout:  10 * time.Second,
		DialTimeout:  5 * time.Second,
		DialAttempts: 5,
		Backoff: BackoffConfig{
			InitialDelay: 100 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     2 * time.Second,
			Jitter:       true,
		},
		Limits: frame.DefaultLimits(),
		Linger: 100 * time.Millisecond,
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(string(c.Kind)) == "" {
		c.Kind = def.Kind
	}
	if strings.TrimSpace(c.Address) == "" {
		c.Address = def.Address
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = def.SendTimeout
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.DialAttempts <= 0 {
		c.DialAttempts = def.DialAttempts
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	if c.Limits.MaxPayloadBytes == 0 {
		c.Limits = def.Limits
	}
	if c.Linger <= 0 {
		c.Linger = def.Linger
	}
	return c
}

func (c Config) Validate() error {
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("%w: address %q: %v", ErrInvalidConfig, c.Address, err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Address joins host and port, treating "" and "*" as every interface.
func Address(host string, port int) string {
	host = strings.TrimSpace(host)
	if host == "*" {
		host = ""
	}
	return net.JoinHostPort(host, fmt.Sprintf("%d", port))
}

func zmqEndpoint(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "tcp://" + addr
	}
	if host == "" {
		host = "*"
	}
	return "tcp://" + net.JoinHostPort(host, port)
}
