package link

import (
	"math"
	"math/rand"
	"time"

	"github.com/danmuck/poslink/internal/protocol"
)

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Policy holds the numeric knobs of a link.
type Policy struct {
	// FailureThreshold consecutive failed reads take the link offline.
	FailureThreshold int
	// FailureWindow, when positive, coalesces failures that land within one
	// window into a single count.
	FailureWindow time.Duration
	OpenWait      time.Duration
	ReconnectWait time.Duration
	QueueCapacity int
	ReapInterval  time.Duration
	// FlushInterval is how soon a write that would block is retried.
	FlushInterval time.Duration
	Backoff       BackoffConfig
}

func DefaultPolicy() Policy {
	return Policy{
		FailureThreshold: 8,
		FailureWindow:    0,
		OpenWait:         5 * time.Second,
		ReconnectWait:    2 * time.Second,
		QueueCapacity:    protocol.DefaultCapacity,
		ReapInterval:     500 * time.Millisecond,
		FlushInterval:    20 * time.Millisecond,
		Backoff: BackoffConfig{
			InitialDelay: 2 * time.Second,
			Multiplier:   2.0,
			MaxDelay:     time.Minute,
			Jitter:       true,
		},
	}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = def.FailureThreshold
	}
	if p.FailureWindow < 0 {
		p.FailureWindow = 0
	}
	if p.OpenWait <= 0 {
		p.OpenWait = def.OpenWait
	}
	if p.ReconnectWait <= 0 {
		p.ReconnectWait = def.ReconnectWait
	}
	if p.QueueCapacity <= 0 {
		p.QueueCapacity = def.QueueCapacity
	}
	if p.ReapInterval <= 0 {
		p.ReapInterval = def.ReapInterval
	}
	if p.FlushInterval <= 0 {
		p.FlushInterval = def.FlushInterval
	}
	return p
}

// NextBackoffDelay returns the retry delay for attempt N (1-based).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}
