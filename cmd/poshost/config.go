package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/poslink/internal/link"
)

type tuningFile struct {
	FailureThreshold int     `toml:"failure_threshold"`
	FailureWindow    string  `toml:"failure_window"`
	OpenWait         string  `toml:"open_wait"`
	ReconnectWait    string  `toml:"reconnect_wait"`
	ReapInterval     string  `toml:"reap_interval"`
	FlushInterval    string  `toml:"flush_interval"`
	QueueCapacity    int     `toml:"queue_capacity"`
	RetryInitial     string  `toml:"retry_initial"`
	RetryMultiplier  float64 `toml:"retry_multiplier"`
	RetryMax         string  `toml:"retry_max"`
	RetryJitter      bool    `toml:"retry_jitter"`
}

// loadPolicy overlays the keys present in path onto the default policy. An
// empty path returns the defaults.
func loadPolicy(path string) (link.Policy, error) {
	policy := link.DefaultPolicy()
	if strings.TrimSpace(path) == "" {
		return policy, nil
	}

	var raw tuningFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return link.Policy{}, fmt.Errorf("load tuning config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return link.Policy{}, fmt.Errorf("load tuning config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("failure_threshold") {
		if raw.FailureThreshold <= 0 {
			return link.Policy{}, fmt.Errorf("failure_threshold must be positive, got %d", raw.FailureThreshold)
		}
		policy.FailureThreshold = raw.FailureThreshold
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"failure_window", raw.FailureWindow, &policy.FailureWindow},
		{"open_wait", raw.OpenWait, &policy.OpenWait},
		{"reconnect_wait", raw.ReconnectWait, &policy.ReconnectWait},
		{"reap_interval", raw.ReapInterval, &policy.ReapInterval},
		{"flush_interval", raw.FlushInterval, &policy.FlushInterval},
		{"retry_initial", raw.RetryInitial, &policy.Backoff.InitialDelay},
		{"retry_max", raw.RetryMax, &policy.Backoff.MaxDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return link.Policy{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("queue_capacity") {
		policy.QueueCapacity = raw.QueueCapacity
	}
	if meta.IsDefined("retry_multiplier") {
		policy.Backoff.Multiplier = raw.RetryMultiplier
	}
	if meta.IsDefined("retry_jitter") {
		policy.Backoff.Jitter = raw.RetryJitter
	}
	return policy, nil
}
