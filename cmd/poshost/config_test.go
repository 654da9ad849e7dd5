package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/poslink/internal/link"
)

func writeTuning(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}
	return path
}

func TestLoadPolicyDefaults(t *testing.T) {
	policy, err := loadPolicy("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if policy != link.DefaultPolicy() {
		t.Fatalf("unexpected defaults: %+v", policy)
	}
}

func TestLoadPolicyOverrides(t *testing.T) {
	path := writeTuning(t, `
failure_threshold = 3
failure_window = "250ms"
reconnect_wait = "1s"
flush_interval = "5ms"
queue_capacity = 8192
retry_initial = "500ms"
retry_jitter = false
`)
	policy, err := loadPolicy(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := link.DefaultPolicy()
	if policy.FailureThreshold != 3 {
		t.Fatalf("unexpected threshold: %d", policy.FailureThreshold)
	}
	if policy.FailureWindow != 250*time.Millisecond {
		t.Fatalf("unexpected window: %v", policy.FailureWindow)
	}
	if policy.ReconnectWait != time.Second {
		t.Fatalf("unexpected reconnect wait: %v", policy.ReconnectWait)
	}
	if policy.FlushInterval != 5*time.Millisecond {
		t.Fatalf("unexpected flush interval: %v", policy.FlushInterval)
	}
	if policy.QueueCapacity != 8192 {
		t.Fatalf("unexpected capacity: %d", policy.QueueCapacity)
	}
	if policy.Backoff.InitialDelay != 500*time.Millisecond || policy.Backoff.Jitter {
		t.Fatalf("unexpected backoff: %+v", policy.Backoff)
	}
	if policy.OpenWait != def.OpenWait || policy.Backoff.MaxDelay != def.Backoff.MaxDelay {
		t.Fatalf("undefined keys should keep defaults: %+v", policy)
	}
}

func TestLoadPolicyRejectsBadValues(t *testing.T) {
	cases := []string{
		`failure_threshold = 0`,
		`open_wait = "soon"`,
		`failure_treshold = 4`,
	}
	for _, content := range cases {
		if _, err := loadPolicy(writeTuning(t, content)); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}
