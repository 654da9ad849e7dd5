package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poslink",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"host", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "poslink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"host", "method", "path", "status"},
	)
	linkOnline = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "poslink",
			Subsystem: "link",
			Name:      "online",
			Help:      "1 when the link is online, 0 otherwise.",
		},
		[]string{"link", "kind"},
	)
	linkReadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poslink",
			Subsystem: "link",
			Name:      "read_failures_total",
			Help:      "Failed or empty reads per link.",
		},
		[]string{"link"},
	)
	linkTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poslink",
			Subsystem: "link",
			Name:      "transitions_total",
			Help:      "Online/offline transitions per link.",
		},
		[]string{"link", "online"},
	)
	linkReconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poslink",
			Subsystem: "link",
			Name:      "reconnect_attempts_total",
			Help:      "Reconnect attempts per link and outcome.",
		},
		[]string{"link", "success"},
	)
	linkSentBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poslink",
			Subsystem: "link",
			Name:      "sent_bytes_total",
			Help:      "Bytes flushed to the peer socket.",
		},
		[]string{"link"},
	)
	dispatchFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "poslink",
			Subsystem: "dispatch",
			Name:      "frames_total",
			Help:      "Frames dispatched per channel and result.",
		},
		[]string{"link", "channel", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			linkOnline, linkReadFailures, linkTransitions, linkReconnects, linkSentBytes,
			dispatchFrames,
		)
	})
}

func RecordHTTPRequest(host, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(host, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(host, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordLinkState sets the online gauge. transition also counts a flip.
func RecordLinkState(link, kind string, online, transition bool) {
	RegisterMetrics()
	v := 0.0
	if online {
		v = 1
	}
	linkOnline.WithLabelValues(link, kind).Set(v)
	if transition {
		linkTransitions.WithLabelValues(link, strconv.FormatBool(online)).Inc()
	}
}

func RecordReadFailure(link string) {
	RegisterMetrics()
	linkReadFailures.WithLabelValues(link).Inc()
}

func RecordReconnect(link string, success bool) {
	RegisterMetrics()
	linkReconnects.WithLabelValues(link, strconv.FormatBool(success)).Inc()
}

func RecordSent(link string, n int) {
	if n <= 0 {
		return
	}
	RegisterMetrics()
	linkSentBytes.WithLabelValues(link).Add(float64(n))
}

// Dispatch results.
const (
	ResultHandled  = "handled"
	ResultUnknown  = "unknown"
	ResultRejected = "rejected"
	ResultPanic    = "panic"
	ResultIgnored  = "ignored"
)

func RecordFrame(link, channel, result string) {
	RegisterMetrics()
	dispatchFrames.WithLabelValues(link, channel, result).Inc()
}
