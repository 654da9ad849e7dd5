package status

import (
	"github.com/danmuck/poslink/internal/link"
	"github.com/rs/zerolog"
)

// Notifiers forwards status changes to each notifier in order.
type Notifiers []link.Notifier

func (n Notifiers) NotifyLinkStatusChanged(id string, online bool) {
	for _, x := range n {
		if x != nil {
			x.NotifyLinkStatusChanged(id, online)
		}
	}
}

// Reporters forwards errors to each reporter in order.
type Reporters []link.Reporter

func (r Reporters) ReportError(msg string) {
	for _, x := range r {
		if x != nil {
			x.ReportError(msg)
		}
	}
}

// Sinks forwards snapshots to each sink in order.
type Sinks []link.StateSink

func (s Sinks) UpdateLink(snap link.Snapshot) {
	for _, x := range s {
		if x != nil {
			x.UpdateLink(snap)
		}
	}
}

// LogNotifier writes status flips to a logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) NotifyLinkStatusChanged(id string, online bool) {
	ev := n.Logger.Info()
	if !online {
		ev = n.Logger.Warn()
	}
	ev.Str("link", id).Bool("online", online).Msg("link status changed")
}
