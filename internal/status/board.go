// Package status collects link state for everything outside the reactor:
// the admin server, NATS subscribers and the redis shadow.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/danmuck/poslink/internal/link"
)

const maxEvents = 64

// Event is one online/offline flip or reported error.
type Event struct {
	Link    string    `json:"link,omitempty"`
	Online  *bool     `json:"online,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Board is the last known snapshot of every link plus a short event log.
// Links write from the reactor goroutine; readers may be anywhere.
type Board struct {
	mu     sync.RWMutex
	links  map[string]link.Snapshot
	events []Event
	now    func() time.Time
}

func NewBoard() *Board {
	return &Board{links: make(map[string]link.Snapshot), now: time.Now}
}

func (b *Board) UpdateLink(s link.Snapshot) {
	b.mu.Lock()
	b.links[s.ID] = s
	b.mu.Unlock()
}

func (b *Board) NotifyLinkStatusChanged(id string, online bool) {
	b.record(Event{Link: id, Online: &online})
}

func (b *Board) ReportError(msg string) {
	b.record(Event{Message: msg})
}

func (b *Board) record(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e.At = b.now()
	if len(b.events) == maxEvents {
		copy(b.events, b.events[1:])
		b.events = b.events[:maxEvents-1]
	}
	b.events = append(b.events, e)
}

// Links returns all snapshots ordered by id.
func (b *Board) Links() []link.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]link.Snapshot, 0, len(b.links))
	for _, s := range b.links {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Board) Link(id string) (link.Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.links[id]
	return s, ok
}

// Events returns the recent events, oldest first.
func (b *Board) Events() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Online counts links currently online.
func (b *Board) Online() (online, total int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.links {
		if s.Online {
			online++
		}
	}
	return online, len(b.links)
}
