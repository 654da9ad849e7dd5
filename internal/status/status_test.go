package status

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/danmuck/poslink/internal/link"
	"github.com/danmuck/poslink/internal/testutil/testlog"
)

func TestBoardTracksLinksAndEvents(t *testing.T) {
	testlog.Start(t)
	b := NewBoard()
	b.UpdateLink(link.Snapshot{ID: "term-2", State: "online", Online: true})
	b.UpdateLink(link.Snapshot{ID: "printer-1", State: "offline"})
	b.UpdateLink(link.Snapshot{ID: "term-2", State: "offline"})
	b.NotifyLinkStatusChanged("term-2", false)
	b.ReportError("term-2: 8 consecutive failures")

	links := b.Links()
	if len(links) != 2 || links[0].ID != "printer-1" || links[1].State != "offline" {
		t.Fatalf("links = %+v", links)
	}
	if online, total := b.Online(); online != 0 || total != 2 {
		t.Fatalf("online=%d total=%d", online, total)
	}
	events := b.Events()
	if len(events) != 2 || events[0].Online == nil || *events[0].Online || events[1].Message == "" {
		t.Fatalf("events = %+v", events)
	}
	if _, ok := b.Link("missing"); ok {
		t.Fatalf("unexpected link")
	}
}

func TestBoardEventLogIsBounded(t *testing.T) {
	b := NewBoard()
	for i := 0; i < maxEvents+10; i++ {
		b.ReportError("x")
	}
	if n := len(b.Events()); n != maxEvents {
		t.Fatalf("events = %d", n)
	}
}

type fakePublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return p.err
}

func TestNATSNotifierPublishes(t *testing.T) {
	testlog.Start(t)
	pub := &fakePublisher{}
	n := NewNATSNotifier(pub, "host-a")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n.now = func() time.Time { return at }
	n.NotifyLinkStatusChanged("printer-1", true)

	if len(pub.subjects) != 1 || pub.subjects[0] != "poslink.link.printer-1.status" {
		t.Fatalf("subjects = %v", pub.subjects)
	}
	var msg StatusMessage
	if err := json.Unmarshal(pub.payloads[0], &msg); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if msg.Host != "host-a" || msg.Link != "printer-1" || !msg.Online || !msg.At.Equal(at) {
		t.Fatalf("payload = %+v", msg)
	}

	pub.err = errors.New("nats: connection closed")
	n.NotifyLinkStatusChanged("printer-1", false)
	if len(pub.subjects) != 2 {
		t.Fatalf("publish error should not stop later publishes")
	}
}

type countNotifier struct{ n int }

func (c *countNotifier) NotifyLinkStatusChanged(string, bool) { c.n++ }

func TestFanoutSkipsNil(t *testing.T) {
	a, b := &countNotifier{}, &countNotifier{}
	Notifiers{a, nil, b}.NotifyLinkStatusChanged("x", true)
	if a.n != 1 || b.n != 1 {
		t.Fatalf("fanout counts = %d/%d", a.n, b.n)
	}
	board := NewBoard()
	Reporters{board, nil}.ReportError("boom")
	Sinks{board, nil}.UpdateLink(link.Snapshot{ID: "x"})
	if len(board.Events()) != 1 || len(board.Links()) != 1 {
		t.Fatalf("board = %+v / %+v", board.Events(), board.Links())
	}
}

func TestRedisShadowKeyAndFields(t *testing.T) {
	if Key("term-1") != "poslink:link:term-1" {
		t.Fatalf("key = %s", Key("term-1"))
	}
	fields := shadowFields(link.Snapshot{ID: "p", Kind: "printer", State: "online", Online: true, DaemonPID: 42})
	if fields["online"] != "true" || fields["daemon_pid"] != 42 || fields["kind"] != "printer" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestRedisShadowNeverBlocks(t *testing.T) {
	testlog.Start(t)
	client := NewRedisClient("127.0.0.1:1")
	defer client.Close()
	shadow := NewRedisShadow(client, time.Minute)

	done := make(chan struct{})
	go func() {
		for i := 0; i < shadowQueue*2; i++ {
			shadow.UpdateLink(link.Snapshot{ID: "term-1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("UpdateLink blocked with no writer")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := shadow.Write(ctx, link.Snapshot{ID: "term-1"}); err == nil {
		t.Fatalf("expected write error against closed port")
	}
}
