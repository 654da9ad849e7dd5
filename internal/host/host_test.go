package host

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/poslink/internal/link"
	"github.com/danmuck/poslink/internal/protocol"
	"github.com/danmuck/poslink/internal/protocol/catalog"
	"github.com/danmuck/poslink/internal/testutil/testlog"
)

type inputEvent struct {
	link, op string
	fields   []protocol.Field
}

func newTestHost(t *testing.T, input InputFunc) (*Host, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "term.sock")
	policy := link.DefaultPolicy()
	policy.OpenWait = 2 * time.Second
	policy.Backoff = link.BackoffConfig{InitialDelay: time.Hour}
	h, err := New(context.Background(), Options{
		Name:   "test-host",
		Policy: policy,
		Specs: []link.Spec{{
			ID:      "term-1",
			Kind:    link.KindTerminal,
			Address: link.Address{Network: link.NetworkUnix, Addr: path},
		}},
		Input: input,
	})
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	t.Cleanup(func() { _ = h.Shutdown() })
	return h, path
}

func connect(t *testing.T, h *Host, path string) net.Conn {
	t.Helper()
	ch := make(chan net.Conn, 1)
	go func() {
		for i := 0; i < 400; i++ {
			c, err := net.Dial("unix", path)
			if err == nil {
				ch <- c
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		close(ch)
	}()
	if n := h.Start(); n != 1 {
		t.Fatalf("online after start = %d", n)
	}
	c, ok := <-ch
	if !ok {
		t.Fatalf("terminal never connected")
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func runUntil(t *testing.T, h *Host, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached")
		}
		if err := h.Loop().RunOnce(20 * time.Millisecond); err != nil {
			t.Fatalf("run: %v", err)
		}
	}
}

func TestHostRoutesInputAndShutdown(t *testing.T) {
	testlog.Start(t)
	var events []inputEvent
	h, path := newTestHost(t, func(l, op string, f []protocol.Field) {
		events = append(events, inputEvent{link: l, op: op, fields: f})
	})
	c := connect(t, h, path)

	snap, ok := h.Board().Link("term-1")
	if !ok || !snap.Online {
		t.Fatalf("board snapshot = %+v", snap)
	}

	q := protocol.NewQueue(256)
	_ = protocol.Encode(q, protocol.NewMessage(catalog.ServerTermInfo,
		protocol.Str("bar"), protocol.U16(1024), protocol.U16(768), protocol.U8(24)))
	_ = protocol.Encode(q, protocol.NewMessage(catalog.ServerButtonPress, protocol.U32(77), protocol.U8(1)))
	_ = protocol.Encode(q, protocol.NewMessage(catalog.ServerShutdown))
	if _, err := c.Write(q.Bytes()); err != nil {
		t.Fatalf("terminal write: %v", err)
	}

	l, _ := h.Registry().Get("term-1")
	runUntil(t, h, l.Closed)

	if len(events) != 1 || events[0].op != "SERVER_BUTTONPRESS" || events[0].fields[0].Uint != 77 {
		t.Fatalf("events = %+v", events)
	}
	snap, _ = h.Board().Link("term-1")
	if snap.Online {
		t.Fatalf("board still online after shutdown")
	}
}

func TestHostSendReachesTerminal(t *testing.T) {
	testlog.Start(t)
	h, path := newTestHost(t, nil)
	c := connect(t, h, path)

	if err := h.Send("term-1", protocol.NewMessage(catalog.TermSetScale, protocol.Fixed(1.25))); err != nil {
		t.Fatalf("send: %v", err)
	}
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	n, err := c.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	q := protocol.NewQueue(16)
	_ = q.PutBytes(buf[:n])
	msg, err := protocol.Decode(q, []protocol.Kind{protocol.KindFixed})
	if err != nil || msg.Fields[0].Num != 1.25 {
		t.Fatalf("decoded %+v, %v", msg, err)
	}
}

func TestHostUnknownLink(t *testing.T) {
	testlog.Start(t)
	h, _ := newTestHost(t, nil)
	if err := h.Send("nope", protocol.NewMessage(catalog.TermBell, protocol.Long(1))); !errors.Is(err, link.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
	if err := h.RetryAsync("nope"); !errors.Is(err, link.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
	if err := h.Print("term-1", "/tmp/x"); !errors.Is(err, link.ErrWrongKind) {
		t.Fatalf("expected ErrWrongKind, got %v", err)
	}
}

func TestHostFailedStartSchedulesRetry(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "term.sock")
	policy := link.DefaultPolicy()
	policy.OpenWait = 20 * time.Millisecond
	h, err := New(context.Background(), Options{
		Policy: policy,
		Specs:  []link.Spec{{ID: "term-9", Address: link.Address{Network: link.NetworkUnix, Addr: path}}},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer h.Shutdown()
	if n := h.Start(); n != 0 {
		t.Fatalf("online = %d", n)
	}
	if !h.Retrier().Pending("term-9") {
		t.Fatalf("retry not scheduled")
	}
	if err := h.RetryAsync("term-9"); err != nil {
		t.Fatalf("retry async: %v", err)
	}
}

func TestDuplicateSpecRejected(t *testing.T) {
	spec := link.Spec{ID: "dup", Address: link.Address{Network: link.NetworkUnix, Addr: "/tmp/dup.sock"}}
	_, err := New(context.Background(), Options{Specs: []link.Spec{spec, spec}})
	if !errors.Is(err, link.ErrLinkExists) {
		t.Fatalf("expected ErrLinkExists, got %v", err)
	}
}
