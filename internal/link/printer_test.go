package link

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danmuck/poslink/internal/protocol"
	"github.com/danmuck/poslink/internal/protocol/catalog"
	"github.com/danmuck/poslink/internal/reactor"
	"github.com/danmuck/poslink/internal/testutil/testlog"
)

type fakeDaemon struct {
	pid    int
	exited atomic.Bool
	killed atomic.Bool
}

func (d *fakeDaemon) Pid() int { return d.pid }

func (d *fakeDaemon) Reap() (bool, error) { return d.exited.Load(), nil }

func (d *fakeDaemon) Kill() error {
	d.killed.Store(true)
	d.exited.Store(true)
	return nil
}

// fakeSpawner plays the print daemon: it dials the rendezvous path passed as
// the first argument.
type fakeSpawner struct {
	t       *testing.T
	argv    [][]string
	daemons []*fakeDaemon
	conns   chan net.Conn
	fail      error
	noDial    bool
	exitAfter time.Duration
}

func newFakeSpawner(t *testing.T) *fakeSpawner {
	return &fakeSpawner{t: t, conns: make(chan net.Conn, 4)}
}

func (s *fakeSpawner) Spawn(_ context.Context, path string, args []string) (Daemon, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	s.argv = append(s.argv, append([]string{path}, args...))
	d := &fakeDaemon{pid: 4000 + len(s.daemons)}
	s.daemons = append(s.daemons, d)
	if s.exitAfter > 0 {
		go func() {
			time.Sleep(s.exitAfter)
			d.exited.Store(true)
		}()
	}
	if !s.noDial {
		go func(sock string) {
			for i := 0; i < 200; i++ {
				c, err := net.Dial("unix", sock)
				if err == nil {
					s.conns <- c
					return
				}
				time.Sleep(5 * time.Millisecond)
			}
		}(args[0])
	}
	return d, nil
}

func (s *fakeSpawner) conn() net.Conn {
	s.t.Helper()
	select {
	case c := <-s.conns:
		s.t.Cleanup(func() { c.Close() })
		return c
	case <-time.After(3 * time.Second):
		s.t.Fatalf("daemon never connected")
	}
	return nil
}

type printLog struct {
	done   []string
	failed []string
}

func (p *printLog) PrintDone(_, file string) { p.done = append(p.done, file) }
func (p *printLog) PrintFailed(_, file, reason string) { p.failed = append(p.failed, file+":"+reason) }

func newPrinter(t *testing.T, loop Loop, rec *recorder, sp Spawner, obs PrintObserver) *Link {
	t.Helper()
	l, err := New(Options{
		Spec: Spec{
			ID:       "printer-1",
			Kind:     KindPrinter,
			Instance: 1,
			RunDir:   t.TempDir(),
			RunID:    "test",
			Daemon:   DaemonSpec{Path: "/usr/bin/posprintd", Host: "10.0.0.9", Port: 9100, Model: "epson"},
		},
		Policy:   testPolicy(),
		Loop:     loop,
		Notifier: rec,
		Reporter: rec,
		Spawner:  sp,
		Observer: obs,
	})
	if err != nil {
		t.Fatalf("new printer: %v", err)
	}
	return l
}

func TestPrinterOfflineAfterEightFailuresThenReconnect(t *testing.T) {
	testlog.Start(t)
	rec := &recorder{}
	sp := newFakeSpawner(t)
	l := newPrinter(t, reactor.New(), rec, sp, nil)

	if err := l.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	sp.conn()
	want := []string{"/usr/bin/posprintd", l.Address().Addr, "10.0.0.9", "9100", "epson"}
	if len(sp.argv) != 1 || len(sp.argv[0]) != len(want) {
		t.Fatalf("argv = %v", sp.argv)
	}
	for i := range want {
		if sp.argv[0][i] != want[i] {
			t.Fatalf("argv = %v, want %v", sp.argv[0], want)
		}
	}

	for i := 0; i < 8; i++ {
		l.ReadFailed(errors.New("short read"))
	}
	if l.State() != Offline {
		t.Fatalf("state = %s", l.State())
	}

	if err := l.Reconnect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	sp.conn()
	if l.State() != Online || l.Failures() != 0 {
		t.Fatalf("state=%s failures=%d", l.State(), l.Failures())
	}
	if !sp.daemons[0].killed.Load() {
		t.Fatalf("previous daemon not killed on reconnect")
	}
	if got := l.Daemon().Pid(); got != sp.daemons[1].pid {
		t.Fatalf("daemon pid = %d", got)
	}
}

func TestPrinterSpawnFailure(t *testing.T) {
	testlog.Start(t)
	rec := &recorder{}
	sp := newFakeSpawner(t)
	sp.fail = ErrSpawnFailure
	l := newPrinter(t, reactor.New(), rec, sp, nil)
	if err := l.Open(context.Background()); !errors.Is(err, ErrSpawnFailure) {
		t.Fatalf("expected ErrSpawnFailure, got %v", err)
	}
	if l.State() != Offline || len(rec.notes) != 0 {
		t.Fatalf("state=%s notes=%+v", l.State(), rec.notes)
	}
}

func TestPrinterDaemonExitBeforeConnect(t *testing.T) {
	testlog.Start(t)
	rec := &recorder{}
	sp := newFakeSpawner(t)
	sp.noDial = true
	sp.exitAfter = 20 * time.Millisecond
	l := newPrinter(t, reactor.New(), rec, sp, nil)

	start := time.Now()
	err := l.Open(context.Background())
	if !errors.Is(err, ErrSpawnFailure) {
		t.Fatalf("expected ErrSpawnFailure, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("dead daemon not noticed early")
	}
}

func TestPrinterDaemonExitTakesLinkOffline(t *testing.T) {
	testlog.Start(t)
	rec := &recorder{}
	sp := newFakeSpawner(t)
	loop := reactor.New()
	l := newPrinter(t, loop, rec, sp, nil)
	if err := l.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	sp.conn()

	sp.daemons[0].exited.Store(true)
	deadline := time.Now().Add(time.Second)
	for l.State() == Online && time.Now().Before(deadline) {
		_ = loop.RunOnce(20 * time.Millisecond)
	}
	if l.State() != Offline || l.Failures() != 0 {
		t.Fatalf("state=%s failures=%d", l.State(), l.Failures())
	}
	if l.Daemon() != nil {
		t.Fatalf("daemon handle kept after reap")
	}
}

func TestPrinterJobAcks(t *testing.T) {
	testlog.Start(t)
	rec := &recorder{}
	obs := &printLog{}
	sp := newFakeSpawner(t)
	loop := reactor.New()
	l := newPrinter(t, loop, rec, sp, obs)
	if err := l.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	daemon := sp.conn()

	spool := filepath.Join(t.TempDir(), "receipt-0001.txt")
	if err := os.WriteFile(spool, []byte("TOTAL 12.50\n"), 0o600); err != nil {
		t.Fatalf("write spool: %v", err)
	}
	if err := l.SendFile(spool); err != nil {
		t.Fatalf("send file: %v", err)
	}
	if err := l.OpenDrawer(0); err != nil {
		t.Fatalf("open drawer: %v", err)
	}
	got := readFrame(t, daemon, []protocol.Kind{protocol.KindString})
	if got.Op != catalog.PrinterFile || got.Fields[0].Str != spool {
		t.Fatalf("daemon got %+v", got)
	}

	acks := protocol.NewQueue(512)
	_ = protocol.Encode(acks, protocol.NewMessage(catalog.PrinterBadFile, protocol.Str("/etc/other")))
	_ = protocol.Encode(acks, protocol.NewMessage(catalog.PrinterDone, protocol.Str(spool)))
	if _, err := daemon.Write(acks.Bytes()); err != nil {
		t.Fatalf("daemon write: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(obs.done) == 0 && time.Now().Before(deadline) {
		_ = loop.RunOnce(20 * time.Millisecond)
	}
	if len(obs.done) != 1 || obs.done[0] != spool {
		t.Fatalf("done = %v", obs.done)
	}
	if len(obs.failed) != 1 || obs.failed[0] != "/etc/other:bad file" {
		t.Fatalf("failed = %v", obs.failed)
	}
	if _, err := os.Stat(spool); !os.IsNotExist(err) {
		t.Fatalf("spool file not removed: %v", err)
	}
	if l.Spooled() != 0 {
		t.Fatalf("spooled = %d", l.Spooled())
	}
}

func TestPrinterOnlyOperations(t *testing.T) {
	testlog.Start(t)
	l := newTerminal(t, reactor.New(), &recorder{}, nil)
	if err := l.SendFile("/tmp/x"); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("expected ErrWrongKind, got %v", err)
	}
	if err := l.Cancel(); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("expected ErrWrongKind, got %v", err)
	}
}

func TestPrinterCloseKillsDaemon(t *testing.T) {
	testlog.Start(t)
	rec := &recorder{}
	sp := newFakeSpawner(t)
	l := newPrinter(t, reactor.New(), rec, sp, nil)
	if err := l.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	daemon := sp.conn()
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := readFrame(t, daemon, nil); got.Op != catalog.PrinterDie {
		t.Fatalf("daemon got op %d", got.Op)
	}
	if !sp.daemons[0].killed.Load() {
		t.Fatalf("daemon not killed")
	}
}
