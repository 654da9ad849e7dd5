package link

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/danmuck/poslink/internal/observability"
	"github.com/danmuck/poslink/internal/protocol"
	"github.com/danmuck/poslink/internal/protocol/catalog"
	"github.com/danmuck/poslink/internal/protocol/dispatch"
	"github.com/danmuck/poslink/internal/reactor"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

type State int

const (
	Connecting State = iota
	Online
	Offline
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Online:
		return "online"
	case Offline:
		return "offline"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

type Kind int

const (
	KindTerminal Kind = iota
	KindPrinter
)

func (k Kind) String() string {
	if k == KindPrinter {
		return "printer"
	}
	return "terminal"
}

// Notifier is told whenever a link's online status flips.
type Notifier interface {
	NotifyLinkStatusChanged(id string, online bool)
}

// Reporter receives non-fatal errors. Implementations must not block.
type Reporter interface {
	ReportError(msg string)
}

// StateSink receives a snapshot after every state change.
type StateSink interface {
	UpdateLink(Snapshot)
}

// Loop is the subset of the reactor a link needs.
type Loop interface {
	RegisterReadable(fd int, fn func()) error
	Unregister(fd int)
	RegisterTimer(d time.Duration, fn func()) reactor.TimerID
	CancelTimer(id reactor.TimerID) bool
}

// DaemonSpec describes the companion process of a printer link. It is
// started with argv [rendezvous path, host, port, model].
type DaemonSpec struct {
	Path  string
	Host  string
	Port  int
	Model string
}

// Spec is the static configuration of one link.
type Spec struct {
	ID   string
	Kind Kind
	// Address is where the host listens. Printer links may leave it empty
	// to use PrinterPath(RunDir, RunID, Instance).
	Address  Address
	Instance int
	RunDir   string
	RunID    string
	Daemon   DaemonSpec
}

// Options wires a link to its collaborators. Loop is required; everything
// else has a usable default.
type Options struct {
	Spec     Spec
	Policy   Policy
	Loop     Loop
	Notifier Notifier
	Reporter Reporter
	Sink     StateSink
	Spawner  Spawner
	// Table routes inbound frames of terminal links. Printer links build
	// their own ack table around Observer.
	Table    *dispatch.Table
	Observer PrintObserver
}

// Snapshot is a point-in-time view of a link for status consumers.
type Snapshot struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	State     string    `json:"state"`
	Online    bool      `json:"online"`
	Address   string    `json:"address"`
	Failures  int       `json:"failures"`
	DaemonPID int       `json:"daemon_pid,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Since     time.Time `json:"since"`
}

type Link struct {
	spec     Spec
	addr     Address
	policy   Policy
	loop     Loop
	notifier Notifier
	reporter Reporter
	sink     StateSink
	spawner  Spawner
	observer PrintObserver

	dispatcher *dispatch.Dispatcher

	state       State
	online      bool
	closed      bool
	fd          int
	in          *protocol.Queue
	out         *protocol.Queue
	failures    int
	lastFailure time.Time
	lastError   string
	since       time.Time

	daemon     Daemon
	reapTimer  reactor.TimerID
	flushTimer reactor.TimerID
	spooled    map[string]struct{}

	now func() time.Time
}

func New(opts Options) (*Link, error) {
	if opts.Spec.ID == "" {
		return nil, errors.New("link: empty id")
	}
	if opts.Loop == nil {
		return nil, errors.New("link: nil loop")
	}
	l := &Link{
		spec:     opts.Spec,
		policy:   opts.Policy.normalized(),
		loop:     opts.Loop,
		notifier: opts.Notifier,
		reporter: opts.Reporter,
		sink:     opts.Sink,
		spawner:  opts.Spawner,
		observer: opts.Observer,
		state:    Offline,
		fd:       -1,
		spooled:  make(map[string]struct{}),
		now:      time.Now,
	}
	l.since = l.now()
	l.addr = l.rendezvous()

	table := opts.Table
	switch l.spec.Kind {
	case KindPrinter:
		if l.spec.Daemon.Path == "" {
			return nil, fmt.Errorf("link %s: printer without daemon path", l.spec.ID)
		}
		if l.spawner == nil {
			l.spawner = ExecSpawner{}
		}
		table = l.printerAckTable()
	default:
		if l.addr.Addr == "" {
			return nil, fmt.Errorf("link %s: terminal without address", l.spec.ID)
		}
		if table == nil {
			table = dispatch.NewTable(catalog.Input).Build()
		}
	}
	l.dispatcher = dispatch.New(l.spec.ID, table, reporterFunc(l.forward))
	observability.RecordLinkState(l.spec.ID, l.spec.Kind.String(), false, false)
	l.publish()
	return l, nil
}

type reporterFunc func(string)

func (f reporterFunc) ReportError(msg string) { f(msg) }

var errNoData = errors.New("link: readable with no data")

func (l *Link) rendezvous() Address {
	if l.spec.Address.Addr != "" {
		a := l.spec.Address
		if a.Network == "" {
			a.Network = NetworkUnix
		}
		return a
	}
	if l.spec.Kind == KindPrinter {
		return Address{Network: NetworkUnix, Addr: PrinterPath(l.spec.RunDir, l.spec.RunID, l.spec.Instance)}
	}
	return l.spec.Address
}

func (l *Link) ID() string { return l.spec.ID }
func (l *Link) Kind() Kind { return l.spec.Kind }
func (l *Link) State() State { return l.state }
func (l *Link) Failures() int { return l.failures }
func (l *Link) Address() Address { return l.addr }
func (l *Link) Closed() bool { return l.closed }
func (l *Link) FD() int { return l.fd }
func (l *Link) Daemon() Daemon { return l.daemon }
func (l *Link) Inbound() *protocol.Queue { return l.in }

func (l *Link) Snapshot() Snapshot {
	s := Snapshot{
		ID:        l.spec.ID,
		Kind:      l.spec.Kind.String(),
		State:     l.state.String(),
		Online:    l.state == Online,
		Address:   l.addr.String(),
		Failures:  l.failures,
		LastError: l.lastError,
		Since:     l.since,
	}
	if l.daemon != nil {
		s.DaemonPID = l.daemon.Pid()
	}
	return s
}

// Open binds the rendezvous, spawns the companion for printer links and
// waits up to Policy.OpenWait for the peer to connect. On failure the link
// stays offline and no notification is sent.
func (l *Link) Open(ctx context.Context) error {
	if l.closed {
		return ErrClosed
	}
	if l.state == Online {
		return nil
	}
	return l.connect(ctx, l.policy.OpenWait, "open")
}

// Reconnect repeats Open for an offline link with the shorter reconnect
// wait.
func (l *Link) Reconnect(ctx context.Context) error {
	if l.closed {
		return ErrClosed
	}
	if l.state != Offline {
		return fmt.Errorf("%w: %s is %s", ErrNotOffline, l.spec.ID, l.state)
	}
	err := l.connect(ctx, l.policy.ReconnectWait, "reconnect")
	observability.RecordReconnect(l.spec.ID, err == nil)
	return err
}

func (l *Link) connect(ctx context.Context, wait time.Duration, op string) error {
	l.setState(Connecting)
	fd, err := l.establish(ctx, wait)
	if err != nil {
		l.report(fmt.Sprintf("%s %s: %v", op, l.addr, err))
		l.setState(Offline)
		return err
	}

	l.fd = fd
	l.in = protocol.NewQueue(l.policy.QueueCapacity)
	l.out = protocol.NewQueue(l.policy.QueueCapacity)
	if err := l.loop.RegisterReadable(fd, l.onReadable); err != nil {
		l.closeSocket()
		l.report(fmt.Sprintf("%s: %v", op, err))
		l.setState(Offline)
		return err
	}
	if l.daemon != nil {
		l.scheduleReap()
	}

	l.failures = 0
	l.lastFailure = time.Time{}
	l.setState(Online)
	log.Info().Str("link", l.spec.ID).Str("addr", l.addr.String()).Msg(op + " online")
	l.notify(true)
	return nil
}

func (l *Link) establish(ctx context.Context, wait time.Duration) (int, error) {
	lfd, err := listen(l.addr)
	if err != nil {
		return -1, err
	}
	defer unix.Close(lfd)

	var dead func() error
	if l.spec.Kind == KindPrinter {
		l.stopDaemon()
		d := l.spec.Daemon
		args := []string{l.addr.Addr, d.Host, strconv.Itoa(d.Port), d.Model}
		daemon, err := l.spawner.Spawn(ctx, d.Path, args)
		if err != nil {
			return -1, err
		}
		l.daemon = daemon
		dead = func() error {
			exited, err := daemon.Reap()
			if err != nil {
				return err
			}
			if exited {
				return fmt.Errorf("%w: daemon pid=%d exited before connecting", ErrSpawnFailure, daemon.Pid())
			}
			return nil
		}
	}

	fd, err := acceptOne(ctx, lfd, wait, dead)
	if err != nil {
		l.stopDaemon()
		return -1, err
	}
	return fd, nil
}

func (l *Link) onReadable() {
	l.dispatcher.OnReadable(l)
}

// Read pulls available bytes into the inbound queue.
func (l *Link) Read() (int, error) {
	if l.fd < 0 {
		return -1, ErrLinkOffline
	}
	return l.in.Read(l.fd)
}

// ReadFailed counts one failed or empty read. Reaching the threshold closes
// the socket, without sending a die opcode, and takes the link offline.
func (l *Link) ReadFailed(err error) {
	if l.state != Online {
		return
	}
	if err == nil {
		err = errNoData
	}
	l.fail(err)
}

// ReadSucceeded resets the failure counter.
func (l *Link) ReadSucceeded() {
	counted := l.failures > 0
	l.failures = 0
	l.lastFailure = time.Time{}
	if l.state != Online && l.fd >= 0 {
		l.setState(Online)
		l.notify(true)
		return
	}
	if counted {
		l.publish()
	}
}

func (l *Link) fail(err error) {
	observability.RecordReadFailure(l.spec.ID)
	now := l.now()
	if l.policy.FailureWindow > 0 && l.failures > 0 && now.Sub(l.lastFailure) < l.policy.FailureWindow {
		return
	}
	l.failures++
	l.lastFailure = now
	log.Debug().Str("link", l.spec.ID).Int("failures", l.failures).Err(err).Msg("io failure")
	if l.failures >= l.policy.FailureThreshold {
		l.goOffline(fmt.Sprintf("%d consecutive failures, last: %v", l.failures, err))
		return
	}
	l.publish()
}

func (l *Link) goOffline(reason string) {
	l.closeSocket()
	l.stopReap()
	l.stopFlush()
	l.report(reason)
	l.setState(Offline)
	l.notify(false)
}

// Queue encodes msg into the outbound queue without flushing.
func (l *Link) Queue(msg protocol.Message) error {
	if l.state != Online {
		l.report(fmt.Sprintf("dropped %s: %v", l.outName(msg.Op), ErrLinkOffline))
		return ErrLinkOffline
	}
	err := protocol.Encode(l.out, msg)
	if errors.Is(err, protocol.ErrBufferFull) {
		if ferr := l.Flush(); ferr != nil {
			return ferr
		}
		err = protocol.Encode(l.out, msg)
	}
	if err != nil {
		l.report(fmt.Sprintf("encode %s: %v", l.outName(msg.Op), err))
	}
	return err
}

// Flush writes the outbound queue to the socket. A write error counts as a
// link failure. Bytes the socket would not take are retried on a timer
// until the queue drains or the link goes offline.
func (l *Link) Flush() error {
	if l.state != Online {
		return ErrLinkOffline
	}
	n, err := l.out.Write(l.fd)
	observability.RecordSent(l.spec.ID, n)
	if err != nil {
		l.fail(err)
	}
	if l.state == Online && l.out.Size() > 0 {
		l.scheduleFlush()
	} else {
		l.stopFlush()
	}
	return err
}

// Pending returns the number of outbound bytes not yet written.
func (l *Link) Pending() int {
	if l.out == nil {
		return 0
	}
	return l.out.Size()
}

func (l *Link) scheduleFlush() {
	if l.flushTimer != 0 {
		return
	}
	l.flushTimer = l.loop.RegisterTimer(l.policy.FlushInterval, func() {
		l.flushTimer = 0
		if l.state == Online {
			_ = l.Flush()
		}
	})
}

func (l *Link) stopFlush() {
	if l.flushTimer != 0 {
		l.loop.CancelTimer(l.flushTimer)
		l.flushTimer = 0
	}
}

// Send encodes msg and flushes it. Sending on an offline link is a reported
// no-op that returns ErrLinkOffline.
func (l *Link) Send(msg protocol.Message) error {
	if err := l.Queue(msg); err != nil {
		return err
	}
	return l.Flush()
}

func (l *Link) outName(op protocol.Opcode) string {
	if l.spec.Kind == KindPrinter {
		return catalog.Printer.Name(op)
	}
	return catalog.Terminal.Name(op)
}

// Close sends a best-effort die opcode, closes the socket, removes the
// rendezvous and kills the companion. The link cannot be reopened.
func (l *Link) Close() error {
	if l.closed {
		return nil
	}
	if l.state == Online {
		die := catalog.TermDie
		if l.spec.Kind == KindPrinter {
			die = catalog.PrinterDie
		}
		if err := protocol.Encode(l.out, protocol.NewMessage(die)); err == nil {
			_, _ = l.out.Write(l.fd)
		}
	}
	l.closeSocket()
	l.stopReap()
	l.stopFlush()
	l.stopDaemon()
	if l.addr.Network == NetworkUnix && l.addr.Addr != "" {
		if err := os.Remove(l.addr.Addr); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.report(fmt.Sprintf("remove rendezvous: %v", err))
		}
	}
	l.closed = true
	l.setState(Offline)
	l.notify(false)
	return nil
}

func (l *Link) closeSocket() {
	if l.fd < 0 {
		return
	}
	l.loop.Unregister(l.fd)
	_ = unix.Close(l.fd)
	l.fd = -1
}

func (l *Link) scheduleReap() {
	l.stopReap()
	l.reapTimer = l.loop.RegisterTimer(l.policy.ReapInterval, l.reap)
}

func (l *Link) stopReap() {
	if l.reapTimer != 0 {
		l.loop.CancelTimer(l.reapTimer)
		l.reapTimer = 0
	}
}

func (l *Link) reap() {
	l.reapTimer = 0
	if l.daemon == nil {
		return
	}
	exited, err := l.daemon.Reap()
	if err != nil {
		l.report(fmt.Sprintf("reap daemon: %v", err))
	}
	if !exited {
		l.scheduleReap()
		return
	}
	pid := l.daemon.Pid()
	l.daemon = nil
	if l.state == Online {
		l.goOffline(fmt.Sprintf("daemon pid=%d exited", pid))
	}
}

func (l *Link) stopDaemon() {
	if l.daemon == nil {
		return
	}
	if err := l.daemon.Kill(); err != nil {
		l.report(fmt.Sprintf("kill daemon pid=%d: %v", l.daemon.Pid(), err))
	}
	l.daemon = nil
}

func (l *Link) setState(s State) {
	if l.state == s {
		return
	}
	l.state = s
	l.since = l.now()
	l.publish()
}

func (l *Link) publish() {
	if l.sink != nil {
		l.sink.UpdateLink(l.Snapshot())
	}
}

func (l *Link) notify(online bool) {
	if l.online == online {
		return
	}
	l.online = online
	observability.RecordLinkState(l.spec.ID, l.spec.Kind.String(), online, true)
	if l.notifier != nil {
		l.notifier.NotifyLinkStatusChanged(l.spec.ID, online)
	}
}

// forward passes on errors already logged by the dispatcher.
func (l *Link) forward(msg string) {
	l.lastError = msg
	if l.reporter != nil {
		l.reporter.ReportError(msg)
	}
}

func (l *Link) report(msg string) {
	l.lastError = msg
	log.Warn().Str("link", l.spec.ID).Str("state", l.state.String()).Msg(msg)
	if l.reporter != nil {
		l.reporter.ReportError(l.spec.ID + ": " + msg)
	}
}
