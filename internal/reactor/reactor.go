// Package reactor is the single-threaded event loop every link runs on.
// Callbacks are invoked on the goroutine that calls RunOnce or Run and must
// not block.
package reactor

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// MaxTick bounds a single poll inside Run so context cancellation is noticed
// promptly.
const MaxTick = 100 * time.Millisecond

var ErrAlreadyRegistered = errors.New("reactor: fd already registered")

// TimerID identifies a pending timer.
type TimerID uint64

type reader struct {
	fd int
	fn func()
}

type timer struct {
	id    TimerID
	when  time.Time
	fn    func()
	index int
}

type Reactor struct {
	readers map[int]*reader
	timers  timerHeap
	byID    map[TimerID]*timer
	nextID  TimerID
	now     func() time.Time

	mu     sync.Mutex
	posted []func()
	wake   int
}

func New() *Reactor {
	r := &Reactor{
		readers: make(map[int]*reader),
		byID:    make(map[TimerID]*timer),
		now:     time.Now,
		wake:    -1,
	}
	if fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC); err == nil {
		r.wake = fd
	}
	return r
}

// Close releases the wakeup descriptor. Registered fds are not touched.
func (r *Reactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wake < 0 {
		return nil
	}
	err := unix.Close(r.wake)
	r.wake = -1
	return err
}

// Post queues fn to run on the reactor goroutine during the next turn. It is
// the only method safe to call from other goroutines.
func (r *Reactor) Post(fn func()) {
	r.mu.Lock()
	r.posted = append(r.posted, fn)
	wake := r.wake
	r.mu.Unlock()
	if wake >= 0 {
		var one [8]byte
		one[0] = 1
		_, _ = unix.Write(wake, one[:])
	}
}

// RegisterReadable calls fn whenever fd is readable or has hung up.
func (r *Reactor) RegisterReadable(fd int, fn func()) error {
	if _, ok := r.readers[fd]; ok {
		return fmt.Errorf("%w: fd=%d", ErrAlreadyRegistered, fd)
	}
	r.readers[fd] = &reader{fd: fd, fn: fn}
	return nil
}

// Unregister removes the readable callback for fd. Unknown fds are ignored.
func (r *Reactor) Unregister(fd int) {
	delete(r.readers, fd)
}

// Registered reports whether fd has a readable callback.
func (r *Reactor) Registered(fd int) bool {
	_, ok := r.readers[fd]
	return ok
}

// RegisterTimer schedules fn to run once after d.
func (r *Reactor) RegisterTimer(d time.Duration, fn func()) TimerID {
	r.nextID++
	t := &timer{id: r.nextID, when: r.now().Add(d), fn: fn}
	heap.Push(&r.timers, t)
	r.byID[t.id] = t
	return t.id
}

// CancelTimer removes a pending timer. It reports false if the timer already
// fired or was never scheduled.
func (r *Reactor) CancelTimer(id TimerID) bool {
	t, ok := r.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&r.timers, t.index)
	delete(r.byID, id)
	return true
}

// PendingTimers returns the number of scheduled timers.
func (r *Reactor) PendingTimers() int { return len(r.timers) }

// RunOnce waits up to timeout for readiness or the next timer deadline, then
// runs ready callbacks followed by expired timers. A negative timeout waits
// until something happens.
func (r *Reactor) RunOnce(timeout time.Duration) error {
	wait := timeout
	if len(r.timers) > 0 {
		until := r.timers[0].when.Sub(r.now())
		if until < 0 {
			until = 0
		}
		if wait < 0 || until < wait {
			wait = until
		}
	}

	if r.hasPosted() {
		wait = 0
	}

	fds := r.pollSet()
	n, err := unix.Poll(fds, pollMillis(wait))
	if err != nil && err != unix.EINTR {
		return fmt.Errorf("reactor: poll: %w", err)
	}
	if n > 0 {
		r.dispatchReady(fds)
	}
	r.runPosted()
	r.fireTimers()
	return nil
}

func (r *Reactor) hasPosted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posted) > 0
}

func (r *Reactor) runPosted() {
	r.mu.Lock()
	posted := r.posted
	r.posted = nil
	r.mu.Unlock()
	if r.wake >= 0 {
		var buf [8]byte
		_, _ = unix.Read(r.wake, buf[:])
	}
	for _, fn := range posted {
		fn()
	}
}

// Run loops until ctx is cancelled.
func (r *Reactor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := r.RunOnce(MaxTick); err != nil {
			return err
		}
	}
}

func (r *Reactor) pollSet() []unix.PollFd {
	fds := make([]unix.PollFd, 0, len(r.readers)+1)
	for fd := range r.readers {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}
	sort.Slice(fds, func(i, j int) bool { return fds[i].Fd < fds[j].Fd })
	if r.wake >= 0 {
		fds = append(fds, unix.PollFd{Fd: int32(r.wake), Events: unix.POLLIN})
	}
	return fds
}

func (r *Reactor) dispatchReady(fds []unix.PollFd) {
	ready := make([]*reader, 0, len(fds))
	for _, p := range fds {
		if p.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) == 0 {
			continue
		}
		if rd, ok := r.readers[int(p.Fd)]; ok {
			ready = append(ready, rd)
		}
	}
	for _, rd := range ready {
		// An earlier callback may have unregistered or replaced this fd.
		if r.readers[rd.fd] != rd {
			continue
		}
		rd.fn()
	}
}

func (r *Reactor) fireTimers() {
	now := r.now()
	var due []*timer
	for len(r.timers) > 0 && !r.timers[0].when.After(now) {
		t := heap.Pop(&r.timers).(*timer)
		delete(r.byID, t.id)
		due = append(due, t)
	}
	for _, t := range due {
		t.fn()
	}
}

// WaitReadable blocks for at most timeout until fd is readable. It reports
// false on timeout.
func WaitReadable(fd int, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, pollMillis(time.Until(deadline)))
		if err == unix.EINTR {
			if time.Now().After(deadline) {
				return false, nil
			}
			continue
		}
		if err != nil {
			return false, fmt.Errorf("reactor: poll fd=%d: %w", fd, err)
		}
		if n == 0 {
			return false, nil
		}
		if fds[0].Revents&unix.POLLNVAL != 0 {
			return false, fmt.Errorf("reactor: poll fd=%d: %w", fd, unix.EBADF)
		}
		return true, nil
	}
}

func pollMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d.Milliseconds()
	if d > 0 && ms == 0 {
		ms = 1
	}
	return int(ms)
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].id < h[j].id
	}
	return h[i].when.Before(h[j].when)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	t.index = -1
	return t
}
