package link

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/danmuck/poslink/internal/reactor"
	"github.com/rs/zerolog/log"
)

// Retrier reconnects offline links on a backoff schedule. It sits in front
// of another Notifier: every status change is forwarded, and an offline
// notification also schedules the first reconnect attempt.
type Retrier struct {
	ctx      context.Context
	loop     Loop
	registry *Registry
	backoff  BackoffConfig
	next     Notifier
	rng      *rand.Rand

	attempts map[string]int
	timers   map[string]reactor.TimerID
}

func NewRetrier(ctx context.Context, loop Loop, registry *Registry, backoff BackoffConfig, next Notifier) *Retrier {
	return &Retrier{
		ctx:      ctx,
		loop:     loop,
		registry: registry,
		backoff:  backoff,
		next:     next,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		attempts: make(map[string]int),
		timers:   make(map[string]reactor.TimerID),
	}
}

func (r *Retrier) NotifyLinkStatusChanged(id string, online bool) {
	if r.next != nil {
		r.next.NotifyLinkStatusChanged(id, online)
	}
	if online {
		r.cancel(id)
		delete(r.attempts, id)
		return
	}
	if l, ok := r.registry.Get(id); ok && !l.Closed() {
		r.Schedule(id)
	}
}

// Schedule arms the next reconnect attempt for id, replacing any pending one.
func (r *Retrier) Schedule(id string) time.Duration {
	r.cancel(id)
	delay := NextBackoffDelay(r.backoff, r.attempts[id]+1, r.rng)
	r.timers[id] = r.loop.RegisterTimer(delay, func() {
		delete(r.timers, id)
		_ = r.attempt(id)
	})
	log.Debug().Str("link", id).Dur("delay", delay).Int("attempt", r.attempts[id]+1).Msg("reconnect scheduled")
	return delay
}

// Pending reports whether a reconnect attempt is armed for id.
func (r *Retrier) Pending(id string) bool {
	_, ok := r.timers[id]
	return ok
}

// Test makes one immediate attempt, as when an operator asks the host to
// retry a printer now. A failure falls back to the backoff schedule.
func (r *Retrier) Test(id string) error {
	r.cancel(id)
	return r.attempt(id)
}

func (r *Retrier) attempt(id string) error {
	l, ok := r.registry.Get(id)
	if !ok {
		return ErrLinkNotFound
	}
	if l.Closed() {
		return ErrClosed
	}
	var err error
	if l.State() == Offline {
		err = l.Reconnect(r.ctx)
	} else {
		err = l.Open(r.ctx)
	}
	if err == nil || errors.Is(err, ErrNotOffline) || errors.Is(err, context.Canceled) {
		return err
	}
	r.attempts[id]++
	r.Schedule(id)
	return err
}

func (r *Retrier) cancel(id string) {
	if t, ok := r.timers[id]; ok {
		r.loop.CancelTimer(t)
		delete(r.timers, id)
	}
}
