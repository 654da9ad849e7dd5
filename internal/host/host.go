// Package host ties links, the reactor and the status board together. A Host
// is the explicit context every handler and collaborator is reached through.
package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/poslink/internal/link"
	"github.com/danmuck/poslink/internal/protocol"
	"github.com/danmuck/poslink/internal/protocol/dispatch"
	"github.com/danmuck/poslink/internal/reactor"
	"github.com/danmuck/poslink/internal/status"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InputFunc receives decoded terminal input the host does not handle itself.
type InputFunc func(link, op string, fields []protocol.Field)

type Options struct {
	Name   string
	RunID  string
	Policy link.Policy
	Specs  []link.Spec

	Spawner  link.Spawner
	Observer link.PrintObserver
	Input    InputFunc

	Notifiers []link.Notifier
	Reporters []link.Reporter
	Sinks     []link.StateSink
	Logger    *zerolog.Logger
}

type Host struct {
	name     string
	runID    string
	ctx      context.Context
	loop     *reactor.Reactor
	registry *link.Registry
	board    *status.Board
	retrier  *link.Retrier
	input    *dispatch.Table
	inputFn  InputFunc
	logger   zerolog.Logger
}

func New(ctx context.Context, opts Options) (*Host, error) {
	if opts.Name == "" {
		opts.Name = "poshost"
	}
	if opts.RunID == "" {
		opts.RunID = link.NewRunID()
	}
	if opts.Policy.Backoff == (link.BackoffConfig{}) {
		opts.Policy.Backoff = link.DefaultPolicy().Backoff
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	h := &Host{
		name:     opts.Name,
		runID:    opts.RunID,
		ctx:      ctx,
		loop:     reactor.New(),
		registry: link.NewRegistry(),
		board:    status.NewBoard(),
		inputFn:  opts.Input,
		logger:   logger,
	}

	notifiers := append(status.Notifiers{h.board, status.LogNotifier{Logger: logger}}, opts.Notifiers...)
	reporters := append(status.Reporters{h.board}, opts.Reporters...)
	sinks := append(status.Sinks{h.board}, opts.Sinks...)
	h.retrier = link.NewRetrier(ctx, h.loop, h.registry, opts.Policy.Backoff, notifiers)
	h.input = h.inputTable()

	for _, spec := range opts.Specs {
		if spec.Kind == link.KindPrinter && spec.RunID == "" {
			spec.RunID = h.runID
		}
		l, err := link.New(link.Options{
			Spec:     spec,
			Policy:   opts.Policy,
			Loop:     h.loop,
			Notifier: h.retrier,
			Reporter: reporters,
			Sink:     sinks,
			Spawner:  opts.Spawner,
			Table:    h.input,
			Observer: opts.Observer,
		})
		if err != nil {
			h.loop.Close()
			return nil, err
		}
		if err := h.registry.Add(l); err != nil {
			h.loop.Close()
			return nil, err
		}
	}
	return h, nil
}

func (h *Host) Name() string { return h.name }
func (h *Host) RunID() string { return h.runID }
func (h *Host) Loop() *reactor.Reactor { return h.loop }
func (h *Host) Registry() *link.Registry { return h.registry }
func (h *Host) Board() *status.Board { return h.board }
func (h *Host) Retrier() *link.Retrier { return h.retrier }
func (h *Host) InputTable() *dispatch.Table { return h.input }

// Start opens every link. Links that fail to open are handed to the retrier.
func (h *Host) Start() (online int) {
	h.registry.Each(func(l *link.Link) {
		if err := l.Open(h.ctx); err != nil {
			h.logger.Warn().Err(err).Str("link", l.ID()).Msg("open failed, retry scheduled")
			h.retrier.Schedule(l.ID())
			return
		}
		online++
	})
	return online
}

// Run drives the reactor until ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	err := h.loop.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Shutdown closes every link and releases the reactor. Call it from the
// reactor goroutine after Run returns.
func (h *Host) Shutdown() error {
	err := h.registry.CloseAll()
	return errors.Join(err, h.loop.Close())
}

func (h *Host) link(id string) (*link.Link, error) {
	l, ok := h.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", link.ErrLinkNotFound, id)
	}
	return l, nil
}

// Send encodes msg onto link id.
func (h *Host) Send(id string, msg protocol.Message) error {
	l, err := h.link(id)
	if err != nil {
		return err
	}
	return l.Send(msg)
}

// Print hands a spooled file to printer id.
func (h *Host) Print(id, file string) error {
	l, err := h.link(id)
	if err != nil {
		return err
	}
	return l.SendFile(file)
}

func (h *Host) OpenDrawer(id string, drawer uint8) error {
	l, err := h.link(id)
	if err != nil {
		return err
	}
	return l.OpenDrawer(drawer)
}

// Retry makes an immediate reconnect attempt for id.
func (h *Host) Retry(id string) error {
	if _, err := h.link(id); err != nil {
		return err
	}
	return h.retrier.Test(id)
}

// RetryAsync queues Retry onto the reactor. It is safe to call from any
// goroutine; only existence of the link is checked synchronously.
func (h *Host) RetryAsync(id string) error {
	if _, ok := h.board.Link(id); !ok {
		return fmt.Errorf("%w: %s", link.ErrLinkNotFound, id)
	}
	h.loop.Post(func() {
		if err := h.Retry(id); err != nil {
			h.logger.Debug().Err(err).Str("link", id).Msg("manual retry failed")
		}
	})
	return nil
}
