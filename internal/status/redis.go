package status

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/danmuck/poslink/internal/link"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "poslink:link:"

// Key is the redis hash holding the shadow of link id.
func Key(id string) string {
	return keyPrefix + id
}

const (
	shadowQueue   = 64
	shadowTimeout = 250 * time.Millisecond
)

// RedisShadow mirrors link snapshots into redis hashes with a TTL. Updates
// are queued and written by a background goroutine; when the queue is full
// the update is dropped and the next one catches up.
type RedisShadow struct {
	client  *redis.Client
	ttl     time.Duration
	updates chan link.Snapshot
	done    chan struct{}
}

func NewRedisShadow(client *redis.Client, ttl time.Duration) *RedisShadow {
	return &RedisShadow{
		client:  client,
		ttl:     ttl,
		updates: make(chan link.Snapshot, shadowQueue),
		done:    make(chan struct{}),
	}
}

// NewRedisClient builds a client for addr with short timeouts.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  time.Second,
		ReadTimeout:  shadowTimeout,
		WriteTimeout: shadowTimeout,
	})
}

// Start runs the writer until ctx is cancelled.
func (r *RedisShadow) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-r.updates:
				if err := r.Write(ctx, s); err != nil {
					log.Warn().Err(err).Str("link", s.ID).Msg("redis shadow write failed")
				}
			}
		}
	}()
}

// Wait blocks until the writer started by Start has exited.
func (r *RedisShadow) Wait() {
	<-r.done
}

func (r *RedisShadow) UpdateLink(s link.Snapshot) {
	select {
	case r.updates <- s:
	default:
		log.Debug().Str("link", s.ID).Msg("redis shadow queue full, update dropped")
	}
}

// Write stores s immediately.
func (r *RedisShadow) Write(ctx context.Context, s link.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, shadowTimeout)
	defer cancel()

	key := Key(s.ID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, shadowFields(s))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis shadow %s: %w", key, err)
	}
	return nil
}

func shadowFields(s link.Snapshot) map[string]any {
	return map[string]any{
		"kind":       s.Kind,
		"state":      s.State,
		"online":     strconv.FormatBool(s.Online),
		"address":    s.Address,
		"failures":   s.Failures,
		"daemon_pid": s.DaemonPID,
		"last_error": s.LastError,
		"since":      s.Since.UTC().Format(time.RFC3339Nano),
	}
}
