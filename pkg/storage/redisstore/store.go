// Package redisstore keeps documents in Redis and fans change notices out
// over a pub/sub channel so every API instance sees every write.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/google/uuid"
)

const watchBuffer = 64

// Conn is the subset of the redis client used by the store.
type Conn interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Publish(ctx context.Context, channel string, payload any) error
	Subscribe(ctx context.Context, channels ...string) (pkgredis.Subscription, error)
}

type Option func(*Store)

// WithTTL expires documents after ttl; zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithOrigin fixes the origin id stamped on published notices.
func WithOrigin(origin string) Option {
	return func(s *Store) { s.origin = origin }
}

type Store struct {
	conn    Conn
	channel string
	origin  string
	ttl     time.Duration
	logg    *logger.Logger
}

type notice struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

func New(conn Conn, channel string, logg *logger.Logger, opts ...Option) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Store{
		conn:    conn,
		channel: channel,
		origin:  uuid.NewString(),
		logg:    logg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Origin() string {
	return s.origin
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	return s.conn.Load(ctx, key)
}

// Save writes the document, then announces it. A failed announcement is
// logged only: the write itself landed.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if err := s.conn.Set(ctx, key, data, s.ttl); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	payload, err := json.Marshal(notice{Key: key, Origin: s.origin})
	if err != nil {
		return err
	}
	if err := s.conn.Publish(ctx, s.channel, payload); err != nil {
		s.logg.WarnErr(s.logg.WithDocumentKey(ctx, key), "redisstore.publish_failed", err)
	}
	return nil
}

func (s *Store) Watch(ctx context.Context) (<-chan storage.Change, error) {
	sub, err := s.conn.Subscribe(ctx, s.channel)
	if err != nil {
		return nil, err
	}
	out := make(chan storage.Change, watchBuffer)
	go s.pump(ctx, sub, out)
	return out, nil
}

func (s *Store) pump(ctx context.Context, sub pkgredis.Subscription, out chan<- storage.Change) {
	defer close(out)
	defer func() {
		if err := sub.Close(); err != nil {
			s.logg.WarnErr(ctx, "redisstore.unsubscribe_failed", err)
		}
	}()

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var n notice
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil || n.Key == "" {
				s.logg.Warn(s.logg.WithField(ctx, "payload", msg.Payload), "redisstore.bad_notice")
				continue
			}
			if n.Origin == s.origin {
				continue
			}
			select {
			case out <- storage.Change{Key: n.Key}:
			case <-ctx.Done():
				return
			}
		}
	}
}
