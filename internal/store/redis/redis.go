// Package redis is a point store shared through Redis.
//
// All points live in one hash (field = point id, value = JSON record). Every
// Save also PUBLISHes the id on a change channel so that each client's
// update streams re-read the hash.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	backend "github.com/redis/go-redis/v9"

	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/store"
)

// DefaultPrefix namespaces the keys used by the store.
const DefaultPrefix = "fieldmap:"

// Store implements store.Store using Redis.
type Store struct {
	client *backend.Client
	prefix string
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store connected to address.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a store from an existing client. Close closes the
// client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Store) pointsKey() string {
	return s.prefix + "points"
}

func (s *Store) changesChannel() string {
	return s.prefix + "changes"
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, p point.MapPoint) error {
	record, err := store.EncodeRecord(p)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.pointsKey(), p.ID, record)
	pipe.Publish(ctx, s.changesChannel(), p.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save point %q to redis: %w", p.ID, err)
	}

	s.logger.Debug("point saved", "id", p.ID, "type", p.Type.String())
	return nil
}

// List implements store.Store.
func (s *Store) List(ctx context.Context) ([]point.MapPoint, error) {
	fields, err := s.client.HGetAll(ctx, s.pointsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read points from redis: %w", err)
	}

	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([][]byte, len(ids))
	for i, id := range ids {
		records[i] = []byte(fields[id])
	}
	return store.DecodeRecords(records, s.logger)
}

// Updates implements store.Store.
//
// The subscription is confirmed before the first read, so no change
// published after the stream starts can be missed.
func (s *Store) Updates(ctx context.Context) <-chan store.Update {
	pubsub := s.client.Subscribe(ctx, s.changesChannel())
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		out := make(chan store.Update, 1)
		out <- store.Update{Err: fmt.Errorf("failed to subscribe to redis: %w", err)}
		close(out)
		return out
	}

	return store.Feed(ctx, s.List, newChanges(pubsub), s.logger)
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.client.Close()
}

// changes adapts a PubSub to store.Changes. Bursts of messages coalesce
// into one signal since every signal triggers a full re-read.
type changes struct {
	pubsub *backend.PubSub
	c      chan struct{}
}

func newChanges(pubsub *backend.PubSub) *changes {
	ch := &changes{
		pubsub: pubsub,
		c:      make(chan struct{}, 1),
	}
	go func() {
		defer close(ch.c)
		for range pubsub.Channel() {
			select {
			case ch.c <- struct{}{}:
			default:
			}
		}
	}()
	return ch
}

func (c *changes) C() <-chan struct{} {
	return c.c
}

func (c *changes) Close() {
	c.pubsub.Close()
}
