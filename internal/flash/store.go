// Package flash keeps one-shot status messages in Redis between a mutation
// and the next listing request of the same client.
package flash

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "flash:"
	defaultTTL = 5 * time.Minute
)

// Message types.
const (
	TypeSuccess = "success"
	TypeError   = "error"
)

type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Store manages flash messages in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a new flash store.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Put replaces the pending message for client id.
func (s *Store) Put(ctx context.Context, id string, m Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+id, b, s.ttl).Err()
}

// Pop returns and removes the pending message for client id. ok is false when
// there is none.
func (s *Store) Pop(ctx context.Context, id string) (m Message, ok bool, err error) {
	b, err := s.rdb.GetDel(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Message{}, false, nil
	}
	if err != nil {
		return Message{}, false, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, false, err
	}
	return m, true, nil
}

// NewID returns a random client id for the flash cookie.
func NewID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}
