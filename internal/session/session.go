// Package session keeps import previews between the parse and commit steps.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appErrors "github.com/unclebandit/membercast/internal/errors"
	"github.com/unclebandit/membercast/internal/importer"
)

// Preview is a parsed import waiting for the user's duplicate decision.
type Preview struct {
	ID        string          `json:"session_id"`
	Filename  string          `json:"filename,omitempty"`
	Result    importer.Result `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store saves previews for a limited time. Get and Take return
// appErrors.ErrImportSessionNotFound for unknown or expired IDs.
// Take removes the preview in the same step, so only one caller gets it.
type Store interface {
	Save(ctx context.Context, p *Preview) error
	Get(ctx context.Context, id string) (*Preview, error)
	Take(ctx context.Context, id string) (*Preview, error)
	Delete(ctx context.Context, id string) error
}

// NewPreview assigns a fresh ID to a parse result.
func NewPreview(filename string, res importer.Result) *Preview {
	return &Preview{
		ID:        uuid.NewString(),
		Filename:  filename,
		Result:    res,
		CreatedAt: time.Now().UTC(),
	}
}

// ====================== Redis ======================

const keyPrefix = "membercast:import:"

type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, TTL: ttl}
}

func (s *RedisStore) Save(ctx context.Context, p *Preview) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return s.Client.Set(ctx, keyPrefix+p.ID, data, s.TTL).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Preview, error) {
	return decodePreview(s.Client.Get(ctx, keyPrefix+id).Bytes())
}

func (s *RedisStore) Take(ctx context.Context, id string) (*Preview, error) {
	return decodePreview(s.Client.GetDel(ctx, keyPrefix+id).Bytes())
}

func decodePreview(data []byte, err error) (*Preview, error) {
	if errors.Is(err, redis.Nil) {
		return nil, appErrors.ErrImportSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var p Preview
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode preview: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.Client.Del(ctx, keyPrefix+id).Err()
}

// ====================== Memory ======================

// MemoryStore is used when no Redis address is configured.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	previews map[string]memoryEntry
}

type memoryEntry struct {
	preview   Preview
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, previews: map[string]memoryEntry{}}
}

func (s *MemoryStore) Save(ctx context.Context, p *Preview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evict()
	s.previews[p.ID] = memoryEntry{preview: *p, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(id)
}

func (s *MemoryStore) Take(ctx context.Context, id string) (*Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(id)
	delete(s.previews, id)
	return p, err
}

// lookup returns a copy of a live preview. Callers hold mu.
func (s *MemoryStore) lookup(id string) (*Preview, error) {
	e, ok := s.previews[id]
	if !ok || !s.now().Before(e.expiresAt) {
		delete(s.previews, id)
		return nil, appErrors.ErrImportSessionNotFound
	}
	p := e.preview
	return &p, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.previews, id)
	return nil
}

// evict drops expired entries. Callers hold mu.
func (s *MemoryStore) evict() {
	now := s.now()
	for id, e := range s.previews {
		if !now.Before(e.expiresAt) {
			delete(s.previews, id)
		}
	}
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
