// Package memory keeps short conversation histories per owner and thread.
package memory

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/spigell/smart-hr/internal/errors"
)

const (
	defaultSize     = 1024
	defaultTTL      = 30 * time.Minute
	defaultMaxTurns = 20
)

type Config struct {
	Size     int           `mapstructure:"size"`
	TTL      time.Duration `mapstructure:"ttl"`
	MaxTurns int           `mapstructure:"max-turns"`
}

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type entry struct {
	turns   []Turn
	expires time.Time
}

type key struct {
	owner  string
	thread string
}

// Store is a bounded, expiring map from (owner, thread) to recent turns.
// It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	cache    *lru.Cache
	ttl      time.Duration
	maxTurns int
	now      func() time.Time
}

func New(cfg Config) (*Store, error) {
	if cfg.Size <= 0 {
		cfg.Size = defaultSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = defaultMaxTurns
	}

	cache, err := lru.New(cfg.Size)
	if err != nil {
		return nil, errors.Wrap(err, "create memory cache")
	}

	return &Store{
		cache:    cache,
		ttl:      cfg.TTL,
		maxTurns: cfg.MaxTurns,
		now:      time.Now,
	}, nil
}

// Load returns a copy of the remembered turns, oldest first. Threads are never shared across owners.
func (s *Store) Load(owner, thread string) []Turn {
	if owner == "" || thread == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.get(key{owner: owner, thread: thread})
	if !ok {
		return nil
	}
	out := make([]Turn, len(e.turns))
	copy(out, e.turns)
	return out
}

// Append remembers turns and refreshes the thread's expiry. The oldest turns
// are dropped beyond the configured maximum.
func (s *Store) Append(owner, thread string, turns ...Turn) {
	if owner == "" || thread == "" || len(turns) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{owner: owner, thread: thread}
	var existing []Turn
	if e, ok := s.get(k); ok {
		existing = e.turns
	}

	merged := make([]Turn, 0, len(existing)+len(turns))
	merged = append(merged, existing...)
	merged = append(merged, turns...)
	if len(merged) > s.maxTurns {
		merged = merged[len(merged)-s.maxTurns:]
	}

	s.cache.Add(k, &entry{turns: merged, expires: s.now().Add(s.ttl)})
}

func (s *Store) Forget(owner, thread string) {
	s.cache.Remove(key{owner: owner, thread: thread})
}

func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) get(k key) (*entry, bool) {
	v, ok := s.cache.Get(k)
	if !ok {
		return nil, false
	}
	e := v.(*entry)
	if !s.now().Before(e.expires) {
		s.cache.Remove(k)
		return nil, false
	}
	return e, true
}
