// Package memory is an in-process storage backend. A Store plays the role of
// the shared origin storage and each Handle is one browsing context over it.
package memory

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/pkg/storage"
)

const watchBuffer = 256

type Option func(*Store)

// WithQuota caps the total number of stored bytes across all keys.
func WithQuota(bytes int) Option {
	return func(s *Store) { s.quota = bytes }
}

type Store struct {
	mu       sync.RWMutex
	data     map[string][]byte
	used     int
	quota    int
	watchers map[chan storage.Change]*Handle
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		data:     make(map[string][]byte),
		watchers: make(map[chan storage.Change]*Handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle returns a new context over the shared store.
func (s *Store) Handle() *Handle {
	return &Handle{store: s}
}

// Handle implements storage.Backend.
type Handle struct {
	store *Store
}

func (h *Handle) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	data, ok := h.store.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (h *Handle) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := h.store
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.used - len(s.data[key]) + len(data)
	if s.quota > 0 && used > s.quota {
		return storage.ErrQuotaExceeded
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.data[key] = stored
	s.used = used

	for ch, owner := range s.watchers {
		if owner == h {
			continue
		}
		select {
		case ch <- storage.Change{Key: key}:
		default:
		}
	}
	return nil
}

func (h *Handle) Watch(ctx context.Context) (<-chan storage.Change, error) {
	ch := make(chan storage.Change, watchBuffer)
	s := h.store
	s.mu.Lock()
	s.watchers[ch] = h
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}
