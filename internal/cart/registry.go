package cart

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storage"
)

const documentPrefix = "sf:cart:"

// DocumentKey is the storage key of a shopper's cart.
func DocumentKey(shopperID string) string {
	return documentPrefix + strings.TrimSpace(shopperID)
}

// Registry hands out one Model per shopper and relays external changes to
// them. A Model stays registered only while someone holds it open, so
// shoppers without a live request or event stream cost nothing.
type Registry struct {
	store    *storage.Adapter
	logg     *logger.Logger
	recorder Recorder

	mu     sync.Mutex
	models map[string]*openModel
}

type openModel struct {
	model *Model
	refs  int
}

func NewRegistry(store *storage.Adapter, logg *logger.Logger, recorder Recorder) *Registry {
	if logg == nil {
		logg = logger.Nop()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Registry{
		store:    store,
		logg:     logg,
		recorder: recorder,
		models:   make(map[string]*openModel),
	}
}

// Open returns the shopper's Model and a release func. Holders of the same
// shopper share one Model until the last of them releases it.
func (r *Registry) Open(shopperID string) (*Model, func()) {
	key := DocumentKey(shopperID)
	r.mu.Lock()
	entry, ok := r.models[key]
	if !ok {
		entry = &openModel{model: NewModel(key, r.store, WithLogger(r.logg), WithRecorder(r.recorder))}
		r.models[key] = entry
	}
	entry.refs++
	r.mu.Unlock()

	var once sync.Once
	return entry.model, func() {
		once.Do(func() { r.release(key, entry) })
	}
}

func (r *Registry) release(key string, entry *openModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.refs--
	if entry.refs <= 0 && r.models[key] == entry {
		delete(r.models, key)
	}
}

// Len reports how many carts are currently open.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.models)
}

func (r *Registry) lookup(key string) *Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.models[key]; ok {
		return entry.model
	}
	return nil
}

// Run consumes the storage change feed until ctx ends. Each changed cart with
// an open Model is re-read and broadcast like a local mutation.
func (r *Registry) Run(ctx context.Context) error {
	feed, err := r.store.Watch(ctx)
	if err != nil {
		return err
	}
	r.logg.Info(ctx, "cart.registry.watching")
	for change := range feed {
		if !strings.HasPrefix(change.Key, documentPrefix) {
			continue
		}
		m := r.lookup(change.Key)
		if m == nil {
			continue
		}
		cart := m.Refresh(ctx)
		r.logg.Debug(r.logg.WithFields(ctx, map[string]any{
			"document_key": change.Key,
			"count":        Count(cart),
		}), "cart.external_change")
	}
	return ctx.Err()
}
