package cart

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/storage"
)

// Recorder counts cart activity.
type Recorder interface {
	IncMutation(op string)
	IncBroadcast(source string)
}

type noopRecorder struct{}

func (noopRecorder) IncMutation(string)  {}
func (noopRecorder) IncBroadcast(string) {}

// Model owns one persisted cart document. Mutations on a Model are
// serialised; writers in other processes overwrite each other (last writer
// wins) with no version check.
//
// Listeners run on the mutating goroutine and must not call mutators on the
// same Model.
type Model struct {
	key      string
	store    *storage.Adapter
	bus      *Broadcaster
	logg     *logger.Logger
	recorder Recorder

	mu    sync.Mutex
	pubMu sync.Mutex
}

type ModelOption func(*Model)

func WithLogger(logg *logger.Logger) ModelOption {
	return func(m *Model) {
		if logg != nil {
			m.logg = logg
		}
	}
}

func WithRecorder(rec Recorder) ModelOption {
	return func(m *Model) {
		if rec != nil {
			m.recorder = rec
		}
	}
}

func NewModel(key string, store *storage.Adapter, opts ...ModelOption) *Model {
	m := &Model{
		key:      key,
		store:    store,
		bus:      NewBroadcaster(),
		logg:     logger.Nop(),
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) Key() string {
	return m.key
}

// Subscribe registers fn for every update of this cart.
func (m *Model) Subscribe(fn Listener) func() {
	return m.bus.Subscribe(fn)
}

// Read returns the persisted cart, or an empty cart when nothing usable is stored.
func (m *Model) Read(ctx context.Context) Cart {
	raw := storage.Get[[]map[string]any](ctx, m.store, m.key, nil)
	return Normalize(raw)
}

// Add merges qty of sku into the cart. An existing item keeps its name and
// price, gains qty (capped like any stored quantity) and picks up missing
// meta attributes; it is removed when its quantity drops to zero or below.
// A new item needs a positive qty.
func (m *Model) Add(ctx context.Context, sku, name string, price, qty float64, meta map[string]any) (Cart, bool) {
	sku = strings.TrimSpace(sku)
	delta := Quantity(qty)

	m.mu.Lock()
	current := m.Read(ctx)
	if sku == "" || delta == 0 {
		m.mu.Unlock()
		return current, false
	}

	key := KeyFor(sku, meta)
	next := current.clone()
	if idx := next.Index(key); idx >= 0 {
		merged := min(next[idx].Qty+delta, maxQty)
		if merged == next[idx].Qty {
			m.mu.Unlock()
			return current, false
		}
		if merged <= 0 {
			next = append(next[:idx], next[idx+1:]...)
		} else {
			next[idx].Qty = merged
			next[idx].Meta = mergeMeta(next[idx].Meta, meta)
		}
	} else {
		if delta < 0 {
			m.mu.Unlock()
			return current, false
		}
		next = append(next, Item{
			Key:   key,
			SKU:   sku,
			Name:  strings.TrimSpace(name),
			Price: Price(price),
			Qty:   delta,
			Meta:  cleanMeta(meta),
		})
	}
	return m.commit(ctx, "add", next), true
}

// SetQuantity sets the item's quantity to max(0, floor(qty)); zero removes it.
// Unknown keys and unchanged quantities are no-ops.
func (m *Model) SetQuantity(ctx context.Context, key string, qty float64) (Cart, bool) {
	q := Quantity(qty)
	if q < 0 {
		q = 0
	}

	m.mu.Lock()
	current := m.Read(ctx)
	idx := current.Index(key)
	if idx < 0 || current[idx].Qty == q {
		m.mu.Unlock()
		return current, false
	}

	next := current.clone()
	op := "set_quantity"
	if q == 0 {
		next = append(next[:idx], next[idx+1:]...)
		op = "remove"
	} else {
		next[idx].Qty = q
	}
	return m.commit(ctx, op, next), true
}

func (m *Model) RemoveItem(ctx context.Context, key string) (Cart, bool) {
	return m.SetQuantity(ctx, key, 0)
}

// ApplyQuantities runs SetQuantity for every listed key in display order.
// Keys missing from the cart are ignored.
func (m *Model) ApplyQuantities(ctx context.Context, quantities map[string]float64) (Cart, int) {
	changed := 0
	for _, item := range m.Read(ctx) {
		qty, ok := quantities[item.Key]
		if !ok {
			continue
		}
		if _, mutated := m.SetQuantity(ctx, item.Key, qty); mutated {
			changed++
		}
	}
	return m.Read(ctx), changed
}

// Clear always persists and broadcasts, even when the cart is already empty.
func (m *Model) Clear(ctx context.Context) Cart {
	m.mu.Lock()
	return m.commit(ctx, "clear", Cart{})
}

// Refresh re-reads the stored cart and broadcasts it. It is the path for
// changes written by other contexts.
func (m *Model) Refresh(ctx context.Context) Cart {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	current := m.Read(ctx)
	m.publish(newUpdate(current, SourceExternal))
	return current
}

// commit persists next and broadcasts it. It must be called with mu held and
// releases it before listeners run. A failed write is logged by the storage
// adapter; listeners still see the in-memory cart, the only copy that survives.
func (m *Model) commit(ctx context.Context, op string, next Cart) Cart {
	if next == nil {
		next = Cart{}
	}
	persisted := m.store.Set(ctx, m.key, next)
	m.recorder.IncMutation(op)

	m.pubMu.Lock()
	m.mu.Unlock()
	defer m.pubMu.Unlock()

	if !persisted {
		m.logg.Warn(m.logg.WithFields(ctx, map[string]any{"document_key": m.key, "op": op}), "cart.persist_failed")
	}
	m.publish(newUpdate(next, SourceLocal))
	return next.clone()
}

func (m *Model) publish(u Update) {
	m.recorder.IncBroadcast(string(u.Source))
	m.bus.Publish(u)
}
