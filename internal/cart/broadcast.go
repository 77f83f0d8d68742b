package cart

import "sync"

type Source string

const (
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
)

// Update is delivered once per persisted mutation and once per external change.
type Update struct {
	Count  int    `json:"count"`
	Cart   Cart   `json:"cart"`
	Source Source `json:"-"`
}

func newUpdate(c Cart, source Source) Update {
	return Update{Count: Count(c), Cart: c, Source: source}
}

type Listener func(Update)

type subscription struct {
	id int
	fn Listener
}

// Broadcaster fans updates out to listeners in subscription order.
// Each listener receives its own copy of the cart.
type Broadcaster struct {
	mu        sync.RWMutex
	nextID    int
	listeners []subscription
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Broadcaster) Subscribe(fn Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for idx, sub := range b.listeners {
				if sub.id == id {
					b.listeners = append(b.listeners[:idx:idx], b.listeners[idx+1:]...)
					return
				}
			}
		})
	}
}

func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

func (b *Broadcaster) Publish(u Update) {
	b.mu.RLock()
	subs := make([]subscription, len(b.listeners))
	copy(subs, b.listeners)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(Update{Count: u.Count, Cart: u.Cart.clone(), Source: u.Source})
	}
}
