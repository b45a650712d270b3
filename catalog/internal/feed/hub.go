package feed

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

// Loader returns the full current contents of a collection.
type Loader func(ctx context.Context) (any, error)

type Snapshot struct {
	Collection model.Collection `json:"collection"`
	Items      any              `json:"items"`
}

// Hub keeps per-collection subscribers and pushes full snapshots to them.
type Hub struct {
	log     *zap.Logger
	loaders map[model.Collection]Loader
	// held across load and fan-out so snapshots reach subscribers in load order
	loadMu map[model.Collection]*sync.Mutex

	mu     sync.RWMutex
	nextID uint64
	subs   map[model.Collection]map[uint64]func(Snapshot)
}

func NewHub(log *zap.Logger, loaders map[model.Collection]Loader) *Hub {
	loadMu := make(map[model.Collection]*sync.Mutex, len(loaders))
	for c := range loaders {
		loadMu[c] = &sync.Mutex{}
	}
	return &Hub{
		log:     log.Named("feed"),
		loaders: loaders,
		loadMu:  loadMu,
		subs:    make(map[model.Collection]map[uint64]func(Snapshot)),
	}
}

// Subscribe registers fn and delivers the current snapshot before returning.
// fn runs on the goroutine that triggered the change and must not block.
// A change racing with Subscribe is delivered after the initial snapshot.
func (h *Hub) Subscribe(ctx context.Context, collection model.Collection, fn func(Snapshot)) (func(), error) {
	load, ok := h.loaders[collection]
	if !ok {
		return nil, errors.Errorf("unknown collection %q", collection)
	}
	lm := h.loadMu[collection]
	lm.Lock()
	defer lm.Unlock()

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[uint64]func(Snapshot))
	}
	h.subs[collection][id] = fn
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		delete(h.subs[collection], id)
		h.mu.Unlock()
	}

	items, err := load(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	fn(Snapshot{Collection: collection, Items: items})
	return unsubscribe, nil
}

// Changed reloads each collection once and fans the snapshot out to its subscribers.
func (h *Hub) Changed(ctx context.Context, collections ...model.Collection) {
	for _, c := range collections {
		h.reload(ctx, c)
	}
}

func (h *Hub) reload(ctx context.Context, c model.Collection) {
	load, ok := h.loaders[c]
	if !ok {
		return
	}
	lm := h.loadMu[c]
	lm.Lock()
	defer lm.Unlock()

	subs := h.subscribers(c)
	if len(subs) == 0 {
		return
	}
	items, err := load(ctx)
	if err != nil {
		h.log.Warn("load snapshot", zap.String("collection", string(c)), zap.Error(err))
		return
	}
	snap := Snapshot{Collection: c, Items: items}
	for _, fn := range subs {
		fn(snap)
	}
}

func (h *Hub) Subscribers(collection model.Collection) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[collection])
}

func (h *Hub) subscribers(collection model.Collection) []func(Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := make([]func(Snapshot), 0, len(h.subs[collection]))
	for _, fn := range h.subs[collection] {
		subs = append(subs, fn)
	}
	return subs
}
