// Package storage persists JSON documents by key and reports changes made by
// other browsing contexts. Failures never reach callers: reads fall back and
// writes report false.
package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/angelmondragon/storefront/pkg/logger"
)

// ErrQuotaExceeded is returned by backends that refuse a write for lack of space.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Change names a key whose stored value was replaced by another context.
type Change struct {
	Key string
}

// Backend is a byte-level key/value store with a change feed.
// Watch only reports writes made through other handles.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte) error
	Watch(ctx context.Context) (<-chan Change, error)
}

// FailureRecorder counts absorbed storage failures.
type FailureRecorder interface {
	IncStorageFailure(op string)
}

type Adapter struct {
	backend  Backend
	logg     *logger.Logger
	failures FailureRecorder
}

func NewAdapter(backend Backend, logg *logger.Logger, failures FailureRecorder) *Adapter {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Adapter{backend: backend, logg: logg, failures: failures}
}

// Get decodes the value stored at key, or returns fallback when the key is
// absent, unreadable or holds malformed JSON.
func Get[T any](ctx context.Context, a *Adapter, key string, fallback T) T {
	data, found, err := a.backend.Load(ctx, key)
	if err != nil {
		a.absorb(ctx, "get", key, err)
		return fallback
	}
	if !found {
		return fallback
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		a.absorb(ctx, "decode", key, err)
		return fallback
	}
	return out
}

// Set encodes value and stores it at key. It reports whether the write landed.
func (a *Adapter) Set(ctx context.Context, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		a.absorb(ctx, "encode", key, err)
		return false
	}
	if err := a.backend.Save(ctx, key, data); err != nil {
		a.absorb(ctx, "set", key, err)
		return false
	}
	return true
}

// Watch exposes the backend change feed. The channel closes when ctx ends.
func (a *Adapter) Watch(ctx context.Context) (<-chan Change, error) {
	return a.backend.Watch(ctx)
}

func (a *Adapter) absorb(ctx context.Context, op, key string, err error) {
	if a.failures != nil {
		a.failures.IncStorageFailure(op)
	}
	ctx = a.logg.WithFields(ctx, map[string]any{"storage_op": op, "document_key": key})
	a.logg.WarnErr(ctx, "storage.failure", err)
}
