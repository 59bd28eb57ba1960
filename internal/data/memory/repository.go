// Package memory provides a process-local entry.Repository. Nothing survives
// a restart; it backs tests and the STORAGE_DRIVER=memory setting.
package memory

import (
	"context"
	"sync"

	"github.com/corp-qr-hub/internal/domain/entry"
)

type Repository struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewRepository() *Repository {
	return &Repository{data: make(map[string][]byte)}
}

func (r *Repository) Load(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.data[key]
	if !ok {
		return nil, entry.ErrNoData
	}
	return append([]byte(nil), data...), nil
}

func (r *Repository) Save(_ context.Context, key string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[key] = append([]byte(nil), data...)
	return nil
}
