package storage

import (
	"context"
	"sync"
)

// MemoryBackend держит снимок в памяти. Используется в тестах
// и как хранилище для эфемерных запусков.
type MemoryBackend struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryBackend создает пустой backend в памяти.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Read возвращает сохраненные байты снимка.
func (b *MemoryBackend) Read(_ context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.data == nil {
		return nil, ErrSnapshotNotFound
	}
	return append([]byte(nil), b.data...), nil
}

// Write замещает снимок целиком.
func (b *MemoryBackend) Write(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append([]byte(nil), data...)
	return nil
}

// BackupCorrupt сбрасывает снимок, имитируя перенос в резервную копию.
func (b *MemoryBackend) BackupCorrupt(_ context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = nil
	return "memory.corrupt", nil
}
