package sync

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProgress(t *testing.T) *ProgressStore {
	t.Helper()
	store, err := OpenProgress(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestProgressStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestProgress(t)

	// Первая синхронизация начинается с нуля
	p, err := store.Get(ctx, "ws://relay.test/sync")
	require.NoError(t, err)
	assert.Zero(t, p.LastSeq)
	assert.Empty(t, p.PushedSummary)

	want := Progress{
		LastSeq:       42,
		PushedSummary: map[string]int64{"laptop": 7, "phone": 3},
	}
	require.NoError(t, store.Save(ctx, "ws://relay.test/sync", want))

	got, err := store.Get(ctx, "ws://relay.test/sync")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Прогресс по другому relay независим
	other, err := store.Get(ctx, "ws://other.test/sync")
	require.NoError(t, err)
	assert.Zero(t, other.LastSeq)
}
