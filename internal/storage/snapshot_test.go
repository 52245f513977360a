package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestEncodeDecode(t *testing.T) {
	payload := []byte(`{"links":{},"actor":"test"}`)

	data := Encode(payload)
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDecode_Corrupt(t *testing.T) {
	payload := []byte(`{"links":{},"actor":"test"}`)
	data := Encode(payload)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{
			name:   "flipped payload byte",
			mutate: func(d []byte) []byte { d[len(d)-1] ^= 0x01; return d },
		},
		{
			name:   "flipped checksum byte",
			mutate: func(d []byte) []byte { d[len(snapshotMagic)] ^= 0x01; return d },
		},
		{
			name:   "bad magic",
			mutate: func(d []byte) []byte { d[0] = 'X'; return d },
		},
		{
			name:   "truncated",
			mutate: func(d []byte) []byte { return d[:10] },
		},
		{
			name:   "empty",
			mutate: func(d []byte) []byte { return nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corrupted := tt.mutate(append([]byte(nil), data...))
			_, err := Decode(corrupted)
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore(NewMemoryBackend(), testLogger())

	// Первый запуск: снимка еще нет
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	payload := []byte(`{"links":{},"actor":"test"}`)
	require.NoError(t, store.Save(ctx, payload))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSnapshotStore_CorruptBackup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "document.snapshot")

	backend, err := NewFSBackend(path)
	require.NoError(t, err)
	store := NewSnapshotStore(backend, testLogger())

	payload := []byte(`{"links":{},"actor":"test"}`)
	require.NoError(t, store.Save(ctx, payload))

	// Портим один байт payload прямо в файле
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	// Исходный файл перенесен в резервную копию, не удален
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	backups, err := filepath.Glob(path + corruptSuffix + "-*")
	require.NoError(t, err)
	require.Len(t, backups, 1, "corrupt bytes are preserved")
	preserved, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, raw, preserved)

	// Следующая загрузка видит отсутствие снимка: система продолжает с нуля
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestFSBackend_AtomicReplace(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "document.snapshot")

	backend, err := NewFSBackend(path)
	require.NoError(t, err)

	require.NoError(t, backend.Write(ctx, []byte("first")))
	require.NoError(t, backend.Write(ctx, []byte("second")))

	got, err := backend.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	// Временные файлы после записи не остаются
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewFSBackend_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "document.snapshot")

	backend, err := NewFSBackend(path)
	require.NoError(t, err)
	require.NoError(t, backend.Write(context.Background(), []byte("data")))

	got, err := backend.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}
