package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpStore(t *testing.T) *OpStore {
	t.Helper()
	store, err := NewOpStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpStore_AppendAndReplay(t *testing.T) {
	ctx := context.Background()
	store := newTestOpStore(t)

	seq1, err := store.Append(ctx, "doc-a", "laptop", []byte("first"))
	require.NoError(t, err)
	seq2, err := store.Append(ctx, "doc-a", "phone", []byte("second"))
	require.NoError(t, err)
	_, err = store.Append(ctx, "doc-b", "laptop", []byte("other document"))
	require.NoError(t, err)

	assert.Greater(t, seq2, seq1, "sequence grows monotonically")

	// Переигрывание с нуля отдает только операции запрошенного документа
	ops, err := store.Since(ctx, "doc-a", 0)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, []byte("first"), ops[0].Payload)
	assert.Equal(t, "laptop", ops[0].SenderID)
	assert.Equal(t, []byte("second"), ops[1].Payload)

	// Переигрывание с середины отдает только хвост
	tail, err := store.Since(ctx, "doc-a", seq1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, seq2, tail[0].Seq)

	// Актуальный клиент не получает ничего
	none, err := store.Since(ctx, "doc-a", seq2)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOpStore_MaxSeq(t *testing.T) {
	ctx := context.Background()
	store := newTestOpStore(t)

	max, err := store.MaxSeq(ctx, "doc-a")
	require.NoError(t, err)
	assert.Zero(t, max, "empty journal has no sequence")

	seq, err := store.Append(ctx, "doc-a", "laptop", []byte("op"))
	require.NoError(t, err)

	max, err = store.MaxSeq(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, seq, max)

	// Чужой документ не влияет
	max, err = store.MaxSeq(ctx, "doc-b")
	require.NoError(t, err)
	assert.Zero(t, max)
}
