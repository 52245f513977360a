package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishToSubscribers(t *testing.T) {
	hub := NewHub()

	a := hub.Subscribe("doc-a")
	b := hub.Subscribe("doc-a")
	other := hub.Subscribe("doc-b")

	op := &Op{Seq: 1, DocID: "doc-a", SenderID: "laptop", Payload: []byte("op")}
	hub.Publish(op)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Empty(t, other, "subscribers of other documents see nothing")
	assert.Equal(t, op, <-a)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()

	ch := hub.Subscribe("doc-a")
	hub.Unsubscribe("doc-a", ch)

	_, open := <-ch
	assert.False(t, open, "unsubscribe closes the channel")

	// Публикация после отписки безопасна
	hub.Publish(&Op{Seq: 1, DocID: "doc-a"})
}

func TestHub_LaggingSubscriberEvicted(t *testing.T) {
	hub := NewHub()

	slow := hub.Subscribe("doc-a")
	fast := hub.Subscribe("doc-a")

	// fast постоянно вычитывается, slow не читается вовсе
	var fastGot []int64
	for i := 0; i < subBuffer+1; i++ {
		hub.Publish(&Op{Seq: int64(i + 1), DocID: "doc-a"})
		for len(fast) > 0 {
			fastGot = append(fastGot, (<-fast).Seq)
		}
	}

	// Отставший подписчик получает буферизованный префикс без дыр,
	// затем канал закрывается: молчаливый пропуск кадра из середины
	// потока увел бы курсор клиента мимо него навсегда
	for i := 0; i < subBuffer; i++ {
		op, open := <-slow
		require.True(t, open)
		require.Equal(t, int64(i+1), op.Seq)
	}
	_, open := <-slow
	assert.False(t, open, "lagging subscriber is cut off, not silently skipped")

	// Успевающий подписчик получил все подряд
	assert.Len(t, fastGot, subBuffer+1)
	for i, seq := range fastGot {
		assert.Equal(t, int64(i+1), seq)
	}

	// Unsubscribe уже вычеркнутого подписчика безопасен
	hub.Unsubscribe("doc-a", slow)
}
