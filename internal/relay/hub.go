package relay

import "sync"

// subBuffer емкость канала подписчика.
const subBuffer = 64

// Hub раздает только что сохраненные операции живым подключениям
// того же документа, чтобы клиенты в Idle получали обновления push'ем.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan *Op]struct{}
}

// NewHub создает пустой hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan *Op]struct{}),
	}
}

// Subscribe регистрирует подписчика на операции документа.
func (h *Hub) Subscribe(docID string) chan *Op {
	ch := make(chan *Op, subBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[docID] == nil {
		h.subs[docID] = make(map[chan *Op]struct{})
	}
	h.subs[docID][ch] = struct{}{}
	return ch
}

// Unsubscribe снимает подписку и закрывает канал.
// Безопасен для подписчика, уже вычеркнутого в Publish.
func (h *Hub) Unsubscribe(docID string, ch chan *Op) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subs[docID]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.subs, docID)
	}
}

// Publish рассылает операцию подписчикам ее документа.
// Подписчик с переполненным каналом вычеркивается, его канал
// закрывается: кадр из середины потока нельзя выбросить молча,
// курсор клиента уехал бы мимо него навсегда. Оборванное
// подключение доберет пропущенное переигрыванием журнала.
func (h *Hub) Publish(op *Op) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[op.DocID]
	for ch := range subs {
		select {
		case ch <- op:
		default:
			delete(subs, ch)
			close(ch)
		}
	}
	if len(subs) == 0 {
		delete(h.subs, op.DocID)
	}
}
