package crdt

import (
	"sync"

	"github.com/google/uuid"
)

// Clock представляет логические часы Лампорта одной реплики.
// Каждая локальная операция получает счетчик строго больше любого
// счетчика, выданного этим актором ранее.
type Clock struct {
	counter int64      // монотонно возрастающий счетчик
	actor   string     // уникальный идентификатор реплики
	mu      sync.Mutex // мьютекс для потокобезопасности
}

// NewClock создает новые часы с уникальным идентификатором актора (UUID).
func NewClock() *Clock {
	return &Clock{actor: uuid.New().String()}
}

// NewClockWithActor создает часы с заданным идентификатором актора.
// Используется для тестирования или восстановления состояния.
func NewClockWithActor(actor string) *Clock {
	return &Clock{actor: actor}
}

// Resume восстанавливает часы после перезапуска: счетчик устанавливается
// в максимум, который этот актор когда-либо выдавал.
func (c *Clock) Resume(counter int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter > c.counter {
		c.counter = counter
	}
}

// Tick увеличивает счетчик и возвращает новую причинную метку.
// Используется при создании нового локального события.
func (c *Clock) Tick() Stamp {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counter++
	return Stamp{Counter: c.counter, Actor: c.actor}
}

// Observe обновляет счетчик на основе метки, полученной от другого актора.
// Согласно алгоритму Лампорта: counter = max(local, remote).
// Следующий Tick выдаст значение строго больше обоих.
func (c *Clock) Observe(remote int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remote > c.counter {
		c.counter = remote
	}
}

// Counter возвращает текущее значение счетчика без его изменения.
func (c *Clock) Counter() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counter
}

// Actor возвращает идентификатор актора.
func (c *Clock) Actor() string {
	return c.actor
}
