package crdt

import "fmt"

// Stamp представляет причинную метку операции: логический счетчик Лампорта
// плюс идентификатор актора (реплики), создавшего операцию.
// Пара (Counter, Actor) образует детерминированный полный порядок.
type Stamp struct {
	Counter int64  `json:"c"` // Counter монотонно растущий счетчик актора
	Actor   string `json:"a"` // Actor идентификатор реплики
}

// Newer определяет, какая из двух меток новее, согласно алгоритму LWW:
// 1. Сначала сравнивается Counter (больший выигрывает)
// 2. При равных Counter сравнивается Actor (лексикографически)
// Возвращает true, если текущая метка новее, чем other.
func (s Stamp) Newer(other Stamp) bool {
	if s.Counter != other.Counter {
		return s.Counter > other.Counter
	}
	return s.Actor > other.Actor
}

// IsZero сообщает, что метка не была проставлена.
// Нулевая метка всегда проигрывает любой реальной (Tick начинает с 1).
func (s Stamp) IsZero() bool {
	return s.Counter == 0 && s.Actor == ""
}

// Key возвращает строковый ключ метки вида "actor:counter".
// Используется как идентификатор операции в журнале заметок.
func (s Stamp) Key() string {
	return fmt.Sprintf("%s:%d", s.Actor, s.Counter)
}
