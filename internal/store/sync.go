package store

import (
	"context"
	"fmt"

	"github.com/iudanet/linkkeeper/internal/document"
)

// Actor возвращает идентификатор актора этой реплики.
// Используется как sender_id при обмене с relay.
func (s *Store) Actor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return ""
	}
	return s.doc.Actor()
}

// Summary возвращает сводку счетчиков "что у меня есть" для обмена с relay.
func (s *Store) Summary() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return map[string]int64{}
	}
	return s.doc.Summary()
}

// ChangesSince сериализует дельту операций, которых нет у пира.
// Пустая дельта возвращается как (nil, nil).
func (s *Store) ChangesSince(since map[string]int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireInitialized(); err != nil {
		return nil, err
	}

	delta := s.doc.ChangesSince(since)
	if delta.IsEmpty() {
		return nil, nil
	}
	data, err := delta.Export()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize delta: %w", err)
	}
	return data, nil
}

// ApplyRemote вливает полученную дельту и сразу делает ее долговечной.
// Подтверждение пиру можно отправлять только после возврата без ошибки:
// упавший посреди обмена процесс теряет не больше неподтвержденного хвоста.
// Некорректная дельта отклоняется целиком, локальное состояние не меняется.
func (s *Store) ApplyRemote(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitialized(); err != nil {
		return err
	}

	delta, err := document.Load(payload)
	if err != nil {
		return fmt.Errorf("malformed delta: %w", err)
	}
	if err := s.doc.Merge(delta); err != nil {
		return err
	}
	return s.persistLocked(ctx)
}
