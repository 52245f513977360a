package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// bucketProgress bucket с прогрессом обмена по каждому relay
var bucketProgress = []byte("sync_progress")

// Progress состояние обмена с одним relay.
// Сохраняется после каждого успешного шага, чтобы прерванная
// синхронизация продолжилась с места остановки, а не с нуля.
type Progress struct {
	// PushedSummary сводка счетчиков, подтвержденная relay при последнем push
	PushedSummary map[string]int64 `json:"pushed_summary,omitempty"`

	// LastSeq последний примененный номер операции relay
	LastSeq int64 `json:"last_seq"`
}

// ProgressStore хранит прогресс синхронизации в BoltDB.
type ProgressStore struct {
	db *bbolt.DB
}

// OpenProgress открывает базу прогресса по заданному пути.
func OpenProgress(path string) (*ProgressStore, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketProgress)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize progress bucket: %w", err)
	}

	return &ProgressStore{db: db}, nil
}

// Close closes the database connection.
func (s *ProgressStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get возвращает прогресс обмена с relay.
// Отсутствие записи не ошибка: первая синхронизация начинается с нуля.
func (s *ProgressStore) Get(_ context.Context, relayURL string) (Progress, error) {
	var p Progress

	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketProgress).Get([]byte(relayURL))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &p)
	})
	if err != nil {
		return Progress{}, fmt.Errorf("failed to get sync progress: %w", err)
	}
	return p, nil
}

// Save записывает прогресс обмена с relay.
func (s *ProgressStore) Save(_ context.Context, relayURL string, p Progress) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal sync progress: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProgress).Put([]byte(relayURL), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to save sync progress: %w", err)
	}
	return nil
}
