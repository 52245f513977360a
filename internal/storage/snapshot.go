package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/blake2b"
)

// Формат снимка на диске:
//
//	magic (8 байт) || blake2b-256 от payload (32 байта) || payload
//
// Контрольная сумма ловит побайтовое повреждение носителя,
// magic отсекает чужие файлы до вычисления суммы.
var snapshotMagic = []byte("LNKKPR1\n")

const checksumSize = 32

// Encode упаковывает payload в формат снимка с контрольной суммой.
func Encode(payload []byte) []byte {
	sum := blake2b.Sum256(payload)

	out := make([]byte, 0, len(snapshotMagic)+checksumSize+len(payload))
	out = append(out, snapshotMagic...)
	out = append(out, sum[:]...)
	out = append(out, payload...)
	return out
}

// Decode проверяет целостность снимка и возвращает payload.
// Любое расхождение с форматом или суммой — ErrCorruptSnapshot.
func Decode(data []byte) ([]byte, error) {
	header := len(snapshotMagic) + checksumSize
	if len(data) < header {
		return nil, fmt.Errorf("%w: truncated file", ErrCorruptSnapshot)
	}
	if !bytes.Equal(data[:len(snapshotMagic)], snapshotMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptSnapshot)
	}

	want := data[len(snapshotMagic):header]
	payload := data[header:]
	got := blake2b.Sum256(payload)
	if !bytes.Equal(want, got[:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}
	return payload, nil
}

// SnapshotStore связывает кодек снимка с backend'ом.
type SnapshotStore struct {
	backend Backend
	logger  *slog.Logger
}

// NewSnapshotStore создает хранилище снимков поверх backend'а.
func NewSnapshotStore(backend Backend, logger *slog.Logger) *SnapshotStore {
	return &SnapshotStore{
		backend: backend,
		logger:  logger,
	}
}

// Load читает и проверяет снимок.
// Отсутствие снимка — ожидаемое состояние первого запуска (ErrSnapshotNotFound).
// Поврежденный снимок переносится в резервную копию, затем возвращается
// ErrCorruptSnapshot: вызывающий продолжает с пустым документом,
// а исходные байты остаются на диске для восстановления.
func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.backend.Read(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := Decode(data)
	if errors.Is(err, ErrCorruptSnapshot) {
		backup, backupErr := s.backend.BackupCorrupt(ctx)
		if backupErr != nil {
			return nil, fmt.Errorf("%w (backup also failed: %w)", err, backupErr)
		}
		s.logger.Warn("snapshot corrupted, preserved for recovery",
			"backup", backup,
			"error", err,
		)
		return nil, fmt.Errorf("%w (preserved at %s)", err, backup)
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Save упаковывает payload и атомарно записывает снимок.
func (s *SnapshotStore) Save(ctx context.Context, payload []byte) error {
	if err := s.backend.Write(ctx, Encode(payload)); err != nil {
		return err
	}
	s.logger.Debug("snapshot saved", "bytes", len(payload))
	return nil
}
