package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Common storage errors
var (
	// ErrSnapshotNotFound снимок отсутствует: ожидаемое состояние первого запуска
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrCorruptSnapshot контрольная сумма снимка не сошлась
	ErrCorruptSnapshot = errors.New("snapshot corrupted")

	// ErrDiskFull на устройстве нет места
	ErrDiskFull = errors.New("disk full")

	// ErrPermission недостаточно прав для доступа к файлу
	ErrPermission = errors.New("permission denied")
)

// classify переводит ошибку ОС в различимый вид хранилища.
// Нехватка места и отсутствие прав требуют от пользователя разных действий,
// поэтому они не должны сливаться в одну непрозрачную ошибку.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return fmt.Errorf("%s: %w: %w", op, ErrDiskFull, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: %w: %w", op, ErrPermission, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
