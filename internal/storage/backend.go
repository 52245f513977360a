// Package storage реализует долговременное хранение снимка документа:
// атомарную запись на диск и целостность через контрольную сумму.
// Пакет работает с байтами, семантику документа он не знает.
package storage

import "context"

//go:generate moq -out backend_mock.go . Backend

// Backend defines interface for reading and writing the snapshot bytes
type Backend interface {
	// Read returns the raw snapshot bytes
	// Returns ErrSnapshotNotFound if no snapshot exists yet
	Read(ctx context.Context) ([]byte, error)

	// Write atomically replaces the snapshot with data.
	// После возврата без ошибки на носителе лежит либо старый
	// полный снимок, либо новый, но никогда не половина.
	Write(ctx context.Context, data []byte) error

	// BackupCorrupt moves the current snapshot aside and returns the backup path.
	// Используется при обнаружении повреждения: байты сохраняются
	// для ручного восстановления, а не удаляются.
	BackupCorrupt(ctx context.Context) (string, error)
}
