package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// corruptSuffix суффикс резервной копии поврежденного снимка
const corruptSuffix = ".corrupt"

// FSBackend хранит снимок в одном файле на диске.
type FSBackend struct {
	path string
}

// NewFSBackend создает файловый backend для заданного пути.
// Каталог создается при необходимости.
func NewFSBackend(path string) (*FSBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, classify("failed to create data directory", err)
	}
	return &FSBackend{path: path}, nil
}

// Path возвращает путь файла снимка.
func (b *FSBackend) Path() string {
	return b.path
}

// Read возвращает содержимое файла снимка.
func (b *FSBackend) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, classify("failed to read snapshot", err)
	}
	return data, nil
}

// Write атомарно замещает файл снимка: запись во временный файл
// в том же каталоге, fsync, затем rename поверх старого.
// Падение посреди записи оставляет либо старый снимок, либо новый.
func (b *FSBackend) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(b.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return classify("failed to create temp file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return classify("failed to write snapshot", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return classify("failed to sync snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return classify("failed to close temp file", err)
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)
		return classify("failed to replace snapshot", err)
	}
	return nil
}

// BackupCorrupt переносит текущий файл снимка в резервную копию
// с меткой времени. Поврежденные байты никогда не удаляются молча.
func (b *FSBackend) BackupCorrupt(_ context.Context) (string, error) {
	backup := fmt.Sprintf("%s%s-%d", b.path, corruptSuffix, time.Now().Unix())
	if err := os.Rename(b.path, backup); err != nil {
		return "", classify("failed to back up corrupt snapshot", err)
	}
	return backup, nil
}
