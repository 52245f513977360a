// Package relay реализует тупой store-and-forward сервер синхронизации:
// принять байты для идентификатора документа, сохранить, позже
// переиграть. Никакой семантики документа у relay нет; вся логика
// слияния живет на клиентах.
package relay

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Op одна сохраненная операция: непрозрачный payload с конвертом.
type Op struct {
	CreatedAt time.Time
	DocID     string
	SenderID  string
	Payload   []byte
	Seq       int64
}

// OpStore хранит журнал операций в SQLite.
// Seq растет монотонно в пределах базы: переигрывание по seq > since
// отдает клиенту ровно то, чего он еще не видел.
type OpStore struct {
	db *sql.DB
}

// NewOpStore открывает хранилище операций.
// dbPath путь файла базы, ":memory:" для тестов.
func NewOpStore(ctx context.Context, dbPath string) (*OpStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite с WAL: несколько читателей, один писатель
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &OpStore{db: db}
	if err := store.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *OpStore) Close() error {
	return s.db.Close()
}

// runMigrations выполняет миграции из embedded FS
func (s *OpStore) runMigrations() error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	goose.SetBaseFS(embedMigrations)

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	return nil
}

// Append сохраняет операцию и возвращает присвоенный номер.
func (s *OpStore) Append(ctx context.Context, docID, senderID string, payload []byte) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ops (document_id, sender_id, payload, created_at)
		VALUES (?, ?, ?, ?)
	`, docID, senderID, payload, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to append op: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get op sequence: %w", err)
	}
	return seq, nil
}

// Since возвращает операции документа с номером больше since,
// в порядке возрастания номера.
func (s *OpStore) Since(ctx context.Context, docID string, since int64) ([]*Op, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, document_id, sender_id, payload, created_at
		FROM ops
		WHERE document_id = ? AND seq > ?
		ORDER BY seq ASC
	`, docID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query ops: %w", err)
	}
	defer rows.Close()

	var ops []*Op
	for rows.Next() {
		var (
			op      Op
			created int64
		)
		if err := rows.Scan(&op.Seq, &op.DocID, &op.SenderID, &op.Payload, &created); err != nil {
			return nil, fmt.Errorf("failed to scan op: %w", err)
		}
		op.CreatedAt = time.Unix(created, 0).UTC()
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ops: %w", err)
	}
	return ops, nil
}

// MaxSeq возвращает максимальный номер операции документа, 0 если их нет.
func (s *OpStore) MaxSeq(ctx context.Context, docID string) (int64, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM ops WHERE document_id = ?
	`, docID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max seq: %w", err)
	}
	return max.Int64, nil
}
