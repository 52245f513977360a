// Package store связывает документ, хранилище, идентичность и индексы
// в единый фасад, который потребляют CLI/TUI и клиент синхронизации.
//
// Дисциплина записи: каждая зафиксированная мутация долговечна на диске
// до возврата вызова, и каждая запись идет через merge-before-save,
// чтобы перекрывающиеся записи никогда не теряли чужих операций.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/iudanet/linkkeeper/internal/document"
	"github.com/iudanet/linkkeeper/internal/identity"
	"github.com/iudanet/linkkeeper/internal/query"
	"github.com/iudanet/linkkeeper/internal/storage"
)

// Ошибки операций фасада
var (
	// ErrDuplicateURL ссылка с таким URL уже существует
	ErrDuplicateURL = errors.New("url already exists")

	// ErrNotInitialized хранилище еще не имеет идентичности
	ErrNotInitialized = errors.New("store is not initialized")

	// ErrAlreadyInitialized идентичность уже создана
	ErrAlreadyInitialized = errors.New("store is already initialized")
)

// Store владеет документом в памяти и его снимком на диске.
// Один логический писатель на реплику: все мутации сериализуются мьютексом.
type Store struct {
	mu        sync.RWMutex
	doc       *document.Document
	index     *query.Index
	snapshots *storage.SnapshotStore
	idStore   storage.Backend
	id        identity.ID
	logger    *slog.Logger
	onChange  func()
}

// Options параметры создания Store.
type Options struct {
	// Snapshots хранилище снимков документа
	Snapshots *storage.SnapshotStore

	// Identity backend для файла корневого идентификатора
	Identity storage.Backend

	// Logger структурный логгер
	Logger *slog.Logger
}

// Open загружает существующую реплику с диска.
// Отсутствие идентичности не ошибка: Store остается неинициализированным,
// вызывающий выбирает Init (новый документ) или Join (существующий).
// Поврежденный снимок переносится в резервную копию, реплика продолжает
// с пустым документом; это событие логируется как предупреждение.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s := &Store{
		snapshots: opts.Snapshots,
		idStore:   opts.Identity,
		logger:    opts.Logger,
	}

	rawID, err := s.idStore.Read(ctx)
	switch {
	case errors.Is(err, storage.ErrSnapshotNotFound):
		// Первый запуск: идентичности еще нет
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read identity: %w", err)
	}

	id, err := identity.Parse(strings.TrimSpace(string(rawID)))
	if err != nil {
		return nil, fmt.Errorf("stored identity is invalid: %w", err)
	}
	s.id = id

	payload, err := s.snapshots.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrSnapshotNotFound),
		errors.Is(err, storage.ErrCorruptSnapshot):
		// Снимка нет или он поврежден и отложен в резервную копию:
		// продолжаем с пустым документом, данные вернутся при синхронизации
		s.doc = document.New()
	case err != nil:
		return nil, err
	default:
		doc, loadErr := document.Load(payload)
		if loadErr != nil {
			return nil, loadErr
		}
		s.doc = doc
	}

	s.rebuildIndex()
	return s, nil
}

// Initialized сообщает, что реплика имеет идентичность.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.id.IsZero()
}

// Identity возвращает корневой идентификатор документа.
func (s *Store) Identity() (identity.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.id.IsZero() {
		return identity.ID{}, ErrNotInitialized
	}
	return s.id, nil
}

// Init создает новую идентичность и пустой документ.
// Вызывается ровно один раз на совершенно новом устройстве.
func (s *Store) Init(ctx context.Context) (identity.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.id.IsZero() {
		return identity.ID{}, ErrAlreadyInitialized
	}

	id, err := identity.Generate()
	if err != nil {
		return identity.ID{}, err
	}
	if err := s.idStore.Write(ctx, []byte(id.String()+"\n")); err != nil {
		return identity.ID{}, fmt.Errorf("failed to write identity: %w", err)
	}

	s.id = id
	s.doc = document.New()
	if err := s.persistLocked(ctx); err != nil {
		return identity.ID{}, err
	}

	s.logger.Info("initialized new replica", "identity", id.String())
	return id, nil
}

// Join присоединяет устройство к существующей идентичности.
// Документ начинается пустым и наполнится при первой синхронизации;
// локальные правки до нее безопасны благодаря слиянию.
func (s *Store) Join(ctx context.Context, candidate string) (identity.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.id.IsZero() {
		return identity.ID{}, ErrAlreadyInitialized
	}

	id, err := identity.Parse(candidate)
	if err != nil {
		return identity.ID{}, err
	}
	if err := s.idStore.Write(ctx, []byte(id.String()+"\n")); err != nil {
		return identity.ID{}, fmt.Errorf("failed to write identity: %w", err)
	}

	s.id = id
	s.doc = document.New()
	if err := s.persistLocked(ctx); err != nil {
		return identity.ID{}, err
	}

	s.logger.Info("joined existing identity", "identity", id.String())
	return id, nil
}

// OnChange регистрирует обработчик, вызываемый после каждой
// зафиксированной локальной мутации. Слияние удаленных дельт обработчик
// не дергает: реплике незачем отправлять назад только что полученное.
// Обработчик вызывается под мьютексом записи и не должен блокировать.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// commitLocked фиксирует локальную мутацию и уведомляет подписчика.
func (s *Store) commitLocked(ctx context.Context) error {
	if err := s.persistLocked(ctx); err != nil {
		return err
	}
	if s.onChange != nil {
		s.onChange()
	}
	return nil
}

// persistLocked записывает снимок по дисциплине merge-before-save:
// сначала вливаем в память все, что успело попасть на диск, затем
// пишем объединенный результат. Вызывается под мьютексом записи.
func (s *Store) persistLocked(ctx context.Context) error {
	onDisk, err := s.snapshots.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrSnapshotNotFound):
		// Писать будем первый снимок
	case errors.Is(err, storage.ErrCorruptSnapshot):
		s.logger.Warn("skipping merge with corrupt on-disk snapshot", "error", err)
	case err != nil:
		return err
	default:
		existing, loadErr := document.Load(onDisk)
		if loadErr != nil {
			return loadErr
		}
		if mergeErr := s.doc.MergeTrusted(existing); mergeErr != nil {
			return mergeErr
		}
	}

	payload, err := s.doc.Export()
	if err != nil {
		return err
	}
	if err := s.snapshots.Save(ctx, payload); err != nil {
		return err
	}

	s.rebuildIndex()
	return nil
}

func (s *Store) rebuildIndex() {
	if s.doc == nil {
		s.index = query.Build(nil)
		return
	}
	s.index = query.Build(s.doc.Links())
}

func (s *Store) requireInitialized() error {
	if s.id.IsZero() {
		return ErrNotInitialized
	}
	return nil
}
