// Package document реализует реплицированный документ закладок:
// набор ссылок с заметками и тегами, который можно детерминированно
// слить с копией другой реплики без ручного разрешения конфликтов.
//
// Каждое изменяемое поле и каждый элемент коллекции несет причинную
// метку (crdt.Stamp). Слияние коммутативно, ассоциативно и идемпотентно.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iudanet/linkkeeper/internal/crdt"
	"github.com/iudanet/linkkeeper/internal/models"
)

// Ошибки операций над документом
var (
	// ErrLinkNotFound ссылка не найдена или удалена
	ErrLinkNotFound = errors.New("link not found")

	// ErrLinkExists ссылка с таким идентификатором уже существует
	ErrLinkExists = errors.New("link already exists")

	// ErrNoteNotFound заметка не найдена или удалена
	ErrNoteNotFound = errors.New("note not found")

	// ErrCausalityViolation входящее состояние противоречит причинной
	// истории: чужая реплика заявляет операции, которых не было
	ErrCausalityViolation = errors.New("foreign state violates causal history")
)

// NoteRecord представляет заметку в журнале операций ссылки.
// Ключом записи служит метка операции вставки (actor:counter).
type NoteRecord struct {
	Inserted  crdt.Stamp    `json:"ins"`
	Title     crdt.Register `json:"title"`
	Body      crdt.Register `json:"body"`
	CreatedAt int64         `json:"created_at"` // unix millis
}

// LinkRecord представляет реплицированное состояние одной ссылки.
type LinkRecord struct {
	Tags        map[string]crdt.Flag   `json:"tags,omitempty"`
	Notes       map[string]*NoteRecord `json:"notes,omitempty"`
	Removed     map[string]crdt.Stamp  `json:"removed,omitempty"` // tombstones удаленных заметок
	ID          string                 `json:"id"`
	URL         crdt.Register          `json:"url"`
	Title       crdt.Register          `json:"title"`
	Description crdt.Register          `json:"description"`
	Authors     crdt.ListRegister      `json:"authors"`
	CreatedAt   int64                  `json:"created_at"` // unix millis
	UpdatedAt   int64                  `json:"updated_at"` // unix millis, информационное поле
}

// Document представляет корневой реплицированный документ:
// отображение идентификатора ссылки в ее состояние плюс tombstones
// удаленных ссылок. Ровно один документ на идентичность пользователя.
type Document struct {
	clock *crdt.Clock
	links map[string]*LinkRecord
	dead  map[string]crdt.Stamp // tombstones удаленных ссылок
}

// New создает пустой документ с новым идентификатором актора.
func New() *Document {
	return &Document{
		clock: crdt.NewClock(),
		links: make(map[string]*LinkRecord),
		dead:  make(map[string]crdt.Stamp),
	}
}

// NewWithActor создает пустой документ с заданным идентификатором актора.
// Используется в тестах и при восстановлении реплики.
func NewWithActor(actor string) *Document {
	d := New()
	d.clock = crdt.NewClockWithActor(actor)
	return d
}

// Actor возвращает идентификатор актора этой реплики.
func (d *Document) Actor() string {
	return d.clock.Actor()
}

// documentJSON сериализуемая форма документа
type documentJSON struct {
	Links map[string]*LinkRecord `json:"links"`
	Dead  map[string]crdt.Stamp  `json:"dead,omitempty"`
	Actor string                 `json:"actor"`
}

// Export сериализует полное состояние документа для передачи или записи на диск.
func (d *Document) Export() ([]byte, error) {
	data, err := json.Marshal(documentJSON{
		Actor: d.clock.Actor(),
		Links: d.links,
		Dead:  d.dead,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Load восстанавливает документ из сериализованного состояния.
// Часы актора продолжают с максимального счетчика, встреченного в документе,
// чтобы новые локальные операции всегда перекрывали уже слитые.
func Load(data []byte) (*Document, error) {
	var dj documentJSON
	if err := json.Unmarshal(data, &dj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	if dj.Actor == "" {
		return nil, errors.New("document has no actor id")
	}

	d := NewWithActor(dj.Actor)
	if dj.Links != nil {
		d.links = dj.Links
	}
	if dj.Dead != nil {
		d.dead = dj.Dead
	}

	var maxCounter int64
	for _, c := range d.Summary() {
		if c > maxCounter {
			maxCounter = c
		}
	}
	d.clock.Resume(maxCounter)

	return d, nil
}

// Summary возвращает компактную сводку "что у меня есть":
// максимальный счетчик, виденный для каждого актора.
// Используется Sync Client для запроса только недостающих операций.
func (d *Document) Summary() map[string]int64 {
	sum := make(map[string]int64)
	observe := func(s crdt.Stamp) {
		if s.IsZero() {
			return
		}
		if s.Counter > sum[s.Actor] {
			sum[s.Actor] = s.Counter
		}
	}

	for _, rec := range d.links {
		observe(rec.URL.Stamp)
		observe(rec.Title.Stamp)
		observe(rec.Description.Stamp)
		observe(rec.Authors.Stamp)
		for _, f := range rec.Tags {
			observe(f.Stamp)
		}
		for _, n := range rec.Notes {
			observe(n.Inserted)
			observe(n.Title.Stamp)
			observe(n.Body.Stamp)
		}
		for _, s := range rec.Removed {
			observe(s)
		}
	}
	for _, s := range d.dead {
		observe(s)
	}

	return sum
}

// Equal сравнивает содержимое двух документов (ссылки и tombstones),
// игнорируя идентификаторы акторов. Используется в тестах сходимости.
func (d *Document) Equal(other *Document) bool {
	a, errA := json.Marshal(documentJSON{Links: d.links, Dead: d.dead})
	b, errB := json.Marshal(documentJSON{Links: other.links, Dead: other.dead})
	if errA != nil || errB != nil {
		return false
	}
	return string(a) == string(b)
}

// LinkCount возвращает количество видимых (не удаленных) ссылок.
func (d *Document) LinkCount() int {
	return len(d.links)
}

// nowMillis текущее время в миллисекундах unix
func nowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}

// sortedNotes возвращает видимые заметки записи в порядке вставки.
func (rec *LinkRecord) sortedNotes() []models.Note {
	keys := make([]string, 0, len(rec.Notes))
	for key := range rec.Notes {
		if _, removed := rec.Removed[key]; removed {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := rec.Notes[keys[i]].Inserted, rec.Notes[keys[j]].Inserted
		if a.Counter != b.Counter {
			return a.Counter < b.Counter
		}
		return a.Actor < b.Actor
	})

	notes := make([]models.Note, 0, len(keys))
	for _, key := range keys {
		n := rec.Notes[key]
		notes = append(notes, models.Note{
			ID:        key,
			Title:     n.Title.Value,
			Body:      n.Body.Value,
			CreatedAt: time.UnixMilli(n.CreatedAt).UTC(),
		})
	}
	return notes
}

// toModel проецирует реплицированную запись в доменную модель.
func (rec *LinkRecord) toModel() *models.Link {
	tags := make([]string, 0, len(rec.Tags))
	for tag, f := range rec.Tags {
		if f.Present {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	return &models.Link{
		ID:          rec.ID,
		URL:         rec.URL.Value,
		Title:       rec.Title.Value,
		Description: rec.Description.Value,
		Authors:     append([]string(nil), rec.Authors.Values...),
		Tags:        tags,
		Notes:       rec.sortedNotes(),
		CreatedAt:   time.UnixMilli(rec.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMilli(rec.UpdatedAt).UTC(),
	}
}
