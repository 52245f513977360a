package document

import (
	"sort"
	"time"

	"github.com/iudanet/linkkeeper/internal/crdt"
	"github.com/iudanet/linkkeeper/internal/models"
)

// AddLink добавляет новую ссылку в документ.
// Каждое поле получает собственную причинную метку этой реплики.
// Уникальность URL контролируется на уровне store, не здесь.
func (d *Document) AddLink(link *models.Link) error {
	if _, gone := d.dead[link.ID]; gone {
		return ErrLinkExists
	}
	if _, ok := d.links[link.ID]; ok {
		return ErrLinkExists
	}

	now := nowMillis()
	rec := &LinkRecord{
		ID:        link.ID,
		CreatedAt: link.CreatedAt.UnixMilli(),
		UpdatedAt: now,
		Tags:      make(map[string]crdt.Flag),
		Notes:     make(map[string]*NoteRecord),
		Removed:   make(map[string]crdt.Stamp),
	}
	rec.URL.Set(link.URL, d.clock.Tick())
	rec.Title.Set(link.Title, d.clock.Tick())
	if link.Description != "" {
		rec.Description.Set(link.Description, d.clock.Tick())
	}
	if len(link.Authors) > 0 {
		rec.Authors.Set(link.Authors, d.clock.Tick())
	}
	for _, tag := range link.Tags {
		rec.Tags[tag] = crdt.Flag{Present: true, Stamp: d.clock.Tick()}
	}

	d.links[link.ID] = rec
	return nil
}

// UpdateLink применяет изменившиеся поля ссылки.
// Нетронутые поля не получают новых меток, чтобы параллельные правки
// разных полей на разных репликах не конфликтовали между собой.
func (d *Document) UpdateLink(link *models.Link) error {
	rec, ok := d.links[link.ID]
	if !ok {
		return ErrLinkNotFound
	}

	touched := false
	if link.URL != rec.URL.Value {
		rec.URL.Set(link.URL, d.clock.Tick())
		touched = true
	}
	if link.Title != rec.Title.Value {
		rec.Title.Set(link.Title, d.clock.Tick())
		touched = true
	}
	if link.Description != rec.Description.Value {
		rec.Description.Set(link.Description, d.clock.Tick())
		touched = true
	}
	if !equalStrings(link.Authors, rec.Authors.Values) {
		rec.Authors.Set(link.Authors, d.clock.Tick())
		touched = true
	}

	// Диффим множество тегов: новые помечаем присутствующими,
	// исчезнувшие — отсутствующими (tombstone на уровне элемента)
	want := make(map[string]bool, len(link.Tags))
	for _, tag := range link.Tags {
		want[tag] = true
		if f, ok := rec.Tags[tag]; !ok || !f.Present {
			rec.Tags[tag] = crdt.Flag{Present: true, Stamp: d.clock.Tick()}
			touched = true
		}
	}
	for tag, f := range rec.Tags {
		if f.Present && !want[tag] {
			rec.Tags[tag] = crdt.Flag{Present: false, Stamp: d.clock.Tick()}
			touched = true
		}
	}

	if touched {
		rec.UpdatedAt = nowMillis()
	}
	return nil
}

// DeleteLink удаляет ссылку вместе со всеми ее заметками.
// Запись замещается tombstone, который навсегда остается в документе,
// чтобы слияние со старой копией не воскресило ссылку.
func (d *Document) DeleteLink(id string) error {
	if _, ok := d.links[id]; !ok {
		return ErrLinkNotFound
	}

	d.dead[id] = d.clock.Tick()
	delete(d.links, id)
	return nil
}

// Link возвращает ссылку по идентификатору.
func (d *Document) Link(id string) (*models.Link, error) {
	rec, ok := d.links[id]
	if !ok {
		return nil, ErrLinkNotFound
	}
	return rec.toModel(), nil
}

// Links возвращает все видимые ссылки, отсортированные по времени создания.
func (d *Document) Links() []*models.Link {
	links := make([]*models.Link, 0, len(d.links))
	for _, rec := range d.links {
		links = append(links, rec.toModel())
	}
	sortLinks(links)
	return links
}

// AddNote добавляет заметку к ссылке.
// Идентификатором заметки служит метка операции вставки.
func (d *Document) AddNote(linkID, title, body string) (*models.Note, error) {
	rec, ok := d.links[linkID]
	if !ok {
		return nil, ErrLinkNotFound
	}

	stamp := d.clock.Tick()
	now := nowMillis()
	note := &NoteRecord{
		Inserted:  stamp,
		CreatedAt: now,
	}
	note.Body.Set(body, stamp)
	if title != "" {
		note.Title.Set(title, stamp)
	}

	rec.Notes[stamp.Key()] = note
	rec.UpdatedAt = now

	return &models.Note{
		ID:        stamp.Key(),
		Title:     title,
		Body:      body,
		CreatedAt: time.UnixMilli(now).UTC(),
	}, nil
}

// UpdateNote изменяет заголовок и текст заметки.
func (d *Document) UpdateNote(linkID, noteID, title, body string) error {
	rec, ok := d.links[linkID]
	if !ok {
		return ErrLinkNotFound
	}
	note, ok := rec.Notes[noteID]
	if !ok {
		return ErrNoteNotFound
	}
	if _, removed := rec.Removed[noteID]; removed {
		return ErrNoteNotFound
	}

	if title != note.Title.Value {
		note.Title.Set(title, d.clock.Tick())
	}
	if body != note.Body.Value {
		note.Body.Set(body, d.clock.Tick())
	}
	rec.UpdatedAt = nowMillis()
	return nil
}

// DeleteNote удаляет заметку. Операция записывается как tombstone:
// удаление всегда побеждает параллельную правку той же заметки.
func (d *Document) DeleteNote(linkID, noteID string) error {
	rec, ok := d.links[linkID]
	if !ok {
		return ErrLinkNotFound
	}
	if _, ok := rec.Notes[noteID]; !ok {
		return ErrNoteNotFound
	}
	if _, removed := rec.Removed[noteID]; removed {
		return ErrNoteNotFound
	}

	rec.Removed[noteID] = d.clock.Tick()
	delete(rec.Notes, noteID)
	rec.UpdatedAt = nowMillis()
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sortLinks дает стабильный порядок: по времени создания, затем по ID.
func sortLinks(links []*models.Link) {
	sort.Slice(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
		return links[i].ID < links[j].ID
	})
}
