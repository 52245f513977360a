package document

import (
	"github.com/iudanet/linkkeeper/internal/crdt"
)

// Merge вливает чужое состояние в локальный документ.
// Операция чисто вычислительная: ни сети, ни диска.
//
// Правила слияния:
//   - скалярные поля: LWW по причинной метке (crdt.Register)
//   - теги: LWW по каждому элементу множества (crdt.Flag)
//   - заметки: объединение журналов вставок; tombstone удаления
//     побеждает любую параллельную правку и никогда не забывается
//   - отображение ссылок: объединение ключей; tombstone ссылки
//     побеждает любое состояние записи
//
// Слияние коммутативно, ассоциативно и идемпотентно. Некорректный вход
// (чужое состояние, противоречащее причинной истории) отклоняется
// целиком до каких-либо изменений: частично слитого состояния не бывает.
func (d *Document) Merge(other *Document) error {
	return d.merge(other, true)
}

// MergeTrusted вливает состояние собственной линии реплики, например
// снимок с диска при merge-before-save. Счетчик нашего актора в таком
// состоянии может законно опережать память (перекрывающаяся запись
// этого же устройства), поэтому проверка причинной истории опускается.
func (d *Document) MergeTrusted(other *Document) error {
	return d.merge(other, false)
}

func (d *Document) merge(other *Document, foreign bool) error {
	if other == nil {
		return nil
	}
	if foreign {
		if err := d.validateForeign(other); err != nil {
			return err
		}
	}

	// Tombstones ссылок: берем более новую метку, запись умирает навсегда
	for id, stamp := range other.dead {
		if cur, ok := d.dead[id]; !ok || stamp.Newer(cur) {
			d.dead[id] = stamp
		}
		delete(d.links, id)
	}

	for id, theirs := range other.links {
		if _, gone := d.dead[id]; gone {
			continue
		}
		mine, ok := d.links[id]
		if !ok {
			d.links[id] = theirs.clone()
			continue
		}
		mine.merge(theirs)
	}

	// Продвигаем часы, чтобы последующие локальные операции
	// перекрывали все только что слитые
	var maxRemote int64
	for _, c := range other.Summary() {
		if c > maxRemote {
			maxRemote = c
		}
	}
	d.clock.Observe(maxRemote)

	return nil
}

// validateForeign проверяет чужое состояние до слияния.
// Реплика, заявляющая для НАШЕГО актора счетчик выше, чем мы когда-либо
// выдавали, противоречит причинной истории — такой вход поврежден.
// Также отклоняется переиспользование метки с другим содержимым.
func (d *Document) validateForeign(other *Document) error {
	if c := other.Summary()[d.clock.Actor()]; c > d.clock.Counter() {
		return ErrCausalityViolation
	}

	for id, theirs := range other.links {
		mine, ok := d.links[id]
		if !ok {
			continue
		}
		if stampReused(mine.URL, theirs.URL) ||
			stampReused(mine.Title, theirs.Title) ||
			stampReused(mine.Description, theirs.Description) {
			return ErrCausalityViolation
		}
	}
	return nil
}

// stampReused обнаруживает переиспользование одной метки
// для разных значений — признак поврежденного входа.
func stampReused(a, b crdt.Register) bool {
	return !a.Stamp.IsZero() && a.Stamp == b.Stamp && a.Value != b.Value
}

// merge вливает чужую запись ссылки в локальную.
func (rec *LinkRecord) merge(other *LinkRecord) {
	rec.URL.Merge(other.URL)
	rec.Title.Merge(other.Title)
	rec.Description.Merge(other.Description)
	rec.Authors.Merge(other.Authors)

	if rec.Tags == nil {
		rec.Tags = make(map[string]crdt.Flag)
	}
	for tag, theirs := range other.Tags {
		f := rec.Tags[tag]
		f.Merge(theirs)
		rec.Tags[tag] = f
	}

	if rec.Removed == nil {
		rec.Removed = make(map[string]crdt.Stamp)
	}
	for key, stamp := range other.Removed {
		if cur, ok := rec.Removed[key]; !ok || stamp.Newer(cur) {
			rec.Removed[key] = stamp
		}
		delete(rec.Notes, key)
	}

	if rec.Notes == nil {
		rec.Notes = make(map[string]*NoteRecord)
	}
	for key, theirs := range other.Notes {
		if _, removed := rec.Removed[key]; removed {
			continue
		}
		mine, ok := rec.Notes[key]
		if !ok {
			rec.Notes[key] = theirs.clone()
			continue
		}
		mine.Title.Merge(theirs.Title)
		mine.Body.Merge(theirs.Body)
	}

	if other.CreatedAt != 0 && (rec.CreatedAt == 0 || other.CreatedAt < rec.CreatedAt) {
		rec.CreatedAt = other.CreatedAt
	}
	if other.UpdatedAt > rec.UpdatedAt {
		rec.UpdatedAt = other.UpdatedAt
	}
}

// ChangesSince извлекает дельту: все операции, которые новее переданной
// сводки счетчиков. Результат — частичный документ, пригодный для Merge
// на принимающей стороне. Избыточная доставка безопасна: слияние идемпотентно.
func (d *Document) ChangesSince(since map[string]int64) *Document {
	newer := func(s crdt.Stamp) bool {
		return !s.IsZero() && s.Counter > since[s.Actor]
	}

	delta := NewWithActor(d.clock.Actor())

	for id, stamp := range d.dead {
		if newer(stamp) {
			delta.dead[id] = stamp
		}
	}

	for id, rec := range d.links {
		part := &LinkRecord{
			ID:        rec.ID,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		}
		touched := false

		if newer(rec.URL.Stamp) {
			part.URL = rec.URL
			touched = true
		}
		if newer(rec.Title.Stamp) {
			part.Title = rec.Title
			touched = true
		}
		if newer(rec.Description.Stamp) {
			part.Description = rec.Description
			touched = true
		}
		if newer(rec.Authors.Stamp) {
			part.Authors = crdt.ListRegister{
				Values: append([]string(nil), rec.Authors.Values...),
				Stamp:  rec.Authors.Stamp,
			}
			touched = true
		}
		for tag, f := range rec.Tags {
			if newer(f.Stamp) {
				if part.Tags == nil {
					part.Tags = make(map[string]crdt.Flag)
				}
				part.Tags[tag] = f
				touched = true
			}
		}
		for key, note := range rec.Notes {
			if newer(note.Inserted) || newer(note.Title.Stamp) || newer(note.Body.Stamp) {
				if part.Notes == nil {
					part.Notes = make(map[string]*NoteRecord)
				}
				part.Notes[key] = note.clone()
				touched = true
			}
		}
		for key, stamp := range rec.Removed {
			if newer(stamp) {
				if part.Removed == nil {
					part.Removed = make(map[string]crdt.Stamp)
				}
				part.Removed[key] = stamp
				touched = true
			}
		}

		if touched {
			delta.links[id] = part
		}
	}

	return delta
}

// IsEmpty сообщает, что дельта не содержит ни одной операции.
func (d *Document) IsEmpty() bool {
	return len(d.links) == 0 && len(d.dead) == 0
}

func (rec *LinkRecord) clone() *LinkRecord {
	cp := &LinkRecord{
		ID:          rec.ID,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		URL:         rec.URL,
		Title:       rec.Title,
		Description: rec.Description,
		Authors: crdt.ListRegister{
			Values: append([]string(nil), rec.Authors.Values...),
			Stamp:  rec.Authors.Stamp,
		},
		Tags:    make(map[string]crdt.Flag, len(rec.Tags)),
		Notes:   make(map[string]*NoteRecord, len(rec.Notes)),
		Removed: make(map[string]crdt.Stamp, len(rec.Removed)),
	}
	for tag, f := range rec.Tags {
		cp.Tags[tag] = f
	}
	for key, n := range rec.Notes {
		cp.Notes[key] = n.clone()
	}
	for key, s := range rec.Removed {
		cp.Removed[key] = s
	}
	return cp
}

func (n *NoteRecord) clone() *NoteRecord {
	cp := *n
	return &cp
}
