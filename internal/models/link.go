package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// Note представляет заметку, прикрепленную к ссылке.
// Заметка принадлежит ровно одной ссылке и не существует отдельно от нее.
type Note struct {
	CreatedAt time.Time `json:"created_at"` // CreatedAt время создания заметки
	ID        string    `json:"id"`         // ID идентификатор операции вставки (actor:counter)
	Title     string    `json:"title"`      // Title необязательный заголовок
	Body      string    `json:"body"`       // Body текст заметки
}

// Link представляет сохраненную ссылку с метаданными.
type Link struct {
	CreatedAt   time.Time `json:"created_at"`  // CreatedAt время создания
	UpdatedAt   time.Time `json:"updated_at"`  // UpdatedAt время последнего изменения
	ID          string    `json:"id"`          // ID уникальный идентификатор (UUID)
	URL         string    `json:"url"`         // URL адрес ресурса, уникален в пределах документа
	Title       string    `json:"title"`       // Title отображаемый заголовок
	Description string    `json:"description"` // Description необязательное описание
	Authors     []string  `json:"authors"`     // Authors авторы материала
	Tags        []string  `json:"tags"`        // Tags теги для организации
	Notes       []Note    `json:"notes"`       // Notes заметки, упорядоченные по времени вставки
}

// NewLink создает новую ссылку с заданным URL.
// Заголовок по умолчанию равен URL, пока не получены метаданные страницы.
func NewLink(url string) *Link {
	now := time.Now().UTC()
	return &Link{
		ID:        uuid.New().String(),
		URL:       url,
		Title:     url,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate проверяет корректность полей ссылки.
func (l *Link) Validate() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.ID, validation.Required, is.UUID),
		validation.Field(&l.URL, validation.Required, is.URL),
		validation.Field(&l.Title, validation.Required),
	)
}

// HasTag проверяет наличие тега у ссылки.
func (l *Link) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag добавляет тег, если его еще нет.
func (l *Link) AddTag(tag string) {
	if !l.HasTag(tag) {
		l.Tags = append(l.Tags, tag)
		l.UpdatedAt = time.Now().UTC()
	}
}

// RemoveTag удаляет тег, если он есть.
func (l *Link) RemoveTag(tag string) {
	for i, t := range l.Tags {
		if t == tag {
			l.Tags = append(l.Tags[:i], l.Tags[i+1:]...)
			l.UpdatedAt = time.Now().UTC()
			return
		}
	}
}

// Validate проверяет корректность полей заметки.
func (n *Note) Validate() error {
	return validation.ValidateStruct(n,
		validation.Field(&n.Body, validation.Required),
	)
}
