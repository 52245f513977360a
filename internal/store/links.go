package store

import (
	"context"
	"fmt"

	"github.com/iudanet/linkkeeper/internal/models"
	"github.com/iudanet/linkkeeper/internal/query"
)

// AddLink создает новую ссылку. URL уникален в пределах документа:
// дубликат отклоняется без изменения состояния.
func (s *Store) AddLink(ctx context.Context, link *models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitialized(); err != nil {
		return err
	}
	if err := link.Validate(); err != nil {
		return fmt.Errorf("invalid link: %w", err)
	}
	if _, exists := s.index.ByURL(link.URL); exists {
		return fmt.Errorf("%w: %s", ErrDuplicateURL, link.URL)
	}

	if err := s.doc.AddLink(link); err != nil {
		return err
	}
	return s.commitLocked(ctx)
}

// GetLink возвращает ссылку по идентификатору.
func (s *Store) GetLink(id string) (*models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireInitialized(); err != nil {
		return nil, err
	}
	return s.doc.Link(id)
}

// UpdateLink применяет изменения к существующей ссылке.
// Смена URL на уже занятый другим Link отклоняется.
func (s *Store) UpdateLink(ctx context.Context, link *models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitialized(); err != nil {
		return err
	}
	if err := link.Validate(); err != nil {
		return fmt.Errorf("invalid link: %w", err)
	}
	if other, exists := s.index.ByURL(link.URL); exists && other.ID != link.ID {
		return fmt.Errorf("%w: %s", ErrDuplicateURL, link.URL)
	}

	if err := s.doc.UpdateLink(link); err != nil {
		return err
	}
	return s.commitLocked(ctx)
}

// DeleteLink удаляет ссылку вместе со всеми заметками.
func (s *Store) DeleteLink(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitialized(); err != nil {
		return err
	}
	if err := s.doc.DeleteLink(id); err != nil {
		return err
	}
	return s.commitLocked(ctx)
}

// AddNote добавляет заметку к ссылке.
func (s *Store) AddNote(ctx context.Context, linkID, title, body string) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitialized(); err != nil {
		return nil, err
	}
	note := models.Note{Title: title, Body: body}
	if err := note.Validate(); err != nil {
		return nil, fmt.Errorf("invalid note: %w", err)
	}

	created, err := s.doc.AddNote(linkID, title, body)
	if err != nil {
		return nil, err
	}
	if err := s.commitLocked(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateNote изменяет заметку.
func (s *Store) UpdateNote(ctx context.Context, linkID, noteID, title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitialized(); err != nil {
		return err
	}
	note := models.Note{Title: title, Body: body}
	if err := note.Validate(); err != nil {
		return fmt.Errorf("invalid note: %w", err)
	}

	if err := s.doc.UpdateNote(linkID, noteID, title, body); err != nil {
		return err
	}
	return s.commitLocked(ctx)
}

// DeleteNote удаляет заметку.
func (s *Store) DeleteNote(ctx context.Context, linkID, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInitialized(); err != nil {
		return err
	}
	if err := s.doc.DeleteNote(linkID, noteID); err != nil {
		return err
	}
	return s.commitLocked(ctx)
}

// ListLinks возвращает все ссылки в стабильном порядке.
func (s *Store) ListLinks() []*models.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.All()
}

// LinksByTag возвращает ссылки с данным тегом.
func (s *Store) LinksByTag(tag string) []*models.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.ByTag(tag)
}

// SearchLinks ищет подстроку в заголовке, описании и URL.
func (s *Store) SearchLinks(term string) []*models.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Search(term)
}

// TagCounts возвращает количество ссылок по каждому тегу.
func (s *Store) TagCounts() []query.TagCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.TagCounts()
}
