// Package query реализует производные представления документа:
// индексы по URL и тегам плюс подстрочный поиск. Индексы живут
// в памяти и пересчитываются после каждой мутации документа.
// Все операции — чистые чтения без побочных эффектов.
package query

import (
	"sort"
	"strings"

	"github.com/iudanet/linkkeeper/internal/models"
)

// TagCount количество ссылок с данным тегом
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Index производные индексы над текущим состоянием документа.
type Index struct {
	byURL  map[string]*models.Link
	byTag  map[string][]*models.Link
	sorted []*models.Link
}

// Build строит индексы из списка видимых ссылок.
// Вызывается после каждой мутации документа.
func Build(links []*models.Link) *Index {
	idx := &Index{
		byURL:  make(map[string]*models.Link, len(links)),
		byTag:  make(map[string][]*models.Link),
		sorted: links,
	}
	for _, link := range links {
		idx.byURL[link.URL] = link
		for _, tag := range link.Tags {
			idx.byTag[tag] = append(idx.byTag[tag], link)
		}
	}
	return idx
}

// ByURL возвращает ссылку с данным URL за O(1).
// Используется для проверки дубликатов при создании.
func (idx *Index) ByURL(url string) (*models.Link, bool) {
	link, ok := idx.byURL[url]
	return link, ok
}

// ByTag возвращает все ссылки с данным тегом.
func (idx *Index) ByTag(tag string) []*models.Link {
	return idx.byTag[tag]
}

// All возвращает все ссылки в стабильном порядке.
func (idx *Index) All() []*models.Link {
	return idx.sorted
}

// Search ищет подстроку без учета регистра в заголовке, описании и URL.
// Линейный проход: persistent-индекс поиска на ожидаемых объемах не нужен.
func (idx *Index) Search(term string) []*models.Link {
	if term == "" {
		return nil
	}
	needle := strings.ToLower(term)

	var found []*models.Link
	for _, link := range idx.sorted {
		if strings.Contains(strings.ToLower(link.Title), needle) ||
			strings.Contains(strings.ToLower(link.Description), needle) ||
			strings.Contains(strings.ToLower(link.URL), needle) {
			found = append(found, link)
		}
	}
	return found
}

// TagCounts возвращает количество ссылок по каждому тегу,
// отсортированное по убыванию количества, затем по имени тега.
func (idx *Index) TagCounts() []TagCount {
	counts := make([]TagCount, 0, len(idx.byTag))
	for tag, links := range idx.byTag {
		counts = append(counts, TagCount{Tag: tag, Count: len(links)})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Tag < counts[j].Tag
	})
	return counts
}
