package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_Commutative(t *testing.T) {
	base := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, base.AddLink(link))

	a := replicate(t, base, "bob")
	b := replicate(t, base, "carol")

	link.Title = "edited by bob"
	require.NoError(t, a.UpdateLink(link))
	other := newTestLink(t, "https://pkg.go.dev")
	require.NoError(t, b.AddLink(other))

	// a <- b и b <- a должны сойтись к одному содержимому
	require.NoError(t, a.Merge(b))
	require.NoError(t, b.Merge(a))
	assert.True(t, a.Equal(b), "merge order must not matter")
}

func TestMerge_Associative(t *testing.T) {
	base := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, base.AddLink(link))

	a := replicate(t, base, "bob")
	b := replicate(t, base, "carol")
	c := replicate(t, base, "dave")

	link.Title = "bob's title"
	require.NoError(t, a.UpdateLink(link))
	link2 := newTestLink(t, "https://go.dev/blog")
	require.NoError(t, b.AddLink(link2))
	require.NoError(t, c.DeleteLink(link.ID))

	// (a+b)+c
	left := replicate(t, a, "x")
	require.NoError(t, left.Merge(b))
	require.NoError(t, left.Merge(c))

	// a+(b+c)
	bc := replicate(t, b, "y")
	require.NoError(t, bc.Merge(c))
	right := replicate(t, a, "z")
	require.NoError(t, right.Merge(bc))

	assert.True(t, left.Equal(right), "grouping must not matter")
}

func TestMerge_Idempotent(t *testing.T) {
	doc := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	link.Tags = []string{"go"}
	require.NoError(t, doc.AddLink(link))
	_, err := doc.AddNote(link.ID, "", "a note")
	require.NoError(t, err)

	other := replicate(t, doc, "bob")

	before, err := doc.Export()
	require.NoError(t, err)
	require.NoError(t, doc.Merge(other))
	require.NoError(t, doc.Merge(other))
	after, err := doc.Export()
	require.NoError(t, err)

	assert.JSONEq(t, string(before), string(after), "re-merging the same state is a no-op")
}

func TestMerge_DeleteBeatsConcurrentEdit(t *testing.T) {
	base := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, base.AddLink(link))

	a := replicate(t, base, "bob")
	b := replicate(t, base, "carol")

	require.NoError(t, a.DeleteLink(link.ID))
	link.Title = "edited after delete elsewhere"
	require.NoError(t, b.UpdateLink(link))

	require.NoError(t, a.Merge(b))
	require.NoError(t, b.Merge(a))

	_, err := a.Link(link.ID)
	assert.ErrorIs(t, err, ErrLinkNotFound, "delete wins over concurrent edit")
	_, err = b.Link(link.ID)
	assert.ErrorIs(t, err, ErrLinkNotFound)
	assert.True(t, a.Equal(b))
}

func TestMerge_DeleteNoteBeatsConcurrentEdit(t *testing.T) {
	base := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, base.AddLink(link))
	note, err := base.AddNote(link.ID, "", "original")
	require.NoError(t, err)

	a := replicate(t, base, "bob")
	b := replicate(t, base, "carol")

	require.NoError(t, a.DeleteNote(link.ID, note.ID))
	require.NoError(t, b.UpdateNote(link.ID, note.ID, "", "edited concurrently"))

	require.NoError(t, a.Merge(b))
	require.NoError(t, b.Merge(a))

	got, err := a.Link(link.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes, "note delete wins over concurrent edit")
	assert.True(t, a.Equal(b))
}

// Сценарий из жизни: два устройства правят одну ссылку по-разному,
// правка заголовка и добавление тега не конфликтуют между собой.
func TestMerge_DisjointFieldEdits(t *testing.T) {
	base := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, base.AddLink(link))

	laptop := replicate(t, base, "laptop")
	phone := replicate(t, base, "phone")

	edited := *link
	edited.Title = "Go homepage"
	require.NoError(t, laptop.UpdateLink(&edited))

	tagged := *link
	tagged.Tags = []string{"reference"}
	require.NoError(t, phone.UpdateLink(&tagged))

	require.NoError(t, laptop.Merge(phone))
	require.NoError(t, phone.Merge(laptop))

	got, err := laptop.Link(link.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go homepage", got.Title, "title edit survives")
	assert.Equal(t, []string{"reference"}, got.Tags, "tag edit survives")
	assert.True(t, laptop.Equal(phone))
}

func TestMerge_ConcurrentSameField(t *testing.T) {
	base := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, base.AddLink(link))

	a := replicate(t, base, "aardvark")
	b := replicate(t, base, "zebra")

	la := *link
	la.Title = "aardvark's title"
	require.NoError(t, a.UpdateLink(&la))
	lb := *link
	lb.Title = "zebra's title"
	require.NoError(t, b.UpdateLink(&lb))

	require.NoError(t, a.Merge(b))
	require.NoError(t, b.Merge(a))

	ga, err := a.Link(link.ID)
	require.NoError(t, err)
	gb, err := b.Link(link.ID)
	require.NoError(t, err)
	assert.Equal(t, ga.Title, gb.Title, "both replicas pick the same winner")
	// При равных счетчиках побеждает лексикографически больший актор
	assert.Equal(t, "zebra's title", ga.Title)
}

func TestMerge_NoResurrection(t *testing.T) {
	base := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, base.AddLink(link))

	a := replicate(t, base, "bob")
	require.NoError(t, a.DeleteLink(link.ID))

	// Слияние со старой копией, где ссылка еще жива
	require.NoError(t, a.Merge(base))
	_, err := a.Link(link.ID)
	assert.ErrorIs(t, err, ErrLinkNotFound, "stale state must not resurrect a deleted link")
}

func TestMerge_CausalityViolation(t *testing.T) {
	doc := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, doc.AddLink(link))

	// Чужая реплика заявляет для НАШЕГО актора счетчик выше выданного
	forged := NewWithActor("alice")
	require.NoError(t, forged.AddLink(link))
	for i := 0; i < 20; i++ {
		l := *link
		l.Title = "spin"
		require.NoError(t, forged.UpdateLink(&l))
		l.Title = "spin back"
		require.NoError(t, forged.UpdateLink(&l))
	}

	err := doc.Merge(forged)
	assert.ErrorIs(t, err, ErrCausalityViolation)

	// Документ не изменился: отказ атомарен
	got, err := doc.Link(link.ID)
	require.NoError(t, err)
	assert.Equal(t, link.Title, got.Title)
}

func TestMerge_LocalEditsOutstampMerged(t *testing.T) {
	a := NewWithActor("alice")
	b := NewWithActor("bob")

	link := newTestLink(t, "https://go.dev")
	require.NoError(t, b.AddLink(link))
	for i := 0; i < 5; i++ {
		l := *link
		l.Description = "bump"
		require.NoError(t, b.UpdateLink(&l))
		l.Description = ""
		require.NoError(t, b.UpdateLink(&l))
	}

	require.NoError(t, a.Merge(b))

	// Локальная правка после слияния должна победить слитое состояние
	l := *link
	l.Title = "alice's title"
	require.NoError(t, a.UpdateLink(&l))
	require.NoError(t, b.Merge(a))

	got, err := b.Link(link.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice's title", got.Title)
}

func TestChangesSince(t *testing.T) {
	doc := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, doc.AddLink(link))

	// Пустая сводка: дельта несет все состояние
	full := doc.ChangesSince(nil)
	assert.False(t, full.IsEmpty())

	peer := NewWithActor("bob")
	require.NoError(t, peer.Merge(full))
	assert.True(t, doc.Equal(peer))

	// Актуальная сводка: дельта пуста
	empty := doc.ChangesSince(peer.Summary())
	assert.True(t, empty.IsEmpty())

	// Новая правка попадает в следующую дельту, старые поля — нет
	before := peer.Summary()
	l := *link
	l.Title = "updated"
	require.NoError(t, doc.UpdateLink(&l))

	delta := doc.ChangesSince(before)
	assert.False(t, delta.IsEmpty())
	rec, ok := delta.links[link.ID]
	require.True(t, ok)
	assert.False(t, rec.Title.Stamp.IsZero(), "changed field is present")
	assert.True(t, rec.URL.Stamp.IsZero(), "unchanged field is omitted")

	require.NoError(t, peer.Merge(delta))
	assert.True(t, doc.Equal(peer))
}

func TestChangesSince_Tombstones(t *testing.T) {
	doc := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, doc.AddLink(link))

	peer := NewWithActor("bob")
	require.NoError(t, peer.Merge(doc.ChangesSince(nil)))
	since := peer.Summary()

	require.NoError(t, doc.DeleteLink(link.ID))

	delta := doc.ChangesSince(since)
	require.NoError(t, peer.Merge(delta))

	_, err := peer.Link(link.ID)
	assert.ErrorIs(t, err, ErrLinkNotFound, "deletion propagates via delta")
	assert.True(t, doc.Equal(peer))
}

func TestMerge_NotesAcrossReplicas(t *testing.T) {
	base := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, base.AddLink(link))

	a := replicate(t, base, "bob")
	b := replicate(t, base, "carol")

	na, err := a.AddNote(link.ID, "", "from bob")
	require.NoError(t, err)
	nb, err := b.AddNote(link.ID, "", "from carol")
	require.NoError(t, err)
	require.NotEqual(t, na.ID, nb.ID, "note ids are replica-unique")

	require.NoError(t, a.Merge(b))
	require.NoError(t, b.Merge(a))

	got, err := a.Link(link.ID)
	require.NoError(t, err)
	assert.Len(t, got.Notes, 2, "concurrent inserts both survive")
	assert.True(t, a.Equal(b))
}

func TestMerge_NilIsNoop(t *testing.T) {
	doc := NewWithActor("alice")
	link := newTestLink(t, "https://go.dev")
	require.NoError(t, doc.AddLink(link))

	require.NoError(t, doc.Merge(nil))
	assert.Equal(t, 1, doc.LinkCount())
}
