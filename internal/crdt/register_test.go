package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStamp_Newer(t *testing.T) {
	tests := []struct {
		name  string
		a     Stamp
		b     Stamp
		newer bool
	}{
		{
			name:  "higher counter wins",
			a:     Stamp{Counter: 2, Actor: "a"},
			b:     Stamp{Counter: 1, Actor: "z"},
			newer: true,
		},
		{
			name:  "lower counter loses",
			a:     Stamp{Counter: 1, Actor: "z"},
			b:     Stamp{Counter: 2, Actor: "a"},
			newer: false,
		},
		{
			name:  "equal counters break tie on actor",
			a:     Stamp{Counter: 3, Actor: "node-b"},
			b:     Stamp{Counter: 3, Actor: "node-a"},
			newer: true,
		},
		{
			name:  "identical stamps are not newer",
			a:     Stamp{Counter: 3, Actor: "node-a"},
			b:     Stamp{Counter: 3, Actor: "node-a"},
			newer: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.newer, tt.a.Newer(tt.b))
		})
	}
}

func TestStamp_Key(t *testing.T) {
	s := Stamp{Counter: 7, Actor: "replica-1"}
	assert.Equal(t, "replica-1:7", s.Key())
}

func TestRegister_Merge(t *testing.T) {
	var r Register
	r.Set("first", Stamp{Counter: 1, Actor: "a"})

	// Более новая метка выигрывает
	updated := r.Merge(Register{Value: "second", Stamp: Stamp{Counter: 2, Actor: "a"}})
	assert.True(t, updated)
	assert.Equal(t, "second", r.Value)

	// Более старая метка игнорируется
	updated = r.Merge(Register{Value: "stale", Stamp: Stamp{Counter: 1, Actor: "z"}})
	assert.False(t, updated)
	assert.Equal(t, "second", r.Value)

	// Нулевая метка никогда не перезаписывает
	updated = r.Merge(Register{Value: "empty"})
	assert.False(t, updated)
	assert.Equal(t, "second", r.Value)
}

func TestRegister_MergeIntoZero(t *testing.T) {
	var r Register
	updated := r.Merge(Register{Value: "remote", Stamp: Stamp{Counter: 1, Actor: "a"}})

	assert.True(t, updated, "Any real stamp should win over an unset register")
	assert.Equal(t, "remote", r.Value)
}

func TestRegister_MergeIsIdempotent(t *testing.T) {
	var r Register
	other := Register{Value: "x", Stamp: Stamp{Counter: 5, Actor: "a"}}

	r.Merge(other)
	updated := r.Merge(other)

	assert.False(t, updated, "Re-merging the same write must be a no-op")
	assert.Equal(t, "x", r.Value)
}

func TestListRegister_Merge(t *testing.T) {
	var l ListRegister
	l.Set([]string{"alice"}, Stamp{Counter: 1, Actor: "a"})

	l.Merge(ListRegister{Values: []string{"bob", "carol"}, Stamp: Stamp{Counter: 2, Actor: "b"}})
	assert.Equal(t, []string{"bob", "carol"}, l.Values)

	// Слияние копирует список, а не разделяет его
	src := ListRegister{Values: []string{"dave"}, Stamp: Stamp{Counter: 3, Actor: "c"}}
	l.Merge(src)
	src.Values[0] = "mutated"
	assert.Equal(t, []string{"dave"}, l.Values)
}

func TestFlag_Merge(t *testing.T) {
	var f Flag
	f.Merge(Flag{Present: true, Stamp: Stamp{Counter: 1, Actor: "a"}})
	assert.True(t, f.Present)

	// Удаление с более новой меткой выигрывает
	f.Merge(Flag{Present: false, Stamp: Stamp{Counter: 2, Actor: "a"}})
	assert.False(t, f.Present)

	// Отставшее добавление не воскрешает элемент
	f.Merge(Flag{Present: true, Stamp: Stamp{Counter: 1, Actor: "z"}})
	assert.False(t, f.Present)
}
