package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)
	assert.False(t, id.IsZero())
	assert.NotEmpty(t, id.String())

	// Алфавит base58 не содержит неоднозначных символов
	for _, forbidden := range []string{"0", "O", "I", "l"} {
		assert.NotContains(t, id.String(), forbidden)
	}

	other, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, id.String(), other.String(), "identifiers are unique")
}

func TestParse_RoundTrip(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	parsed, err := Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, id.String(), parsed.String())
}

func TestParse_Typo(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	// Меняем один символ, имитируя опечатку при ручном вводе
	s := id.String()
	altered := "2"
	if s[0] == '2' {
		altered = "3"
	}
	typo := altered + s[1:]

	_, err = Parse(typo)
	assert.ErrorIs(t, err, ErrChecksumMismatch, "a typo is a checksum error, not garbage")
}

func TestParse_Garbage(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "too short", input: "abc"},
		{name: "invalid alphabet", input: strings.Repeat("0", 29)},
		{name: "spaces", input: "not an identifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, ErrInvalidEncoding)
			assert.NotErrorIs(t, err, ErrChecksumMismatch)
		})
	}
}
