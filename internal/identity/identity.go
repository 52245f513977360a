// Package identity реализует схему идентичности без аккаунтов:
// корневой идентификатор документа — случайная строка в кодировке
// base58check, которая одновременно служит адресом синхронизации.
// Владение идентификатором равно владению документом.
package identity

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// payloadSize размер случайной части идентификатора в байтах.
// 128 бит энтропии делают случайную коллизию пренебрежимо маловероятной.
const payloadSize = 16

// idVersion байт версии формата, участвует в контрольной сумме
const idVersion = 0x00

// Ошибки разбора идентификатора. Разделены намеренно:
// опечатка при ручном вводе и мусорный ввод требуют разных подсказок.
var (
	// ErrChecksumMismatch контрольная сумма не сошлась: похоже на опечатку
	ErrChecksumMismatch = errors.New("identifier checksum mismatch")

	// ErrInvalidEncoding строка структурно не является идентификатором
	ErrInvalidEncoding = errors.New("not a valid identifier")
)

// ID корневой идентификатор реплицированного документа.
type ID struct {
	encoded string
}

// Generate создает новый идентификатор из криптографически случайных байт.
// Вызывается ровно один раз, при инициализации нового документа.
func Generate() (ID, error) {
	payload := make([]byte, payloadSize)
	if _, err := rand.Read(payload); err != nil {
		return ID{}, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return ID{encoded: base58.CheckEncode(payload, idVersion)}, nil
}

// Parse проверяет идентификатор, введенный пользователем.
// Несовпадение контрольной суммы и структурно некорректный ввод
// различаются, чтобы UI мог сказать "опечатка" или "это не идентификатор".
func Parse(candidate string) (ID, error) {
	payload, version, err := base58.CheckDecode(candidate)
	switch {
	case errors.Is(err, base58.ErrChecksum):
		return ID{}, fmt.Errorf("%w: %q", ErrChecksumMismatch, candidate)
	case err != nil:
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidEncoding, candidate)
	}
	if version != idVersion || len(payload) != payloadSize {
		return ID{}, fmt.Errorf("%w: unexpected payload", ErrInvalidEncoding)
	}
	return ID{encoded: candidate}, nil
}

// String возвращает каноническую строковую форму идентификатора.
func (id ID) String() string {
	return id.encoded
}

// IsZero сообщает, что идентификатор не инициализирован.
func (id ID) IsZero() bool {
	return id.encoded == ""
}
