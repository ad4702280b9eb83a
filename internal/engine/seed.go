package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MaxSeedLen is the longest seed the client generates.
const MaxSeedLen = 6

// ErrWrongLength is returned for empty seeds and seeds longer than MaxSeedLen.
var ErrWrongLength = errors.New("engine: seed must be 1 to 6 bytes long")

// InvalidCharError reports the first byte of a seed outside [a-z0-9].
type InvalidCharError struct {
	Char byte
}

func (e *InvalidCharError) Error() string {
	return fmt.Sprintf("engine: seed byte %q is not a lowercase letter or digit", e.Char)
}

// GameSeed is a validated game seed. Bytes past the logical length are
// always zero, so == compares the effective seed.
type GameSeed struct {
	bytes [MaxSeedLen]byte
	n     uint8
}

// ParseSeed validates s and stores it without normalizing case.
func ParseSeed(s string) (GameSeed, error) {
	if len(s) == 0 || len(s) > MaxSeedLen {
		return GameSeed{}, ErrWrongLength
	}

	var seed GameSeed
	for i := 0; i < len(s); i++ {
		b := s[i]
		if !isSeedByte(b) {
			return GameSeed{}, &InvalidCharError{Char: b}
		}
		seed.bytes[i] = b
	}
	seed.n = uint8(len(s))
	return seed, nil
}

// MustParseSeed is like ParseSeed but panics on invalid input. Intended for
// constants and tests.
func MustParseSeed(s string) GameSeed {
	seed, err := ParseSeed(s)
	if err != nil {
		panic(err)
	}
	return seed
}

func isSeedByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// Bytes returns a copy of the effective seed bytes.
func (s GameSeed) Bytes() []byte {
	out := make([]byte, s.n)
	copy(out, s.bytes[:s.n])
	return out
}

// String returns the seed text. The charset is ASCII so this is always
// valid UTF-8.
func (s GameSeed) String() string {
	return string(s.bytes[:s.n])
}

// Len returns the logical length of the seed.
func (s GameSeed) Len() int {
	return int(s.n)
}

// IsZero reports whether s is the zero value rather than a parsed seed.
func (s GameSeed) IsZero() bool {
	return s.n == 0
}

// Compare orders seeds by their effective bytes.
func (s GameSeed) Compare(other GameSeed) int {
	return bytes.Compare(s.bytes[:s.n], other.bytes[:other.n])
}

// MarshalJSON encodes the seed as a JSON string.
func (s GameSeed) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes and validates a JSON string seed.
func (s *GameSeed) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	seed, err := ParseSeed(str)
	if err != nil {
		return err
	}
	*s = seed
	return nil
}
