package scan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MJE43/jstris-replay-go/internal/engine"
)

// Seeds of one length are numbered in base 36 with '0' padding, so "000000"
// is index 0 and "zzzzzz" is the last index of the six-character space.

// SpaceSize returns the number of seeds of the given length.
func SpaceSize(length int) uint64 {
	n := uint64(1)
	for i := 0; i < length; i++ {
		n *= 36
	}
	return n
}

// SeedAt returns the seed with the given index among seeds of length.
func SeedAt(length int, index uint64) (engine.GameSeed, error) {
	if length < 1 || length > engine.MaxSeedLen {
		return engine.GameSeed{}, engine.ErrWrongLength
	}
	if index >= SpaceSize(length) {
		return engine.GameSeed{}, fmt.Errorf("%w: index %d exceeds %d-character seeds", ErrInvalidRange, index, length)
	}
	s := strconv.FormatUint(index, 36)
	return engine.ParseSeed(strings.Repeat("0", length-len(s)) + s)
}

// IndexOf is the inverse of SeedAt.
func IndexOf(seed engine.GameSeed) uint64 {
	n, err := strconv.ParseUint(seed.String(), 36, 64)
	if err != nil {
		panic(err) // parsed seeds are always base 36
	}
	return n
}

// SeedIndex validates s and returns its index among seeds of its length.
func SeedIndex(s string) (uint64, error) {
	seed, err := engine.ParseSeed(s)
	if err != nil {
		return 0, err
	}
	return IndexOf(seed), nil
}
