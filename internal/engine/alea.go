package engine

import (
	"math"
	"unicode/utf16"
)

// Alea is Johannes Baagøe's Alea generator as shipped in aleaPRNG-1.1.js.
// All arithmetic is float64 so the stream matches JavaScript Numbers exactly.

const (
	mashSeed  = 4022871197 // 0xefc8249d
	mashScale = 0.02519603282416938
	twoPow32  = 4294967296.0
	twoPowM32 = 2.3283064365386963e-10 // 2^-32
	aleaMul   = 2091639.0
	twoPowM53 = 1.1102230246251565e-16 // 2^-53
)

// Mash is the string mixer used to derive Alea seed fractions. Its state
// persists between calls, so mashing the same string twice yields two
// different values.
//
// The running value is a float64 that may exceed 2^32 between code units;
// it is reduced to 32 bits only where JavaScript applies >>> 0.
type Mash struct {
	n float64
}

// NewMash returns a mixer in its initial state.
func NewMash() *Mash {
	return &Mash{n: mashSeed}
}

// Mash mixes the UTF-16 code units of data into the state and returns the
// state scaled into [0, 1).
func (m *Mash) Mash(data string) float64 {
	n := m.n
	for _, unit := range utf16.Encode([]rune(data)) {
		n += float64(unit)

		h := mashScale * n
		n = float64(toUint32(h))
		h -= n
		h *= n
		n = float64(toUint32(h))
		h -= n

		n += h * twoPow32
	}
	m.n = n
	return float64(toUint32(n)) * twoPowM32
}

// toUint32 is JavaScript's x >>> 0 for finite non-negative x.
func toUint32(f float64) uint32 {
	return uint32(uint64(math.Trunc(f)))
}

// Alea is a seeded generator of float64 values in [0, 1). It is not safe for
// concurrent use.
type Alea struct {
	c  uint32
	s0 float64
	s1 float64
	s2 float64
}

// NewAlea seeds a generator from an ordered list of seed strings. Each seed
// is mashed three times, once per state fraction.
func NewAlea(seeds ...string) *Alea {
	mash := NewMash()
	s0 := mash.Mash(" ")
	s1 := mash.Mash(" ")
	s2 := mash.Mash(" ")

	for _, seed := range seeds {
		s0 -= mash.Mash(seed)
		if s0 < 0 {
			s0++
		}
		s1 -= mash.Mash(seed)
		if s1 < 0 {
			s1++
		}
		s2 -= mash.Mash(seed)
		if s2 < 0 {
			s2++
		}
	}

	return &Alea{c: 1, s0: s0, s1: s1, s2: s2}
}

// Next advances the generator and returns the next value in [0, 1).
func (a *Alea) Next() float64 {
	t := aleaMul*a.s0 + float64(a.c)*twoPowM32
	a.c = uint32(t)

	a.s0 = a.s1
	a.s1 = a.s2
	a.s2 = t - float64(a.c)

	return a.s2
}

// Uint32 returns the next value scaled to a 32-bit unsigned integer.
func (a *Alea) Uint32() uint32 {
	return uint32(a.Next() * twoPow32)
}

// Fract53 combines two draws into a value with 53 bits of randomness.
func (a *Alea) Fract53() float64 {
	hi := a.Next()
	lo := float64(int32(a.Next() * 0x200000))
	return hi + lo*twoPowM53
}

// Floats returns the first count values of a generator seeded with seeds.
func Floats(count int, seeds ...string) []float64 {
	return FloatsInto(nil, count, seeds...)
}

// FloatsInto fills dst with the first count values, allocating only when dst
// is too small.
func FloatsInto(dst []float64, count int, seeds ...string) []float64 {
	if cap(dst) < count {
		dst = make([]float64, count)
	}
	dst = dst[:count]

	rng := NewAlea(seeds...)
	for i := range dst {
		dst[i] = rng.Next()
	}
	return dst
}
