package randomizer

import (
	"iter"
	"math"

	"github.com/MJE43/jstris-replay-go/internal/engine"
)

// bagOrder is the pool order the client draws from.
var bagOrder = [NumPieces]Piece{I, O, T, L, J, S, Z}

// JstrisBag reproduces the client's 7-bag piece generator. The bag is kept
// as a stack: the last element is the next piece out.
//
// A JstrisBag is not safe for concurrent use. Create one per consumer.
type JstrisBag struct {
	rng   *engine.Alea
	stack []Piece
}

// New seeds a generator with the game seed as the sole Alea seed string and
// fills the first bag.
func New(seed engine.GameSeed) *JstrisBag {
	return newBag(engine.NewAlea(seed.String()))
}

func newBag(rng *engine.Alea) *JstrisBag {
	b := &JstrisBag{
		rng:   rng,
		stack: make([]Piece, 0, NumPieces),
	}
	b.refill()
	correctSeam(b.stack)
	return b
}

// refill draws a fresh bag. Pieces drawn first are dispensed first, so the
// draw order is pushed in reverse.
func (b *JstrisBag) refill() {
	var pool [NumPieces]Piece
	copy(pool[:], bagOrder[:])
	remaining := pool[:]

	var drawn [NumPieces]Piece
	for i := range drawn {
		idx := int(math.Floor(b.rng.Next() * float64(len(remaining))))
		drawn[i] = remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}

	b.stack = b.stack[:0]
	for i := len(drawn) - 1; i >= 0; i-- {
		b.stack = append(b.stack, drawn[i])
	}
}

// correctSeam keeps an S or Z from opening the game. It runs on the first
// bag only; refills are never corrected.
func correctSeam(stack []Piece) {
	top := len(stack) - 1
	if top < 2 {
		return
	}
	switch {
	case stack[top].IsSZ() && stack[top-1].IsSZ():
		stack[top], stack[top-2] = stack[top-2], stack[top]
	case stack[top].IsSZ():
		stack[top], stack[top-1] = stack[top-1], stack[top]
	}
}

// Get returns the next piece, drawing a new bag when the current one is
// empty.
func (b *JstrisBag) Get() Piece {
	if len(b.stack) == 0 {
		b.refill()
	}
	top := len(b.stack) - 1
	p := b.stack[top]
	b.stack = b.stack[:top]
	return p
}

// All returns an infinite sequence of pieces. Pieces pulled from it are
// consumed from b; the sequence cannot be rewound.
func (b *JstrisBag) All() iter.Seq[Piece] {
	return func(yield func(Piece) bool) {
		for {
			if !yield(b.Get()) {
				return
			}
		}
	}
}

// Take returns the next n pieces.
func (b *JstrisBag) Take(n int) []Piece {
	if n <= 0 {
		return nil
	}
	out := make([]Piece, n)
	for i := range out {
		out[i] = b.Get()
	}
	return out
}

// Remaining reports how many pieces are left in the current bag.
func (b *JstrisBag) Remaining() int {
	return len(b.stack)
}

// Opening returns the first n pieces for seed.
func Opening(seed engine.GameSeed, n int) []Piece {
	return New(seed).Take(n)
}
