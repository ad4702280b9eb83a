package randomizer

import (
	"fmt"
	"strings"
)

// Piece is one of the seven tetromino kinds.
type Piece uint8

const (
	I Piece = iota
	J
	L
	O
	S
	T
	Z
)

// NumPieces is the size of a bag.
const NumPieces = 7

var pieceNames = [NumPieces]byte{'I', 'J', 'L', 'O', 'S', 'T', 'Z'}

func (p Piece) String() string {
	if p >= NumPieces {
		return fmt.Sprintf("Piece(%d)", uint8(p))
	}
	return string(pieceNames[p])
}

// IsSZ reports whether p is one of the mirror pieces S or Z.
func (p Piece) IsSZ() bool {
	return p == S || p == Z
}

// InvalidPieceError reports a letter that names no piece.
type InvalidPieceError struct {
	Letter rune
}

func (e *InvalidPieceError) Error() string {
	return fmt.Sprintf("randomizer: %q is not a piece letter", e.Letter)
}

// ParsePiece accepts upper or lower case piece letters.
func ParsePiece(r rune) (Piece, error) {
	switch r {
	case 'I', 'i':
		return I, nil
	case 'J', 'j':
		return J, nil
	case 'L', 'l':
		return L, nil
	case 'O', 'o':
		return O, nil
	case 'S', 's':
		return S, nil
	case 'T', 't':
		return T, nil
	case 'Z', 'z':
		return Z, nil
	}
	return 0, &InvalidPieceError{Letter: r}
}

// ParsePieces parses a string such as "TSZL" into pieces.
func ParsePieces(s string) ([]Piece, error) {
	out := make([]Piece, 0, len(s))
	for _, r := range s {
		p, err := ParsePiece(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// FormatPieces renders pieces as a compact letter string.
func FormatPieces(pieces []Piece) string {
	var b strings.Builder
	b.Grow(len(pieces))
	for _, p := range pieces {
		b.WriteString(p.String())
	}
	return b.String()
}
