package scripting

import (
	"fmt"

	"github.com/MJE43/jstris-replay-go/internal/engine"
)

// Mismatch describes the first value where the Go generator and the
// JavaScript reference disagree.
type Mismatch struct {
	Index int
	Go    float64
	JS    float64
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("scripting: value %d differs: go=%.17g js=%.17g", m.Index, m.Go, m.JS)
}

// Verify draws count values from both generators seeded with seeds and
// returns a *Mismatch for the first difference.
func (r *Reference) Verify(count int, seeds ...string) error {
	want, err := r.Sequence(count, seeds...)
	if err != nil {
		return err
	}
	got := engine.Floats(count, seeds...)
	for i := range got {
		if got[i] != want[i] {
			return &Mismatch{Index: i, Go: got[i], JS: want[i]}
		}
	}
	return nil
}
