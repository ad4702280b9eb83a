package engine

import (
	"testing"
)

func TestMashAsdf(t *testing.T) {
	m := NewMash()
	if got := m.Mash("asdf"); got != 0.9312197775579989 {
		t.Errorf("Mash(\"asdf\") = %.17g, want 0.9312197775579989", got)
	}
}

func TestMashStatePersists(t *testing.T) {
	m := NewMash()
	first := m.Mash("asdf")
	second := m.Mash("asdf")

	if first == second {
		t.Errorf("repeated Mash calls returned the same value %.17g", first)
	}

	fresh := NewMash()
	if got := fresh.Mash("asdf"); got != first {
		t.Errorf("fresh mixer returned %.17g, want %.17g", got, first)
	}
}

func TestMashEmptyString(t *testing.T) {
	m := NewMash()
	want := float64(uint32(mashSeed)) * twoPowM32
	for i := 0; i < 3; i++ {
		if got := m.Mash(""); got != want {
			t.Errorf("Mash(\"\") call %d = %.17g, want %.17g", i, got, want)
		}
	}
}

// The running value passes 2^32 inside the second "12" mash and must not
// wrap until the final reduction.
func TestMashCarriesPast32Bits(t *testing.T) {
	m := NewMash()
	for i := 0; i < 3; i++ {
		m.Mash(" ")
	}
	m.Mash("12")
	if got := m.Mash("12"); got != 0.40002692327834666 {
		t.Errorf("second Mash(\"12\") = %.17g, want 0.40002692327834666", got)
	}

	rng := NewAlea("12")
	rng.Next()
	if got := rng.Next(); got != 0.8516248916275799 {
		t.Errorf("NewAlea(\"12\") second value = %.17g, want 0.8516248916275799", got)
	}
}

func TestAleaAsdf(t *testing.T) {
	rng := NewAlea("asdf")
	expected := []float64{
		0.8024188503623009,
		0.4725297694094479,
		0.949664750834927,
		0.5619115477893502,
		0.6947485841810703,
	}

	for i, want := range expected {
		if got := rng.Next(); got != want {
			t.Errorf("Next() call %d = %.17g, want %.17g", i, got, want)
		}
	}
}

func TestAleaRange(t *testing.T) {
	seeds := []string{"asdf", "8bf82p", "000000", "zzzzzz", "a"}
	for _, seed := range seeds {
		t.Run(seed, func(t *testing.T) {
			rng := NewAlea(seed)
			for i := 0; i < 10000; i++ {
				f := rng.Next()
				if f < 0 || f >= 1 {
					t.Fatalf("value %d out of range [0, 1): %v", i, f)
				}
			}
		})
	}
}

func TestAleaDeterministic(t *testing.T) {
	a := Floats(50, "deterministic")
	b := Floats(50, "deterministic")

	for i := range a {
		if a[i] != b[i] {
			t.Errorf("value %d differs: %.17g != %.17g", i, a[i], b[i])
		}
	}
}

func TestAleaCompositeSeed(t *testing.T) {
	joined := Floats(5, "abc123")
	split := Floats(5, "abc", "123")

	same := true
	for i := range joined {
		if joined[i] != split[i] {
			same = false
		}
	}
	if same {
		t.Error("composite seed produced the same stream as the concatenated seed")
	}
}

func TestFloatsInto(t *testing.T) {
	dst := make([]float64, 10)
	result := FloatsInto(dst, 5, "asdf")
	if len(result) != 5 {
		t.Fatalf("FloatsInto() returned %d floats, want 5", len(result))
	}
	if &result[0] != &dst[0] {
		t.Error("FloatsInto() reallocated a large enough buffer")
	}

	small := make([]float64, 2)
	result = FloatsInto(small, 5, "asdf")
	if len(result) != 5 {
		t.Errorf("FloatsInto() with small buffer returned %d floats, want 5", len(result))
	}
	if result[0] != 0.8024188503623009 {
		t.Errorf("FloatsInto()[0] = %.17g, want 0.8024188503623009", result[0])
	}
}

func TestAleaUint32(t *testing.T) {
	a := NewAlea("asdf")
	b := NewAlea("asdf")

	for i := 0; i < 5; i++ {
		want := uint32(b.Next() * twoPow32)
		if got := a.Uint32(); got != want {
			t.Errorf("Uint32() call %d = %d, want %d", i, got, want)
		}
	}
}

func TestAleaFract53(t *testing.T) {
	rng := NewAlea("fract")
	for i := 0; i < 1000; i++ {
		f := rng.Fract53()
		if f < 0 || f >= 1 {
			t.Fatalf("Fract53() value %d out of range: %v", i, f)
		}
	}
}

func BenchmarkAleaNext(b *testing.B) {
	rng := NewAlea("benchmark")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rng.Next()
	}
}

func BenchmarkNewAlea(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NewAlea("8bf82p")
	}
}

func BenchmarkMash(b *testing.B) {
	m := NewMash()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Mash("8bf82p")
	}
}
