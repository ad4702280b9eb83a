package scripting

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
)

//go:embed alea.js
var aleaSource string

const (
	referenceInitTimeout = 2 * time.Second
	referenceCallTimeout = 5 * time.Second
)

// ErrTimeout is returned when the reference script does not finish in time.
var ErrTimeout = errors.New("scripting: reference script timed out")

// Reference runs the published Alea JavaScript in a goja runtime. It is the
// oracle the Go generator is checked against: every value it returns went
// through JavaScript Number arithmetic.
type Reference struct {
	runtime *goja.Runtime
	mu      sync.Mutex

	alea goja.Callable
	mash goja.Callable
}

// NewReference compiles the embedded generator source into a fresh runtime.
func NewReference() (*Reference, error) {
	ref := &Reference{runtime: goja.New()}

	// The source only needs Math and String.
	ref.runtime.Set("require", goja.Undefined())
	ref.runtime.Set("eval", goja.Undefined())

	err := ref.runWithTimeout(referenceInitTimeout, func() error {
		if _, err := ref.runtime.RunString(aleaSource); err != nil {
			return fmt.Errorf("scripting: load alea.js: %w", err)
		}
		var err error
		if ref.alea, err = ref.function("aleaSequence"); err != nil {
			return err
		}
		ref.mash, err = ref.function("mashSequence")
		return err
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *Reference) function(name string) (goja.Callable, error) {
	v := r.runtime.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, fmt.Errorf("scripting: %s() is not defined", name)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("scripting: %s is not a function", name)
	}
	return fn, nil
}

// Sequence returns the first count values of Alea(seeds).
func (r *Reference) Sequence(count int, seeds ...string) ([]float64, error) {
	if seeds == nil {
		seeds = []string{}
	}
	return r.call(r.alea, r.runtime.ToValue(seeds), r.runtime.ToValue(count))
}

// Mash returns count successive outputs of one mixer fed input each time.
func (r *Reference) Mash(input string, count int) ([]float64, error) {
	return r.call(r.mash, r.runtime.ToValue(input), r.runtime.ToValue(count))
}

func (r *Reference) call(fn goja.Callable, args ...goja.Value) ([]float64, error) {
	var out []float64
	err := r.runWithTimeout(referenceCallTimeout, func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		result, err := fn(goja.Undefined(), args...)
		if err != nil {
			return fmt.Errorf("scripting: call failed: %w", err)
		}
		if err := r.runtime.ExportTo(result, &out); err != nil {
			return fmt.Errorf("scripting: export result: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// runWithTimeout interrupts the runtime if fn overruns. A pending interrupt
// from an earlier overrun is cleared first so the runtime stays usable.
func (r *Reference) runWithTimeout(timeout time.Duration, fn func() error) error {
	r.runtime.ClearInterrupt()

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		r.runtime.Interrupt("reference execution timeout")
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("%w: %w", ErrTimeout, err)
			}
			return ErrTimeout
		case <-time.After(200 * time.Millisecond):
			return ErrTimeout
		}
	}
}
