// Package analysis summarizes the timing of a decoded replay: how its
// events map onto game frames, which inputs dominate, and how compactly the
// log could be packed.
package analysis

import (
	"cmp"
	"math/bits"
	"slices"
	"time"

	"github.com/MJE43/jstris-replay-go/internal/randomizer"
	"github.com/MJE43/jstris-replay-go/internal/replay"
)

const (
	DefaultFPS           = 30
	DefaultOpeningLength = 14
)

// Options tunes Analyze. Zero values take the defaults.
type Options struct {
	FPS           int  `yaml:"fps" json:"fps"`
	OpeningLength int  `yaml:"opening_length" json:"openingLength"`
	KeepSteps     bool `yaml:"keep_steps" json:"keepSteps"`
}

func (o Options) withDefaults() Options {
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.OpeningLength <= 0 {
		o.OpeningLength = DefaultOpeningLength
	}
	return o
}

// Step is one event mapped onto the frame grid.
type Step struct {
	Input  replay.Input  `json:"input"`
	At     time.Duration `json:"at"`
	Delta  time.Duration `json:"delta"`
	Frames int           `json:"frames"`
	Error  time.Duration `json:"error"`
}

// FrameCount is one bucket of the frame delay histogram.
type FrameCount struct {
	Frames int `json:"frames"`
	Count  int `json:"count"`
}

// InputCount is one bucket of the input histogram.
type InputCount struct {
	Input replay.Input `json:"input"`
	Count int          `json:"count"`
}

// BitEstimate is the size of a fixed-width repacking of the event log that
// stores a frame-delay symbol and an input symbol per event.
type BitEstimate struct {
	FrameBits int `json:"frameBits"`
	InputBits int `json:"inputBits"`
	Events    int `json:"events"`
	Bits      int `json:"bits"`
	Bytes     int `json:"bytes"`
}

// Report is the result of Analyze.
type Report struct {
	Seed    string          `json:"seed"`
	Mode    replay.GameMode `json:"mode"`
	Version replay.Version  `json:"version"`
	FPS     int             `json:"fps"`
	Events  int             `json:"events"`

	Observed   time.Duration `json:"observed"`
	Recorded   time.Duration `json:"recorded"`
	Difference time.Duration `json:"difference"`
	Drift      time.Duration `json:"drift"`

	FrameDelays []FrameCount `json:"frameDelays"`
	Inputs      []InputCount `json:"inputs"`
	Estimate    BitEstimate  `json:"estimate"`
	Opening     string       `json:"opening"`

	Steps []Step `json:"steps,omitempty"`
}

// Analyze walks the replay timeline once.
func Analyze(r *replay.Replay, opts Options) *Report {
	opts = opts.withDefaults()

	report := &Report{
		Seed:     r.Metadata.Seed.String(),
		Mode:     r.Metadata.Mode,
		Version:  r.Metadata.Version,
		FPS:      opts.FPS,
		Events:   len(r.Events),
		Recorded: r.Duration(),
	}

	frameHist := make(map[int]int)
	inputHist := make(map[replay.Input]int)

	var prev time.Duration
	for input, at := range r.Events.Timeline() {
		step := quantize(input, at, at-prev, opts.FPS)
		report.Drift += step.Error
		prev = at

		frameHist[step.Frames]++
		inputHist[input]++
		if opts.KeepSteps {
			report.Steps = append(report.Steps, step)
		}
	}

	report.Observed = prev
	report.Difference = report.Recorded - report.Observed

	for frames, n := range frameHist {
		report.FrameDelays = append(report.FrameDelays, FrameCount{Frames: frames, Count: n})
	}
	slices.SortFunc(report.FrameDelays, func(a, b FrameCount) int {
		return byFrequency(a.Count, b.Count, a.Frames, b.Frames)
	})

	for input, n := range inputHist {
		report.Inputs = append(report.Inputs, InputCount{Input: input, Count: n})
	}
	slices.SortFunc(report.Inputs, func(a, b InputCount) int {
		return byFrequency(a.Count, b.Count, a.Input, b.Input)
	})

	report.Estimate = estimate(len(frameHist), len(inputHist), len(r.Events))

	if !r.Metadata.Seed.IsZero() {
		bag := randomizer.New(r.Metadata.Seed)
		report.Opening = randomizer.FormatPieces(bag.Take(opts.OpeningLength))
	}
	return report
}

// byFrequency orders most frequent first, ties by key.
func byFrequency[K cmp.Ordered](countA, countB int, keyA, keyB K) int {
	if c := cmp.Compare(countB, countA); c != 0 {
		return c
	}
	return cmp.Compare(keyA, keyB)
}

// quantize maps delta onto whole frames. A remainder over half a frame
// rounds up; Error is what is left after rounding, in whole milliseconds.
func quantize(input replay.Input, at, delta time.Duration, fps int) Step {
	ms := int(delta / time.Millisecond)
	frames := ms * fps / 1000

	errMs := ms - frames*1000/fps
	if errMs > 1000/fps/2 {
		frames++
		errMs = ms - frames*1000/fps
	}

	return Step{
		Input:  input,
		At:     at,
		Delta:  delta,
		Frames: frames,
		Error:  time.Duration(errMs) * time.Millisecond,
	}
}

// estimate sizes symbols to the next power of two of the alphabet.
func estimate(frameSymbols, inputSymbols, events int) BitEstimate {
	e := BitEstimate{
		FrameBits: symbolBits(frameSymbols),
		InputBits: symbolBits(inputSymbols),
		Events:    events,
	}
	e.Bits = (e.FrameBits + e.InputBits) * events
	e.Bytes = (e.Bits + 7) / 8
	return e
}

func symbolBits(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
