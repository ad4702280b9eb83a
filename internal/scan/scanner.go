// Package scan searches the seed space for games whose opening pieces
// resemble a target sequence.
package scan

import (
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/hashicorp/go-hclog"

	"github.com/MJE43/jstris-replay-go/internal/engine"
	"github.com/MJE43/jstris-replay-go/internal/randomizer"
)

// TargetOp represents comparison operations on the edit distance between a
// seed's opening and the target.
type TargetOp string

const (
	OpEqual        TargetOp = "eq"
	OpGreater      TargetOp = "gt"
	OpGreaterEqual TargetOp = "ge"
	OpLess         TargetOp = "lt"
	OpLessEqual    TargetOp = "le"
	OpBetween      TargetOp = "between"
	OpOutside      TargetOp = "outside"
)

// Request represents a scan operation request. From and To are inclusive
// seed bounds of equal length.
type Request struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Target    string   `json:"target"`
	Op        TargetOp `json:"op,omitempty"`        // default "le"
	Distance  int      `json:"distance"`            // edit distance bound
	Distance2 int      `json:"distance2,omitempty"` // for "between" and "outside"
	Limit     int      `json:"limit,omitempty"`
	TimeoutMs int      `json:"timeout_ms,omitempty"`
}

// Hit is a seed whose opening matched.
type Hit struct {
	Seed     string `json:"seed"`
	Opening  string `json:"opening"`
	Distance int    `json:"distance"`
}

// Summary contains aggregate statistics
type Summary struct {
	TotalEvaluated uint64  `json:"total_evaluated"`
	HitsFound      int     `json:"hits_found"`
	MinDistance    int     `json:"min_distance"`
	MaxDistance    int     `json:"max_distance"`
	MeanDistance   float64 `json:"mean_distance"`
	TimedOut       bool    `json:"timed_out,omitempty"`
	LimitReached   bool    `json:"limit_reached,omitempty"`
	Elapsed        string  `json:"elapsed"`
}

// Result contains the complete scan results, ordered by distance then seed.
type Result struct {
	Hits    []Hit   `json:"hits"`
	Summary Summary `json:"summary"`
	Echo    Request `json:"echo"`
}

// TargetEvaluator decides whether a distance satisfies the request.
type TargetEvaluator struct {
	op   TargetOp
	val1 int
	val2 int
}

// NewTargetEvaluator validates op and returns an evaluator.
func NewTargetEvaluator(op TargetOp, val1, val2 int) (*TargetEvaluator, error) {
	switch op {
	case "":
		op = OpLessEqual
	case OpEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
	case OpBetween, OpOutside:
		if val2 < val1 {
			return nil, fmt.Errorf("%w: %s needs distance2 >= distance", ErrInvalidOp, op)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOp, op)
	}
	return &TargetEvaluator{op: op, val1: val1, val2: val2}, nil
}

// Matches checks if a distance matches the target criteria
func (te *TargetEvaluator) Matches(d int) bool {
	switch te.op {
	case OpEqual:
		return d == te.val1
	case OpGreater:
		return d > te.val1
	case OpGreaterEqual:
		return d >= te.val1
	case OpLess:
		return d < te.val1
	case OpLessEqual:
		return d <= te.val1
	case OpBetween:
		return d >= te.val1 && d <= te.val2
	case OpOutside:
		return d < te.val1 || d > te.val2
	default:
		return false
	}
}

type job struct {
	start, end uint64
}

// Scanner performs parallel scans across seed ranges.
type Scanner struct {
	workerCount int
	batchSize   uint64
	logger      hclog.Logger
}

// NewScanner creates a scanner with one worker per CPU.
func NewScanner(logger hclog.Logger) *Scanner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Scanner{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   4096,
		logger:      logger.Named("scan"),
	}
}

// Scan evaluates every seed in the request range. A timeout or cancelled
// context ends the scan early with Summary.TimedOut set and the hits found
// so far.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	from, to, length, err := parseRange(req.From, req.To)
	if err != nil {
		return nil, err
	}
	target, err := randomizer.ParsePieces(req.Target)
	if err != nil || len(target) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, req.Target)
	}
	targetStr := randomizer.FormatPieces(target)

	evaluator, err := NewTargetEvaluator(req.Op, req.Distance, req.Distance2)
	if err != nil {
		return nil, err
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}
	workCtx, stop := context.WithCancel(ctx)
	defer stop()

	began := time.Now()
	s.logger.Debug("scan started", "from", req.From, "to", req.To, "target", targetStr, "workers", s.workerCount)

	jobs := make(chan job, s.workerCount*2)
	hits := make(chan Hit, 256)
	var evaluated atomic.Uint64
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(workCtx, jobs, hits, length, targetStr, evaluator, &evaluated)
		}()
	}
	go s.generateJobs(workCtx, jobs, from, to)
	go func() {
		wg.Wait()
		close(hits)
	}()

	collected := make([]Hit, 0, 64)
	limitReached := false
	for hit := range hits {
		if limitReached {
			continue
		}
		collected = append(collected, hit)
		if req.Limit > 0 && len(collected) >= req.Limit {
			limitReached = true
			stop()
		}
	}

	slices.SortFunc(collected, func(a, b Hit) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Seed, b.Seed)
	})

	summary := summarize(collected, evaluated.Load())
	summary.TimedOut = ctx.Err() != nil
	summary.LimitReached = limitReached
	summary.Elapsed = time.Since(began).String()

	s.logger.Debug("scan finished", "evaluated", summary.TotalEvaluated, "hits", summary.HitsFound,
		"timed_out", summary.TimedOut)

	return &Result{Hits: collected, Summary: summary, Echo: req}, nil
}

func (s *Scanner) work(ctx context.Context, jobs <-chan job, hits chan<- Hit, length int,
	target string, evaluator *TargetEvaluator, evaluated *atomic.Uint64) {
	n := len(target)
	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				return
			}
			for idx := j.start; idx <= j.end; idx++ {
				if ctx.Err() != nil {
					return
				}
				seed, err := SeedAt(length, idx)
				if err != nil {
					continue
				}
				opening := randomizer.FormatPieces(randomizer.Opening(seed, n))
				evaluated.Add(1)

				d := levenshtein.ComputeDistance(opening, target)
				if !evaluator.Matches(d) {
					continue
				}
				select {
				case hits <- Hit{Seed: seed.String(), Opening: opening, Distance: d}:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// generateJobs splits [start, end] into batches.
func (s *Scanner) generateJobs(ctx context.Context, jobs chan<- job, start, end uint64) {
	defer close(jobs)

	for current := start; current <= end; {
		batchEnd := current + s.batchSize - 1
		if batchEnd > end || batchEnd < current {
			batchEnd = end
		}

		select {
		case jobs <- job{start: current, end: batchEnd}:
		case <-ctx.Done():
			return
		}
		if batchEnd == end {
			return
		}
		current = batchEnd + 1
	}
}

func parseRange(from, to string) (uint64, uint64, int, error) {
	if len(from) != len(to) {
		return 0, 0, 0, fmt.Errorf("%w: %q and %q differ in length", ErrInvalidRange, from, to)
	}
	length := len(from)
	if length == 0 || length > engine.MaxSeedLen {
		return 0, 0, 0, fmt.Errorf("%w: seeds must be 1 to 6 characters", ErrInvalidRange)
	}

	start, err := SeedIndex(from)
	if err != nil {
		return 0, 0, 0, err
	}
	end, err := SeedIndex(to)
	if err != nil {
		return 0, 0, 0, err
	}
	if end < start {
		return 0, 0, 0, fmt.Errorf("%w: %q sorts after %q", ErrInvalidRange, from, to)
	}
	return start, end, length, nil
}

func summarize(hits []Hit, evaluated uint64) Summary {
	summary := Summary{
		TotalEvaluated: evaluated,
		HitsFound:      len(hits),
	}
	if len(hits) == 0 {
		return summary
	}

	summary.MinDistance = hits[0].Distance
	summary.MaxDistance = hits[0].Distance
	sum := 0
	for _, h := range hits {
		summary.MinDistance = min(summary.MinDistance, h.Distance)
		summary.MaxDistance = max(summary.MaxDistance, h.Distance)
		sum += h.Distance
	}
	summary.MeanDistance = float64(sum) / float64(len(hits))
	return summary
}
