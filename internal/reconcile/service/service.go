package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"merchant-recon/internal/metrics"
	"merchant-recon/internal/reconcile/model"
)

// Progress stages.
const (
	StagePrimary   = "primary"
	StageProximity = "proximity"
	StageGeocode   = "geocode"
)

// Progress is reported every Options.ProgressEvery records and at the end
// of each stage.
type Progress struct {
	Stage string `json:"stage"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

type Option func(*Engine)

// WithProgress registers a callback. Calls are serialized by the engine.
func WithProgress(fn func(Progress)) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithLocality sets the resolver used when reverse geocoding is enabled.
func WithLocality(r LocalityResolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// Engine runs the two matching passes and builds the report. Every Run uses
// fresh indexes and caches, so one Engine may serve several runs.
type Engine struct {
	opts     model.Options
	log      zerolog.Logger
	progress func(Progress)
	resolver LocalityResolver
	mu       sync.Mutex
}

func NewEngine(opts model.Options, logger zerolog.Logger, options ...Option) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{opts: opts, log: logger}
	for _, o := range options {
		o(e)
	}
	if opts.EnableReverseGeocoding && e.resolver == nil {
		return nil, &model.ValidationError{
			Field:   "enableReverseGeocoding",
			Value:   true,
			Message: "no locality resolver configured",
		}
	}
	return e, nil
}

func (e *Engine) Options() model.Options { return e.opts }

// Run reconciles left against right. On cancellation it returns ctx.Err()
// and no report; candidates from unfinished passes are discarded.
func (e *Engine) Run(ctx context.Context, left, right *model.Store) (*model.Report, error) {
	start := time.Now()
	rep, err := e.run(ctx, left, right)
	metrics.ObserveRun(rep, err, time.Since(start))
	return rep, err
}

func (e *Engine) run(ctx context.Context, left, right *model.Store) (*model.Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.log.With().Str("run_id", runID).Logger()

	log.Info().
		Int("left", left.Len()).
		Int("right", right.Len()).
		Int("left_coords", left.WithCoords()).
		Int("right_coords", right.WithCoords()).
		Msg("reconcile started")

	names := NewNameScorer(e.opts.NameCacheSize)

	// 1) primary: truncated-coordinate cells
	leftItems := withCoords(left, nil)
	primary, err := e.forEach(ctx, StagePrimary, leftItems,
		newTruncationMatcher(e.opts, names, left, right).match)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("candidates", len(primary)).
		Int("precision", e.opts.CoordinatePrecision).
		Msg("truncated coordinate pass done")

	// 2) proximity: only records the primary pass did not touch
	matchedL, matchedR := touched(primary, left.Len(), right.Len())
	remainingL := withCoords(left, matchedL)
	remainingR := len(withCoords(right, matchedR))

	var proximity []model.MatchCandidate
	if len(remainingL) > 0 && remainingR > 0 {
		pm := newProximityMatcher(e.opts, names, left, right, func(i int) bool { return !matchedR[i] })
		proximity, err = e.forEach(ctx, StageProximity, remainingL, pm.match)
		if err != nil {
			return nil, err
		}
	}
	log.Info().
		Int("left_remaining", len(remainingL)).
		Int("right_remaining", remainingR).
		Int("candidates", len(proximity)).
		Msg("proximity pass done")

	all := make([]model.MatchCandidate, 0, len(primary)+len(proximity))
	all = append(all, primary...)
	all = append(all, proximity...)

	var resolver LocalityResolver
	if e.opts.EnableReverseGeocoding {
		resolver = e.resolver
	}
	rep, err := BuildReport(ctx, left, right, all, resolver, func(done, total int) {
		if done%e.opts.ProgressEvery == 0 || done == total {
			e.report(Progress{Stage: StageGeocode, Done: done, Total: total})
		}
	})
	if err != nil {
		return nil, err
	}

	rep.RunID = runID
	rep.Options = e.opts
	rep.Summary.PrimaryCandidates = len(primary)
	rep.Summary.ProximityCandidates = len(proximity)
	rep.Summary.Elapsed = time.Since(start)

	ns := names.CacheStats()
	log.Debug().
		Uint64("hits", ns.Hits).
		Uint64("misses", ns.Misses).
		Int("size", ns.Size).
		Msg("name similarity cache")

	s := rep.Summary
	log.Info().
		Int("high", s.High).
		Int("medium", s.Medium).
		Int("low", s.Low).
		Int("potential", s.Potential).
		Int("left_unique", s.LeftUnique).
		Int("right_unique", s.RightUnique).
		Dur("elapsed", s.Elapsed).
		Msg("reconcile done")
	return rep, nil
}

// forEach runs fn for every left index on a bounded pool. Results are
// concatenated in input order, so output does not depend on scheduling.
func (e *Engine) forEach(ctx context.Context, stage string, items []int, fn func(int) []model.MatchCandidate) ([]model.MatchCandidate, error) {
	results := make([][]model.MatchCandidate, len(items))
	total := len(items)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	var done atomic.Int64
	for k, li := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[k] = fn(li)
			if n := int(done.Add(1)); n%e.opts.ProgressEvery == 0 || n == total {
				e.report(Progress{Stage: stage, Done: n, Total: total})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := 0
	for _, r := range results {
		n += len(r)
	}
	out := make([]model.MatchCandidate, 0, n)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (e *Engine) report(p Progress) {
	if e.progress == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(p)
}

// withCoords lists indexes of records with coordinates, skipping excluded ones.
func withCoords(s *model.Store, exclude []bool) []int {
	out := make([]int, 0, s.WithCoords())
	for i := 0; i < s.Len(); i++ {
		if !s.At(i).HasCoords || (exclude != nil && exclude[i]) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// touched marks every record referenced by any candidate.
func touched(cands []model.MatchCandidate, nLeft, nRight int) (left, right []bool) {
	left, right = make([]bool, nLeft), make([]bool, nRight)
	for _, c := range cands {
		left[c.LeftIndex] = true
		right[c.RightIndex] = true
	}
	return left, right
}
