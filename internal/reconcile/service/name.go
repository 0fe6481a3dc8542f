package service

import (
	"strings"
	"unicode/utf8"

	"merchant-recon/internal/cache"
)

const (
	minLengthRatio   = 0.3
	weakSeqThreshold = 0.3
	weakSeqFactor    = 0.4
	seqWeight        = 0.5
	overlapWeight    = 0.4
	exactWordBonus   = 0.3
	exactWordMinLen  = 4
)

type namePair struct{ a, b string }

// NameScorer scores business-name pairs. Results are memoized per run on the
// normalized pair; safe for concurrent use.
type NameScorer struct {
	norms  *cache.Bounded[string, string]
	scores *cache.Bounded[namePair, float64]
}

func NewNameScorer(capacity int) *NameScorer {
	return &NameScorer{
		norms:  cache.NewBounded[string, string](capacity),
		scores: cache.NewBounded[namePair, float64](capacity),
	}
}

func (s *NameScorer) normalize(name string) string {
	return s.norms.GetOrCompute(name, func() string { return NormalizeName(name) })
}

// Similarity returns a score in [0,1]. The pair is ordered before scoring, so
// Similarity(a, b) == Similarity(b, a).
func (s *NameScorer) Similarity(name1, name2 string) float64 {
	a, b := s.normalize(name1), s.normalize(name2)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if b < a {
		a, b = b, a
	}
	return s.scores.GetOrCompute(namePair{a, b}, func() float64 { return scoreNormalized(a, b) })
}

// CacheStats exposes the pair cache counters.
func (s *NameScorer) CacheStats() cache.Stats { return s.scores.Stats() }

// scoreNormalized blends sequence similarity, token overlap and a bonus for a
// long token of a found verbatim in b.
func scoreNormalized(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if float64(min(la, lb))/float64(max(la, lb)) < minLengthRatio {
		return 0
	}

	seq := sequenceRatio(a, b)
	if seq < weakSeqThreshold {
		return seq * weakSeqFactor
	}

	wa, wb := strings.Fields(a), strings.Fields(b)
	overlap := jaccard(wa, wb)

	bonus := 0.0
	for _, w := range wa {
		if utf8.RuneCountInString(w) >= exactWordMinLen && strings.Contains(b, w) {
			bonus = exactWordBonus
			break
		}
	}

	return min(1.0, seq*seqWeight+overlap*overlapWeight+bonus)
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a)+len(b))
	for _, w := range a {
		set[w] = true
	}
	inter := 0
	seen := make(map[string]bool, len(b))
	for _, w := range b {
		if seen[w] {
			continue
		}
		seen[w] = true
		if set[w] {
			inter++
		} else {
			set[w] = false
		}
	}
	return float64(inter) / float64(len(set))
}
