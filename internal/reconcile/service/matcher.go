package service

import (
	"fmt"
	"sort"

	"merchant-recon/internal/reconcile/model"
)

// pairScorer evaluates one left/right pair with the run's options. Both
// passes share it.
type pairScorer struct {
	opts  model.Options
	names *NameScorer
}

// evaluate returns the candidate for (l, r) at distance d, or false when a
// name or confidence threshold rejects it.
func (p *pairScorer) evaluate(li, ri int, l, r model.MerchantRecord, d float64) (model.MatchCandidate, bool) {
	o := p.opts

	nameSim := 0.0
	if !o.IgnoreName {
		nameSim = p.names.Similarity(l.Name, r.Name)
		if nameSim < o.MinNameSimilarity {
			return model.MatchCandidate{}, false
		}
	}

	streetSim := 0.0
	if o.StreetEnabled() {
		streetSim = StreetAddressSimilarity(l.Address1, r.Address1)
	}

	cityMatch := !o.IgnoreCity && CitiesMatch(l.City, r.City)
	stateMatch := !o.IgnoreState && StatesMatch(l.State, r.State)
	zipMatch := !o.IgnoreZip && ZipCodesMatch(l.Zip, r.Zip)

	conf := Score(Signals{
		DistanceMiles: d,
		NameSim:       nameSim,
		StreetSim:     streetSim,
		CityMatch:     cityMatch,
		StateMatch:    stateMatch,
		ZipMatch:      zipMatch,
		IgnoreName:    o.IgnoreName,
		IgnoreCity:    o.IgnoreCity,
		IgnoreState:   o.IgnoreState,
		IgnoreZip:     o.IgnoreZip,
	})
	if conf < o.MinConfidence {
		return model.MatchCandidate{}, false
	}

	c := model.MatchCandidate{
		LeftIndex:         li,
		RightIndex:        ri,
		DistanceMiles:     d,
		NameSimilarity:    nameSim,
		AddressSimilarity: streetSim,
		Confidence:        conf,
		Tier:              model.TierFor(conf),
		CityMatch:         cityMatch,
		StateMatch:        stateMatch,
		ZipMatch:          zipMatch,
	}
	if !o.IgnoreState && !stateMatch && l.State != "" && r.State != "" {
		c.GeographicWarning = model.WarningDifferentStates
	}
	return c, true
}

// truncationMatcher is the primary pass: records whose truncated coordinates
// share a cell are candidates, subject to the true distance.
type truncationMatcher struct {
	pairScorer
	left, right *model.Store
	index       *cellIndex
	reason      string
}

func newTruncationMatcher(opts model.Options, names *NameScorer, left, right *model.Store) *truncationMatcher {
	return &truncationMatcher{
		pairScorer: pairScorer{opts: opts, names: names},
		left:       left,
		right:      right,
		index:      buildCellIndex(right, opts.CoordinatePrecision),
		reason:     fmt.Sprintf("truncated_coordinates_%ddp", opts.CoordinatePrecision),
	}
}

// match returns every accepted candidate for left record li. Several
// candidates may share a record; the aggregator deals with that.
func (m *truncationMatcher) match(li int) []model.MatchCandidate {
	l := m.left.At(li)
	if !l.HasCoords {
		return nil
	}
	var out []model.MatchCandidate
	for _, ri := range m.index.lookup(l.Latitude, l.Longitude) {
		r := m.right.At(ri)
		d := Haversine(l.Latitude, l.Longitude, r.Latitude, r.Longitude)
		if d > m.opts.MaxDistanceMiles {
			continue
		}
		c, ok := m.evaluate(li, ri, l, r, d)
		if !ok {
			continue
		}
		c.Reasons = []string{model.ReasonCoordinateExact, m.reason}
		out = append(out, c)
	}
	return out
}

// proximityMatcher is the fallback pass over records the primary pass left
// unmatched: bounding-box prefilter, then exact distance.
type proximityMatcher struct {
	pairScorer
	left, right *model.Store
	pool        *latIndex
}

func newProximityMatcher(opts model.Options, names *NameScorer, left, right *model.Store, rightUnmatched func(int) bool) *proximityMatcher {
	return &proximityMatcher{
		pairScorer: pairScorer{opts: opts, names: names},
		left:       left,
		right:      right,
		pool:       buildLatIndex(right, rightUnmatched),
	}
}

// match returns the candidates for left record li sorted by descending
// confidence; only the best one unless all potential matches are requested.
func (m *proximityMatcher) match(li int) []model.MatchCandidate {
	l := m.left.At(li)
	if !l.HasCoords {
		return nil
	}
	box := BoundingBoxFor(l.Latitude, l.Longitude, m.opts.MaxDistanceMiles)

	var out []model.MatchCandidate
	for _, e := range m.pool.within(box) {
		d := Haversine(l.Latitude, l.Longitude, e.lat, e.lon)
		if d > m.opts.MaxDistanceMiles {
			continue
		}
		c, ok := m.evaluate(li, e.index, l, m.right.At(e.index), d)
		if !ok {
			continue
		}
		c.Reasons = []string{model.ReasonProximity, fmt.Sprintf("distance_%.3fmi", d)}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Confidence > out[b].Confidence })
	if !m.opts.ShowAllPotentialMatches {
		out = out[:1]
	}
	return out
}
