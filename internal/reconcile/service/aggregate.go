package service

import (
	"context"

	"merchant-recon/internal/reconcile/model"
)

// LocalityResolver maps coordinates to a city/region pair. Implementations
// return empty strings on failure and never error.
type LocalityResolver interface {
	Resolve(ctx context.Context, lat, lon float64) (city, region string)
}

// consumed computes, once, which records a consuming candidate touched.
func consumed(candidates []model.MatchCandidate, nLeft, nRight int) (left, right []bool) {
	left, right = make([]bool, nLeft), make([]bool, nRight)
	for _, c := range candidates {
		if c.Consumes() {
			left[c.LeftIndex] = true
			right[c.RightIndex] = true
		}
	}
	return left, right
}

// BuildReport turns candidates into the final rows: one per candidate, then
// one per left record and one per right record not consumed by a candidate
// with confidence >= model.ConsumeThreshold. When resolver is non-nil every
// record with coordinates gets corrected locality columns.
func BuildReport(ctx context.Context, left, right *model.Store, candidates []model.MatchCandidate, resolver LocalityResolver, progress func(done, total int)) (*model.Report, error) {
	usedL, usedR := consumed(candidates, left.Len(), right.Len())

	rep := &model.Report{
		Candidates: candidates,
		Rows:       make([]model.ReportRow, 0, len(candidates)+left.Len()+right.Len()),
		Geocoded:   resolver != nil,
	}
	s := &rep.Summary
	s.LeftRecords, s.RightRecords = left.Len(), right.Len()
	s.LeftWithCoords, s.RightWithCoords = left.WithCoords(), right.WithCoords()

	for _, c := range candidates {
		s.Count(c.Tier)
		rep.Rows = append(rep.Rows, model.RowFromCandidate(c, left.At(c.LeftIndex), right.At(c.RightIndex)))
	}
	for i := 0; i < left.Len(); i++ {
		if !usedL[i] {
			s.LeftUnique++
			rep.Rows = append(rep.Rows, model.UniqueRow(model.Left, left.At(i)))
		}
	}
	for i := 0; i < right.Len(); i++ {
		if !usedR[i] {
			s.RightUnique++
			rep.Rows = append(rep.Rows, model.UniqueRow(model.Right, right.At(i)))
		}
	}

	if resolver == nil {
		return rep, nil
	}
	for i := range rep.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := &rep.Rows[i]
		row.LeftCorrected = locate(ctx, resolver, row.Left)
		row.RightCorrected = locate(ctx, resolver, row.Right)
		if progress != nil {
			progress(i+1, len(rep.Rows))
		}
	}
	return rep, nil
}

// locate returns an empty, non-nil locality for a missing side so that the
// corrected columns are always present in geocoded reports.
func locate(ctx context.Context, resolver LocalityResolver, rec *model.MerchantRecord) *model.Locality {
	loc := &model.Locality{}
	if rec == nil || !rec.HasCoords {
		return loc
	}
	loc.City, loc.Region = resolver.Resolve(ctx, rec.Latitude, rec.Longitude)
	return loc
}
