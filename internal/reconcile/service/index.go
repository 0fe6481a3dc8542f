package service

import (
	"sort"

	"merchant-recon/internal/reconcile/model"
)

// cellIndex buckets right-side records by truncated coordinates.
type cellIndex struct {
	precision int
	cells     map[cell][]int
}

func buildCellIndex(store *model.Store, precision int) *cellIndex {
	idx := &cellIndex{precision: precision, cells: make(map[cell][]int)}
	for i := 0; i < store.Len(); i++ {
		r := store.At(i)
		if !r.HasCoords {
			continue
		}
		k := cellOf(r.Latitude, r.Longitude, precision)
		idx.cells[k] = append(idx.cells[k], i) // ascending: built in index order
	}
	return idx
}

// lookup returns every right index sharing the cell of (lat, lon).
func (idx *cellIndex) lookup(lat, lon float64) []int {
	return idx.cells[cellOf(lat, lon, idx.precision)]
}

type latEntry struct {
	lat, lon float64
	index    int
}

// latIndex holds a subset of right records sorted by latitude so a bounding
// box query only scans its latitude band.
type latIndex struct {
	entries []latEntry
}

func buildLatIndex(store *model.Store, include func(i int) bool) *latIndex {
	idx := &latIndex{}
	for i := 0; i < store.Len(); i++ {
		r := store.At(i)
		if !r.HasCoords || !include(i) {
			continue
		}
		idx.entries = append(idx.entries, latEntry{lat: r.Latitude, lon: r.Longitude, index: i})
	}
	sort.Slice(idx.entries, func(a, b int) bool {
		ea, eb := idx.entries[a], idx.entries[b]
		if ea.lat != eb.lat {
			return ea.lat < eb.lat
		}
		return ea.index < eb.index
	})
	return idx
}

func (idx *latIndex) Len() int { return len(idx.entries) }

// within returns the entries inside box, ordered by right index.
func (idx *latIndex) within(box BoundingBox) []latEntry {
	lo := sort.Search(len(idx.entries), func(i int) bool { return idx.entries[i].lat >= box.MinLat })
	var out []latEntry
	for i := lo; i < len(idx.entries) && idx.entries[i].lat <= box.MaxLat; i++ {
		e := idx.entries[i]
		if box.Contains(e.lat, e.lon) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].index < out[b].index })
	return out
}
