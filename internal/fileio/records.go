package fileio

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"merchant-recon/internal/reconcile/model"
	"merchant-recon/internal/utils"
)

var rxHeaderJunk = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normHeaderKey lowercases a column name and folds punctuation to spaces.
func normHeaderKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ").Replace(s)
	s = rxHeaderJunk.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey finds the header matching want, which may list alternatives
// separated by "|" in order of preference. Exact names win over normalized
// ones; no substring guessing is done for short names like "lat".
func resolveKey(headers []string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	// 1) exact
	for _, a := range alts {
		for _, h := range headers {
			if h == a {
				return h
			}
		}
	}

	// 2) normalized: "Zip Code" == "zip_code"
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = normHeaderKey(h)
	}
	for _, a := range alts {
		na := normHeaderKey(a)
		for i, nh := range norm {
			if nh == na {
				return headers[i]
			}
		}
	}

	// 3) compound headers: "Merchant Name (DBA)" contains "merchant name"
	best, bestScore := "", 0
	for _, a := range alts {
		na := normHeaderKey(a)
		if len(na) < 4 {
			continue
		}
		for i, nh := range norm {
			if strings.Contains(nh, na) && len(na) > bestScore {
				best, bestScore = headers[i], len(na)
			}
		}
	}
	return best
}

// columns is a Mapping resolved against one table's headers.
type columns struct {
	id, name, address, city, state, zip, lat, lon string
}

func resolveColumns(headers []string, m model.Mapping) (columns, error) {
	c := columns{
		id:      resolveKey(headers, m.IDKey),
		name:    resolveKey(headers, m.NameKey),
		address: resolveKey(headers, m.AddressKey),
		city:    resolveKey(headers, m.CityKey),
		state:   resolveKey(headers, m.StateKey),
		zip:     resolveKey(headers, m.ZipKey),
		lat:     resolveKey(headers, m.LatKey),
		lon:     resolveKey(headers, m.LonKey),
	}
	if c.name == "" {
		return c, fmt.Errorf("%w: no name column (%s) in %v", model.ErrMalformedDataset, m.NameKey, headers)
	}
	if c.lat == "" || c.lon == "" {
		return c, fmt.Errorf("%w: need %s and %s in %v", model.ErrNoCoordinates, m.LatKey, m.LonKey, headers)
	}
	return c, nil
}

// looksLikeHeaderRow catches header lines repeated inside concatenated exports.
func looksLikeHeaderRow(rec map[string]string, c columns) bool {
	return strings.EqualFold(strings.TrimSpace(rec[c.name]), c.name) &&
		strings.EqualFold(strings.TrimSpace(rec[c.lat]), c.lat)
}

// ToRecords maps table rows onto merchant records. Rows with missing or bad
// coordinates are kept without them so they still reach the report as unique.
func ToRecords(t *Table, m model.Mapping) ([]model.MerchantRecord, error) {
	c, err := resolveColumns(t.Headers, m)
	if err != nil {
		return nil, err
	}

	out := make([]model.MerchantRecord, 0, len(t.Rows))
	for i, rec := range t.Rows {
		if looksLikeHeaderRow(rec, c) {
			continue
		}
		get := func(k string) string {
			if k == "" {
				return ""
			}
			return strings.TrimSpace(rec[k])
		}

		lat, okLat := utils.ParseFloat(rec[c.lat])
		lon, okLon := utils.ParseFloat(rec[c.lon])
		r := model.MerchantRecord{
			SourceRowID: get(c.id),
			Name:        get(c.name),
			Address1:    get(c.address),
			City:        get(c.city),
			State:       get(c.state),
			Zip:         get(c.zip),
			Latitude:    lat,
			Longitude:   lon,
			HasCoords:   okLat && okLon,
		}
		if r.SourceRowID == "" {
			r.SourceRowID = strconv.Itoa(i + 1)
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadStore reads one catalog file into a Store for the given side.
func LoadStore(r io.Reader, filename string, side model.Side, m model.Mapping) (*model.Store, error) {
	t, err := ReadTable(r, filename, m.HeaderRow)
	if err != nil {
		return nil, err
	}
	recs, err := ToRecords(t, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return model.NewStore(side, recs), nil
}
