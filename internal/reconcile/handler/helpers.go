package handler

import (
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"merchant-recon/internal/reconcile/model"
)

func toBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

func toFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// formValue returns the first non-empty value among keys.
func formValue(r *http.Request, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.FormValue(k)); v != "" {
			return v
		}
	}
	return ""
}

func formFile(r *http.Request, keys ...string) (multipart.File, *multipart.FileHeader, error) {
	var err error
	for _, k := range keys {
		var f multipart.File
		var h *multipart.FileHeader
		if f, h, err = r.FormFile(k); err == nil {
			return f, h, nil
		}
	}
	return nil, nil, err
}

// optionsForm overrides base with whatever matching fields the form carries.
// Present but unparseable values are configuration errors, not defaults.
func optionsForm(r *http.Request, base model.Options) (model.Options, error) {
	o := base
	floats := []struct {
		key string
		dst *float64
	}{
		{"max_distance_miles", &o.MaxDistanceMiles},
		{"min_name_similarity", &o.MinNameSimilarity},
		{"min_confidence", &o.MinConfidence},
	}
	for _, f := range floats {
		s := r.FormValue(f.key)
		if s == "" {
			continue
		}
		v, ok := toFloat(s)
		if !ok {
			return o, &model.ValidationError{Field: f.key, Value: s, Message: "not a number"}
		}
		*f.dst = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"coordinate_precision", &o.CoordinatePrecision},
		{"workers", &o.Workers},
	}
	for _, f := range ints {
		s := r.FormValue(f.key)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return o, &model.ValidationError{Field: f.key, Value: s, Message: "not an integer"}
		}
		*f.dst = v
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"ignore_city", &o.IgnoreCity},
		{"ignore_state", &o.IgnoreState},
		{"ignore_zip", &o.IgnoreZip},
		{"ignore_name", &o.IgnoreName},
		{"include_address", &o.IncludeAddress},
		{"show_all_potential_matches", &o.ShowAllPotentialMatches},
		{"enable_reverse_geocoding", &o.EnableReverseGeocoding},
	}
	for _, f := range bools {
		s := r.FormValue(f.key)
		if s == "" {
			continue
		}
		v, ok := toBool(s)
		if !ok {
			return o, &model.ValidationError{Field: f.key, Value: s, Message: "not a boolean"}
		}
		*f.dst = v
	}
	return o, o.Validate()
}

// mappingForm reads column overrides named <prefix>_<field>, e.g. left_lat.
// alias is the legacy a/b prefix. A header row that is not a positive
// integer is rejected rather than defaulted.
func mappingForm(r *http.Request, prefix, alias string) (model.Mapping, error) {
	m := model.DefaultMapping()
	fields := []struct {
		key string
		dst *string
	}{
		{"id", &m.IDKey},
		{"name", &m.NameKey},
		{"address", &m.AddressKey},
		{"city", &m.CityKey},
		{"state", &m.StateKey},
		{"zip", &m.ZipKey},
		{"lat", &m.LatKey},
		{"lon", &m.LonKey},
	}
	for _, f := range fields {
		if v := formValue(r, prefix+"_"+f.key, alias+"_"+f.key); v != "" {
			*f.dst = v
		}
	}
	if s := formValue(r, prefix+"_header_row", alias+"_header_row"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return m, &model.ValidationError{Field: prefix + "_header_row", Value: s, Message: "must be an integer >= 1"}
		}
		m.HeaderRow = n
	}
	return m, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}
