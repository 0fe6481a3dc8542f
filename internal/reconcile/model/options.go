package model

import (
	"math"
	"runtime"
)

// Options controls one reconciliation run.
type Options struct {
	MaxDistanceMiles        float64 `mapstructure:"max_distance_miles" json:"maxDistanceMiles"`
	MinNameSimilarity       float64 `mapstructure:"min_name_similarity" json:"minNameSimilarity"`
	MinConfidence           float64 `mapstructure:"min_confidence" json:"minConfidence"`
	CoordinatePrecision     int     `mapstructure:"coordinate_precision" json:"coordinatePrecision"`
	IgnoreCity              bool    `mapstructure:"ignore_city" json:"ignoreCity"`
	IgnoreState             bool    `mapstructure:"ignore_state" json:"ignoreState"`
	IgnoreZip               bool    `mapstructure:"ignore_zip" json:"ignoreZip"`
	IgnoreName              bool    `mapstructure:"ignore_name" json:"ignoreName"`
	IncludeAddress          bool    `mapstructure:"include_address" json:"includeAddress"`
	ShowAllPotentialMatches bool    `mapstructure:"show_all_potential_matches" json:"showAllPotentialMatches"`
	EnableReverseGeocoding  bool    `mapstructure:"enable_reverse_geocoding" json:"enableReverseGeocoding"`

	Workers       int `mapstructure:"workers" json:"workers"`
	ProgressEvery int `mapstructure:"progress_every" json:"progressEvery"`
	NameCacheSize int `mapstructure:"name_cache_size" json:"nameCacheSize"`
}

func DefaultOptions() Options {
	return Options{
		MaxDistanceMiles:        2.0,
		MinNameSimilarity:       0.6,
		MinConfidence:           0.5,
		CoordinatePrecision:     4,
		IncludeAddress:          true,
		ShowAllPotentialMatches: true,
		Workers:                 runtime.NumCPU(),
		ProgressEvery:           200,
		NameCacheSize:           50000,
	}
}

// UsingStreet is true when any geographic attribute is ignored; street
// similarity then stands in for the missing geography.
func (o Options) UsingStreet() bool {
	return o.IgnoreCity || o.IgnoreState || o.IgnoreZip
}

// StreetEnabled reports whether street similarity is computed at all.
func (o Options) StreetEnabled() bool {
	return o.IncludeAddress && o.UsingStreet()
}

// Validate rejects options that would make a run meaningless. It must pass
// before any matching starts.
func (o Options) Validate() error {
	if math.IsNaN(o.MaxDistanceMiles) || math.IsInf(o.MaxDistanceMiles, 0) || o.MaxDistanceMiles <= 0 {
		return &ValidationError{Field: "maxDistanceMiles", Value: o.MaxDistanceMiles, Message: "must be > 0"}
	}
	if !unit(o.MinNameSimilarity) {
		return &ValidationError{Field: "minNameSimilarity", Value: o.MinNameSimilarity, Message: "must be in [0,1]"}
	}
	if !unit(o.MinConfidence) {
		return &ValidationError{Field: "minConfidence", Value: o.MinConfidence, Message: "must be in [0,1]"}
	}
	if o.CoordinatePrecision < 0 || o.CoordinatePrecision > 10 {
		return &ValidationError{Field: "coordinatePrecision", Value: o.CoordinatePrecision, Message: "must be in [0,10]"}
	}
	if o.Workers < 1 {
		return &ValidationError{Field: "workers", Value: o.Workers, Message: "must be >= 1"}
	}
	if o.ProgressEvery < 1 {
		return &ValidationError{Field: "progressEvery", Value: o.ProgressEvery, Message: "must be >= 1"}
	}
	if o.NameCacheSize < 0 {
		return &ValidationError{Field: "nameCacheSize", Value: o.NameCacheSize, Message: "must be >= 0"}
	}
	return nil
}

func unit(v float64) bool { return !math.IsNaN(v) && v >= 0 && v <= 1 }
