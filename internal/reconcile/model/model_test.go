package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	in := []MerchantRecord{
		{SourceRowID: "1", Latitude: 32.7, Longitude: -96.8, HasCoords: true},
		{SourceRowID: "2", Latitude: 95, Longitude: 10, HasCoords: true},
		{SourceRowID: "3", Latitude: math.NaN(), Longitude: 10, HasCoords: true},
		{SourceRowID: "4"},
	}
	s := NewStore(Right, in)
	in[0].Name = "mutated"

	assert.Equal(t, Right, s.Side())
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 1, s.WithCoords())
	assert.Empty(t, s.At(0).Name)

	bad := s.At(1)
	assert.False(t, bad.HasCoords)
	assert.Zero(t, bad.Latitude)
	assert.False(t, s.At(2).HasCoords)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(0, 0))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(-90.1, 0))
	assert.False(t, ValidCoordinates(0, math.Inf(1)))
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	tests := []struct {
		field  string
		mutate func(*Options)
	}{
		{"maxDistanceMiles", func(o *Options) { o.MaxDistanceMiles = -1 }},
		{"minNameSimilarity", func(o *Options) { o.MinNameSimilarity = 1.5 }},
		{"minConfidence", func(o *Options) { o.MinConfidence = math.NaN() }},
		{"coordinatePrecision", func(o *Options) { o.CoordinatePrecision = 11 }},
		{"workers", func(o *Options) { o.Workers = 0 }},
		{"progressEvery", func(o *Options) { o.ProgressEvery = 0 }},
		{"nameCacheSize", func(o *Options) { o.NameCacheSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			err := o.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestStreetEnabled(t *testing.T) {
	o := DefaultOptions()
	assert.False(t, o.StreetEnabled())
	o.IgnoreZip = true
	assert.True(t, o.StreetEnabled())
	o.IncludeAddress = false
	assert.False(t, o.StreetEnabled())
}

func TestTier(t *testing.T) {
	assert.Equal(t, TierHigh, TierFor(0.9))
	assert.Equal(t, TierMedium, TierFor(0.89))
	assert.Equal(t, TierLow, TierFor(0.5))
	assert.Equal(t, TierPotential, TierFor(0.49))

	assert.Equal(t, "MEDIUM_CONFIDENCE_DUPLICATE", TierMedium.Label())
	assert.Equal(t, "POTENTIAL_MATCH", TierPotential.Label())

	b, err := json.Marshal(MatchCandidate{Tier: TierLow})
	require.NoError(t, err)
	var c MatchCandidate
	require.NoError(t, json.Unmarshal(b, &c))
	assert.Equal(t, TierLow, c.Tier)

	var bad Tier
	assert.Error(t, bad.UnmarshalText([]byte("great")))
}

func TestMatchType(t *testing.T) {
	c := MatchCandidate{Confidence: 0.95, Tier: TierHigh}
	assert.Equal(t, "HIGH_CONFIDENCE_DUPLICATE", c.MatchType())
	assert.True(t, c.Consumes())

	c.GeographicWarning = WarningDifferentStates
	assert.Equal(t, "HIGH_CONFIDENCE_DUPLICATE_GEOGRAPHIC_WARNING", c.MatchType())

	assert.False(t, MatchCandidate{Confidence: 0.49}.Consumes())
}

func TestRows(t *testing.T) {
	l := MerchantRecord{SourceRowID: "L"}
	r := MerchantRecord{SourceRowID: "R"}
	row := RowFromCandidate(MatchCandidate{Tier: TierLow, Reasons: []string{"a", "b"}}, l, r)
	assert.Equal(t, KindMatch, row.Kind)
	assert.Equal(t, "a, b", row.Reasons)
	assert.Equal(t, "L", row.Left.SourceRowID)

	u := UniqueRow(Right, r)
	assert.Equal(t, KindRightUnique, u.Kind)
	assert.Nil(t, u.Left)
	assert.Equal(t, "R", u.Right.SourceRowID)
}
