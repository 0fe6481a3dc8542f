package model

import (
	"fmt"
	"strings"
)

// Tier buckets a candidate's confidence for reporting.
type Tier int

const (
	TierPotential Tier = iota
	TierLow
	TierMedium
	TierHigh
)

// Confidence boundaries between tiers.
const (
	HighThreshold   = 0.90
	MediumThreshold = 0.70
	LowThreshold    = 0.50

	// ConsumeThreshold marks both records of a candidate as matched. It is
	// independent of Options.MinConfidence.
	ConsumeThreshold = 0.50
)

func TierFor(confidence float64) Tier {
	switch {
	case confidence >= HighThreshold:
		return TierHigh
	case confidence >= MediumThreshold:
		return TierMedium
	case confidence >= LowThreshold:
		return TierLow
	default:
		return TierPotential
	}
}

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "HIGH"
	case TierMedium:
		return "MEDIUM"
	case TierLow:
		return "LOW"
	default:
		return "POTENTIAL"
	}
}

// Label is the match_type written to reports.
func (t Tier) Label() string {
	if t == TierPotential {
		return "POTENTIAL_MATCH"
	}
	return t.String() + "_CONFIDENCE_DUPLICATE"
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tier) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "HIGH":
		*t = TierHigh
	case "MEDIUM":
		*t = TierMedium
	case "LOW":
		*t = TierLow
	case "POTENTIAL":
		*t = TierPotential
	default:
		return fmt.Errorf("unknown tier %q", b)
	}
	return nil
}

// Reason tags attached to candidates.
const (
	ReasonCoordinateExact = "COORDINATE_EXACT"
	ReasonProximity       = "COORDINATE_PROXIMITY"
)

// WarningDifferentStates flags a pair whose states are not equivalent.
const WarningDifferentStates = "different_states"

// MatchCandidate pairs one left and one right record. Values are never
// changed after the matcher that produced them returns.
type MatchCandidate struct {
	LeftIndex         int      `json:"leftIndex"`
	RightIndex        int      `json:"rightIndex"`
	DistanceMiles     float64  `json:"distanceMiles"`
	NameSimilarity    float64  `json:"nameSimilarity"`
	AddressSimilarity float64  `json:"addressSimilarity"`
	Confidence        float64  `json:"confidence"`
	Tier              Tier     `json:"tier"`
	CityMatch         bool     `json:"cityMatch"`
	StateMatch        bool     `json:"stateMatch"`
	ZipMatch          bool     `json:"zipMatch"`
	GeographicWarning string   `json:"geographicWarning,omitempty"`
	Reasons           []string `json:"reasons"`
}

// Consumes reports whether the candidate removes its records from the unique pools.
func (c MatchCandidate) Consumes() bool { return c.Confidence >= ConsumeThreshold }

// MatchType is the tier label plus the cross-region annotation, if flagged.
func (c MatchCandidate) MatchType() string {
	label := c.Tier.Label()
	if c.GeographicWarning == WarningDifferentStates {
		label += "_GEOGRAPHIC_WARNING"
	}
	return label
}
