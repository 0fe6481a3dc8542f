package model

import (
	"strings"
	"time"
)

// Row kinds.
const (
	KindMatch       = "MATCH"
	KindLeftUnique  = "LEFT_UNIQUE"
	KindRightUnique = "RIGHT_UNIQUE"
)

// Locality is a reverse-geocoded city/region pair; both may be empty.
type Locality struct {
	City   string `json:"city"`
	Region string `json:"region"`
}

// ReportRow is one line of the final report. Exactly one of Left/Right is nil
// for unique rows.
type ReportRow struct {
	Kind              string          `json:"kind"`
	MatchType         string          `json:"matchType"`
	Confidence        float64         `json:"confidence"`
	Left              *MerchantRecord `json:"left,omitempty"`
	Right             *MerchantRecord `json:"right,omitempty"`
	DistanceMiles     float64         `json:"distanceMiles"`
	NameSimilarity    float64         `json:"nameSimilarity"`
	AddressSimilarity float64         `json:"addressSimilarity"`
	CityMatch         bool            `json:"cityMatch"`
	StateMatch        bool            `json:"stateMatch"`
	ZipMatch          bool            `json:"zipMatch"`
	Reasons           string          `json:"reasons"`
	GeographicWarning string          `json:"geographicWarning,omitempty"`
	LeftCorrected     *Locality       `json:"leftCorrected,omitempty"`
	RightCorrected    *Locality       `json:"rightCorrected,omitempty"`
}

// RowFromCandidate copies the candidate's signals and both records into a row.
func RowFromCandidate(c MatchCandidate, left, right MerchantRecord) ReportRow {
	return ReportRow{
		Kind:              KindMatch,
		MatchType:         c.MatchType(),
		Confidence:        c.Confidence,
		Left:              &left,
		Right:             &right,
		DistanceMiles:     c.DistanceMiles,
		NameSimilarity:    c.NameSimilarity,
		AddressSimilarity: c.AddressSimilarity,
		CityMatch:         c.CityMatch,
		StateMatch:        c.StateMatch,
		ZipMatch:          c.ZipMatch,
		Reasons:           strings.Join(c.Reasons, ", "),
		GeographicWarning: c.GeographicWarning,
	}
}

// UniqueRow builds a row for a record that no consuming candidate touched.
func UniqueRow(side Side, rec MerchantRecord) ReportRow {
	row := ReportRow{Kind: KindLeftUnique, MatchType: KindLeftUnique}
	if side == Right {
		row.Kind, row.MatchType = KindRightUnique, KindRightUnique
		row.Right = &rec
		return row
	}
	row.Left = &rec
	return row
}

// Summary is the per-run breakdown logged and returned with a report.
type Summary struct {
	LeftRecords         int           `json:"leftRecords"`
	RightRecords        int           `json:"rightRecords"`
	LeftWithCoords      int           `json:"leftWithCoords"`
	RightWithCoords     int           `json:"rightWithCoords"`
	PrimaryCandidates   int           `json:"primaryCandidates"`
	ProximityCandidates int           `json:"proximityCandidates"`
	High                int           `json:"high"`
	Medium              int           `json:"medium"`
	Low                 int           `json:"low"`
	Potential           int           `json:"potential"`
	LeftUnique          int           `json:"leftUnique"`
	RightUnique         int           `json:"rightUnique"`
	Elapsed             time.Duration `json:"elapsed"`
}

// Count adds one candidate to the tier counters.
func (s *Summary) Count(t Tier) {
	switch t {
	case TierHigh:
		s.High++
	case TierMedium:
		s.Medium++
	case TierLow:
		s.Low++
	default:
		s.Potential++
	}
}

// Report is the write-once output of a run.
type Report struct {
	RunID      string           `json:"runId"`
	Options    Options          `json:"options"`
	Geocoded   bool             `json:"geocoded"`
	Candidates []MatchCandidate `json:"candidates"`
	Rows       []ReportRow      `json:"rows"`
	Summary    Summary          `json:"summary"`
}
